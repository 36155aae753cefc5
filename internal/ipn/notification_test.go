package ipn

import "testing"

func TestParseNotification(t *testing.T) {
	t.Run("full payload", func(t *testing.T) {
		body := []byte(`{
			"payment_id": 4945313,
			"payment_status": "finished",
			"pay_currency": "usdttrc20",
			"pay_amount": 279,
			"actually_paid": 278.5,
			"order_id": "9c27e8a1-3f34-4f0e-8f71-8f1f0a8e1a11"
		}`)
		n, err := ParseNotification(body)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n.PaymentID != "4945313" {
			t.Errorf("PaymentID = %q, want 4945313", n.PaymentID)
		}
		if n.Status != "finished" {
			t.Errorf("Status = %q, want finished", n.Status)
		}
		if n.ActuallyPaid != 278.5 {
			t.Errorf("ActuallyPaid = %v, want 278.5", n.ActuallyPaid)
		}
		if n.PayAmount != 279 {
			t.Errorf("PayAmount = %v, want 279", n.PayAmount)
		}
		if n.OrderID != "9c27e8a1-3f34-4f0e-8f71-8f1f0a8e1a11" {
			t.Errorf("OrderID = %q", n.OrderID)
		}
	})

	t.Run("actually_paid falls back to pay_amount", func(t *testing.T) {
		n, err := ParseNotification([]byte(`{"order_id":"a","payment_status":"finished","pay_amount":100}`))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n.ActuallyPaid != 100 {
			t.Errorf("ActuallyPaid = %v, want fallback to pay_amount 100", n.ActuallyPaid)
		}
	})

	t.Run("missing amounts default to zero", func(t *testing.T) {
		n, err := ParseNotification([]byte(`{"order_id":"a","payment_status":"waiting"}`))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n.ActuallyPaid != 0 || n.PayAmount != 0 {
			t.Errorf("amounts = %v / %v, want 0 / 0", n.ActuallyPaid, n.PayAmount)
		}
	})

	t.Run("missing status treated as empty", func(t *testing.T) {
		n, err := ParseNotification([]byte(`{"order_id":"a"}`))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n.Status != "" {
			t.Errorf("Status = %q, want empty", n.Status)
		}
	})

	t.Run("numbers as strings accepted", func(t *testing.T) {
		n, err := ParseNotification([]byte(`{"order_id":"a","payment_id":"123","actually_paid":"99.5","pay_amount":"100"}`))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n.PaymentID != "123" {
			t.Errorf("PaymentID = %q, want 123", n.PaymentID)
		}
		if n.ActuallyPaid != 99.5 || n.PayAmount != 100 {
			t.Errorf("amounts = %v / %v, want 99.5 / 100", n.ActuallyPaid, n.PayAmount)
		}
	})

	t.Run("malformed body is a distinct error", func(t *testing.T) {
		if _, err := ParseNotification([]byte(`{"order_id":`)); err == nil {
			t.Fatal("expected error for malformed JSON")
		}
	})
}
