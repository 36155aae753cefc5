package ipn

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"testing"
)

func signBody(t *testing.T, body []byte, secret string) string {
	t.Helper()
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignature(t *testing.T) {
	secret := "ipn-secret"
	body := []byte(`{"order_id":"abc","payment_status":"finished","pay_amount":100}`)
	sig := signBody(t, body, secret)

	t.Run("valid signature passes", func(t *testing.T) {
		if !VerifySignature(body, sig, secret) {
			t.Fatal("expected valid signature to pass")
		}
	})

	t.Run("tampered body fails", func(t *testing.T) {
		tampered := []byte(`{"order_id":"abc","payment_status":"finished","pay_amount":999}`)
		if VerifySignature(tampered, sig, secret) {
			t.Fatal("expected tampered body to fail")
		}
	})

	t.Run("reserialized body fails", func(t *testing.T) {
		// Same JSON value, different bytes: whitespace and key order changed.
		reserialized := []byte(`{"pay_amount": 100, "payment_status": "finished", "order_id": "abc"}`)
		if VerifySignature(reserialized, sig, secret) {
			t.Fatal("signature must be bound to the exact wire bytes")
		}
	})

	t.Run("missing signature fails closed", func(t *testing.T) {
		if VerifySignature(body, "", secret) {
			t.Fatal("expected missing signature to fail")
		}
	})

	t.Run("missing secret fails closed", func(t *testing.T) {
		if VerifySignature(body, sig, "") {
			t.Fatal("expected missing secret to fail")
		}
	})

	t.Run("non-hex signature fails", func(t *testing.T) {
		if VerifySignature(body, "not-a-hex-string", secret) {
			t.Fatal("expected undecodable signature to fail")
		}
	})

	t.Run("truncated signature fails", func(t *testing.T) {
		if VerifySignature(body, sig[:32], secret) {
			t.Fatal("expected length mismatch to fail")
		}
	})

	t.Run("wrong secret fails", func(t *testing.T) {
		if VerifySignature(body, sig, "another-secret") {
			t.Fatal("expected wrong secret to fail")
		}
	})
}
