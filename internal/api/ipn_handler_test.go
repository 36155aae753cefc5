package api

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha512"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/etseroraynaud-ui/Shadowmarketpro/internal/config"
	"github.com/etseroraynaud-ui/Shadowmarketpro/internal/constants"
	"github.com/etseroraynaud-ui/Shadowmarketpro/internal/db"
	"github.com/etseroraynaud-ui/Shadowmarketpro/internal/ipn"
	"github.com/etseroraynaud-ui/Shadowmarketpro/internal/models"
)

const testIPNSecret = "test-ipn-secret"

type memStore struct {
	orders      map[string]*models.Order
	commissions []models.Commission
	reads       int
	writes      int
}

func (s *memStore) GetByOrderID(orderID string) (models.Order, error) {
	s.reads++
	o, ok := s.orders[orderID]
	if !ok {
		return models.Order{}, db.ErrOrderNotFound
	}
	return *o, nil
}

func (s *memStore) RefreshPaymentInfo(orderID, paymentID, processorStatus string, amountPaid float64) error {
	s.writes++
	o := s.orders[orderID]
	o.ProcessorStatus = processorStatus
	o.AmountPaid = amountPaid
	return nil
}

func (s *memStore) TransitionState(orderID, newState string) (bool, error) {
	s.writes++
	o := s.orders[orderID]
	if o.PaymentState != constants.PAYMENT_STATE_PENDING {
		return false, nil
	}
	o.PaymentState = newState
	return true, nil
}

func (s *memStore) MarkConfirmationSent(orderID string) error {
	s.writes++
	s.orders[orderID].ConfirmationSent = true
	return nil
}

func (s *memStore) MarkCommissionGenerated(orderID string) error {
	s.writes++
	s.orders[orderID].CommissionGenerated = true
	return nil
}

func (s *memStore) Create(c models.Commission) (int64, error) {
	s.writes++
	s.commissions = append(s.commissions, c)
	return int64(len(s.commissions)), nil
}

func newTestDeps(store *memStore) *ApiDependencies {
	return &ApiDependencies{
		Config: &config.Config{NowPaymentsIPNSecret: testIPNSecret},
		Reconciler: &ipn.Reconciler{
			Orders:             store,
			Commissions:        store,
			AcceptedCurrencies: []string{"usdttrc20"},
			Tolerance:          0.97,
		},
	}
}

func sign(body []byte) string {
	mac := hmac.New(sha512.New, []byte(testIPNSecret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func postIPN(t *testing.T, deps *ApiDependencies, body []byte, sig string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/nowpayments/ipn", bytes.NewReader(body))
	if sig != "" {
		req.Header.Set("x-nowpayments-sig", sig)
	}
	rec := httptest.NewRecorder()
	deps.HandleIPN(rec, req)
	return rec
}

func TestHandleIPN(t *testing.T) {
	newOrder := func() *models.Order {
		return &models.Order{
			OrderID:           "ord-42",
			Plan:              "monthly",
			Currency:          "usd",
			AmountExpected:    99,
			PaymentState:      constants.PAYMENT_STATE_PENDING,
			InfluencerWallet:  sql.NullString{String: "TWallet", Valid: true},
			CommissionPercent: sql.NullFloat64{Float64: 0.15, Valid: true},
		}
	}
	validBody := []byte(`{"order_id":"ord-42","payment_status":"finished","pay_currency":"usdttrc20","pay_amount":99,"actually_paid":99}`)

	t.Run("invalid signature rejected with zero store access", func(t *testing.T) {
		store := &memStore{orders: map[string]*models.Order{"ord-42": newOrder()}}
		deps := newTestDeps(store)

		rec := postIPN(t, deps, validBody, "deadbeef")
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", rec.Code)
		}
		if store.reads != 0 || store.writes != 0 {
			t.Fatalf("store accessed on bad signature: %d reads %d writes", store.reads, store.writes)
		}
	})

	t.Run("missing signature rejected", func(t *testing.T) {
		store := &memStore{orders: map[string]*models.Order{"ord-42": newOrder()}}
		deps := newTestDeps(store)

		rec := postIPN(t, deps, validBody, "")
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", rec.Code)
		}
		if store.writes != 0 {
			t.Fatalf("store written on missing signature: %d writes", store.writes)
		}
	})

	t.Run("malformed body rejected as 400", func(t *testing.T) {
		store := &memStore{orders: map[string]*models.Order{}}
		deps := newTestDeps(store)

		body := []byte(`{"order_id":`)
		rec := postIPN(t, deps, body, sign(body))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("valid terminal success is processed", func(t *testing.T) {
		store := &memStore{orders: map[string]*models.Order{"ord-42": newOrder()}}
		deps := newTestDeps(store)

		rec := postIPN(t, deps, validBody, sign(validBody))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200, body: %s", rec.Code, rec.Body.String())
		}

		var ack struct {
			OK     bool   `json:"ok"`
			Result string `json:"result"`
			State  string `json:"state"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &ack); err != nil {
			t.Fatalf("invalid ack JSON: %v", err)
		}
		if !ack.OK || ack.Result != ipn.ResultProcessed || ack.State != constants.PAYMENT_STATE_CONFIRMED {
			t.Fatalf("ack = %+v", ack)
		}
		if len(store.commissions) != 1 {
			t.Fatalf("commissions = %d, want 1", len(store.commissions))
		}
		if store.commissions[0].AmountUSD != 14.85 {
			t.Errorf("commission = %v, want 14.85 (99 * 0.15)", store.commissions[0].AmountUSD)
		}
	})

	t.Run("replayed delivery acknowledged as duplicate", func(t *testing.T) {
		store := &memStore{orders: map[string]*models.Order{"ord-42": newOrder()}}
		deps := newTestDeps(store)

		postIPN(t, deps, validBody, sign(validBody))
		rec := postIPN(t, deps, validBody, sign(validBody))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}

		var ack struct {
			OK     bool   `json:"ok"`
			Result string `json:"result"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &ack); err != nil {
			t.Fatalf("invalid ack JSON: %v", err)
		}
		if !ack.OK || ack.Result != ipn.ResultDuplicate {
			t.Fatalf("ack = %+v", ack)
		}
		if len(store.commissions) != 1 {
			t.Fatalf("commissions after replay = %d, want 1", len(store.commissions))
		}
	})

	t.Run("unknown order acknowledged with warning", func(t *testing.T) {
		store := &memStore{orders: map[string]*models.Order{}}
		deps := newTestDeps(store)

		body := []byte(`{"order_id":"ghost","payment_status":"finished","pay_currency":"usdttrc20","pay_amount":99,"actually_paid":99}`)
		rec := postIPN(t, deps, body, sign(body))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}

		var ack struct {
			OK      bool   `json:"ok"`
			Result  string `json:"result"`
			Warning string `json:"warning"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &ack); err != nil {
			t.Fatalf("invalid ack JSON: %v", err)
		}
		if !ack.OK || ack.Result != ipn.ResultIgnored || ack.Warning != "unknown order_id" {
			t.Fatalf("ack = %+v", ack)
		}
		if store.writes != 0 {
			t.Fatalf("writes = %d, want 0", store.writes)
		}
	})
}
