package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/etseroraynaud-ui/Shadowmarketpro/internal/constants"
	"github.com/etseroraynaud-ui/Shadowmarketpro/internal/db"
	"github.com/etseroraynaud-ui/Shadowmarketpro/internal/models"
	"github.com/etseroraynaud-ui/Shadowmarketpro/internal/payments"
	"github.com/etseroraynaud-ui/Shadowmarketpro/internal/utils"
)

// jsonResponse - вспомогательная структура для стандартного ответа API
type jsonResponse struct {
	Status  string      `json:"status"` // "success" или "error"
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// --- Вспомогательные функции для JSON-ответов ---
func writeJSONError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(jsonResponse{Status: "error", Message: message})
}

func writeJSONSuccess(w http.ResponseWriter, message string, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(jsonResponse{Status: "success", Message: message, Data: data})
}

// CreatePaymentRequest - структура запроса на оформление подписки.
type CreatePaymentRequest struct {
	Plan   string `json:"plan"`
	Coupon string `json:"coupon,omitempty"`
}

// CreatePaymentResponse - данные для страницы оплаты.
type CreatePaymentResponse struct {
	OrderID     string  `json:"order_id"`
	PaymentID   string  `json:"payment_id"`
	PayAddress  string  `json:"pay_address"`
	PayAmount   float64 `json:"pay_amount"`
	PayCurrency string  `json:"pay_currency"`
	InvoiceURL  string  `json:"invoice_url,omitempty"`
}

// CreatePaymentHandler оформляет покупку: создаёт заказ в БД ДО обращения к
// процессору (order_id — ключ, по которому IPN найдёт заказ), затем создаёт
// платёж у NOWPayments и сохраняет его реквизиты.
func (deps *ApiDependencies) CreatePaymentHandler(w http.ResponseWriter, r *http.Request) {
	var request CreatePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Некорректное тело запроса")
		return
	}

	plan := request.Plan
	if plan == "" {
		plan = "monthly"
	}
	priceUSD := constants.PlanPriceUSD(plan)

	// Купон фиксирует кошелёк партнёра и долю комиссии на заказе.
	// Доля комиссии разрешается один раз, здесь, и далее читается только с заказа.
	order := models.Order{
		OrderID:        uuid.New().String(),
		Plan:           plan,
		Currency:       constants.SETTLEMENT_CURRENCY,
		AmountExpected: priceUSD,
	}

	coupon := strings.ToUpper(strings.TrimSpace(request.Coupon))
	if coupon != "" {
		order.CouponCode = sql.NullString{String: coupon, Valid: true}

		couponRow, err := db.GetActiveCouponByCode(coupon)
		if err != nil {
			writeJSONError(w, http.StatusInternalServerError, "Ошибка проверки купона")
			return
		}
		if couponRow != nil {
			order.InfluencerID = sql.NullString{String: couponRow.InfluencerID, Valid: couponRow.InfluencerID != ""}
			order.InfluencerWallet = sql.NullString{String: couponRow.InfluencerWallet, Valid: true}
			percent := couponRow.Percent
			if percent <= 0 {
				percent = deps.Config.AffiliatePercent
			}
			order.CommissionPercent = sql.NullFloat64{Float64: percent, Valid: true}
		} else if coupon == deps.Config.TestCoupon && deps.Config.AffiliateWallet != "" {
			// Fallback на тестовый купон из окружения.
			order.InfluencerWallet = sql.NullString{String: deps.Config.AffiliateWallet, Valid: true}
			order.CommissionPercent = sql.NullFloat64{Float64: deps.Config.AffiliatePercent, Valid: true}
		}
	}

	if _, err := db.CreateInitialOrder(order); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "Не удалось создать заказ")
		return
	}

	payCurrency := deps.Config.AcceptedPayCurrencies[0]
	paymentResponse, err := deps.Payments.CreatePayment(r.Context(), payments.PaymentRequest{
		PriceAmount:      priceUSD,
		PriceCurrency:    constants.SETTLEMENT_CURRENCY,
		PayCurrency:      payCurrency,
		OrderID:          order.OrderID,
		OrderDescription: "ShadowMarketPro " + plan,
		IPNCallbackURL:   deps.Config.SiteURL + "/api/nowpayments/ipn",
		SuccessURL:       deps.Config.SiteURL + "/payment?success=1&order_id=" + order.OrderID,
		CancelURL:        deps.Config.SiteURL + "/payment?canceled=1&order_id=" + order.OrderID,
	})
	if err != nil {
		if errMark := db.MarkOrderCreatePaymentFailed(order.OrderID); errMark != nil {
			log.Printf("CreatePaymentHandler: не удалось пометить заказ %s как неуспешный: %v", order.OrderID, errMark)
		}
		writeJSONError(w, http.StatusInternalServerError, "Не удалось создать платёж у процессора")
		return
	}

	if err := db.UpdateOrderPaymentDetails(order.OrderID, paymentResponse.PaymentID.String(),
		paymentResponse.PayAddress, paymentResponse.PayCurrency, paymentResponse.PayAmount); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "Не удалось сохранить данные платежа")
		return
	}

	writeJSONSuccess(w, "Платёж создан", CreatePaymentResponse{
		OrderID:     order.OrderID,
		PaymentID:   paymentResponse.PaymentID.String(),
		PayAddress:  paymentResponse.PayAddress,
		PayAmount:   paymentResponse.PayAmount,
		PayCurrency: paymentResponse.PayCurrency,
		InvoiceURL:  paymentResponse.InvoiceURL,
	})
}

// OrderStatusResponse - статус заказа для поллинга страницей оплаты.
type OrderStatusResponse struct {
	ProcessorStatus string  `json:"payment_status"`
	PaymentState    string  `json:"payment_state"`
	AmountPaid      float64 `json:"amount_paid"`
	PayCurrency     string  `json:"pay_currency"`
	Plan            string  `json:"plan"`
}

// OrderStatusHandler возвращает текущее состояние заказа.
func (deps *ApiDependencies) OrderStatusHandler(w http.ResponseWriter, r *http.Request) {
	orderID := r.URL.Query().Get("order_id")
	if orderID == "" {
		writeJSONError(w, http.StatusBadRequest, "Отсутствует параметр order_id")
		return
	}

	order, err := db.GetOrderByOrderID(orderID)
	if err != nil {
		if errors.Is(err, db.ErrOrderNotFound) {
			writeJSONError(w, http.StatusNotFound, "Заказ не найден")
			return
		}
		writeJSONError(w, http.StatusInternalServerError, "Ошибка базы данных")
		return
	}

	writeJSONSuccess(w, "", OrderStatusResponse{
		ProcessorStatus: order.ProcessorStatus,
		PaymentState:    order.PaymentState,
		AmountPaid:      order.AmountPaid,
		PayCurrency:     order.PayCurrency.String,
		Plan:            order.Plan,
	})
}

// PaymentQRHandler отдаёт PNG с QR-кодом крипто-адреса для оплаты заказа.
func (deps *ApiDependencies) PaymentQRHandler(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")

	order, err := db.GetOrderByOrderID(orderID)
	if err != nil {
		if errors.Is(err, db.ErrOrderNotFound) {
			writeJSONError(w, http.StatusNotFound, "Заказ не найден")
			return
		}
		writeJSONError(w, http.StatusInternalServerError, "Ошибка базы данных")
		return
	}

	if !order.PayAddress.Valid || order.PayAddress.String == "" {
		writeJSONError(w, http.StatusNotFound, "Для заказа ещё нет адреса оплаты")
		return
	}

	qrBytes, err := utils.GeneratePaymentQRCode(order.PayAddress.String)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "Не удалось сгенерировать QR-код")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(qrBytes); err != nil {
		log.Printf("PaymentQRHandler: ошибка записи QR-кода в ответ: %v", err)
	}
}
