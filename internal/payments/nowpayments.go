package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// API-адрес NOWPayments
const nowPaymentsAPIEndpoint = "https://api.nowpayments.io/v1"

// PaymentRequest - структура запроса на создание платежа.
type PaymentRequest struct {
	PriceAmount      float64 `json:"price_amount"`
	PriceCurrency    string  `json:"price_currency"`
	PayCurrency      string  `json:"pay_currency"`
	OrderID          string  `json:"order_id"`
	OrderDescription string  `json:"order_description"`
	IPNCallbackURL   string  `json:"ipn_callback_url"`
	SuccessURL       string  `json:"success_url,omitempty"`
	CancelURL        string  `json:"cancel_url,omitempty"`
}

// PaymentResponse - структура ответа от API NOWPayments.
type PaymentResponse struct {
	PaymentID     json.Number `json:"payment_id"`
	PaymentStatus string      `json:"payment_status"`
	PayAddress    string      `json:"pay_address"`
	PayAmount     float64     `json:"pay_amount"`
	PayCurrency   string      `json:"pay_currency"`
	PriceAmount   float64     `json:"price_amount"`
	PriceCurrency string      `json:"price_currency"`
	InvoiceURL    string      `json:"invoice_url"`
	CreatedAt     time.Time   `json:"created_at"`
}

// PayoutRequest - структура запроса на выплату партнёру.
type PayoutRequest struct {
	Currency string  `json:"currency"`
	Amount   float64 `json:"amount"`
	Address  string  `json:"address"`
}

// PayoutResponse - структура ответа API на запрос выплаты.
type PayoutResponse struct {
	ID     json.Number `json:"id"`
	Status string      `json:"status"`
}

// Client - клиент API NOWPayments.
type Client struct {
	APIKey    string
	PayoutKey string
	PayoutURL string // переопределение адреса выплат (Custody/Mass payouts), иначе стандартный
	http      *http.Client
}

// NewClient создаёт клиент с ограниченным таймаутом на все запросы к API.
func NewClient(apiKey, payoutKey, payoutURL string) *Client {
	return &Client{
		APIKey:    apiKey,
		PayoutKey: payoutKey,
		PayoutURL: payoutURL,
		http:      &http.Client{Timeout: 15 * time.Second},
	}
}

// CreatePayment создаёт платёж у процессора. Заказ в БД должен существовать
// ДО этого вызова: order_id в запросе — ключ, по которому IPN найдёт заказ.
func (c *Client) CreatePayment(ctx context.Context, request PaymentRequest) (*PaymentResponse, error) {
	if c.APIKey == "" {
		return nil, fmt.Errorf("NOWPAYMENTS_API_KEY не настроен")
	}

	payload, err := json.Marshal(request)
	if err != nil {
		log.Printf("CreatePayment: ошибка маршалинга запроса: %v", err)
		return nil, fmt.Errorf("ошибка подготовки запроса: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", nowPaymentsAPIEndpoint+"/payment", bytes.NewBuffer(payload))
	if err != nil {
		log.Printf("CreatePayment: ошибка создания HTTP-запроса: %v", err)
		return nil, fmt.Errorf("ошибка создания HTTP-запроса: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.APIKey)
	req.Header.Set("Idempotence-Key", uuid.New().String())

	resp, err := c.http.Do(req)
	if err != nil {
		log.Printf("CreatePayment: ошибка выполнения запроса к API NOWPayments: %v", err)
		return nil, fmt.Errorf("ошибка выполнения запроса к API NOWPayments: %w", err)
	}
	defer resp.Body.Close()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Printf("CreatePayment: ошибка чтения ответа API: %v", err)
		return nil, fmt.Errorf("ошибка чтения ответа API: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		log.Printf("CreatePayment: API NOWPayments вернул ошибку: статус %d, тело: %s", resp.StatusCode, string(responseBody))
		return nil, fmt.Errorf("ошибка API NOWPayments, статус: %d", resp.StatusCode)
	}

	var paymentResponse PaymentResponse
	if err := json.Unmarshal(responseBody, &paymentResponse); err != nil {
		log.Printf("CreatePayment: ошибка демаршалинга ответа API: %v", err)
		return nil, fmt.Errorf("ошибка обработки ответа API: %w", err)
	}

	if paymentResponse.PayAddress == "" {
		log.Println("CreatePayment: критическая ошибка: API не вернул адрес для оплаты.")
		return nil, fmt.Errorf("API не вернул адрес для оплаты")
	}

	log.Printf("Платёж NOWPayments создан: ID %s, статус %s, заказ %s.", paymentResponse.PaymentID.String(), paymentResponse.PaymentStatus, request.OrderID)
	return &paymentResponse, nil
}

// SendPayout отправляет выплату партнёру. Требует отдельный payout-ключ;
// без него вызывающий код оставляет комиссии в статусе due.
func (c *Client) SendPayout(ctx context.Context, request PayoutRequest) (*PayoutResponse, error) {
	if c.PayoutKey == "" {
		return nil, fmt.Errorf("NOWPAYMENTS_PAYOUT_API_KEY не настроен")
	}

	payoutURL := c.PayoutURL
	if payoutURL == "" {
		payoutURL = nowPaymentsAPIEndpoint + "/payout"
	}

	payload, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("ошибка подготовки запроса выплаты: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", payoutURL, bytes.NewBuffer(payload))
	if err != nil {
		return nil, fmt.Errorf("ошибка создания HTTP-запроса выплаты: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.PayoutKey)

	resp, err := c.http.Do(req)
	if err != nil {
		log.Printf("SendPayout: ошибка выполнения запроса выплаты: %v", err)
		return nil, fmt.Errorf("ошибка выполнения запроса выплаты: %w", err)
	}
	defer resp.Body.Close()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения ответа API выплат: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		log.Printf("SendPayout: API выплат вернул ошибку: статус %d, тело: %s", resp.StatusCode, string(responseBody))
		return nil, fmt.Errorf("ошибка API выплат, статус: %d", resp.StatusCode)
	}

	var payoutResponse PayoutResponse
	if err := json.Unmarshal(responseBody, &payoutResponse); err != nil {
		return nil, fmt.Errorf("ошибка обработки ответа API выплат: %w", err)
	}

	log.Printf("Выплата отправлена: ID %s, адрес %s, сумма %.2f %s.", payoutResponse.ID.String(), request.Address, request.Amount, request.Currency)
	return &payoutResponse, nil
}
