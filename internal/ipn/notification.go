package ipn

import (
	"encoding/json"
	"fmt"
)

// Notification — поля IPN-уведомления, нужные для реконсиляции.
// Payload процессора слабо типизирован, поэтому извлечение терпимое:
// числа принимаются и как числа, и как строки, отсутствующие поля
// получают явные значения по умолчанию.
type Notification struct {
	PaymentID    string  // идентификатор платежа у процессора (опционально)
	OrderID      string  // внешний идентификатор заказа (обязателен для обработки)
	Status       string  // статус процессора как есть; отсутствует => ""
	PayCurrency  string  // валюта оплаты
	ActuallyPaid float64 // фактически полученная сумма; fallback на pay_amount, иначе 0
	PayAmount    float64 // запрошенная сумма; по умолчанию 0
}

// rawNotification — сырой вид payload для терпимого парсинга.
type rawNotification struct {
	PaymentID    json.RawMessage `json:"payment_id"`
	OrderID      json.RawMessage `json:"order_id"`
	Status       string          `json:"payment_status"`
	PayCurrency  string          `json:"pay_currency"`
	ActuallyPaid json.RawMessage `json:"actually_paid"`
	PayAmount    json.RawMessage `json:"pay_amount"`
}

// ParseNotification разбирает тело IPN-уведомления.
// Синтаксическая ошибка JSON — это "malformed input" (ответ 400);
// подпись при этом всё равно должна проверяться по сырым байтам ДО доверия
// к любому извлечённому полю.
func ParseNotification(rawBody []byte) (Notification, error) {
	var raw rawNotification
	if err := json.Unmarshal(rawBody, &raw); err != nil {
		return Notification{}, fmt.Errorf("некорректный JSON в теле уведомления: %w", err)
	}

	n := Notification{
		PaymentID:   flexString(raw.PaymentID),
		OrderID:     flexString(raw.OrderID),
		Status:      raw.Status,
		PayCurrency: raw.PayCurrency,
		PayAmount:   flexNumber(raw.PayAmount, 0),
	}

	// NOWPayments обычно присылает actually_paid; если его нет — pay_amount.
	n.ActuallyPaid = flexNumber(raw.ActuallyPaid, n.PayAmount)

	return n, nil
}

// flexString принимает строку или число и возвращает строковое представление.
func flexString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var num json.Number
	if err := json.Unmarshal(raw, &num); err == nil {
		return num.String()
	}
	return ""
}

// flexNumber принимает число или строку с числом; иначе возвращает fallback.
func flexNumber(raw json.RawMessage, fallback float64) float64 {
	if len(raw) == 0 {
		return fallback
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if v, errParse := json.Number(s).Float64(); errParse == nil {
			return v
		}
	}
	return fallback
}
