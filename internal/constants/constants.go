package constants

// Статусы платежа, которые присылает NOWPayments в IPN-уведомлениях.
// Храним их как есть (passthrough), ветвимся только по нормализованному состоянию.
// NOWPayments payment statuses as delivered in IPN notifications.
// Stored as-is (passthrough); branching happens only on the normalized state.
const (
	NP_STATUS_WAITING        = "waiting"
	NP_STATUS_CONFIRMING     = "confirming"
	NP_STATUS_CONFIRMED      = "confirmed"
	NP_STATUS_SENDING        = "sending"
	NP_STATUS_PARTIALLY_PAID = "partially_paid"
	NP_STATUS_FINISHED       = "finished"
	NP_STATUS_FAILED         = "failed"
	NP_STATUS_EXPIRED        = "expired"
	NP_STATUS_REFUNDED       = "refunded"
)

// Нормализованное состояние оплаты заказа. Терминальные состояния не перезаписываются.
// Normalized payment state of an order. Terminal states are never overwritten.
const (
	PAYMENT_STATE_PENDING   = "pending"
	PAYMENT_STATE_CONFIRMED = "confirmed"
	PAYMENT_STATE_FAILED    = "failed"
)

// Статусы заказа до получения первого IPN.
const (
	ORDER_STATUS_CREATED               = "created"
	ORDER_STATUS_PENDING               = "pending"
	ORDER_STATUS_CREATE_PAYMENT_FAILED = "create_payment_failed"
)

// Жизненный цикл комиссии партнёра (инфлюенсера).
// Lifecycle of an affiliate commission record.
const (
	COMMISSION_STATUS_DUE        = "due"
	COMMISSION_STATUS_PROCESSING = "processing"
	COMMISSION_STATUS_PAID       = "paid"
	COMMISSION_STATUS_FAILED     = "failed"
)

// Валюта расчёта: цены планов и комиссии номинированы в USD,
// оплата принимается в стейблкоине (см. ACCEPTED_PAY_CURRENCIES).
const SETTLEMENT_CURRENCY = "usd"

// Цены подписочных планов в USD.
var PlanPricesUSD = map[string]float64{
	"monthly":   99,
	"quarterly": 259,
	"yearly":    899,
	"lifetime":  1599,
}

// PlanPriceUSD возвращает цену плана. Неизвестный план считается месячным.
func PlanPriceUSD(plan string) float64 {
	if price, ok := PlanPricesUSD[plan]; ok {
		return price
	}
	return PlanPricesUSD["monthly"]
}

// Значения по умолчанию для конфигурации.
const (
	DEFAULT_PARTIAL_PAYMENT_TOLERANCE = 0.97
	DEFAULT_AFFILIATE_PERCENT         = 0.15
	DEFAULT_MIN_AFFILIATE_PAYOUT_USD  = 20.0
	DEFAULT_ACCEPTED_PAY_CURRENCY     = "usdttrc20"
)
