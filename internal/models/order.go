package models

import (
	"database/sql"
	"time"
)

// Order представляет одну попытку покупки подписки.
// OrderID — внешний идентификатор (UUID), создаётся до обращения к платёжному
// процессору и используется как ключ во всех IPN-уведомлениях.
type Order struct {
	ID                   int64
	OrderID              string // внешний ключ заказа (UUID)
	Plan                 string
	CouponCode           sql.NullString
	Currency             string  // валюта расчёта (usd)
	AmountExpected       float64 // цена плана в валюте расчёта
	AmountPaid           float64 // фактически полученная сумма по данным IPN
	PayCurrency          sql.NullString
	PayAddress           sql.NullString // крипто-адрес для оплаты (для QR-кода)
	PayAmountCrypto      sql.NullFloat64
	NowPaymentsPaymentID sql.NullString
	ProcessorStatus      string // статус процессора как есть (passthrough)
	PaymentState         string // нормализованное состояние: pending / confirmed / failed
	InfluencerID         sql.NullString
	InfluencerWallet     sql.NullString  // кошелёк партнёра для выплаты комиссии
	CommissionPercent    sql.NullFloat64 // доля комиссии, фиксируется при создании заказа
	CommissionGenerated  bool            // комиссия по заказу уже создана
	ConfirmationSent     bool            // разовое уведомление об оплате уже отправлено
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// IsTerminal сообщает, достигло ли нормализованное состояние терминального значения.
func (o Order) IsTerminal() bool {
	return o.PaymentState == "confirmed" || o.PaymentState == "failed"
}

// HasAffiliate сообщает, привязан ли к заказу партнёр, которому положена комиссия.
func (o Order) HasAffiliate() bool {
	return o.InfluencerWallet.Valid && o.InfluencerWallet.String != ""
}
