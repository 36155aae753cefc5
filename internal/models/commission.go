package models

import (
	"database/sql"
	"time"
)

// Commission представляет вознаграждение партнёра за один оплаченный заказ.
// Логически уникальна по OrderRef; уникальность дополнительно обеспечивается
// ограничением UNIQUE(order_ref) на уровне БД.
// Commission represents money owed to an affiliate for one paid order.
// Logically unique per OrderRef; additionally enforced by a UNIQUE(order_ref)
// constraint at the store level.
type Commission struct {
	ID           int64
	InfluencerID sql.NullString
	OrderRef     string // внешний order_id заказа-источника
	Wallet       string // кошелёк получателя (USDT TRC20)
	AmountUSD    float64
	Status       string         // due / processing / paid / failed
	PayoutID     sql.NullString // идентификатор выплаты на стороне процессора
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
