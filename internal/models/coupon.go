package models

// Coupon — промокод инфлюенсера. При создании заказа активный купон фиксирует
// на заказе кошелёк партнёра и долю комиссии.
type Coupon struct {
	Code             string
	InfluencerID     string
	InfluencerWallet string
	Percent          float64
	Active           bool
}
