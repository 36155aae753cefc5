package db

import (
	"database/sql"
	"log"
	"strings"

	"github.com/etseroraynaud-ui/Shadowmarketpro/internal/models"
)

// GetActiveCouponByCode извлекает активный купон по коду (без учёта регистра).
// Возвращает (nil, nil), если купон не найден или неактивен — это не ошибка.
func GetActiveCouponByCode(code string) (*models.Coupon, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, nil
	}

	var c models.Coupon
	var influencerID sql.NullString
	err := DB.QueryRow(`
        SELECT code, influencer_id, influencer_wallet, percent, active
        FROM coupons WHERE UPPER(code) = $1 AND active = TRUE`, code).Scan(
		&c.Code, &influencerID, &c.InfluencerWallet, &c.Percent, &c.Active,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		log.Printf("GetActiveCouponByCode: ошибка получения купона '%s': %v", code, err)
		return nil, err
	}
	c.InfluencerID = influencerID.String
	return &c, nil
}
