package db

import (
	"database/sql"
	"log"

	"github.com/lib/pq" // Для кода ошибки unique_violation и pq.Array

	"github.com/etseroraynaud-ui/Shadowmarketpro/internal/constants"
	"github.com/etseroraynaud-ui/Shadowmarketpro/internal/models"
)

// Код ошибки PostgreSQL "unique_violation".
const pgUniqueViolation = "23505"

// CreateCommission создаёт комиссию партнёра в статусе 'due'.
// Нарушение UNIQUE(order_ref) возвращается как ErrDuplicateCommission —
// для реконсиляции это признак, что параллельная доставка уже создала запись.
func CreateCommission(c models.Commission) (int64, error) {
	var id int64
	query := `
        INSERT INTO commissions (influencer_id, order_ref, wallet, amount_usd, status, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
        RETURNING id`
	err := DB.QueryRow(query, c.InfluencerID, c.OrderRef, c.Wallet, c.AmountUSD, constants.COMMISSION_STATUS_DUE).Scan(&id)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && string(pqErr.Code) == pgUniqueViolation {
			log.Printf("CreateCommission: комиссия по заказу %s уже существует.", c.OrderRef)
			return 0, ErrDuplicateCommission
		}
		log.Printf("CreateCommission: ошибка создания комиссии по заказу %s: %v", c.OrderRef, err)
		return 0, err
	}
	log.Printf("Комиссия #%d по заказу %s создана: %.2f USD на кошелёк %s.", id, c.OrderRef, c.AmountUSD, c.Wallet)
	return id, nil
}

// GetDueCommissions извлекает все комиссии в статусе 'due' для прогона выплат.
func GetDueCommissions() ([]models.Commission, error) {
	rows, err := DB.Query(`
        SELECT id, influencer_id, order_ref, wallet, amount_usd, status, payout_id, created_at, updated_at
        FROM commissions WHERE status = $1
        ORDER BY created_at`, constants.COMMISSION_STATUS_DUE)
	if err != nil {
		log.Printf("GetDueCommissions: ошибка получения комиссий: %v", err)
		return nil, err
	}
	defer rows.Close()

	var commissions []models.Commission
	for rows.Next() {
		var c models.Commission
		if errScan := rows.Scan(&c.ID, &c.InfluencerID, &c.OrderRef, &c.Wallet, &c.AmountUSD, &c.Status, &c.PayoutID, &c.CreatedAt, &c.UpdatedAt); errScan != nil {
			log.Printf("GetDueCommissions: ошибка сканирования комиссии: %v", errScan)
			continue
		}
		commissions = append(commissions, c)
	}
	if err = rows.Err(); err != nil {
		log.Printf("GetDueCommissions: ошибка после итерации по строкам: %v", err)
		return nil, err
	}
	return commissions, nil
}

// UpdateCommissionsStatus обновляет статус пакета комиссий одним запросом.
// payoutID может быть пустым (например, при переводе в 'processing').
func UpdateCommissionsStatus(ids []int64, status string, payoutID string) error {
	if len(ids) == 0 {
		return nil
	}
	var payoutArg sql.NullString
	if payoutID != "" {
		payoutArg = sql.NullString{String: payoutID, Valid: true}
	}
	result, err := DB.Exec(`
        UPDATE commissions
        SET status = $1, payout_id = COALESCE($2, payout_id), updated_at = NOW()
        WHERE id = ANY($3)`,
		status, payoutArg, pq.Array(ids))
	if err != nil {
		log.Printf("UpdateCommissionsStatus: ошибка обновления статуса на '%s' для %d комиссий: %v", status, len(ids), err)
		return err
	}
	rowsAffected, _ := result.RowsAffected()
	log.Printf("Статус '%s' установлен для %d комиссий.", status, rowsAffected)
	return nil
}

// GetCommissionsForExcel получает данные для Excel-отчёта по комиссиям.
func GetCommissionsForExcel() (*sql.Rows, error) {
	query := `
        SELECT c.id, c.order_ref, o.plan, c.wallet, c.amount_usd, c.status, c.payout_id, c.created_at
        FROM commissions c
        JOIN orders o ON o.order_id = c.order_ref
        ORDER BY c.created_at DESC`
	rows, err := DB.Query(query)
	if err != nil {
		log.Printf("GetCommissionsForExcel: ошибка получения данных для Excel: %v", err)
		return nil, err
	}
	return rows, nil
}
