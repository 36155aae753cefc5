package db

import (
	"database/sql"
	"log"

	"github.com/etseroraynaud-ui/Shadowmarketpro/internal/constants"
	"github.com/etseroraynaud-ui/Shadowmarketpro/internal/models"
)

// CreateInitialOrder создаёт запись заказа ДО обращения к платёжному процессору.
// order_id должен быть сгенерирован заранее — он используется как ключ во всех IPN.
func CreateInitialOrder(order models.Order) (int64, error) {
	var id int64
	query := `
        INSERT INTO orders (order_id, plan, coupon_code, currency, amount_expected, amount_paid,
                            processor_status, payment_state, influencer_id, influencer_wallet,
                            commission_percent, commission_generated, confirmation_sent, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, 0, $6, $7, $8, $9, $10, FALSE, FALSE, NOW(), NOW())
        RETURNING id`
	err := DB.QueryRow(query,
		order.OrderID,
		order.Plan,
		order.CouponCode,
		order.Currency,
		order.AmountExpected,
		constants.ORDER_STATUS_CREATED,
		constants.PAYMENT_STATE_PENDING,
		order.InfluencerID,
		order.InfluencerWallet,
		order.CommissionPercent,
	).Scan(&id)
	if err != nil {
		log.Printf("CreateInitialOrder: ошибка создания заказа %s: %v", order.OrderID, err)
		return 0, err
	}
	log.Printf("Заказ %s (#%d) создан, план '%s', сумма %.2f %s.", order.OrderID, id, order.Plan, order.AmountExpected, order.Currency)
	return id, nil
}

// GetOrderByOrderID извлекает заказ по внешнему идентификатору.
func GetOrderByOrderID(orderID string) (models.Order, error) {
	var o models.Order
	query := `
        SELECT id, order_id, plan, coupon_code, currency, amount_expected, amount_paid,
               pay_currency, pay_address, pay_amount_crypto, nowpayments_payment_id,
               processor_status, payment_state, influencer_id, influencer_wallet,
               commission_percent, commission_generated, confirmation_sent, created_at, updated_at
        FROM orders WHERE order_id = $1`
	var plan sql.NullString
	err := DB.QueryRow(query, orderID).Scan(
		&o.ID, &o.OrderID, &plan, &o.CouponCode, &o.Currency, &o.AmountExpected, &o.AmountPaid,
		&o.PayCurrency, &o.PayAddress, &o.PayAmountCrypto, &o.NowPaymentsPaymentID,
		&o.ProcessorStatus, &o.PaymentState, &o.InfluencerID, &o.InfluencerWallet,
		&o.CommissionPercent, &o.CommissionGenerated, &o.ConfirmationSent, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return o, ErrOrderNotFound
		}
		log.Printf("GetOrderByOrderID: ошибка получения заказа %s: %v", orderID, err)
		return o, err
	}
	o.Plan = plan.String
	return o, nil
}

// UpdateOrderPaymentDetails сохраняет данные платежа после ответа процессора
// (идентификатор платежа, адрес и сумму в криптовалюте) и переводит заказ в pending.
func UpdateOrderPaymentDetails(orderID, paymentID, payAddress, payCurrency string, payAmountCrypto float64) error {
	_, err := DB.Exec(`
        UPDATE orders
        SET nowpayments_payment_id = $2, pay_address = $3, pay_currency = $4,
            pay_amount_crypto = $5, processor_status = $6, updated_at = NOW()
        WHERE order_id = $1`,
		orderID, paymentID, payAddress, payCurrency, payAmountCrypto, constants.ORDER_STATUS_PENDING)
	if err != nil {
		log.Printf("UpdateOrderPaymentDetails: ошибка обновления заказа %s: %v", orderID, err)
	}
	return err
}

// MarkOrderCreatePaymentFailed помечает заказ, для которого процессор не смог создать платёж.
func MarkOrderCreatePaymentFailed(orderID string) error {
	_, err := DB.Exec(`UPDATE orders SET processor_status = $2, updated_at = NOW() WHERE order_id = $1`,
		orderID, constants.ORDER_STATUS_CREATE_PAYMENT_FAILED)
	if err != nil {
		log.Printf("MarkOrderCreatePaymentFailed: ошибка обновления заказа %s: %v", orderID, err)
	}
	return err
}

// RefreshOrderPaymentInfo обновляет passthrough-данные из IPN: статус процессора,
// идентификатор платежа и наблюдаемую сумму. Нормализованное состояние НЕ трогает,
// поэтому вызов безопасен и для заказов в терминальном состоянии.
func RefreshOrderPaymentInfo(orderID, paymentID, processorStatus string, amountPaid float64) error {
	_, err := DB.Exec(`
        UPDATE orders
        SET nowpayments_payment_id = COALESCE(NULLIF($2, ''), nowpayments_payment_id),
            processor_status = $3, amount_paid = $4, updated_at = NOW()
        WHERE order_id = $1`,
		orderID, paymentID, processorStatus, amountPaid)
	if err != nil {
		log.Printf("RefreshOrderPaymentInfo: ошибка обновления заказа %s: %v", orderID, err)
	}
	return err
}

// TransitionOrderState переводит заказ в терминальное состояние. Условие
// payment_state = 'pending' делает переход монотонным: повторная или
// конкурирующая доставка вернёт false, а не перезапишет состояние.
func TransitionOrderState(orderID, newState string) (bool, error) {
	result, err := DB.Exec(`
        UPDATE orders SET payment_state = $2, updated_at = NOW()
        WHERE order_id = $1 AND payment_state = $3`,
		orderID, newState, constants.PAYMENT_STATE_PENDING)
	if err != nil {
		log.Printf("TransitionOrderState: ошибка перевода заказа %s в состояние %s: %v", orderID, newState, err)
		return false, err
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected > 0 {
		log.Printf("Заказ %s переведён в терминальное состояние '%s'.", orderID, newState)
	}
	return rowsAffected > 0, nil
}

// MarkOrderConfirmationSent помечает, что разовое уведомление об оплате отправлено.
func MarkOrderConfirmationSent(orderID string) error {
	_, err := DB.Exec(`UPDATE orders SET confirmation_sent = TRUE, updated_at = NOW() WHERE order_id = $1`, orderID)
	if err != nil {
		log.Printf("MarkOrderConfirmationSent: ошибка обновления заказа %s: %v", orderID, err)
	}
	return err
}

// MarkOrderCommissionGenerated идемпотентно помечает, что комиссия по заказу создана
// (или что создавать её не требуется).
func MarkOrderCommissionGenerated(orderID string) error {
	_, err := DB.Exec(`UPDATE orders SET commission_generated = TRUE, updated_at = NOW() WHERE order_id = $1`, orderID)
	if err != nil {
		log.Printf("MarkOrderCommissionGenerated: ошибка обновления заказа %s: %v", orderID, err)
	}
	return err
}
