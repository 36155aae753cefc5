package api

import (
	"encoding/json"
	"io"
	"log"
	"net/http"

	"github.com/etseroraynaud-ui/Shadowmarketpro/internal/ipn"
)

// ipnAck - структурированное подтверждение IPN-уведомления.
// Ошибочные статусы (4xx/5xx) заставят процессор повторить доставку, поэтому
// все "мягкие" случаи (чужая валюта, неизвестный заказ, дубликат) отвечают 200.
type ipnAck struct {
	OK bool `json:"ok"`
	ipn.Outcome
}

// HandleIPN принимает уведомления о статусе платежа от NOWPayments.
//
// Порядок жёсткий: сырые байты тела сохраняются ДО парсинга, подпись
// считается по ним и проверяется до любого обращения к хранилищу.
// При неверной подписи не выполняется ни одной записи.
func (deps *ApiDependencies) HandleIPN(w http.ResponseWriter, r *http.Request) {
	rawBody, err := io.ReadAll(r.Body)
	if err != nil {
		log.Printf("HandleIPN: ошибка чтения тела запроса: %v", err)
		writeJSONError(w, http.StatusBadRequest, "Не удалось прочитать тело запроса")
		return
	}

	// Парсим только для маршрутизации ответа: до проверки подписи ни одному
	// извлечённому полю доверять нельзя.
	notification, err := ipn.ParseNotification(rawBody)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "Некорректный JSON")
		return
	}

	sig := r.Header.Get("x-nowpayments-sig")
	if !ipn.VerifySignature(rawBody, sig, deps.Config.NowPaymentsIPNSecret) {
		log.Printf("HandleIPN: неверная подпись уведомления (order_id='%s').", notification.OrderID)
		writeJSONError(w, http.StatusUnauthorized, "Неверная подпись")
		return
	}

	outcome, err := deps.Reconciler.Process(notification)
	if err != nil {
		// Сбой хранилища: отвечаем 500, процессор повторит доставку.
		// Повтор безопасен благодаря идемпотентности каждого шага.
		log.Printf("HandleIPN: ошибка обработки уведомления по заказу %s: %v", notification.OrderID, err)
		writeJSONError(w, http.StatusInternalServerError, "Внутренняя ошибка обработки")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(ipnAck{OK: true, Outcome: outcome})
}
