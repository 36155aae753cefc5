package api

import (
	"github.com/go-chi/chi/v5"

	"github.com/etseroraynaud-ui/Shadowmarketpro/internal/config"
	"github.com/etseroraynaud-ui/Shadowmarketpro/internal/ipn"
	"github.com/etseroraynaud-ui/Shadowmarketpro/internal/payments"
	"github.com/etseroraynaud-ui/Shadowmarketpro/internal/payouts"
)

// ApiDependencies содержит зависимости для обработчиков API.
type ApiDependencies struct {
	Config     *config.Config
	Payments   *payments.Client
	Reconciler *ipn.Reconciler
	Payouts    *payouts.Processor
}

// SetupRoutes настраивает все маршруты для API.
func SetupRoutes(r *chi.Mux, deps *ApiDependencies) {
	// Эндпоинт IPN публичен: подлинность проверяется подписью внутри обработчика.
	r.Post("/api/nowpayments/ipn", deps.HandleIPN)

	r.Group(func(r chi.Router) {
		r.Post("/api/nowpayments/create-payment", deps.CreatePaymentHandler)
		r.Get("/api/orders/status", deps.OrderStatusHandler)
		r.Get("/api/payment/{orderID}/qr", deps.PaymentQRHandler)
	})

	// --- Маршруты для планировщика выплат ---
	r.Group(func(r chi.Router) {
		r.Use(CronAuthMiddleware(deps.Config.CronSecret))
		r.Post("/api/cron/affiliate-payouts", deps.RunAffiliatePayoutsHandler)
	})

	// --- Маршруты для администратора ---
	r.Route("/api/admin", func(r chi.Router) {
		r.Use(AdminAuthMiddleware(deps.Config.AdminAPIToken))
		r.Get("/commissions/export", deps.ExportCommissionsHandler)
	})
}
