package main

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"

	"github.com/etseroraynaud-ui/Shadowmarketpro/internal/api"
	"github.com/etseroraynaud-ui/Shadowmarketpro/internal/config"
	"github.com/etseroraynaud-ui/Shadowmarketpro/internal/db"
	"github.com/etseroraynaud-ui/Shadowmarketpro/internal/ipn"
	"github.com/etseroraynaud-ui/Shadowmarketpro/internal/notify"
	"github.com/etseroraynaud-ui/Shadowmarketpro/internal/payments"
	"github.com/etseroraynaud-ui/Shadowmarketpro/internal/payouts"
)

func main() {
	// --- Блок инициализации ---
	err := godotenv.Load()
	if err != nil {
		log.Println("Предупреждение: не удалось загрузить файл .env. Переменные окружения должны быть установлены иным способом.")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Критическая ошибка: не удалось загрузить конфигурацию: %v", err)
	}

	if err := db.InitDB(); err != nil {
		log.Fatalf("Критическая ошибка: не удалось инициализировать базу данных: %v", err)
	}
	defer db.CloseDB()

	// Канал уведомлений best-effort: без токена просто работаем без него.
	var notifier ipn.Notifier
	if cfg.TelegramToken != "" && cfg.AdminChatID != 0 {
		telegramNotifier, errNotify := notify.NewTelegramNotifier(cfg.TelegramToken, cfg.AdminChatID, cfg.AppEnv == "dev")
		if errNotify != nil {
			log.Printf("Предупреждение: не удалось инициализировать канал уведомлений: %v. Продолжаем без него.", errNotify)
		} else {
			notifier = telegramNotifier
		}
	}

	paymentsClient := payments.NewClient(cfg.NowPaymentsAPIKey, cfg.NowPaymentsPayoutKey, cfg.NowPaymentsPayoutURL)

	reconciler := &ipn.Reconciler{
		Orders:             ipn.PgStores{},
		Commissions:        ipn.PgStores{},
		Notifier:           notifier,
		AcceptedCurrencies: cfg.AcceptedPayCurrencies,
		Tolerance:          cfg.PartialPaymentTolerance,
	}

	payoutProcessor := &payouts.Processor{
		Commissions:    payouts.PgCommissions{},
		Sender:         paymentsClient,
		PayoutCurrency: cfg.AcceptedPayCurrencies[0],
		MinPayoutUSD:   cfg.MinAffiliatePayoutUSD,
	}

	// --- Настройка роутера и Middleware ---
	apiRouter := chi.NewRouter()

	apiRouter.Use(middleware.Logger)
	apiRouter.Use(middleware.Recoverer)
	apiRouter.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Admin-Token", "X-Cron-Secret"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	apiDeps := &api.ApiDependencies{
		Config:     cfg,
		Payments:   paymentsClient,
		Reconciler: reconciler,
		Payouts:    payoutProcessor,
	}

	api.SetupRoutes(apiRouter, apiDeps)

	// Обработка запроса иконки, чтобы избежать ошибки 404 в логах
	apiRouter.Get("/favicon.ico", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	log.Printf("Запуск HTTP-сервера платёжного API на порту %s", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, apiRouter); err != nil {
		log.Fatalf("КРИТИЧЕСКАЯ ОШИБКА: не удалось запустить HTTP-сервер: %v", err)
	}
}
