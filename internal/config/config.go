// internal/config/config.go
package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/etseroraynaud-ui/Shadowmarketpro/internal/constants"
)

// Config хранит все конфигурационные параметры приложения.
type Config struct {
	DatabaseURL string
	AppEnv      string
	Port        string
	SiteURL     string

	NowPaymentsAPIKey    string
	NowPaymentsIPNSecret string
	NowPaymentsPayoutKey string
	NowPaymentsPayoutURL string

	// Допустимые валюты оплаты: токен считается подходящим, если содержится
	// в валюте из IPN (регистронезависимо).
	AcceptedPayCurrencies []string

	// Доля от запрошенной суммы, начиная с которой partially_paid считается оплатой.
	PartialPaymentTolerance float64

	// Доля комиссии партнёра по умолчанию (если купон не задаёт свою).
	AffiliatePercent float64

	// Минимальная сумма для выплаты партнёру за один прогон.
	MinAffiliatePayoutUSD float64

	// Тестовый купон и кошелёк из окружения (fallback, если купона нет в БД).
	TestCoupon      string
	AffiliateWallet string

	CronSecret    string
	AdminAPIToken string

	TelegramToken string
	AdminChatID   int64
}

// LoadConfig загружает конфигурацию из переменных окружения.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		DatabaseURL:          os.Getenv("DATABASE_URL"),
		AppEnv:               os.Getenv("ENV"),
		Port:                 os.Getenv("PORT"),
		SiteURL:              os.Getenv("SITE_URL"),
		NowPaymentsAPIKey:    os.Getenv("NOWPAYMENTS_API_KEY"),
		NowPaymentsIPNSecret: os.Getenv("NOWPAYMENTS_IPN_SECRET"),
		NowPaymentsPayoutKey: os.Getenv("NOWPAYMENTS_PAYOUT_API_KEY"),
		NowPaymentsPayoutURL: os.Getenv("NOWPAYMENTS_PAYOUT_URL"),
		TestCoupon:           strings.ToUpper(strings.TrimSpace(os.Getenv("TEST_COUPON"))),
		AffiliateWallet:      os.Getenv("AFFILIATE_WALLET_TRC20"),
		CronSecret:           os.Getenv("CRON_SECRET"),
		AdminAPIToken:        os.Getenv("ADMIN_API_TOKEN"),
		TelegramToken:        os.Getenv("TELEGRAM_APITOKEN"),
	}

	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.SiteURL == "" {
		cfg.SiteURL = "http://localhost:" + cfg.Port
		log.Printf("Предупреждение: SITE_URL не установлен, используется %s.", cfg.SiteURL)
	}

	currencies := os.Getenv("ACCEPTED_PAY_CURRENCIES")
	if currencies == "" {
		cfg.AcceptedPayCurrencies = []string{constants.DEFAULT_ACCEPTED_PAY_CURRENCY}
	} else {
		for _, c := range strings.Split(currencies, ",") {
			c = strings.ToLower(strings.TrimSpace(c))
			if c != "" {
				cfg.AcceptedPayCurrencies = append(cfg.AcceptedPayCurrencies, c)
			}
		}
		if len(cfg.AcceptedPayCurrencies) == 0 {
			log.Printf("Предупреждение: ACCEPTED_PAY_CURRENCIES ('%s') не содержит валют, используется %s.", currencies, constants.DEFAULT_ACCEPTED_PAY_CURRENCY)
			cfg.AcceptedPayCurrencies = []string{constants.DEFAULT_ACCEPTED_PAY_CURRENCY}
		}
	}

	cfg.PartialPaymentTolerance = parseRatioEnv("PARTIAL_PAYMENT_TOLERANCE", constants.DEFAULT_PARTIAL_PAYMENT_TOLERANCE)
	cfg.AffiliatePercent = parseRatioEnv("AFFILIATE_PERCENT", constants.DEFAULT_AFFILIATE_PERCENT)

	minPayoutStr := os.Getenv("MIN_AFFILIATE_PAYOUT_USD")
	if minPayoutStr == "" {
		cfg.MinAffiliatePayoutUSD = constants.DEFAULT_MIN_AFFILIATE_PAYOUT_USD
	} else {
		minPayout, errParse := strconv.ParseFloat(minPayoutStr, 64)
		if errParse != nil || minPayout < 0 {
			log.Printf("Предупреждение: некорректное значение MIN_AFFILIATE_PAYOUT_USD ('%s'): %v. Используется %.0f.", minPayoutStr, errParse, constants.DEFAULT_MIN_AFFILIATE_PAYOUT_USD)
			minPayout = constants.DEFAULT_MIN_AFFILIATE_PAYOUT_USD
		}
		cfg.MinAffiliatePayoutUSD = minPayout
	}

	var err error
	cfg.AdminChatID, err = strconv.ParseInt(os.Getenv("ADMIN_CHAT_ID"), 10, 64)
	if err != nil {
		log.Printf("Предупреждение: не удалось прочитать ADMIN_CHAT_ID: %v. Установлено в 0.", err)
		cfg.AdminChatID = 0
	}

	if cfg.DatabaseURL == "" {
		log.Println("Критическая ошибка: DATABASE_URL не установлен.")
	}
	if cfg.NowPaymentsAPIKey == "" {
		log.Println("Предупреждение: NOWPAYMENTS_API_KEY не установлен. Создание платежей не будет работать.")
	}
	if cfg.NowPaymentsIPNSecret == "" {
		log.Println("Критическая ошибка: NOWPAYMENTS_IPN_SECRET не установлен. Все IPN-уведомления будут отклоняться.")
	}
	if cfg.NowPaymentsPayoutKey == "" {
		log.Println("Предупреждение: NOWPAYMENTS_PAYOUT_API_KEY не установлен. Автоматические выплаты партнёрам отключены.")
	}
	if cfg.CronSecret == "" {
		log.Println("Предупреждение: CRON_SECRET не установлен. Эндпоинт выплат будет отклонять все запросы.")
	}
	if cfg.TelegramToken == "" {
		log.Println("Предупреждение: TELEGRAM_APITOKEN не установлен. Уведомления администратору отключены.")
	}

	log.Println("Конфигурация загружена.")
	return cfg, nil
}

// parseRatioEnv читает долю из (0, 1] с откатом на значение по умолчанию.
func parseRatioEnv(name string, fallback float64) float64 {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil || value <= 0 || value > 1 {
		log.Printf("Предупреждение: некорректное значение для %s ('%s'): %v. Используется значение по умолчанию %.2f.", name, raw, err, fallback)
		return fallback
	}
	return value
}
