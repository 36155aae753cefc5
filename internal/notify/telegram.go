package notify

import (
	"fmt"
	"log"
	"net/http"
	"time"

	tgbotapi "github.com/OvyFlash/telegram-bot-api"

	"github.com/etseroraynaud-ui/Shadowmarketpro/internal/models"
)

// TelegramNotifier отправляет разовые уведомления об оплате в админский чат.
// Канал строго best-effort: вызывающий код логирует и проглатывает ошибки,
// таймаут HTTP-клиента не даёт отправке заблокировать обработку IPN.
type TelegramNotifier struct {
	api    *tgbotapi.BotAPI
	chatID int64
}

// NewTelegramNotifier инициализирует бота для отправки уведомлений.
// token - API токен бота, chatID - чат администратора.
func NewTelegramNotifier(token string, chatID int64, debug bool) (*TelegramNotifier, error) {
	if token == "" {
		return nil, fmt.Errorf("токен Telegram API не предоставлен")
	}
	if chatID == 0 {
		return nil, fmt.Errorf("ADMIN_CHAT_ID не настроен")
	}

	api, err := tgbotapi.NewBotAPIWithClient(token, tgbotapi.APIEndpoint, &http.Client{Timeout: 10 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("ошибка инициализации Telegram Bot API: %w", err)
	}
	api.Debug = debug

	log.Printf("Канал уведомлений авторизован как аккаунт %s", api.Self.UserName)
	return &TelegramNotifier{api: api, chatID: chatID}, nil
}

// PaymentConfirmed отправляет администратору сообщение о подтверждённой оплате.
func (n *TelegramNotifier) PaymentConfirmed(order models.Order) error {
	text := fmt.Sprintf("✅ Оплата подтверждена\nЗаказ: %s\nПлан: %s\nСумма: %.2f %s",
		order.OrderID, order.Plan, order.AmountExpected, order.Currency)
	if order.HasAffiliate() {
		text += fmt.Sprintf("\nПартнёр: %s", order.InfluencerWallet.String)
	}

	msg := tgbotapi.NewMessage(n.chatID, text)
	if _, err := n.api.Send(msg); err != nil {
		return fmt.Errorf("ошибка отправки уведомления в чат %d: %w", n.chatID, err)
	}
	return nil
}
