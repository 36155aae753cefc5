package ipn

import (
	"errors"
	"log"
	"math"
	"strings"

	"github.com/etseroraynaud-ui/Shadowmarketpro/internal/constants"
	"github.com/etseroraynaud-ui/Shadowmarketpro/internal/db"
	"github.com/etseroraynaud-ui/Shadowmarketpro/internal/models"
)

// OrderStore — операции над заказами, нужные реконсиляции.
// Все гарантии идемпотентности держатся на долговечном состоянии этого
// хранилища, а не на памяти процесса.
type OrderStore interface {
	GetByOrderID(orderID string) (models.Order, error)
	RefreshPaymentInfo(orderID, paymentID, processorStatus string, amountPaid float64) error
	// TransitionState возвращает false, если заказ уже был в терминальном
	// состоянии (переход проиграл гонку другой доставке).
	TransitionState(orderID, newState string) (bool, error)
	MarkConfirmationSent(orderID string) error
	MarkCommissionGenerated(orderID string) error
}

// CommissionStore — создание комиссии. Нарушение уникальности по заказу
// должно возвращаться как db.ErrDuplicateCommission.
type CommissionStore interface {
	Create(c models.Commission) (int64, error)
}

// Notifier — разовое уведомление об оплате. Строго best-effort: ошибка
// логируется и проглатывается, на исход обработки не влияет.
type Notifier interface {
	PaymentConfirmed(order models.Order) error
}

// Результат обработки уведомления для формирования ответа процессору.
const (
	ResultProcessed = "processed" // заказ впервые переведён в терминальное состояние
	ResultPending   = "pending"   // статус не терминальный, записана только бухгалтерия
	ResultDuplicate = "duplicate" // заказ уже терминальный, повторная доставка
	ResultIgnored   = "ignored"   // чужая валюта, нет/неизвестен order_id
)

// Outcome — структурированное подтверждение для ответа процессору.
type Outcome struct {
	Result  string `json:"result"`
	State   string `json:"state,omitempty"`   // нормализованное состояние заказа
	Status  string `json:"status,omitempty"`  // статус процессора как есть
	Warning string `json:"warning,omitempty"` // причина игнорирования
}

// Reconciler — машина состояний реконсиляции платежей (pending -> confirmed | failed).
type Reconciler struct {
	Orders      OrderStore
	Commissions CommissionStore
	Notifier    Notifier // может быть nil, если канал уведомлений не настроен

	// Допустимые токены валюты оплаты (нижний регистр, сопоставление по подстроке).
	AcceptedCurrencies []string
	// Порог для partially_paid: received/expected >= Tolerance считается оплатой.
	Tolerance float64
}

// NormalizeStatus приводит статус процессора к трёхзначной модели.
// finished — безусловный успех; partially_paid — успех, только если получено
// не меньше доли Tolerance от запрошенной суммы (комиссии сети съедают копейки).
// При неизвестной запрошенной сумме ratio-тест пройти нельзя.
func NormalizeStatus(status string, actuallyPaid, expected, tolerance float64) string {
	switch status {
	case constants.NP_STATUS_FINISHED:
		return constants.PAYMENT_STATE_CONFIRMED
	case constants.NP_STATUS_PARTIALLY_PAID:
		if expected > 0 && actuallyPaid/expected >= tolerance {
			return constants.PAYMENT_STATE_CONFIRMED
		}
		return constants.PAYMENT_STATE_PENDING
	case constants.NP_STATUS_FAILED, constants.NP_STATUS_EXPIRED, constants.NP_STATUS_REFUNDED:
		return constants.PAYMENT_STATE_FAILED
	default:
		return constants.PAYMENT_STATE_PENDING
	}
}

// CommissionAmount считает комиссию партнёра: доля от цены заказа в валюте
// расчёта, округление до центов.
func CommissionAmount(amountExpected, percent float64) float64 {
	return math.Round(amountExpected*percent*100) / 100
}

// currencyAccepted проверяет валюту оплаты по allowlist: регистронезависимое
// вхождение токена (процессоры присылают варианты написания одной сети).
func (r *Reconciler) currencyAccepted(payCurrency string) bool {
	cur := strings.ToLower(strings.TrimSpace(payCurrency))
	if cur == "" {
		return false
	}
	for _, token := range r.AcceptedCurrencies {
		if token != "" && strings.Contains(cur, token) {
			return true
		}
	}
	return false
}

// Process прогоняет одно аутентичное уведомление через машину состояний.
//
// Ошибка возвращается только при сбое хранилища (процессор повторит доставку,
// что безопасно: каждое побочное действие заново сверяется с долговечным
// состоянием). Все остальные случаи — Outcome с успешным подтверждением,
// чтобы процессор не ретраил вечно.
func (r *Reconciler) Process(n Notification) (Outcome, error) {
	if n.OrderID == "" {
		log.Println("Process: уведомление без order_id, подтверждаем без обработки.")
		return Outcome{Result: ResultIgnored, Warning: "missing order_id"}, nil
	}

	if !r.currencyAccepted(n.PayCurrency) {
		log.Printf("Process: заказ %s оплачен в неподдерживаемой валюте '%s', игнорируем.", n.OrderID, n.PayCurrency)
		return Outcome{Result: ResultIgnored, Warning: "wrong currency"}, nil
	}

	order, err := r.Orders.GetByOrderID(n.OrderID)
	if err != nil {
		if errors.Is(err, db.ErrOrderNotFound) {
			log.Printf("Process: неизвестный order_id %s, подтверждаем без обработки.", n.OrderID)
			return Outcome{Result: ResultIgnored, Warning: "unknown order_id"}, nil
		}
		return Outcome{}, err
	}

	// Бухгалтерия обновляется при каждой аутентичной доставке, в том числе
	// после терминального состояния. Нормализованное состояние не трогаем.
	if err := r.Orders.RefreshPaymentInfo(n.OrderID, n.PaymentID, n.Status, n.ActuallyPaid); err != nil {
		return Outcome{}, err
	}

	// Главное свойство корректности: терминальное состояние монотонно.
	// Повторная доставка не перезапускает ни уведомление, ни комиссию.
	if order.IsTerminal() {
		return Outcome{Result: ResultDuplicate, State: order.PaymentState, Status: n.Status}, nil
	}

	state := NormalizeStatus(n.Status, n.ActuallyPaid, n.PayAmount, r.Tolerance)
	if state == constants.PAYMENT_STATE_PENDING {
		return Outcome{Result: ResultPending, State: state, Status: n.Status}, nil
	}

	transitioned, err := r.Orders.TransitionState(n.OrderID, state)
	if err != nil {
		return Outcome{}, err
	}
	if !transitioned {
		// Конкурирующая доставка успела раньше нас.
		return Outcome{Result: ResultDuplicate, State: state, Status: n.Status}, nil
	}

	if state == constants.PAYMENT_STATE_FAILED {
		return Outcome{Result: ResultProcessed, State: state, Status: n.Status}, nil
	}

	if err := r.confirmSideEffects(order); err != nil {
		return Outcome{}, err
	}

	return Outcome{Result: ResultProcessed, State: state, Status: n.Status}, nil
}

// confirmSideEffects выполняет разовые действия первого перехода в confirmed:
// уведомление администратору и создание комиссии. Каждое действие закрыто
// собственным долговечным флагом.
func (r *Reconciler) confirmSideEffects(order models.Order) error {
	if !order.ConfirmationSent && r.Notifier != nil {
		if err := r.Notifier.PaymentConfirmed(order); err != nil {
			// Канал уведомлений best-effort: сбой не должен ни прервать
			// обработку, ни изменить ответ процессору.
			log.Printf("confirmSideEffects: не удалось отправить уведомление по заказу %s: %v", order.OrderID, err)
		} else if err := r.Orders.MarkConfirmationSent(order.OrderID); err != nil {
			return err
		}
	}

	if order.HasAffiliate() && !order.CommissionGenerated {
		percent := order.CommissionPercent.Float64
		if !order.CommissionPercent.Valid || percent <= 0 {
			log.Printf("confirmSideEffects: у заказа %s есть кошелёк партнёра, но нет доли комиссии, пропускаем.", order.OrderID)
		} else {
			commission := models.Commission{
				InfluencerID: order.InfluencerID,
				OrderRef:     order.OrderID,
				Wallet:       order.InfluencerWallet.String,
				AmountUSD:    CommissionAmount(order.AmountExpected, percent),
				Status:       constants.COMMISSION_STATUS_DUE,
			}
			if _, err := r.Commissions.Create(commission); err != nil {
				if !errors.Is(err, db.ErrDuplicateCommission) {
					return err
				}
				// Комиссию уже создала параллельная доставка — это успех.
			}
		}
	}

	return r.Orders.MarkCommissionGenerated(order.OrderID)
}

// PgStores — реализация хранилищ поверх пакета db (глобальное соединение).
type PgStores struct{}

func (PgStores) GetByOrderID(orderID string) (models.Order, error) {
	return db.GetOrderByOrderID(orderID)
}

func (PgStores) RefreshPaymentInfo(orderID, paymentID, processorStatus string, amountPaid float64) error {
	return db.RefreshOrderPaymentInfo(orderID, paymentID, processorStatus, amountPaid)
}

func (PgStores) TransitionState(orderID, newState string) (bool, error) {
	return db.TransitionOrderState(orderID, newState)
}

func (PgStores) MarkConfirmationSent(orderID string) error {
	return db.MarkOrderConfirmationSent(orderID)
}

func (PgStores) MarkCommissionGenerated(orderID string) error {
	return db.MarkOrderCommissionGenerated(orderID)
}

func (PgStores) Create(c models.Commission) (int64, error) {
	return db.CreateCommission(c)
}

var _ OrderStore = PgStores{}
var _ CommissionStore = PgStores{}
