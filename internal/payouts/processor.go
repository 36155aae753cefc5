package payouts

import (
	"context"
	"log"
	"math"

	"github.com/etseroraynaud-ui/Shadowmarketpro/internal/constants"
	"github.com/etseroraynaud-ui/Shadowmarketpro/internal/db"
	"github.com/etseroraynaud-ui/Shadowmarketpro/internal/models"
	"github.com/etseroraynaud-ui/Shadowmarketpro/internal/payments"
)

// CommissionSource — операции над комиссиями, нужные прогону выплат.
type CommissionSource interface {
	GetDue() ([]models.Commission, error)
	UpdateStatus(ids []int64, status string, payoutID string) error
}

// PayoutSender отправляет выплату на кошелёк партнёра.
type PayoutSender interface {
	SendPayout(ctx context.Context, request payments.PayoutRequest) (*payments.PayoutResponse, error)
}

// WalletResult — итог обработки одного кошелька за прогон.
type WalletResult struct {
	Wallet   string  `json:"wallet"`
	TotalUSD float64 `json:"total_usd"`
	Status   string  `json:"status"` // paid / failed / skipped_below_minimum
	Error    string  `json:"error,omitempty"`
}

// Summary — сводка по прогону выплат.
type Summary struct {
	TotalWallets int            `json:"total_wallets"`
	Paid         int            `json:"paid"`
	Failed       int            `json:"failed"`
	Skipped      int            `json:"skipped"`
	Results      []WalletResult `json:"results"`
}

// Processor группирует комиссии 'due' по кошелькам и выплачивает их пакетами.
type Processor struct {
	Commissions CommissionSource
	Sender      PayoutSender

	// Валюта выплаты (стейблкоин) и минимальная сумма за прогон.
	PayoutCurrency string
	MinPayoutUSD   float64
}

type walletBatch struct {
	totalUSD float64
	ids      []int64
}

// Run выполняет один прогон выплат. Идемпотентность: пакет переводится в
// 'processing' ДО обращения к процессору, поэтому повторный запуск прогона
// не выплатит те же комиссии дважды.
func (p *Processor) Run(ctx context.Context) (Summary, error) {
	due, err := p.Commissions.GetDue()
	if err != nil {
		return Summary{}, err
	}

	if len(due) == 0 {
		log.Println("Run: комиссий к выплате нет.")
		return Summary{}, nil
	}

	// Группируем по кошельку, сохраняя порядок первого появления.
	batches := make(map[string]*walletBatch)
	var wallets []string
	for _, c := range due {
		if c.Wallet == "" {
			continue
		}
		batch, ok := batches[c.Wallet]
		if !ok {
			batch = &walletBatch{}
			batches[c.Wallet] = batch
			wallets = append(wallets, c.Wallet)
		}
		batch.totalUSD += c.AmountUSD
		batch.ids = append(batch.ids, c.ID)
	}

	var summary Summary
	for _, wallet := range wallets {
		batch := batches[wallet]
		totalUSD := math.Round(batch.totalUSD*100) / 100

		if totalUSD < p.MinPayoutUSD {
			summary.Results = append(summary.Results, WalletResult{Wallet: wallet, TotalUSD: totalUSD, Status: "skipped_below_minimum"})
			continue
		}

		if err := p.Commissions.UpdateStatus(batch.ids, constants.COMMISSION_STATUS_PROCESSING, ""); err != nil {
			return summary, err
		}

		response, errPayout := p.Sender.SendPayout(ctx, payments.PayoutRequest{
			Currency: p.PayoutCurrency,
			Amount:   totalUSD,
			Address:  wallet,
		})
		if errPayout != nil {
			log.Printf("Run: выплата на кошелёк %s не прошла: %v", wallet, errPayout)
			if errMark := p.Commissions.UpdateStatus(batch.ids, constants.COMMISSION_STATUS_FAILED, ""); errMark != nil {
				return summary, errMark
			}
			summary.Results = append(summary.Results, WalletResult{Wallet: wallet, TotalUSD: totalUSD, Status: "failed", Error: errPayout.Error()})
			continue
		}

		if errMark := p.Commissions.UpdateStatus(batch.ids, constants.COMMISSION_STATUS_PAID, response.ID.String()); errMark != nil {
			return summary, errMark
		}
		summary.Results = append(summary.Results, WalletResult{Wallet: wallet, TotalUSD: totalUSD, Status: "paid"})
	}

	for _, r := range summary.Results {
		switch r.Status {
		case "paid":
			summary.Paid++
		case "failed":
			summary.Failed++
		default:
			summary.Skipped++
		}
	}
	summary.TotalWallets = len(summary.Results)

	log.Printf("Прогон выплат завершён: кошельков %d, выплачено %d, ошибок %d, пропущено %d.",
		summary.TotalWallets, summary.Paid, summary.Failed, summary.Skipped)
	return summary, nil
}

// PgCommissions — реализация CommissionSource поверх пакета db.
type PgCommissions struct{}

func (PgCommissions) GetDue() ([]models.Commission, error) {
	return db.GetDueCommissions()
}

func (PgCommissions) UpdateStatus(ids []int64, status string, payoutID string) error {
	return db.UpdateCommissionsStatus(ids, status, payoutID)
}

var _ CommissionSource = PgCommissions{}
