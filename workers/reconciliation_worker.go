package workers

import (
	"context"
	"log"
	"time"

	"jackpot-ledger-system/models"

	"gorm.io/gorm"
)

// WalletDrift is one wallet whose balance disagrees with its approved
// transaction history.
type WalletDrift struct {
	UserID        string `json:"user_id"`
	Balance       int64  `json:"balance"`
	LedgerBalance int64  `json:"ledger_balance"`
}

// PoolDrift is one active jackpot whose prize pool disagrees with the
// current cycle's ticket sales.
type PoolDrift struct {
	JackpotID   string `json:"jackpot_id"`
	Name        string `json:"name"`
	PrizePool   int64  `json:"prize_pool"`
	TicketTotal int64  `json:"ticket_total"`
}

// ReconciliationReport is the outcome of one audit pass.
type ReconciliationReport struct {
	WalletDrifts []WalletDrift `json:"wallet_drifts"`
	PoolDrifts   []PoolDrift   `json:"pool_drifts"`
	RanAt        time.Time     `json:"ran_at"`
}

func (r *ReconciliationReport) Clean() bool {
	return len(r.WalletDrifts) == 0 && len(r.PoolDrifts) == 0
}

// ReconciliationWorker periodically cross-checks the derived balances against
// the transaction history. Every wallet balance must equal the signed sum of
// its approved entries, and every active jackpot's pool must equal the
// current cycle's ticket sales. Drift means a bug or manual tampering; the
// worker reports, it never repairs.
type ReconciliationWorker struct {
	DB *gorm.DB
}

func NewReconciliationWorker(db *gorm.DB) *ReconciliationWorker {
	return &ReconciliationWorker{DB: db}
}

// Run audits on a fixed interval until the context is cancelled.
func (w *ReconciliationWorker) Run(ctx context.Context, interval time.Duration) {
	log.Println("Starting reconciliation worker...")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Reconciliation worker stopped.")
			return
		case <-ticker.C:
			report, err := w.RunOnce()
			if err != nil {
				log.Printf("❌ [Reconciliation] Audit failed: %v", err)
				continue
			}
			if report.Clean() {
				log.Println("✅ [Reconciliation] Ledger consistent.")
				continue
			}
			for _, d := range report.WalletDrifts {
				log.Printf("⚠️  [Reconciliation] Wallet %s holds %d but its ledger sums to %d",
					d.UserID, d.Balance, d.LedgerBalance)
			}
			for _, d := range report.PoolDrifts {
				log.Printf("⚠️  [Reconciliation] Jackpot %s pool is %d but cycle tickets sum to %d",
					d.Name, d.PrizePool, d.TicketTotal)
			}
		}
	}
}

// RunOnce executes a single audit pass. A report taken while purchases or
// settlements are in flight can show transient drift; persistent drift across
// passes is the real signal.
func (w *ReconciliationWorker) RunOnce() (*ReconciliationReport, error) {
	report := &ReconciliationReport{RanAt: time.Now()}

	err := w.DB.Raw(`
		SELECT w.user_id, w.balance,
		       COALESCE(SUM(CASE t.type
		           WHEN ? THEN t.amount
		           WHEN ? THEN t.amount
		           WHEN ? THEN -t.amount
		           WHEN ? THEN -t.amount
		       END), 0) AS ledger_balance
		FROM wallets w
		LEFT JOIN transactions t ON t.user_id = w.user_id AND t.status = ?
		GROUP BY w.user_id, w.balance
		HAVING w.balance <> COALESCE(SUM(CASE t.type
		           WHEN ? THEN t.amount
		           WHEN ? THEN t.amount
		           WHEN ? THEN -t.amount
		           WHEN ? THEN -t.amount
		       END), 0)`,
		models.TransactionTypeDeposit, models.TransactionTypePrizeWin,
		models.TransactionTypeTicketPurchase, models.TransactionTypeWithdrawal,
		models.TransactionStatusApproved,
		models.TransactionTypeDeposit, models.TransactionTypePrizeWin,
		models.TransactionTypeTicketPurchase, models.TransactionTypeWithdrawal,
	).Scan(&report.WalletDrifts).Error
	if err != nil {
		return nil, err
	}

	err = w.DB.Raw(`
		SELECT j.id AS jackpot_id, j.name, j.prize_pool,
		       COALESCE(SUM(tk.purchase_price), 0) AS ticket_total
		FROM jackpots j
		LEFT JOIN tickets tk ON tk.jackpot_id = j.id AND tk.ticket_sequence > j.last_settled_sequence
		WHERE j.status = ?
		GROUP BY j.id, j.name, j.prize_pool
		HAVING j.prize_pool <> COALESCE(SUM(tk.purchase_price), 0)`,
		models.JackpotStatusActive,
	).Scan(&report.PoolDrifts).Error
	if err != nil {
		return nil, err
	}

	return report, nil
}
