package workers

import (
	"context"
	"errors"
	"log"
	"time"

	"jackpot-ledger-system/models"
	"jackpot-ledger-system/services"

	"gorm.io/gorm"
)

// PayoutWorker drains withdrawals flagged queued_for_payout through the
// provider in batches. Each item succeeds or fails on its own; timeouts stay
// queued for the next tick, hard failures are unqueued for manual review.
type PayoutWorker struct {
	DB          *gorm.DB
	Withdrawals *services.WithdrawalService
	BatchSize   int
}

func NewPayoutWorker(db *gorm.DB, withdrawals *services.WithdrawalService) *PayoutWorker {
	return &PayoutWorker{
		DB:          db,
		Withdrawals: withdrawals,
		BatchSize:   50,
	}
}

// Run polls for queued withdrawals until the context is cancelled.
func (w *PayoutWorker) Run(ctx context.Context, pollInterval time.Duration) {
	log.Println("Starting payout worker...")

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Payout worker stopped.")
			return
		case <-ticker.C:
			w.processQueued(ctx)
		}
	}
}

func (w *PayoutWorker) processQueued(ctx context.Context) {
	var queued []models.Transaction
	err := w.DB.
		Where("type = ? AND status = ? AND queued_for_payout = ?",
			models.TransactionTypeWithdrawal, models.TransactionStatusPending, true).
		Order("created_at ASC").
		Limit(w.BatchSize).
		Find(&queued).Error
	if err != nil {
		log.Printf("❌ [PayoutWorker] DB error: %v", err)
		return
	}
	if len(queued) == 0 {
		return
	}

	log.Printf("📥 [PayoutWorker] Processing %d queued withdrawal(s)", len(queued))

	ids := make([]string, len(queued))
	for i, txn := range queued {
		ids[i] = txn.ID
	}

	results := w.Withdrawals.PayoutBatch(ctx, ids, "payout-worker")

	paid, retried, parked := 0, 0, 0
	for _, r := range results {
		switch {
		case r.Success:
			paid++
		case errors.Is(r.Err, services.ErrProviderTimeout):
			// Stays queued — retried next tick once the provider recovers.
			retried++
		default:
			// Rejected transfers and bad destinations need a human; unqueue
			// so the worker doesn't hammer the provider with them.
			parked++
			if err := w.DB.Model(&models.Transaction{}).
				Where("id = ?", r.TransactionID).
				Update("queued_for_payout", false).Error; err != nil {
				log.Printf("❌ [PayoutWorker] Failed to unqueue %s: %v", r.TransactionID, err)
			}
		}
	}

	log.Printf("✅ [PayoutWorker] Batch done: %d paid, %d awaiting retry, %d parked for review", paid, retried, parked)
}
