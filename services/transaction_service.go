// services/transaction_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"jackpot-ledger-system/models"
	"jackpot-ledger-system/utils"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Resolution actions for pending transactions.
const (
	ActionApprove = "approve"
	ActionReject  = "reject"
)

type TransactionService struct {
	DB       *gorm.DB
	Wallets  *WalletService
	Provider PaymentProvider
	Notifier Notifier
}

func NewTransactionService(db *gorm.DB, wallets *WalletService, provider PaymentProvider, notifier Notifier) *TransactionService {
	if notifier == nil {
		notifier = NoopNotifier{}
	}
	return &TransactionService{DB: db, Wallets: wallets, Provider: provider, Notifier: notifier}
}

// InitializeDeposit records a pending deposit and asks the provider for a
// payment URL. The wallet is only credited later — by webhook or by an admin
// approving the transaction.
func (s *TransactionService) InitializeDeposit(ctx context.Context, userID string, amount int64) (*models.Transaction, string, error) {
	if amount <= 0 {
		return nil, "", fmt.Errorf("amount must be positive")
	}
	if _, err := s.Wallets.EnsureWallet(userID); err != nil {
		return nil, "", err
	}

	txn := models.Transaction{
		ID:        uuid.NewString(),
		UserID:    userID,
		Type:      models.TransactionTypeDeposit,
		Status:    models.TransactionStatusPending,
		Amount:    amount,
		Reference: "dep-" + uuid.NewString(),
	}
	if err := s.DB.Create(&txn).Error; err != nil {
		return nil, "", err
	}

	paymentURL, err := s.Provider.InitializeCharge(ctx, amount, txn.Reference)
	if err != nil {
		// The pending row stays — the charge can be re-initialized or the
		// reference verified later.
		return &txn, "", err
	}
	return &txn, paymentURL, nil
}

// ResolveTransaction moves a pending deposit/withdrawal to a terminal state
// and applies the wallet mutation exactly once. The pending→terminal guard
// and the wallet write share one database transaction, so re-approving an
// already-terminal transaction can never double-credit.
func (s *TransactionService) ResolveTransaction(id, action, adminID, note string) (*models.Transaction, error) {
	var newStatus string
	switch action {
	case ActionApprove:
		newStatus = models.TransactionStatusApproved
	case ActionReject:
		newStatus = models.TransactionStatusRejected
	default:
		return nil, fmt.Errorf("unknown action %q", action)
	}

	var resolved models.Transaction
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var txn models.Transaction
		if err := tx.First(&txn, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTransactionNotFound
			}
			return err
		}

		now := time.Now()
		res := tx.Model(&models.Transaction{}).
			Where("id = ? AND status = ?", id, models.TransactionStatusPending).
			Updates(map[string]interface{}{
				"status":       newStatus,
				"processed_by": adminID,
				"processed_at": now,
				"admin_note":   note,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrInvalidState
		}

		if action == ActionApprove {
			switch txn.Type {
			case models.TransactionTypeDeposit:
				if _, err := s.Wallets.AdjustBalance(tx, txn.UserID, txn.Amount); err != nil {
					return err
				}
			case models.TransactionTypeWithdrawal:
				// Balance may have dropped since the request was made; the
				// debit failure rolls the status write back and the
				// transaction stays pending — surfaced, never swallowed.
				if _, err := s.Wallets.AdjustBalance(tx, txn.UserID, -txn.Amount); err != nil {
					return err
				}
			}
		}

		return tx.First(&resolved, "id = ?", id).Error
	})
	if err != nil {
		return nil, err
	}

	kind := resolved.Type + "_" + resolved.Status
	s.Notifier.Notify(resolved.UserID, kind, map[string]interface{}{
		"reference": resolved.Reference,
		"amount":    utils.FormatAmount(resolved.Amount),
	})
	log.Printf("💰 Transaction %s (%s) resolved: %s by %s", resolved.ID, resolved.Type, resolved.Status, adminID)
	return &resolved, nil
}

// ProcessChargeWebhook handles the provider's asynchronous charge-success
// callback. Delivery is at-least-once: a replayed webhook finds the
// transaction already approved and is a no-op.
func (s *TransactionService) ProcessChargeWebhook(ctx context.Context, reference string) error {
	var txn models.Transaction
	err := s.DB.Where("reference = ? AND type = ?", reference, models.TransactionTypeDeposit).First(&txn).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrTransactionNotFound
	}
	if err != nil {
		return err
	}
	if txn.Status != models.TransactionStatusPending {
		log.Printf("📥 Webhook replay for %s (already %s) — ignoring", reference, txn.Status)
		return nil
	}

	status, err := s.Provider.VerifyCharge(ctx, reference)
	if err != nil {
		return err
	}
	if !status.Success {
		return fmt.Errorf("charge %s not successful at provider", reference)
	}
	if status.Amount != txn.Amount {
		return fmt.Errorf("charge %s amount mismatch: provider says %d, ledger says %d", reference, status.Amount, txn.Amount)
	}

	_, err = s.ResolveTransaction(txn.ID, ActionApprove, "payment-webhook", "auto-approved via charge webhook")
	if errors.Is(err, ErrInvalidState) {
		// Lost the race against a concurrent delivery — already applied.
		return nil
	}
	return err
}

// GetUserTransactions lists a user's ledger entries, newest first.
func (s *TransactionService) GetUserTransactions(userID string, limit int) ([]models.Transaction, error) {
	if limit < 1 || limit > 100 {
		limit = 20
	}
	var txns []models.Transaction
	err := s.DB.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&txns).Error
	return txns, err
}
