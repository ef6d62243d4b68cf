// services/withdrawal_service.go
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
	"gorm.io/gorm/clause"
)

// WithdrawalFeeBps is the platform fee on payouts (1%). The user's wallet is
// debited the full requested amount; the provider transfers amount minus fee.
const WithdrawalFeeBps = 100

type WithdrawalService struct {
	DB       *gorm.DB
	Wallets  *WalletService
	Provider PaymentProvider
	Notifier Notifier
}

func NewWithdrawalService(db *gorm.DB, wallets *WalletService, provider PaymentProvider, notifier Notifier) *WithdrawalService {
	if notifier == nil {
		notifier = NoopNotifier{}
	}
	return &WithdrawalService{DB: db, Wallets: wallets, Provider: provider, Notifier: notifier}
}

// SavePayoutDestination upserts the user's bank destination. Changing the
// destination invalidates any cached provider recipient handle.
func (s *WithdrawalService) SavePayoutDestination(userID, bankName, bankCode, accountNumber, accountName string) (*models.PayoutDestination, error) {
	if bankCode == "" || accountNumber == "" {
		return nil, fmt.Errorf("bank_code and account_number are required")
	}
	dest := models.PayoutDestination{
		ID:            uuid.NewString(),
		UserID:        userID,
		BankName:      bankName,
		BankCode:      bankCode,
		AccountNumber: accountNumber,
		AccountName:   accountName,
	}
	err := s.DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"bank_name", "bank_code", "account_number", "account_name", "recipient_handle", "updated_at",
		}),
	}).Create(&dest).Error
	if err != nil {
		return nil, err
	}
	return s.GetPayoutDestination(userID)
}

// GetPayoutDestination returns the user's saved destination.
func (s *WithdrawalService) GetPayoutDestination(userID string) (*models.PayoutDestination, error) {
	var dest models.PayoutDestination
	if err := s.DB.Where("user_id = ?", userID).First(&dest).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoPayoutDestination
		}
		return nil, err
	}
	return &dest, nil
}

// RequestWithdrawal records a pending withdrawal. The wallet is not touched
// yet — the debit happens at payout time, atomically with the approval.
func (s *WithdrawalService) RequestWithdrawal(userID string, amount int64) (*models.Transaction, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("amount must be positive")
	}
	if _, err := s.GetPayoutDestination(userID); err != nil {
		return nil, err
	}
	// UX pre-check only — the authoritative balance guard runs at payout.
	wallet, err := s.Wallets.GetWallet(userID)
	if err != nil {
		return nil, err
	}
	if wallet.Balance < amount {
		return nil, ErrInsufficientFunds
	}

	txn := models.Transaction{
		ID:        uuid.NewString(),
		UserID:    userID,
		Type:      models.TransactionTypeWithdrawal,
		Status:    models.TransactionStatusPending,
		Amount:    amount,
		Reference: "wd-" + uuid.NewString(),
	}
	if err := s.DB.Create(&txn).Error; err != nil {
		return nil, err
	}
	return &txn, nil
}

// PayoutWithdrawal settles one pending withdrawal. The transaction is first
// claimed pending→processing so a concurrent admin resolve cannot approve it
// while the provider transfer is in flight; then the destination is resolved,
// net-of-fee is transferred, and — only after provider acceptance — the
// transaction is approved, the full amount debited and the fee credited in a
// single database transaction. Any provider failure releases the claim back
// to pending, so a timeout can be retried or reconciled.
func (s *WithdrawalService) PayoutWithdrawal(ctx context.Context, transactionID, adminID string) (*models.Transaction, error) {
	var txn models.Transaction
	if err := s.DB.First(&txn, "id = ?", transactionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	if txn.Type != models.TransactionTypeWithdrawal {
		return nil, ErrInvalidState
	}

	claim := s.DB.Model(&models.Transaction{}).
		Where("id = ? AND status = ?", transactionID, models.TransactionStatusPending).
		Update("status", models.TransactionStatusProcessing)
	if claim.Error != nil {
		return nil, claim.Error
	}
	if claim.RowsAffected == 0 {
		return nil, ErrInvalidState
	}
	release := func() {
		if err := s.DB.Model(&models.Transaction{}).
			Where("id = ? AND status = ?", transactionID, models.TransactionStatusProcessing).
			Update("status", models.TransactionStatusPending).Error; err != nil {
			log.Printf("❌ Failed to release withdrawal %s back to pending: %v", transactionID, err)
		}
	}

	dest, err := s.GetPayoutDestination(txn.UserID)
	if err != nil {
		release()
		return nil, err
	}

	recipient := dest.RecipientHandle
	if recipient == "" {
		recipient, err = s.Provider.ResolveRecipient(ctx, dest)
		if err != nil {
			release()
			if errors.Is(err, ErrProviderTimeout) {
				return nil, err
			}
			return nil, fmt.Errorf("%w: %v", ErrUnresolvedDestination, err)
		}
		// Cache for the next payout; losing this write only costs a re-resolve.
		if err := s.DB.Model(&models.PayoutDestination{}).
			Where("id = ?", dest.ID).
			Update("recipient_handle", recipient).Error; err != nil {
			log.Printf("⚠️  Failed to cache recipient handle for %s: %v", txn.UserID, err)
		}
	}

	fee := txn.Amount * WithdrawalFeeBps / BpsDenominator
	net := txn.Amount - fee

	result, err := s.Provider.InitiateTransfer(ctx, recipient, net, txn.Reference)
	if err != nil {
		release()
		if errors.Is(err, ErrProviderTimeout) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrTransferRejected, err)
	}
	if !result.Success {
		release()
		return nil, fmt.Errorf("%w: %s", ErrTransferRejected, result.Message)
	}

	var paid models.Transaction
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		res := tx.Model(&models.Transaction{}).
			Where("id = ? AND status = ?", transactionID, models.TransactionStatusProcessing).
			Updates(map[string]interface{}{
				"status":            models.TransactionStatusApproved,
				"provider_ref":      result.ProviderRef,
				"processed_by":      adminID,
				"processed_at":      now,
				"queued_for_payout": false,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrInvalidState
		}

		if _, err := s.Wallets.AdjustBalance(tx, txn.UserID, -txn.Amount); err != nil {
			return err
		}
		if err := s.Wallets.CreditPlatform(tx, models.PlatformAccountWithdrawalFees, fee); err != nil {
			return err
		}
		return tx.First(&paid, "id = ?", transactionID).Error
	})
	if err != nil {
		// The provider accepted the transfer but the ledger write failed.
		// Release the claim and flag the provider ref for reconciliation.
		release()
		log.Printf("⚠️  Withdrawal %s transferred at provider (%s) but ledger write failed: %v — reconcile manually",
			transactionID, result.ProviderRef, err)
		return nil, err
	}

	s.Notifier.Notify(paid.UserID, "withdrawal_paid", map[string]interface{}{
		"reference": paid.Reference,
		"amount":    utils.FormatAmount(paid.Amount),
		"fee":       utils.FormatAmount(fee),
	})
	log.Printf("💸 Withdrawal %s paid: %s to %s (fee %s)", paid.ID, utils.FormatAmount(net), txn.UserID, utils.FormatAmount(fee))
	return &paid, nil
}

// PayoutResult reports one item of a batch payout.
type PayoutResult struct {
	TransactionID string `json:"transaction_id"`
	Success       bool   `json:"success"`
	Message       string `json:"message,omitempty"`
	Err           error  `json:"-"`
}

// PayoutBatch runs PayoutWithdrawal over a set of transactions. Items are
// independent: one provider failure never aborts the batch.
func (s *WithdrawalService) PayoutBatch(ctx context.Context, transactionIDs []string, adminID string) []PayoutResult {
	results := make([]PayoutResult, 0, len(transactionIDs))
	for _, id := range transactionIDs {
		_, err := s.PayoutWithdrawal(ctx, id, adminID)
		if err != nil {
			log.Printf("❌ Batch payout item %s failed: %v", id, err)
			results = append(results, PayoutResult{TransactionID: id, Success: false, Message: err.Error(), Err: err})
			continue
		}
		results = append(results, PayoutResult{TransactionID: id, Success: true})
	}
	return results
}

// QueueForPayout flags a pending withdrawal for the background payout worker.
func (s *WithdrawalService) QueueForPayout(transactionID string) error {
	res := s.DB.Model(&models.Transaction{}).
		Where("id = ? AND type = ? AND status = ?",
			transactionID, models.TransactionTypeWithdrawal, models.TransactionStatusPending).
		Update("queued_for_payout", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrInvalidState
	}
	return nil
}
