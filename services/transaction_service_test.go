package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"jackpot-ledger-system/models"
)

func TestTransactionService_InitializeDeposit(t *testing.T) {
	db := setupTestDB(t)
	provider := &fakeProvider{}
	service := NewTransactionService(db, NewWalletService(db), provider, nil)

	txn, paymentURL, err := service.InitializeDeposit(context.Background(), "user-1", 50000)
	if err != nil {
		t.Fatalf("InitializeDeposit failed: %v", err)
	}
	if txn.Status != models.TransactionStatusPending {
		t.Errorf("Expected pending deposit, got %s", txn.Status)
	}
	if paymentURL == "" {
		t.Error("Expected a payment URL")
	}
	// Wallet exists but is not credited until approval.
	if got := walletBalance(t, db, "user-1"); got != 0 {
		t.Errorf("Deposit credited before approval: %d", got)
	}

	t.Run("provider failure keeps the pending row", func(t *testing.T) {
		provider.initializeErr = fmt.Errorf("gateway down")
		txn, _, err := service.InitializeDeposit(context.Background(), "user-1", 1000)
		if err == nil {
			t.Fatal("Expected provider error")
		}
		if txn == nil || txn.Status != models.TransactionStatusPending {
			t.Errorf("Expected the pending row to survive a provider failure, got %+v", txn)
		}
		provider.initializeErr = nil
	})
}

func TestTransactionService_ResolveDeposit(t *testing.T) {
	db := setupTestDB(t)
	service := NewTransactionService(db, NewWalletService(db), &fakeProvider{}, nil)

	seedWallet(t, db, "user-1", 0)
	txn := seedPendingTransaction(t, db, "user-1", models.TransactionTypeDeposit, 50000)

	resolved, err := service.ResolveTransaction(txn.ID, ActionApprove, "admin-1", "looks good")
	if err != nil {
		t.Fatalf("ResolveTransaction failed: %v", err)
	}
	if resolved.Status != models.TransactionStatusApproved {
		t.Errorf("Expected approved, got %s", resolved.Status)
	}
	if resolved.ProcessedBy != "admin-1" || resolved.ProcessedAt == nil {
		t.Errorf("Expected processing metadata, got by=%s at=%v", resolved.ProcessedBy, resolved.ProcessedAt)
	}
	if got := walletBalance(t, db, "user-1"); got != 50000 {
		t.Errorf("Expected balance 50000 after approval, got %d", got)
	}

	t.Run("second approval is rejected and mutates nothing", func(t *testing.T) {
		_, err := service.ResolveTransaction(txn.ID, ActionApprove, "admin-2", "again")
		if !errors.Is(err, ErrInvalidState) {
			t.Fatalf("Expected ErrInvalidState on re-approval, got %v", err)
		}
		if got := walletBalance(t, db, "user-1"); got != 50000 {
			t.Errorf("Double credit: balance %d", got)
		}
		var fresh models.Transaction
		db.First(&fresh, "id = ?", txn.ID)
		if fresh.ProcessedBy != "admin-1" {
			t.Errorf("Resolution metadata overwritten by second approval: %s", fresh.ProcessedBy)
		}
	})
}

func TestTransactionService_RejectLeavesWalletAlone(t *testing.T) {
	db := setupTestDB(t)
	service := NewTransactionService(db, NewWalletService(db), &fakeProvider{}, nil)

	seedWallet(t, db, "user-1", 30000)
	txn := seedPendingTransaction(t, db, "user-1", models.TransactionTypeDeposit, 50000)

	resolved, err := service.ResolveTransaction(txn.ID, ActionReject, "admin-1", "suspicious")
	if err != nil {
		t.Fatalf("ResolveTransaction failed: %v", err)
	}
	if resolved.Status != models.TransactionStatusRejected {
		t.Errorf("Expected rejected, got %s", resolved.Status)
	}
	if got := walletBalance(t, db, "user-1"); got != 30000 {
		t.Errorf("Rejection touched the wallet: %d", got)
	}
}

func TestTransactionService_ApproveWithdrawalAfterBalanceDrop(t *testing.T) {
	db := setupTestDB(t)
	service := NewTransactionService(db, NewWalletService(db), &fakeProvider{}, nil)

	// Balance was sufficient at request time, then dropped below the amount.
	seedWallet(t, db, "user-1", 10000)
	txn := seedPendingTransaction(t, db, "user-1", models.TransactionTypeWithdrawal, 40000)

	_, err := service.ResolveTransaction(txn.ID, ActionApprove, "admin-1", "")
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("Expected ErrInsufficientFunds, got %v", err)
	}

	// The status write rolled back with the debit; still pending, balance intact.
	var fresh models.Transaction
	db.First(&fresh, "id = ?", txn.ID)
	if fresh.Status != models.TransactionStatusPending {
		t.Errorf("Expected transaction to stay pending, got %s", fresh.Status)
	}
	if got := walletBalance(t, db, "user-1"); got != 10000 {
		t.Errorf("Wallet mutated on failed approval: %d", got)
	}
}

func TestTransactionService_ChargeWebhook(t *testing.T) {
	db := setupTestDB(t)
	provider := &fakeProvider{chargeSuccess: true, chargeAmount: 50000}
	service := NewTransactionService(db, NewWalletService(db), provider, nil)

	seedWallet(t, db, "user-1", 0)
	txn := seedPendingTransaction(t, db, "user-1", models.TransactionTypeDeposit, 50000)

	if err := service.ProcessChargeWebhook(context.Background(), txn.Reference); err != nil {
		t.Fatalf("ProcessChargeWebhook failed: %v", err)
	}
	if got := walletBalance(t, db, "user-1"); got != 50000 {
		t.Errorf("Expected balance 50000 after webhook, got %d", got)
	}

	t.Run("replay is a no-op", func(t *testing.T) {
		if err := service.ProcessChargeWebhook(context.Background(), txn.Reference); err != nil {
			t.Fatalf("Replayed webhook errored: %v", err)
		}
		if got := walletBalance(t, db, "user-1"); got != 50000 {
			t.Errorf("Replayed webhook credited again: %d", got)
		}
	})

	t.Run("unknown reference", func(t *testing.T) {
		err := service.ProcessChargeWebhook(context.Background(), "dep-nope")
		if !errors.Is(err, ErrTransactionNotFound) {
			t.Errorf("Expected ErrTransactionNotFound, got %v", err)
		}
	})

	t.Run("amount mismatch blocks the credit", func(t *testing.T) {
		short := seedPendingTransaction(t, db, "user-1", models.TransactionTypeDeposit, 99999)
		if err := service.ProcessChargeWebhook(context.Background(), short.Reference); err == nil {
			t.Fatal("Expected amount-mismatch error")
		}
		var fresh models.Transaction
		db.First(&fresh, "id = ?", short.ID)
		if fresh.Status != models.TransactionStatusPending {
			t.Errorf("Mismatched charge still approved: %s", fresh.Status)
		}
	})

	t.Run("unsuccessful charge blocks the credit", func(t *testing.T) {
		provider.chargeSuccess = false
		failed := seedPendingTransaction(t, db, "user-1", models.TransactionTypeDeposit, 50000)
		if err := service.ProcessChargeWebhook(context.Background(), failed.Reference); err == nil {
			t.Fatal("Expected error for unsuccessful charge")
		}
		provider.chargeSuccess = true
	})
}

func TestTransactionService_GetUserTransactions(t *testing.T) {
	db := setupTestDB(t)
	service := NewTransactionService(db, NewWalletService(db), &fakeProvider{}, nil)

	for i := 0; i < 5; i++ {
		seedPendingTransaction(t, db, "user-1", models.TransactionTypeDeposit, int64(1000*(i+1)))
	}
	seedPendingTransaction(t, db, "user-2", models.TransactionTypeDeposit, 7777)

	txns, err := service.GetUserTransactions("user-1", 3)
	if err != nil {
		t.Fatalf("GetUserTransactions failed: %v", err)
	}
	if len(txns) != 3 {
		t.Errorf("Expected 3 transactions, got %d", len(txns))
	}
	for _, txn := range txns {
		if txn.UserID != "user-1" {
			t.Errorf("Leaked another user's transaction: %+v", txn)
		}
	}
}
