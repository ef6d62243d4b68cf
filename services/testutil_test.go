package services

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"jackpot-ledger-system/models"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB opens a temp-file SQLite database so concurrency tests run
// against a real SQL engine with multiple connections.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "ledger.db") +
		"?_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.Wallet{},
		&models.PlatformBalance{},
		&models.Jackpot{},
		&models.Ticket{},
		&models.Transaction{},
		&models.PayoutDestination{},
		&models.Draw{},
		&models.Winner{},
		&models.UserProgress{},
	); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	return db
}

func seedWallet(t *testing.T, db *gorm.DB, userID string, balance int64) *models.Wallet {
	t.Helper()
	wallet := models.Wallet{
		ID:      uuid.NewString(),
		UserID:  userID,
		Balance: balance,
	}
	if err := db.Create(&wallet).Error; err != nil {
		t.Fatalf("Failed to seed wallet for %s: %v", userID, err)
	}
	return &wallet
}

func seedJackpot(t *testing.T, db *gorm.DB, ticketPrice int64, frequency string) *models.Jackpot {
	t.Helper()
	var maxNumber int
	if err := db.Model(&models.Jackpot{}).
		Select("COALESCE(MAX(jackpot_number), 0)").
		Scan(&maxNumber).Error; err != nil {
		t.Fatalf("Failed to read jackpot numbers: %v", err)
	}
	jackpot := models.Jackpot{
		ID:            uuid.NewString(),
		Name:          "Test Jackpot",
		Slug:          uuid.NewString(),
		JackpotNumber: maxNumber + 1,
		TicketPrice:   ticketPrice,
		Frequency:     frequency,
		NextDraw:      time.Now().Add(time.Hour),
		Status:        models.JackpotStatusActive,
		Recurring:     true,
	}
	if err := db.Create(&jackpot).Error; err != nil {
		t.Fatalf("Failed to seed jackpot: %v", err)
	}
	return &jackpot
}

func seedPendingTransaction(t *testing.T, db *gorm.DB, userID, txType string, amount int64) *models.Transaction {
	t.Helper()
	txn := models.Transaction{
		ID:        uuid.NewString(),
		UserID:    userID,
		Type:      txType,
		Status:    models.TransactionStatusPending,
		Amount:    amount,
		Reference: "ref-" + uuid.NewString(),
	}
	if err := db.Create(&txn).Error; err != nil {
		t.Fatalf("Failed to seed transaction: %v", err)
	}
	return &txn
}

// fakeProvider is an in-memory PaymentProvider. Zero-value behavior is
// success; set the err/fail fields to simulate gateway misbehavior.
type fakeProvider struct {
	chargeAmount    int64
	chargeSuccess   bool
	verifyErr       error
	initializeErr   error
	resolveErr      error
	resolveHandle   string
	transferErr     error
	transferFail    bool
	transferCalls   int
	resolveCalls    int
	lastTransfer    int64
	lastRecipient   string
	lastTransferRef string

	// transferHook runs at the start of InitiateTransfer, inside the payout's
	// provider window.
	transferHook func()
}

func (f *fakeProvider) InitializeCharge(_ context.Context, amount int64, payerRef string) (string, error) {
	if f.initializeErr != nil {
		return "", f.initializeErr
	}
	return "https://pay.example.test/" + payerRef, nil
}

func (f *fakeProvider) VerifyCharge(_ context.Context, reference string) (*ChargeStatus, error) {
	if f.verifyErr != nil {
		return nil, f.verifyErr
	}
	return &ChargeStatus{Success: f.chargeSuccess, Amount: f.chargeAmount}, nil
}

func (f *fakeProvider) ResolveRecipient(_ context.Context, dest *models.PayoutDestination) (string, error) {
	f.resolveCalls++
	if f.resolveErr != nil {
		return "", f.resolveErr
	}
	if f.resolveHandle != "" {
		return f.resolveHandle, nil
	}
	return "RCP_" + dest.AccountNumber, nil
}

func (f *fakeProvider) InitiateTransfer(_ context.Context, recipient string, amount int64, reference string) (*TransferResult, error) {
	if f.transferHook != nil {
		f.transferHook()
	}
	f.transferCalls++
	f.lastTransfer = amount
	f.lastRecipient = recipient
	f.lastTransferRef = reference
	if f.transferErr != nil {
		return nil, f.transferErr
	}
	if f.transferFail {
		return &TransferResult{Success: false, Message: "insufficient gateway float"}, nil
	}
	return &TransferResult{Success: true, ProviderRef: "TRF_" + reference}, nil
}

func walletBalance(t *testing.T, db *gorm.DB, userID string) int64 {
	t.Helper()
	var wallet models.Wallet
	if err := db.Where("user_id = ?", userID).First(&wallet).Error; err != nil {
		t.Fatalf("Failed to load wallet for %s: %v", userID, err)
	}
	return wallet.Balance
}
