// services/wallet_service.go
package services

import (
	"errors"
	"log"

	"jackpot-ledger-system/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type WalletService struct {
	DB *gorm.DB
}

func NewWalletService(db *gorm.DB) *WalletService {
	return &WalletService{DB: db}
}

// AdjustBalance applies delta (positive or negative) to a user's wallet as a
// single guarded UPDATE — the balance check and the write are one statement,
// so two concurrent adjustments serialize instead of losing an update.
// Pass the enclosing *gorm.DB transaction handle so the adjustment commits or
// rolls back with the rest of the unit of work.
func (s *WalletService) AdjustBalance(tx *gorm.DB, userID string, delta int64) (*models.Wallet, error) {
	res := tx.Model(&models.Wallet{}).
		Where("user_id = ? AND balance + ? >= 0", userID, delta).
		Update("balance", gorm.Expr("balance + ?", delta))
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		// Guard failed — missing wallet or overdraft. Distinguish for the caller.
		var count int64
		if err := tx.Model(&models.Wallet{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
			return nil, err
		}
		if count == 0 {
			return nil, ErrWalletNotFound
		}
		return nil, ErrInsufficientFunds
	}

	var wallet models.Wallet
	if err := tx.Where("user_id = ?", userID).First(&wallet).Error; err != nil {
		return nil, err
	}
	return &wallet, nil
}

// GetWallet returns the user's wallet.
func (s *WalletService) GetWallet(userID string) (*models.Wallet, error) {
	var wallet models.Wallet
	if err := s.DB.Where("user_id = ?", userID).First(&wallet).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, err
	}
	return &wallet, nil
}

// EnsureWallet creates the wallet row if the user doesn't have one yet (idempotent).
func (s *WalletService) EnsureWallet(userID string) (*models.Wallet, error) {
	wallet := models.Wallet{
		ID:      uuid.NewString(),
		UserID:  userID,
		Balance: 0,
	}
	if err := s.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Create(&wallet).Error; err != nil {
		return nil, err
	}
	return s.GetWallet(userID)
}

// CreditPlatform adds amount to a platform aggregate account as a single
// insert-or-increment upsert — never two sequential ops that can race into
// duplicate rows.
func (s *WalletService) CreditPlatform(tx *gorm.DB, account string, amount int64) error {
	row := models.PlatformBalance{
		ID:      uuid.NewString(),
		Account: account,
		Balance: amount,
	}
	err := tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "account"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"balance": gorm.Expr("platform_balances.balance + excluded.balance"),
		}),
	}).Create(&row).Error
	if err != nil {
		log.Printf("❌ Failed to credit platform account %s by %d: %v", account, amount, err)
	}
	return err
}

// GetPlatformBalance returns the balance for one platform account (0 if the
// row hasn't been created yet).
func (s *WalletService) GetPlatformBalance(account string) (int64, error) {
	var row models.PlatformBalance
	if err := s.DB.Where("account = ?", account).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return row.Balance, nil
}
