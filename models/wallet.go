// models/wallet.go
package models

// Wallet is the sole mutable money store per user.
// Balance is held in minor units (kobo) and is never allowed below zero —
// the guard lives in the UPDATE statement, not in application checks.
type Wallet struct {
	ID      string `gorm:"primaryKey;type:uuid;not null" json:"id"`
	UserID  string `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"` // External user ID
	Balance int64  `gorm:"not null;default:0" json:"balance"`

	Timestamps
}

// Platform aggregate accounts.
const (
	PlatformAccountPrizeCommission = "prize_commission"
	PlatformAccountWithdrawalFees  = "withdrawal_fees"
)

// PlatformBalance accumulates the operator's share of settled pools and
// withdrawal fees. Rows are created lazily via insert-or-increment upserts
// keyed on Account.
type PlatformBalance struct {
	ID      string `gorm:"primaryKey;type:uuid;not null" json:"id"`
	Account string `gorm:"type:varchar(64);not null;uniqueIndex" json:"account"`
	Balance int64  `gorm:"not null;default:0" json:"balance"`

	Timestamps
}
