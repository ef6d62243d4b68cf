// models/transaction.go
package models

import "time"

// Transaction types
const (
	TransactionTypeDeposit        = "deposit"
	TransactionTypeWithdrawal     = "withdrawal"
	TransactionTypeTicketPurchase = "ticket_purchase"
	TransactionTypePrizeWin       = "prize_win"
)

// Transaction statuses. Approved and rejected are terminal. Processing is a
// payout claim: a provider transfer is in flight, so neither an admin resolve
// nor a second payout can touch the row; a failed transfer releases it back
// to pending.
const (
	TransactionStatusPending    = "pending"
	TransactionStatusProcessing = "processing"
	TransactionStatusApproved   = "approved"
	TransactionStatusRejected   = "rejected"
)

// Transaction is a ledger entry. Reference doubles as the external
// idempotency key (charge webhooks and provider transfers are matched on it).
type Transaction struct {
	ID     string `gorm:"primaryKey;type:uuid;not null" json:"id"`
	UserID string `gorm:"type:uuid;not null;index" json:"user_id"`

	Type   string `gorm:"type:varchar(32);not null;index" json:"type"`
	Status string `gorm:"type:varchar(16);not null;default:pending;index" json:"status"`
	Amount int64  `gorm:"not null" json:"amount"` // minor units

	Reference   string `gorm:"uniqueIndex;not null" json:"reference"`
	ProviderRef string `json:"provider_ref,omitempty"`

	// ProcessedBy holds an admin's user ID or a system actor name such as
	// "scheduler" or "payout-worker" — varchar, not uuid.
	ProcessedBy string     `gorm:"type:varchar(64)" json:"processed_by,omitempty"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
	AdminNote   string     `json:"admin_note,omitempty"`

	// Withdrawals flagged here are drained by the background payout worker.
	QueuedForPayout bool `gorm:"not null;default:false;index" json:"queued_for_payout"`

	Timestamps
}

// PayoutDestination is a user's saved bank destination for withdrawals —
// a typed record, not a JSON blob stuffed into a note column.
type PayoutDestination struct {
	ID     string `gorm:"primaryKey;type:uuid;not null" json:"id"`
	UserID string `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`

	BankName      string `gorm:"not null" json:"bank_name"`
	BankCode      string `gorm:"type:varchar(16);not null" json:"bank_code"`
	AccountNumber string `gorm:"type:varchar(32);not null" json:"account_number"`
	AccountName   string `gorm:"not null" json:"account_name"`

	// RecipientHandle caches the provider-side recipient so repeat payouts
	// skip the resolve round trip.
	RecipientHandle string `json:"recipient_handle,omitempty"`

	Timestamps
}
