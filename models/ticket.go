// models/ticket.go
package models

// Ticket is a purchased entry into a jackpot draw. Tickets are insert-only:
// never updated, never deleted. TicketSequence is gapless per jackpot under
// concurrent purchases; PurchasePrice is the price at purchase time and stays
// fixed even if the jackpot price later changes.
type Ticket struct {
	ID        string `gorm:"primaryKey;type:uuid;not null" json:"id"`
	JackpotID string `gorm:"type:uuid;not null;index;uniqueIndex:idx_jackpot_sequence" json:"jackpot_id"`
	UserID    string `gorm:"type:uuid;not null;index" json:"user_id"`

	TicketSequence int64  `gorm:"not null;uniqueIndex:idx_jackpot_sequence" json:"ticket_sequence"`
	TicketNumber   string `gorm:"not null" json:"ticket_number"` // "{sequence:04d}-{jackpot_number:04d}"
	PurchasePrice  int64  `gorm:"not null" json:"purchase_price"`

	Timestamps
}
