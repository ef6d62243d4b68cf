// models/draw.go
package models

import "time"

// Draw is the immutable record of one settlement event for a jackpot.
type Draw struct {
	ID        string `gorm:"primaryKey;type:uuid;not null" json:"id"`
	JackpotID string `gorm:"type:uuid;not null;index" json:"jackpot_id"`

	WinningTicketID string `gorm:"type:uuid;not null" json:"winning_ticket_id"`
	WinnerUserID    string `gorm:"type:uuid;not null;index" json:"winner_user_id"`

	TotalTickets   int64 `gorm:"not null" json:"total_tickets"`
	PrizeAmount    int64 `gorm:"not null" json:"prize_amount"`    // winner's share
	PlatformAmount int64 `gorm:"not null" json:"platform_amount"` // operator's share

	DrawnAt time.Time `gorm:"not null" json:"drawn_at"`

	Timestamps
}

// Winner is the denormalized audit/display snapshot per (draw, user).
// Immutable once written.
type Winner struct {
	ID        string `gorm:"primaryKey;type:uuid;not null" json:"id"`
	DrawID    string `gorm:"type:uuid;not null;index" json:"draw_id"`
	JackpotID string `gorm:"type:uuid;not null;index" json:"jackpot_id"`
	UserID    string `gorm:"type:uuid;not null;index" json:"user_id"`
	TicketID  string `gorm:"type:uuid;not null" json:"ticket_id"`

	PrizeAmount       int64 `gorm:"not null" json:"prize_amount"`
	TotalParticipants int64 `gorm:"not null" json:"total_participants"`
	TotalPoolAmount   int64 `gorm:"not null" json:"total_pool_amount"`
	WinnerRank        int   `gorm:"not null;default:1" json:"winner_rank"`

	Timestamps
}
