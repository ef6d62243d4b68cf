// models/jackpot.go
package models

import "time"

// Jackpot statuses
const (
	JackpotStatusActive    = "active"
	JackpotStatusDrawing   = "drawing" // settlement in progress — acts as the settlement mutex
	JackpotStatusCompleted = "completed"
	JackpotStatusPaused    = "paused"
)

// Draw frequencies
const (
	FrequencyHourly  = "hourly"
	FrequencyDaily   = "daily"
	FrequencyWeekly  = "weekly"
	FrequencyMonthly = "monthly"
)

// Jackpot is a recurring prize pool funded by ticket sales and settled on a
// schedule. PrizePool and TicketCounter are only ever mutated through
// single-statement atomic increments; Status transitions active→drawing
// exactly once per settlement cycle.
type Jackpot struct {
	ID            string `gorm:"primaryKey;type:uuid;not null" json:"id"`
	Name          string `gorm:"not null" json:"name"`
	Slug          string `gorm:"uniqueIndex;not null" json:"slug"`
	JackpotNumber int    `gorm:"not null;uniqueIndex" json:"jackpot_number"` // monotonic, used in ticket numbering

	TicketPrice   int64 `gorm:"not null" json:"ticket_price"` // minor units
	PrizePool     int64 `gorm:"not null;default:0" json:"prize_pool"`
	TicketCounter int64 `gorm:"not null;default:0" json:"ticket_counter"` // per-jackpot sequence allocator

	// LastSettledSequence marks the end of the previous cycle: only tickets
	// with a higher sequence participate in the next draw.
	LastSettledSequence int64 `gorm:"not null;default:0" json:"last_settled_sequence"`

	Frequency string    `gorm:"type:varchar(16);not null" json:"frequency"`
	NextDraw  time.Time `gorm:"not null;index" json:"next_draw"`
	Status    string    `gorm:"type:varchar(16);not null;default:active;index" json:"status"`
	Recurring bool      `gorm:"not null;default:true" json:"recurring"` // one-shot jackpots complete after their first draw

	CreatedBy string `gorm:"type:uuid" json:"created_by"`

	Timestamps
}
