// services/ticket_service.go
package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"jackpot-ledger-system/models"
	"jackpot-ledger-system/utils"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MaxTicketsPerPurchase bounds a single purchase call.
const MaxTicketsPerPurchase = 100

type TicketService struct {
	DB          *gorm.DB
	Wallets     *WalletService
	Progression *ProgressionService
	Notifier    Notifier
}

func NewTicketService(db *gorm.DB, wallets *WalletService, progression *ProgressionService, notifier Notifier) *TicketService {
	if notifier == nil {
		notifier = NoopNotifier{}
	}
	return &TicketService{DB: db, Wallets: wallets, Progression: progression, Notifier: notifier}
}

// PurchaseTickets debits the buyer, allocates a contiguous block of sequence
// numbers, mints the tickets and funds the prize pool — all in one database
// transaction, so a failure at any step leaves the wallet untouched.
func (s *TicketService) PurchaseTickets(userID, jackpotID string, quantity int) ([]models.Ticket, error) {
	if quantity < 1 || quantity > MaxTicketsPerPurchase {
		return nil, fmt.Errorf("quantity must be between 1 and %d", MaxTicketsPerPurchase)
	}

	var jackpot models.Jackpot
	if err := s.DB.First(&jackpot, "id = ?", jackpotID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrJackpotNotFound
		}
		return nil, err
	}
	if jackpot.Status != models.JackpotStatusActive {
		return nil, ErrJackpotNotActive
	}

	return s.purchaseAtPrice(userID, &jackpot, quantity)
}

// purchaseAtPrice runs the purchase transaction at the price the caller
// observed. The sequence allocation and pool increment are a single guarded
// UPDATE on the jackpot row; the status guard doubles as a fence against a
// settlement that has already moved the jackpot to drawing, and the
// ticket_price guard makes an admin reprice surface as ErrPriceChanged
// rather than silently charging a stale price.
func (s *TicketService) purchaseAtPrice(userID string, jackpot *models.Jackpot, quantity int) ([]models.Ticket, error) {
	jackpotID := jackpot.ID
	totalCost := jackpot.TicketPrice * int64(quantity)

	var tickets []models.Ticket
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		tickets = nil

		if _, err := s.Wallets.AdjustBalance(tx, userID, -totalCost); err != nil {
			return err
		}

		res := tx.Model(&models.Jackpot{}).
			Where("id = ? AND status = ? AND ticket_price = ?",
				jackpotID, models.JackpotStatusActive, jackpot.TicketPrice).
			Updates(map[string]interface{}{
				"ticket_counter": gorm.Expr("ticket_counter + ?", quantity),
				"prize_pool":     gorm.Expr("prize_pool + ?", totalCost),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Guard failed. Re-read to tell "closed for sales" apart from
			// "repriced since we read it".
			var current models.Jackpot
			if err := tx.First(&current, "id = ?", jackpotID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrJackpotNotFound
				}
				return err
			}
			if current.Status != models.JackpotStatusActive {
				return ErrJackpotNotActive
			}
			return ErrPriceChanged
		}

		// Re-read inside the transaction: ticket_counter now ends our block.
		var fresh models.Jackpot
		if err := tx.First(&fresh, "id = ?", jackpotID).Error; err != nil {
			return err
		}
		firstSeq := fresh.TicketCounter - int64(quantity) + 1

		for i := 0; i < quantity; i++ {
			seq := firstSeq + int64(i)
			tickets = append(tickets, models.Ticket{
				ID:             uuid.NewString(),
				JackpotID:      jackpotID,
				UserID:         userID,
				TicketSequence: seq,
				TicketNumber:   fmt.Sprintf("%04d-%04d", seq, fresh.JackpotNumber),
				PurchasePrice:  jackpot.TicketPrice,
			})
		}
		if err := tx.Create(&tickets).Error; err != nil {
			return err
		}

		now := time.Now()
		audit := models.Transaction{
			ID:          uuid.NewString(),
			UserID:      userID,
			Type:        models.TransactionTypeTicketPurchase,
			Status:      models.TransactionStatusApproved,
			Amount:      totalCost,
			Reference:   "tkt-" + uuid.NewString(),
			ProcessedAt: &now,
			AdminNote:   fmt.Sprintf("%d ticket(s) for %s", quantity, jackpot.Name),
		}
		return tx.Create(&audit).Error
	})
	if err != nil {
		return nil, err
	}

	// Best-effort extras — the purchase already committed.
	if err := s.Progression.RecordTicketPurchase(userID, quantity); err != nil {
		log.Printf("⚠️  Failed to award ticket XP to %s: %v", userID, err)
	}
	s.Notifier.Notify(userID, "ticket_purchase", map[string]interface{}{
		"jackpot":  jackpot.Name,
		"quantity": quantity,
		"amount":   utils.FormatAmount(totalCost),
	})

	log.Printf("🎟️  %s bought %d ticket(s) for %s (%s)", userID, quantity, jackpot.Name, utils.FormatAmount(totalCost))
	return tickets, nil
}

// GetUserTickets returns a user's tickets for one jackpot, newest first.
func (s *TicketService) GetUserTickets(userID, jackpotID string) ([]models.Ticket, error) {
	var tickets []models.Ticket
	err := s.DB.Where("user_id = ? AND jackpot_id = ?", userID, jackpotID).
		Order("ticket_sequence DESC").
		Find(&tickets).Error
	return tickets, err
}
