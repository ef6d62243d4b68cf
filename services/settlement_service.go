// services/settlement_service.go
package services

import (
	"errors"
	"fmt"
	"log"
	"math/rand"
	"time"

	"jackpot-ledger-system/models"
	"jackpot-ledger-system/utils"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Split policy, applied uniformly on every settlement path (scheduled sweep
// and admin-triggered alike): the winner takes 80% of the pool, the platform
// retains 20%.
const (
	WinnerShareBps = 8000
	BpsDenominator = 10000
)

type SettlementService struct {
	DB          *gorm.DB
	Wallets     *WalletService
	Progression *ProgressionService
	Notifier    Notifier
}

func NewSettlementService(db *gorm.DB, wallets *WalletService, progression *ProgressionService, notifier Notifier) *SettlementService {
	if notifier == nil {
		notifier = NoopNotifier{}
	}
	return &SettlementService{DB: db, Wallets: wallets, Progression: progression, Notifier: notifier}
}

// NextDrawTime computes the next draw timestamp for a frequency. Monthly is a
// calendar month increment, not a fixed 30 days. Unrecognized frequencies
// fall back to hourly.
func NextDrawTime(frequency string, from time.Time) time.Time {
	switch frequency {
	case models.FrequencyHourly:
		return from.Add(time.Hour)
	case models.FrequencyDaily:
		return from.AddDate(0, 0, 1)
	case models.FrequencyWeekly:
		return from.AddDate(0, 0, 7)
	case models.FrequencyMonthly:
		return from.AddDate(0, 1, 0)
	default:
		return from.Add(time.Hour)
	}
}

// SettleJackpot closes one jackpot cycle: picks a winning ticket uniformly at
// random, splits the pool, writes the Draw/Winner audit records, pays the
// winner and the platform, and re-arms (or completes) the jackpot.
//
// The active→drawing status transition is the settlement mutex: only one
// process wins the compare-and-set, and because ticket purchases are fenced
// on status=active, the pool figure read afterwards is consistent with the
// exact set of tickets enumerated. Steps after the transition run inside a
// single database transaction — no reader can ever observe a Draw record
// whose payout hasn't been applied.
//
// A zero-ticket cycle is a valid no-winner outcome: the draw is rescheduled
// and (nil, nil) is returned.
func (s *SettlementService) SettleJackpot(jackpotID, triggeredBy string) (*models.Draw, error) {
	res := s.DB.Model(&models.Jackpot{}).
		Where("id = ? AND status = ?", jackpotID, models.JackpotStatusActive).
		Update("status", models.JackpotStatusDrawing)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		var jackpot models.Jackpot
		if err := s.DB.First(&jackpot, "id = ?", jackpotID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrJackpotNotFound
			}
			return nil, err
		}
		if jackpot.Status == models.JackpotStatusDrawing {
			return nil, ErrJackpotAlreadySettling
		}
		return nil, ErrJackpotNotActive
	}

	var draw *models.Draw
	var winnerRow *models.Winner
	var jackpot models.Jackpot

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		draw, winnerRow = nil, nil

		if err := tx.First(&jackpot, "id = ?", jackpotID).Error; err != nil {
			return err
		}

		// Only the current cycle's tickets participate.
		var tickets []models.Ticket
		if err := tx.Where("jackpot_id = ? AND ticket_sequence > ?", jackpotID, jackpot.LastSettledSequence).
			Order("ticket_sequence ASC").
			Find(&tickets).Error; err != nil {
			return err
		}

		now := time.Now()

		if len(tickets) == 0 {
			// No winner possible — push the draw forward and reopen sales.
			return tx.Model(&models.Jackpot{}).
				Where("id = ?", jackpotID).
				Updates(map[string]interface{}{
					"status":    models.JackpotStatusActive,
					"next_draw": NextDrawTime(jackpot.Frequency, now),
				}).Error
		}

		// Each ticket — not each user — has equal probability.
		winning := tickets[rand.Intn(len(tickets))]

		pool := jackpot.PrizePool
		winnerShare := pool * WinnerShareBps / BpsDenominator
		platformShare := pool - winnerShare

		participants := make(map[string]struct{}, len(tickets))
		for _, t := range tickets {
			participants[t.UserID] = struct{}{}
		}

		draw = &models.Draw{
			ID:              uuid.NewString(),
			JackpotID:       jackpotID,
			WinningTicketID: winning.ID,
			WinnerUserID:    winning.UserID,
			TotalTickets:    int64(len(tickets)),
			PrizeAmount:     winnerShare,
			PlatformAmount:  platformShare,
			DrawnAt:         now,
		}
		if err := tx.Create(draw).Error; err != nil {
			return err
		}

		winnerRow = &models.Winner{
			ID:                uuid.NewString(),
			DrawID:            draw.ID,
			JackpotID:         jackpotID,
			UserID:            winning.UserID,
			TicketID:          winning.ID,
			PrizeAmount:       winnerShare,
			TotalParticipants: int64(len(participants)),
			TotalPoolAmount:   pool,
			WinnerRank:        1,
		}
		if err := tx.Create(winnerRow).Error; err != nil {
			return err
		}

		if _, err := s.Wallets.AdjustBalance(tx, winning.UserID, winnerShare); err != nil {
			return err
		}
		if err := s.Wallets.CreditPlatform(tx, models.PlatformAccountPrizeCommission, platformShare); err != nil {
			return err
		}

		audit := models.Transaction{
			ID:          uuid.NewString(),
			UserID:      winning.UserID,
			Type:        models.TransactionTypePrizeWin,
			Status:      models.TransactionStatusApproved,
			Amount:      winnerShare,
			Reference:   "win-" + draw.ID,
			ProcessedBy: triggeredBy,
			ProcessedAt: &now,
			AdminNote:   fmt.Sprintf("draw %s for %s (ticket %s)", draw.ID, jackpot.Name, winning.TicketNumber),
		}
		if err := tx.Create(&audit).Error; err != nil {
			return err
		}

		// Close the cycle: reset the pool and either re-arm or complete.
		updates := map[string]interface{}{
			"prize_pool":            0,
			"last_settled_sequence": jackpot.TicketCounter,
		}
		if jackpot.Recurring {
			updates["status"] = models.JackpotStatusActive
			updates["next_draw"] = NextDrawTime(jackpot.Frequency, now)
		} else {
			updates["status"] = models.JackpotStatusCompleted
		}
		return tx.Model(&models.Jackpot{}).Where("id = ?", jackpotID).Updates(updates).Error
	})
	if err != nil {
		// Free the settlement mutex so the jackpot isn't wedged in drawing.
		if revert := s.DB.Model(&models.Jackpot{}).
			Where("id = ? AND status = ?", jackpotID, models.JackpotStatusDrawing).
			Update("status", models.JackpotStatusActive); revert.Error != nil {
			log.Printf("❌ Failed to revert jackpot %s to active after settlement error: %v", jackpotID, revert.Error)
		}
		return nil, err
	}

	if draw == nil {
		log.Printf("🎰 Jackpot %s had no tickets — draw rescheduled", jackpot.Name)
		return nil, nil
	}

	// Best-effort extras — the settlement already committed.
	if err := s.Progression.RecordWin(draw.WinnerUserID, draw.ID); err != nil {
		log.Printf("⚠️  Failed to award win XP to %s: %v", draw.WinnerUserID, err)
	}
	s.Notifier.Notify(draw.WinnerUserID, "prize_win", map[string]interface{}{
		"jackpot": jackpot.Name,
		"amount":  utils.FormatAmount(draw.PrizeAmount),
		"draw_id": draw.ID,
	})
	s.archiveDrawReport(&jackpot, draw, winnerRow)

	log.Printf("🎰 Settled %s: %s won %s of %s (%d tickets)",
		jackpot.Name, draw.WinnerUserID, utils.FormatAmount(draw.PrizeAmount),
		utils.FormatAmount(winnerRow.TotalPoolAmount), draw.TotalTickets)
	return draw, nil
}

// SweepDueJackpots settles every active jackpot whose next_draw has elapsed.
// Each jackpot is an independent unit of work — one failure never aborts the
// rest of the sweep, and losing the settlement mutex to a concurrent sweep is
// expected, not an error.
func (s *SettlementService) SweepDueJackpots() {
	var due []models.Jackpot
	if err := s.DB.Where("status = ? AND next_draw <= ?", models.JackpotStatusActive, time.Now()).
		Find(&due).Error; err != nil {
		log.Printf("❌ [Sweep] DB error: %v", err)
		return
	}

	for _, jackpot := range due {
		_, err := s.SettleJackpot(jackpot.ID, "scheduler")
		if errors.Is(err, ErrJackpotAlreadySettling) || errors.Is(err, ErrJackpotNotActive) {
			continue
		}
		if err != nil {
			log.Printf("❌ [Sweep] Failed to settle jackpot %s: %v", jackpot.ID, err)
		}
	}
}

func (s *SettlementService) archiveDrawReport(jackpot *models.Jackpot, draw *models.Draw, winner *models.Winner) {
	if !utils.R2Enabled() {
		return
	}
	key := fmt.Sprintf("draws/%s/%s.json", jackpot.Slug, draw.ID)
	report := map[string]interface{}{
		"draw":    draw,
		"winner":  winner,
		"jackpot": jackpot.ID,
	}
	if err := utils.UploadJSONToR2(key, report); err != nil {
		log.Printf("⚠️  Failed to archive draw report %s: %v", key, err)
	}
}
