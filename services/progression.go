package services

import (
	"fmt"
	"math"
	"time"

	"jackpot-ledger-system/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// XPWeights define relative values (tunable via config/env later)
type XPWeights struct {
	TicketXP int64 `default:"1"`
	WinXP    int64 `default:"10"` // 10× ticket
}

var DefaultXPWeights = XPWeights{
	TicketXP: 1,
	WinXP:    10,
}

// LevelConfig: XP needed for *next* level (e.g., level 1 → 2 needs BaseXPPerLevel * 1^1.2)
const BaseXPPerLevel = 100

// xpForNextLevel returns XP required to reach level+1 from current level
func xpForNextLevel(currentLevel int) int64 {
	if currentLevel < 1 {
		currentLevel = 1
	}
	// L_n = floor(BaseXPPerLevel * n^1.2)
	return int64(float64(BaseXPPerLevel) * math.Pow(float64(currentLevel), 1.2))
}

// RankThresholds: levels required before rank-up
var RankThresholds = map[int]int{ // rank → min level
	1: 1,   // Bronze (start)
	2: 10,  // Silver
	3: 25,  // Gold
	4: 50,  // Platinum
	5: 100, // Diamond
}

func determineRank(level int) int {
	for rank := 5; rank >= 1; rank-- {
		if level >= RankThresholds[rank] {
			return rank
		}
	}
	return 1
}

type ProgressionService struct {
	DB *gorm.DB
}

func NewProgressionService(db *gorm.DB) *ProgressionService {
	return &ProgressionService{DB: db}
}

// EnsureProgressRecord ensures a UserProgress row exists (idempotent)
func (s *ProgressionService) EnsureProgressRecord(externalUserID string) (*models.UserProgress, error) {
	var prog models.UserProgress
	err := s.DB.Where("external_user_id = ?", externalUserID).First(&prog).Error
	if err == gorm.ErrRecordNotFound {
		prog = models.UserProgress{
			ID:             uuid.NewString(),
			ExternalUserID: externalUserID,
			TotalXP:        0,
			Level:          1,
			Rank:           1,
		}
		if err := s.DB.Create(&prog).Error; err != nil {
			return nil, err
		}
		return &prog, nil
	}
	if err != nil {
		return nil, err
	}
	return &prog, nil
}

// AwardXP atomically updates XP, level, rank — returns updated progress
func (s *ProgressionService) AwardXP(externalUserID string, xp int64, reason string) (*models.UserProgress, error) {
	if _, err := s.EnsureProgressRecord(externalUserID); err != nil {
		return nil, err
	}

	var updatedProg *models.UserProgress
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var prog models.UserProgress
		if err := tx.Where("external_user_id = ?", externalUserID).First(&prog).Error; err != nil {
			return fmt.Errorf("progress record not found for %s", externalUserID)
		}

		oldRank := prog.Rank

		prog.TotalXP += xp

		// Level-up logic: accumulate until enough for next level
		for prog.TotalXP >= int64(BaseXPPerLevel)*int64(prog.Level)+xpForNextLevel(prog.Level) {
			prog.Level++
			now := time.Now()
			prog.LastLevelUpAt = &now
		}

		// Rank-up logic
		newRank := determineRank(prog.Level)
		if newRank > oldRank {
			now := time.Now()
			prog.Rank = newRank
			prog.LastRankUpAt = &now
		}

		if err := tx.Save(&prog).Error; err != nil {
			return err
		}

		// Copy for return (avoid pointer to stack var)
		updatedProg = &models.UserProgress{}
		*updatedProg = prog

		fmt.Printf("🎮 XP Awarded: %s → XP=%d, Lvl=%d, Rank=%d (reason: %s)\n",
			externalUserID, prog.TotalXP, prog.Level, prog.Rank, reason)

		return nil
	})
	if err != nil {
		return nil, err
	}
	return updatedProg, nil
}

// RecordTicketPurchase bumps the ticket counter and awards ticket XP.
// Best-effort from the purchase path — callers log and move on if it fails.
func (s *ProgressionService) RecordTicketPurchase(externalUserID string, quantity int) error {
	if _, err := s.EnsureProgressRecord(externalUserID); err != nil {
		return err
	}
	if err := s.DB.Model(&models.UserProgress{}).
		Where("external_user_id = ?", externalUserID).
		Update("total_tickets", gorm.Expr("total_tickets + ?", quantity)).Error; err != nil {
		return err
	}
	_, err := s.AwardXP(externalUserID, DefaultXPWeights.TicketXP*int64(quantity), fmt.Sprintf("tickets_purchased_x%d", quantity))
	return err
}

// GetLeaderboard returns the top players by XP.
func (s *ProgressionService) GetLeaderboard(limit int) ([]models.UserProgress, error) {
	if limit < 1 || limit > 100 {
		limit = 20
	}
	var top []models.UserProgress
	err := s.DB.Order("total_xp DESC").Limit(limit).Find(&top).Error
	return top, err
}

// RecordWin bumps the win counter and awards win XP. Best-effort from settlement.
func (s *ProgressionService) RecordWin(externalUserID, drawID string) error {
	if _, err := s.EnsureProgressRecord(externalUserID); err != nil {
		return err
	}
	if err := s.DB.Model(&models.UserProgress{}).
		Where("external_user_id = ?", externalUserID).
		Update("total_wins", gorm.Expr("total_wins + 1")).Error; err != nil {
		return err
	}
	_, err := s.AwardXP(externalUserID, DefaultXPWeights.WinXP, fmt.Sprintf("draw_%s_won", drawID))
	return err
}
