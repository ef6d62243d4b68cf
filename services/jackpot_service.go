// services/jackpot_service.go
package services

import (
	"errors"
	"fmt"
	"time"

	"jackpot-ledger-system/models"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

type JackpotService struct {
	DB *gorm.DB
}

func NewJackpotService(db *gorm.DB) *JackpotService {
	return &JackpotService{DB: db}
}

// CreateJackpot creates an active jackpot with an empty pool. JackpotNumber
// is allocated monotonically inside the transaction; the slug carries it so
// same-named jackpots stay unique.
func (s *JackpotService) CreateJackpot(name string, ticketPrice int64, frequency string, recurring bool, firstDraw *time.Time, createdBy string) (*models.Jackpot, error) {
	if name == "" {
		return nil, fmt.Errorf("name is required")
	}
	if ticketPrice <= 0 {
		return nil, fmt.Errorf("ticket_price must be positive")
	}
	switch frequency {
	case models.FrequencyHourly, models.FrequencyDaily, models.FrequencyWeekly, models.FrequencyMonthly:
	default:
		return nil, fmt.Errorf("unknown frequency %q", frequency)
	}

	var jackpot *models.Jackpot
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var maxNumber int
		if err := tx.Model(&models.Jackpot{}).
			Select("COALESCE(MAX(jackpot_number), 0)").
			Scan(&maxNumber).Error; err != nil {
			return err
		}
		number := maxNumber + 1

		nextDraw := NextDrawTime(frequency, time.Now())
		if firstDraw != nil {
			nextDraw = *firstDraw
		}

		jackpot = &models.Jackpot{
			ID:            uuid.NewString(),
			Name:          name,
			Slug:          fmt.Sprintf("%s-%d", slug.Make(name), number),
			JackpotNumber: number,
			TicketPrice:   ticketPrice,
			PrizePool:     0,
			Frequency:     frequency,
			NextDraw:      nextDraw,
			Status:        models.JackpotStatusActive,
			Recurring:     recurring,
			CreatedBy:     createdBy,
		}
		return tx.Create(jackpot).Error
	})
	if err != nil {
		return nil, err
	}
	return jackpot, nil
}

// GetJackpot fetches one jackpot by id.
func (s *JackpotService) GetJackpot(id string) (*models.Jackpot, error) {
	var jackpot models.Jackpot
	if err := s.DB.First(&jackpot, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrJackpotNotFound
		}
		return nil, err
	}
	return &jackpot, nil
}

// ListJackpots returns jackpots, optionally filtered by status.
func (s *JackpotService) ListJackpots(status string) ([]models.Jackpot, error) {
	var jackpots []models.Jackpot
	q := s.DB.Order("created_at DESC")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	err := q.Find(&jackpots).Error
	return jackpots, err
}

// SetPaused pauses or resumes ticket sales. Paused jackpots are skipped by
// the settlement sweep (they are not active).
func (s *JackpotService) SetPaused(id string, paused bool) error {
	from, to := models.JackpotStatusActive, models.JackpotStatusPaused
	if !paused {
		from, to = models.JackpotStatusPaused, models.JackpotStatusActive
	}
	res := s.DB.Model(&models.Jackpot{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := s.DB.Model(&models.Jackpot{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrJackpotNotFound
		}
		return ErrJackpotNotActive
	}
	return nil
}
