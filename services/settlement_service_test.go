package services

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"jackpot-ledger-system/models"
)

func TestSettlementService_NextDrawTime(t *testing.T) {
	from := time.Date(2026, 1, 31, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		frequency string
		want      time.Time
	}{
		{models.FrequencyHourly, from.Add(time.Hour)},
		{models.FrequencyDaily, time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)},
		{models.FrequencyWeekly, time.Date(2026, 2, 7, 12, 0, 0, 0, time.UTC)},
		{models.FrequencyMonthly, time.Date(2026, 3, 3, 12, 0, 0, 0, time.UTC)}, // Jan 31 + 1 month normalizes
		{"bogus", from.Add(time.Hour)},
	}
	for _, tc := range cases {
		if got := NextDrawTime(tc.frequency, from); !got.Equal(tc.want) {
			t.Errorf("NextDrawTime(%s): expected %v, got %v", tc.frequency, tc.want, got)
		}
	}
}

func TestSettlementService_NoTicketsReschedules(t *testing.T) {
	db := setupTestDB(t)
	service := NewSettlementService(db, NewWalletService(db), NewProgressionService(db), nil)

	jackpot := seedJackpot(t, db, 10000, models.FrequencyDaily)
	before := jackpot.NextDraw

	draw, err := service.SettleJackpot(jackpot.ID, "admin-1")
	if err != nil {
		t.Fatalf("SettleJackpot failed: %v", err)
	}
	if draw != nil {
		t.Fatalf("Expected no draw for a ticketless cycle, got %+v", draw)
	}

	var fresh models.Jackpot
	db.First(&fresh, "id = ?", jackpot.ID)
	if fresh.Status != models.JackpotStatusActive {
		t.Errorf("Expected jackpot back to active, got %s", fresh.Status)
	}
	if !fresh.NextDraw.After(before) {
		t.Errorf("Expected next_draw pushed forward: before=%v after=%v", before, fresh.NextDraw)
	}

	var drawCount, winnerCount int64
	db.Model(&models.Draw{}).Count(&drawCount)
	db.Model(&models.Winner{}).Count(&winnerCount)
	if drawCount != 0 || winnerCount != 0 {
		t.Errorf("Ticketless cycle wrote audit rows: draws=%d winners=%d", drawCount, winnerCount)
	}
}

func TestSettlementService_SettleJackpot(t *testing.T) {
	db := setupTestDB(t)
	wallets := NewWalletService(db)
	progression := NewProgressionService(db)
	settlement := NewSettlementService(db, wallets, progression, nil)
	ticketSvc := NewTicketService(db, wallets, progression, nil)

	// 3 users buy 10 tickets total at 100.00 each: pool 1000.00.
	jackpot := seedJackpot(t, db, 10000, models.FrequencyDaily)
	buyers := map[string]int{"alice": 5, "bob": 3, "carol": 2}
	for user, n := range buyers {
		seedWallet(t, db, user, int64(n)*10000)
		if _, err := ticketSvc.PurchaseTickets(user, jackpot.ID, n); err != nil {
			t.Fatalf("Purchase for %s failed: %v", user, err)
		}
	}

	draw, err := settlement.SettleJackpot(jackpot.ID, "admin-1")
	if err != nil {
		t.Fatalf("SettleJackpot failed: %v", err)
	}
	if draw == nil {
		t.Fatal("Expected a draw")
	}

	// 80/20 split of the full pool.
	if draw.PrizeAmount != 80000 {
		t.Errorf("Expected prize 80000, got %d", draw.PrizeAmount)
	}
	if draw.PlatformAmount != 20000 {
		t.Errorf("Expected platform share 20000, got %d", draw.PlatformAmount)
	}
	if draw.TotalTickets != 10 {
		t.Errorf("Expected 10 tickets in the draw, got %d", draw.TotalTickets)
	}
	if _, ok := buyers[draw.WinnerUserID]; !ok {
		t.Errorf("Winner %s never bought a ticket", draw.WinnerUserID)
	}

	// Winner got exactly the prize on top of a spent-down wallet.
	if got := walletBalance(t, db, draw.WinnerUserID); got != 80000 {
		t.Errorf("Expected winner balance 80000, got %d", got)
	}
	commission, err := wallets.GetPlatformBalance(models.PlatformAccountPrizeCommission)
	if err != nil {
		t.Fatalf("GetPlatformBalance failed: %v", err)
	}
	if commission != 20000 {
		t.Errorf("Expected commission 20000, got %d", commission)
	}

	// One Draw, one Winner, one prize_win audit entry.
	var winners []models.Winner
	if err := db.Where("draw_id = ?", draw.ID).Find(&winners).Error; err != nil {
		t.Fatalf("Failed to load winners: %v", err)
	}
	if len(winners) != 1 {
		t.Fatalf("Expected 1 winner row, got %d", len(winners))
	}
	if winners[0].TotalParticipants != 3 {
		t.Errorf("Expected 3 distinct participants, got %d", winners[0].TotalParticipants)
	}
	if winners[0].TotalPoolAmount != 100000 {
		t.Errorf("Expected pool 100000 recorded, got %d", winners[0].TotalPoolAmount)
	}
	var audits []models.Transaction
	db.Where("type = ? AND reference = ?", models.TransactionTypePrizeWin, "win-"+draw.ID).Find(&audits)
	if len(audits) != 1 || audits[0].Amount != 80000 {
		t.Errorf("Expected one prize_win audit for 80000, got %+v", audits)
	}

	// Recurring jackpot re-arms: pool reset, cycle fenced, back to active.
	var fresh models.Jackpot
	db.First(&fresh, "id = ?", jackpot.ID)
	if fresh.Status != models.JackpotStatusActive {
		t.Errorf("Expected active after recurring settlement, got %s", fresh.Status)
	}
	if fresh.PrizePool != 0 {
		t.Errorf("Expected pool reset to 0, got %d", fresh.PrizePool)
	}
	if fresh.LastSettledSequence != 10 {
		t.Errorf("Expected last_settled_sequence 10, got %d", fresh.LastSettledSequence)
	}

	t.Run("next cycle excludes settled tickets", func(t *testing.T) {
		seedWallet(t, db, "dave", 10000)
		if _, err := ticketSvc.PurchaseTickets("dave", jackpot.ID, 1); err != nil {
			t.Fatalf("Purchase failed: %v", err)
		}
		next, err := settlement.SettleJackpot(jackpot.ID, "admin-1")
		if err != nil {
			t.Fatalf("Second settlement failed: %v", err)
		}
		if next == nil {
			t.Fatal("Expected a draw in the second cycle")
		}
		if next.TotalTickets != 1 || next.WinnerUserID != "dave" {
			t.Errorf("Old tickets leaked into the new cycle: %+v", next)
		}
	})
}

func TestSettlementService_OneShotCompletes(t *testing.T) {
	db := setupTestDB(t)
	wallets := NewWalletService(db)
	progression := NewProgressionService(db)
	settlement := NewSettlementService(db, wallets, progression, nil)
	ticketSvc := NewTicketService(db, wallets, progression, nil)

	jackpot := seedJackpot(t, db, 10000, models.FrequencyDaily)
	if err := db.Model(&models.Jackpot{}).Where("id = ?", jackpot.ID).
		Update("recurring", false).Error; err != nil {
		t.Fatalf("Failed to flip recurring flag: %v", err)
	}

	seedWallet(t, db, "solo", 10000)
	if _, err := ticketSvc.PurchaseTickets("solo", jackpot.ID, 1); err != nil {
		t.Fatalf("Purchase failed: %v", err)
	}

	if _, err := settlement.SettleJackpot(jackpot.ID, "admin-1"); err != nil {
		t.Fatalf("SettleJackpot failed: %v", err)
	}

	var fresh models.Jackpot
	db.First(&fresh, "id = ?", jackpot.ID)
	if fresh.Status != models.JackpotStatusCompleted {
		t.Errorf("Expected completed for a one-shot jackpot, got %s", fresh.Status)
	}

	// A completed jackpot cannot be settled again.
	_, err := settlement.SettleJackpot(jackpot.ID, "admin-1")
	if !errors.Is(err, ErrJackpotNotActive) {
		t.Errorf("Expected ErrJackpotNotActive, got %v", err)
	}
}

func TestSettlementService_MutualExclusion(t *testing.T) {
	db := setupTestDB(t)
	service := NewSettlementService(db, NewWalletService(db), NewProgressionService(db), nil)

	jackpot := seedJackpot(t, db, 10000, models.FrequencyDaily)
	if err := db.Model(&models.Jackpot{}).Where("id = ?", jackpot.ID).
		Update("status", models.JackpotStatusDrawing).Error; err != nil {
		t.Fatalf("Failed to mark jackpot drawing: %v", err)
	}

	_, err := service.SettleJackpot(jackpot.ID, "admin-2")
	if !errors.Is(err, ErrJackpotAlreadySettling) {
		t.Errorf("Expected ErrJackpotAlreadySettling, got %v", err)
	}

	_, err = service.SettleJackpot("no-such-jackpot", "admin-2")
	if !errors.Is(err, ErrJackpotNotFound) {
		t.Errorf("Expected ErrJackpotNotFound, got %v", err)
	}
}

func TestSettlementService_SweepDueJackpots(t *testing.T) {
	db := setupTestDB(t)
	wallets := NewWalletService(db)
	progression := NewProgressionService(db)
	settlement := NewSettlementService(db, wallets, progression, nil)
	ticketSvc := NewTicketService(db, wallets, progression, nil)

	due := seedJackpot(t, db, 10000, models.FrequencyHourly)
	notDue := seedJackpot(t, db, 10000, models.FrequencyHourly)
	if err := db.Model(&models.Jackpot{}).Where("id = ?", due.ID).
		Update("next_draw", time.Now().Add(-time.Minute)).Error; err != nil {
		t.Fatalf("Failed to backdate next_draw: %v", err)
	}

	for i := 0; i < 2; i++ {
		user := fmt.Sprintf("sweep-buyer-%d", i)
		seedWallet(t, db, user, 20000)
		if _, err := ticketSvc.PurchaseTickets(user, due.ID, 1); err != nil {
			t.Fatalf("Purchase failed: %v", err)
		}
		if _, err := ticketSvc.PurchaseTickets(user, notDue.ID, 1); err != nil {
			t.Fatalf("Purchase failed: %v", err)
		}
	}

	settlement.SweepDueJackpots()

	var drawCount int64
	db.Model(&models.Draw{}).Where("jackpot_id = ?", due.ID).Count(&drawCount)
	if drawCount != 1 {
		t.Errorf("Expected the due jackpot to settle exactly once, got %d draws", drawCount)
	}

	// The sweep records itself as the processing actor on the prize audit.
	var audit models.Transaction
	if err := db.Where("type = ?", models.TransactionTypePrizeWin).First(&audit).Error; err != nil {
		t.Fatalf("Failed to load prize audit: %v", err)
	}
	if audit.ProcessedBy != "scheduler" {
		t.Errorf("Expected prize audit processed by scheduler, got %q", audit.ProcessedBy)
	}
	db.Model(&models.Draw{}).Where("jackpot_id = ?", notDue.ID).Count(&drawCount)
	if drawCount != 0 {
		t.Errorf("Swept a jackpot whose draw time had not arrived")
	}
}
