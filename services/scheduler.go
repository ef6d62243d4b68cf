// services/scheduler.go
package services

import (
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// StartSettlementScheduler runs the due-jackpot sweep once a minute. The
// sweep is idempotent: a second trigger in quick succession finds nothing due
// or loses the per-jackpot drawing transition.
func (s *SettlementService) StartSettlementScheduler() {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	_, _ = sched.NewJob(
		gocron.DurationJob(1*time.Minute),
		gocron.NewTask(func() {
			s.SweepDueJackpots()
		}),
	)

	log.Println("✅ Settlement sweep scheduled (every 1m)")
}
