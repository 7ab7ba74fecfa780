// Package jobs runs the scheduled background work: monthly streak freeze
// replenishment and the daily at-risk streak reminder sweep.
package jobs

import (
	"context"
	"log"
	"time"

	"calTrackAPI/services"

	"github.com/robfig/cron/v3"
)

// reminders only go to streaks worth protecting.
const reminderMinStreak = 3

type Scheduler struct {
	cron          *cron.Cron
	streakService *services.StreakService
	notifications *services.NotificationService
}

func NewScheduler(streakService *services.StreakService, notifications *services.NotificationService) *Scheduler {
	return &Scheduler{
		cron:          cron.New(cron.WithLocation(time.UTC)),
		streakService: streakService,
		notifications: notifications,
	}
}

// Start registers and launches the cron jobs. Jobs use their own timeouts;
// ctx is reserved for future cancellation plumbing.
func (s *Scheduler) Start(ctx context.Context) {
	// Freeze replenishment on the first of every month at midnight UTC.
	s.cron.AddFunc("0 0 1 * *", func() {
		jobCtx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		n, err := s.streakService.ReplenishMonthlyFreezes(jobCtx)
		if err != nil {
			log.Printf("[CRON] freeze replenishment failed: %v", err)
			return
		}
		log.Printf("[CRON] replenished freezes for %d streaks", n)
	})

	// Evening reminder sweep for streaks that end without a log today.
	s.cron.AddFunc("0 18 * * *", func() {
		jobCtx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if err := s.remindAtRiskStreaks(jobCtx); err != nil {
			log.Printf("[CRON] reminder sweep failed: %v", err)
		}
	})

	s.cron.Start()
	log.Println("Scheduler started (UTC)")
}

func (s *Scheduler) remindAtRiskStreaks(ctx context.Context) error {
	rows, err := s.streakService.ListAtRiskStreaks(ctx, reminderMinStreak)
	if err != nil {
		return err
	}

	sent := 0
	for _, row := range rows {
		if err := s.notifications.NotifyStreakAtRisk(ctx, row.UserID, row.CurrentStreak); err != nil {
			log.Printf("[CRON] reminder for user %s failed: %v", row.UserID, err)
			continue
		}
		sent++
	}
	log.Printf("[CRON] sent %d streak reminders (%d at risk)", sent, len(rows))
	return nil
}

// Stop halts the cron loop and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Println("Scheduler stopped")
}
