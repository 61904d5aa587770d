// Package jobs runs background maintenance on a cron schedule.
package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/jpd-dfo/spacos/internal/domain"
)

// purgeSchedule runs hourly; expired rows are also skipped at read time,
// so the purge only bounds table growth.
const purgeSchedule = "@hourly"

// reminderSchedule fires once a day at 09:00 server time, when the deal
// team is around to act on it.
const reminderSchedule = "0 9 * * *"

// reminderWindow is how far ahead of a SPAC deadline the reminder starts.
const reminderWindow = 30 * 24 * time.Hour

// DeadlineNotifier receives deadline warnings. Satisfied by notify.Slack.
type DeadlineNotifier interface {
	PostDeadlineReminder(spac *domain.SPAC)
}

// Scheduler owns the recurring maintenance jobs: purging expired document
// analyses and, when a notifier is configured, daily deadline reminders.
type Scheduler struct {
	cron     *cron.Cron
	analyses domain.AnalysisRepository
	spacs    domain.SPACRepository
	reminder DeadlineNotifier
}

// NewScheduler builds the scheduler. reminder may be nil, in which case the
// deadline job is not registered.
func NewScheduler(analyses domain.AnalysisRepository, spacs domain.SPACRepository, reminder DeadlineNotifier) *Scheduler {
	return &Scheduler{
		cron:     cron.New(),
		analyses: analyses,
		spacs:    spacs,
		reminder: reminder,
	}
}

// Start registers the jobs and starts the cron loop.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(purgeSchedule, s.purgeExpiredAnalyses); err != nil {
		return err
	}

	if s.reminder != nil {
		if _, err := s.cron.AddFunc(reminderSchedule, s.remindDeadlines); err != nil {
			return err
		}
	}

	s.cron.Start()
	log.Info().
		Str("purge", purgeSchedule).
		Bool("reminders", s.reminder != nil).
		Msg("jobs: scheduler started")
	return nil
}

// Stop halts the cron loop and waits for a running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info().Msg("jobs: scheduler stopped")
}

func (s *Scheduler) purgeExpiredAnalyses() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	n, err := s.analyses.DeleteExpired(ctx, time.Now())
	if err != nil {
		log.Error().Err(err).Msg("jobs: purging expired analyses")
		return
	}

	if n > 0 {
		log.Info().Int64("deleted", n).Msg("jobs: purged expired analyses")
	}
}

func (s *Scheduler) remindDeadlines() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	spacs, err := s.spacs.ListDeadlinesBefore(ctx, time.Now().Add(reminderWindow))
	if err != nil {
		log.Error().Err(err).Msg("jobs: listing approaching deadlines")
		return
	}

	for _, sp := range spacs {
		s.reminder.PostDeadlineReminder(sp)
	}

	if len(spacs) > 0 {
		log.Info().Int("count", len(spacs)).Msg("jobs: posted deadline reminders")
	}
}
