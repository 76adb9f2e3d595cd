package scheduler

import (
	"fmt"

	"github.com/robfig/cron/v3"

	"moneypool-backend/internal/jobs"
	"moneypool-backend/internal/logger"
)

// Scheduler manages cron job scheduling
type Scheduler struct {
	cron *cron.Cron
	jobs *jobs.JobRunner
}

// NewScheduler creates a scheduler in the pool timezone with seconds
// precision. It fails when a configured schedule does not parse.
func NewScheduler(jobRunner *jobs.JobRunner) (*Scheduler, error) {
	c := cron.New(
		cron.WithLocation(jobRunner.Location()),
		cron.WithSeconds(),
	)

	s := &Scheduler{
		cron: c,
		jobs: jobRunner,
	}

	if err := s.registerJobs(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Scheduler) registerJobs() error {
	cfg := s.jobs.Config().Scheduler

	// 1st of the month, closes the previous month
	if _, err := s.cron.AddFunc(cfg.MarkMissedMonths, s.jobs.MarkMissedMonths); err != nil {
		return fmt.Errorf("register %s: %w", jobs.JobMarkMissedMonths, err)
	}

	// day before penalties start
	if _, err := s.cron.AddFunc(cfg.SendDepositReminders, s.jobs.SendDepositReminders); err != nil {
		return fmt.Errorf("register %s: %w", jobs.JobSendDepositReminders, err)
	}

	logger.Info("All cron jobs registered successfully", "jobs", len(s.cron.Entries()))
	return nil
}

// Start begins the cron scheduler
func (s *Scheduler) Start() {
	logger.Info("Starting cron scheduler...")
	s.cron.Start()
	logger.Info("Cron scheduler started successfully")
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	logger.Info("Stopping cron scheduler...")
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info("Cron scheduler stopped")
}

// IsRunning returns true if the scheduler is running
func (s *Scheduler) IsRunning() bool {
	return len(s.cron.Entries()) > 0
}

// Entries reports the next run of each registered job.
func (s *Scheduler) Entries() []cron.Entry {
	return s.cron.Entries()
}
