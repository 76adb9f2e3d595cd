package jobs

import (
	"context"
	"fmt"
	"time"

	"moneypool-backend/internal/config"
	"moneypool-backend/internal/logger"
	"moneypool-backend/internal/metrics"
	"moneypool-backend/internal/repository"
	"moneypool-backend/internal/service"
)

const (
	JobMarkMissedMonths     = "mark-missed-months"
	JobSendDepositReminders = "send-deposit-reminders"
)

// JobRunner coordinates all scheduled jobs
type JobRunner struct {
	deps   *Dependencies
	config *config.Config
	loc    *time.Location
	now    func() time.Time
}

// Dependencies holds the repositories and services jobs need
type Dependencies struct {
	Settings repository.SettingsRepository
	Txr      repository.Transactor
	Notifier service.Notifier
}

// NewJobRunner creates a new job runner with all dependencies
func NewJobRunner(deps *Dependencies, cfg *config.Config) *JobRunner {
	return &JobRunner{
		deps:   deps,
		config: cfg,
		loc:    cfg.Location(),
		now:    time.Now,
	}
}

// Config returns the configuration the runner was built with.
func (jr *JobRunner) Config() *config.Config {
	return jr.config
}

// Location is the pool timezone used for month boundaries.
func (jr *JobRunner) Location() *time.Location {
	return jr.loc
}

// runWithRecovery wraps job execution with panic recovery and records the
// outcome. A panic counts as a failed run.
func (jr *JobRunner) runWithRecovery(jobName string, jobFunc func(ctx context.Context) error) (err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Job panicked", "job", jobName, "panic", r)
			err = fmt.Errorf("job %s panicked: %v", jobName, r)
		}
		metrics.RecordJobRun(jobName, time.Since(start), err == nil)
	}()

	logger.Info("Starting job", "job", jobName)
	if err = jobFunc(context.Background()); err != nil {
		logger.Error("Job failed", "job", jobName, "error", err)
		return err
	}
	logger.Info("Job completed", "job", jobName, "duration", time.Since(start))
	return nil
}

// Run executes the named job once. It is what --run-once uses.
func (jr *JobRunner) Run(jobName string) error {
	switch jobName {
	case JobMarkMissedMonths:
		return jr.runWithRecovery(jobName, jr.markMissedMonths)
	case JobSendDepositReminders:
		return jr.runWithRecovery(jobName, jr.sendDepositReminders)
	case "all":
		if err := jr.Run(JobMarkMissedMonths); err != nil {
			return err
		}
		return jr.Run(JobSendDepositReminders)
	}
	return fmt.Errorf("unknown job %q", jobName)
}

// MarkMissedMonths is the cron entry point for the missed month sweep.
func (jr *JobRunner) MarkMissedMonths() {
	_ = jr.runWithRecovery(JobMarkMissedMonths, jr.markMissedMonths)
}

// SendDepositReminders is the cron entry point for the reminder sweep.
func (jr *JobRunner) SendDepositReminders() {
	_ = jr.runWithRecovery(JobSendDepositReminders, jr.sendDepositReminders)
}
