package jobs

import (
	"database/sql"

	"rental-backend/internal/clock"
	"rental-backend/internal/config"
	"rental-backend/internal/logger"
)

// JobRunner coordinates all scheduled jobs
type JobRunner struct {
	db     *sql.DB
	clock  clock.Clock
	config *config.Config
}

// NewJobRunner creates a new job runner with all dependencies
func NewJobRunner(db *sql.DB, clk clock.Clock, cfg *config.Config) *JobRunner {
	return &JobRunner{
		db:     db,
		clock:  clk,
		config: cfg,
	}
}

func (jr *JobRunner) Config() *config.Config {
	return jr.config
}

// runWithRecovery wraps job execution with panic recovery
func (jr *JobRunner) runWithRecovery(jobName string, jobFunc func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Job panicked", "job", jobName, "panic", r)
		}
	}()

	logger.Info("Starting job", "job", jobName)
	jobFunc()
	logger.Info("Job completed", "job", jobName)
}

// RunAll runs every job once (for manual execution)
func (jr *JobRunner) RunAll() {
	jr.MarkExpiredRentals()
}
