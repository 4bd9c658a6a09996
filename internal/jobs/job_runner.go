package jobs

import (
	"context"

	"soundgood-leasing/internal/config"
	"soundgood-leasing/internal/logger"
)

// Pinger is the part of the lease store the jobs need
type Pinger interface {
	Ping(ctx context.Context) error
}

// JobRunner coordinates all scheduled jobs
type JobRunner struct {
	store  Pinger
	config *config.Config
}

// NewJobRunner creates a new job runner with all dependencies
func NewJobRunner(store Pinger, cfg *config.Config) *JobRunner {
	return &JobRunner{
		store:  store,
		config: cfg,
	}
}

// Config returns the configuration the jobs were built with
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

	logger.Debug("Starting job", "job", jobName)
	jobFunc()
	logger.Debug("Job completed", "job", jobName)
}
