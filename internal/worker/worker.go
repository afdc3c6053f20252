package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/dokan/internal/jobs"
	"github.com/dukerupert/dokan/internal/telemetry"
)

// Config holds worker configuration
type Config struct {
	// WorkerID uniquely identifies this worker instance
	WorkerID string

	// PollInterval is how often scheduled jobs run
	PollInterval time.Duration

	// JobTimeout bounds a single job run
	JobTimeout time.Duration
}

// Worker runs periodic maintenance jobs
type Worker struct {
	config   Config
	sessions jobs.SessionPurger
	logger   *slog.Logger
}

// NewWorker creates a new background job worker
func NewWorker(sessions jobs.SessionPurger, config Config, logger *slog.Logger) *Worker {
	if config.WorkerID == "" {
		config.WorkerID = fmt.Sprintf("worker-%s", uuid.New().String()[:8])
	}
	if config.PollInterval == 0 {
		config.PollInterval = 10 * time.Minute
	}
	if config.JobTimeout == 0 {
		config.JobTimeout = time.Minute
	}

	return &Worker{
		config:   config,
		sessions: sessions,
		logger:   logger,
	}
}

// Start runs jobs on every tick until the context is cancelled
func (w *Worker) Start(ctx context.Context) error {
	w.logger.Info("worker starting",
		"worker_id", w.config.WorkerID,
		"poll_interval", w.config.PollInterval,
	)

	ticker := time.NewTicker(w.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("worker shutting down", "worker_id", w.config.WorkerID)
			return ctx.Err()
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

// RunOnce runs every scheduled job a single time
func (w *Worker) RunOnce(ctx context.Context) {
	w.process(ctx, jobs.JobTypeCleanupExpiredSessions)
}

func (w *Worker) process(ctx context.Context, jobType string) {
	jobCtx, cancel := context.WithTimeout(ctx, w.config.JobTimeout)
	defer cancel()

	if !jobs.IsCleanupJob(jobType) {
		w.logger.Error("unknown job type", "job_type", jobType)
		return
	}

	result, err := jobs.ProcessCleanupJob(jobCtx, jobType, w.sessions)
	if err != nil {
		w.logger.Error("job failed",
			"job_type", jobType,
			"error", err,
		)
		return
	}

	telemetry.Business.RecordSessionsPurged(result.SessionEntriesDeleted)
	w.logger.Debug("job completed",
		"job_type", jobType,
		"session_entries_deleted", result.SessionEntriesDeleted,
	)
}
