package jobs

import (
	"context"
	"fmt"
)

// Job type constants for cleanup jobs
const (
	JobTypeCleanupExpiredSessions = "cleanup:expired_sessions"
)

// SessionPurger removes expired session entries and reports how many went.
type SessionPurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// CleanupResult holds the result of a cleanup operation
type CleanupResult struct {
	SessionEntriesDeleted int64 `json:"session_entries_deleted"`
}

// ProcessCleanupJob processes a cleanup job based on its type
func ProcessCleanupJob(ctx context.Context, jobType string, sessions SessionPurger) (*CleanupResult, error) {
	switch jobType {
	case JobTypeCleanupExpiredSessions:
		return processCleanupExpiredSessions(ctx, sessions)
	default:
		return nil, fmt.Errorf("unknown cleanup job type: %s", jobType)
	}
}

// processCleanupExpiredSessions drops stale carts and order confirmations
func processCleanupExpiredSessions(ctx context.Context, sessions SessionPurger) (*CleanupResult, error) {
	n, err := sessions.PurgeExpired(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to delete expired session entries: %w", err)
	}
	return &CleanupResult{SessionEntriesDeleted: n}, nil
}

// IsCleanupJob checks if a job type is a cleanup job
func IsCleanupJob(jobType string) bool {
	switch jobType {
	case JobTypeCleanupExpiredSessions:
		return true
	}
	return false
}
