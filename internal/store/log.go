package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/inkpress/inkpress-api/internal/domain"
)

// TaskLogStore defines the interface for the append-only task log. Entries
// are never updated or deleted.
type TaskLogStore interface {
	// AppendLog persists a new log entry.
	AppendLog(ctx context.Context, entry *domain.TaskLog) error

	// ListLogs returns all log entries for a task, oldest first.
	ListLogs(ctx context.Context, taskID uuid.UUID) ([]*domain.TaskLog, error)
}
