package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/inkpress/inkpress-api/internal/domain"
)

// TaskListFilter narrows ListTasks results. Zero values mean "no filter";
// Page is 1-based.
type TaskListFilter struct {
	Status domain.TaskStatus
	Page   int
	Limit  int
}

// TaskStore defines the interface for persisting content tasks. The
// orchestrator is the only writer once a task leaves PENDING; its updates
// are single-row field writes, never multi-row transactions.
type TaskStore interface {
	// CreateTask persists a new task in PENDING state.
	CreateTask(ctx context.Context, task *domain.ContentTask) error

	// GetTask retrieves a task by ID. Returns ErrTaskNotFound if it does
	// not exist.
	GetTask(ctx context.Context, id uuid.UUID) (*domain.ContentTask, error)

	// ListTasks returns the tenant's tasks newest-first, with the total
	// count before pagination.
	ListTasks(ctx context.Context, tenantID uuid.UUID, filter TaskListFilter) ([]*domain.ContentTask, int, error)

	// ListTasksByStatus returns all tasks in the given status, oldest
	// first. Used at startup to resume interrupted work.
	ListTasksByStatus(ctx context.Context, status domain.TaskStatus) ([]*domain.ContentTask, error)

	// UpdateTaskStatus sets only the task's status.
	UpdateTaskStatus(ctx context.Context, id uuid.UUID, status domain.TaskStatus) error

	// SetTaskOutput stores the final output, terminal-success status and
	// published CMS ID in one write.
	SetTaskOutput(ctx context.Context, id uuid.UUID, status domain.TaskStatus, output *domain.ContentOutput, publishedCMSID string) error

	// MarkTaskForRetry increments the retry count, resets the status to
	// PENDING and records the triggering error message.
	MarkTaskForRetry(ctx context.Context, id uuid.UUID, errorMessage string) error

	// ResetTaskForManualRetry zeroes the retry count, clears the error and
	// resets the status to PENDING. Used by the manual retry endpoint.
	ResetTaskForManualRetry(ctx context.Context, id uuid.UUID) error

	// FailTask transitions the task to FAILED with the given error message.
	FailTask(ctx context.Context, id uuid.UUID, errorMessage string) error

	// WithTx returns a TaskStore bound to the given transaction.
	WithTx(tx *sql.Tx) TaskStore
}
