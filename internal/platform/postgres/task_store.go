package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/inkpress/inkpress-api/internal/domain"
	"github.com/inkpress/inkpress-api/internal/platform/logger"
	"github.com/inkpress/inkpress-api/internal/store"
)

// TaskStore implements store.TaskStore using PostgreSQL. Keywords and
// output are stored as JSONB.
type TaskStore struct {
	db store.DBTX
}

// NewTaskStore creates a TaskStore over the given connection or
// transaction.
func NewTaskStore(db store.DBTX) *TaskStore {
	return &TaskStore{db: db}
}

// WithTx returns a TaskStore bound to the given transaction.
func (s *TaskStore) WithTx(tx *sql.Tx) store.TaskStore {
	return NewTaskStore(tx)
}

const taskColumns = `id, tenant_id, content_type, topic, keywords, status, trigger_source,
	output, published_cms_id, error_message, retry_count, max_retries, created_at, updated_at`

// CreateTask persists a new task.
func (s *TaskStore) CreateTask(ctx context.Context, task *domain.ContentTask) error {
	log := logger.FromContext(ctx)

	if err := task.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	keywords, err := json.Marshal(task.Keywords)
	if err != nil {
		return fmt.Errorf("failed to marshal keywords: %w", err)
	}

	query := `
		INSERT INTO content_tasks (id, tenant_id, content_type, topic, keywords, status,
			trigger_source, error_message, retry_count, max_retries, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err = s.db.ExecContext(ctx, query,
		task.ID,
		task.TenantID,
		task.ContentType,
		task.Topic,
		keywords,
		task.Status,
		task.TriggerSource,
		task.ErrorMessage,
		task.RetryCount,
		task.MaxRetries,
		task.CreatedAt,
		task.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to create task", "task_id", task.ID, "error", err)
		return MapError(fmt.Errorf("failed to create task: %w", err))
	}

	return nil
}

// GetTask retrieves a task by ID.
func (s *TaskStore) GetTask(ctx context.Context, id uuid.UUID) (*domain.ContentTask, error) {
	query := `SELECT ` + taskColumns + ` FROM content_tasks WHERE id = $1`

	task, err := scanTask(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrTaskNotFound
		}
		return nil, MapError(fmt.Errorf("failed to get task: %w", err))
	}

	return task, nil
}

// ListTasks returns the tenant's tasks newest-first with the total count
// before pagination.
func (s *TaskStore) ListTasks(ctx context.Context, tenantID uuid.UUID, filter store.TaskListFilter) ([]*domain.ContentTask, int, error) {
	log := logger.FromContext(ctx)

	where := `WHERE tenant_id = $1`
	args := []any{tenantID}
	if filter.Status != "" {
		where += ` AND status = $2`
		args = append(args, filter.Status)
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM content_tasks ` + where
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		log.Error("failed to count tasks", "tenant_id", tenantID, "error", err)
		return nil, 0, MapError(fmt.Errorf("failed to count tasks: %w", err))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}

	query := fmt.Sprintf(`SELECT %s FROM content_tasks %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		taskColumns, where, len(args)+1, len(args)+2)
	args = append(args, limit, (page-1)*limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to list tasks", "tenant_id", tenantID, "error", err)
		return nil, 0, MapError(fmt.Errorf("failed to list tasks: %w", err))
	}
	defer func() { _ = rows.Close() }()

	var tasks []*domain.ContentTask
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, 0, MapError(fmt.Errorf("failed to scan task row: %w", err))
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, MapError(fmt.Errorf("error iterating task rows: %w", err))
	}

	return tasks, total, nil
}

// ListTasksByStatus returns all tasks in the given status, oldest first.
func (s *TaskStore) ListTasksByStatus(ctx context.Context, status domain.TaskStatus) ([]*domain.ContentTask, error) {
	query := `SELECT ` + taskColumns + ` FROM content_tasks WHERE status = $1 ORDER BY created_at ASC`

	rows, err := s.db.QueryContext(ctx, query, status)
	if err != nil {
		return nil, MapError(fmt.Errorf("failed to list tasks by status: %w", err))
	}
	defer func() { _ = rows.Close() }()

	var tasks []*domain.ContentTask
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, MapError(fmt.Errorf("failed to scan task row: %w", err))
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(fmt.Errorf("error iterating task rows: %w", err))
	}

	return tasks, nil
}

// UpdateTaskStatus sets only the task's status.
func (s *TaskStore) UpdateTaskStatus(ctx context.Context, id uuid.UUID, status domain.TaskStatus) error {
	query := `UPDATE content_tasks SET status = $1, updated_at = $2 WHERE id = $3`
	return s.execExpectingRow(ctx, query, status, time.Now().UTC(), id)
}

// SetTaskOutput stores the final output, status and published CMS ID in one
// write.
func (s *TaskStore) SetTaskOutput(ctx context.Context, id uuid.UUID, status domain.TaskStatus, output *domain.ContentOutput, publishedCMSID string) error {
	payload, err := json.Marshal(output)
	if err != nil {
		return fmt.Errorf("failed to marshal task output: %w", err)
	}

	query := `
		UPDATE content_tasks
		SET status = $1, output = $2, published_cms_id = $3, error_message = '', updated_at = $4
		WHERE id = $5
	`
	return s.execExpectingRow(ctx, query, status, payload, publishedCMSID, time.Now().UTC(), id)
}

// MarkTaskForRetry increments the retry count, resets the status to PENDING
// and records the triggering error message.
func (s *TaskStore) MarkTaskForRetry(ctx context.Context, id uuid.UUID, errorMessage string) error {
	query := `
		UPDATE content_tasks
		SET status = $1, retry_count = retry_count + 1, error_message = $2, updated_at = $3
		WHERE id = $4
	`
	return s.execExpectingRow(ctx, query, domain.TaskStatusPending, errorMessage, time.Now().UTC(), id)
}

// ResetTaskForManualRetry zeroes the retry count, clears the error and
// resets the status to PENDING.
func (s *TaskStore) ResetTaskForManualRetry(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE content_tasks
		SET status = $1, retry_count = 0, error_message = '', updated_at = $2
		WHERE id = $3
	`
	return s.execExpectingRow(ctx, query, domain.TaskStatusPending, time.Now().UTC(), id)
}

// FailTask transitions the task to FAILED with the given error message.
func (s *TaskStore) FailTask(ctx context.Context, id uuid.UUID, errorMessage string) error {
	query := `UPDATE content_tasks SET status = $1, error_message = $2, updated_at = $3 WHERE id = $4`
	return s.execExpectingRow(ctx, query, domain.TaskStatusFailed, errorMessage, time.Now().UTC(), id)
}

// execExpectingRow runs an update that must touch exactly one task.
func (s *TaskStore) execExpectingRow(ctx context.Context, query string, args ...any) error {
	log := logger.FromContext(ctx)

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		log.Error("task update failed", "error", err)
		return MapError(fmt.Errorf("task update failed: %w", err))
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return store.ErrTaskNotFound
	}

	return nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*domain.ContentTask, error) {
	var task domain.ContentTask
	var keywords []byte
	var output []byte
	var publishedCMSID sql.NullString
	var errorMessage sql.NullString

	err := row.Scan(
		&task.ID,
		&task.TenantID,
		&task.ContentType,
		&task.Topic,
		&keywords,
		&task.Status,
		&task.TriggerSource,
		&output,
		&publishedCMSID,
		&errorMessage,
		&task.RetryCount,
		&task.MaxRetries,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(keywords) > 0 {
		if err := json.Unmarshal(keywords, &task.Keywords); err != nil {
			return nil, fmt.Errorf("failed to unmarshal keywords: %w", err)
		}
	}
	if len(output) > 0 {
		task.Output = &domain.ContentOutput{}
		if err := json.Unmarshal(output, task.Output); err != nil {
			return nil, fmt.Errorf("failed to unmarshal output: %w", err)
		}
	}
	task.PublishedCMSID = publishedCMSID.String
	task.ErrorMessage = errorMessage.String

	return &task, nil
}
