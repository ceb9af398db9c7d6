package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/inkpress/inkpress-api/internal/domain"
	"github.com/inkpress/inkpress-api/internal/platform/logger"
	"github.com/inkpress/inkpress-api/internal/store"
)

// TaskLogStore implements store.TaskLogStore using PostgreSQL. Metadata is
// stored as JSONB.
type TaskLogStore struct {
	db store.DBTX
}

// NewTaskLogStore creates a TaskLogStore over the given connection.
func NewTaskLogStore(db store.DBTX) *TaskLogStore {
	return &TaskLogStore{db: db}
}

// AppendLog persists a new log entry.
func (s *TaskLogStore) AppendLog(ctx context.Context, entry *domain.TaskLog) error {
	log := logger.FromContext(ctx)

	if err := entry.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	var metadata any
	if entry.Metadata != nil {
		payload, err := json.Marshal(entry.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal log metadata: %w", err)
		}
		metadata = payload
	}

	query := `
		INSERT INTO task_logs (id, task_id, level, stage, message, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := s.db.ExecContext(ctx, query,
		entry.ID,
		entry.TaskID,
		entry.Level,
		entry.Stage,
		entry.Message,
		metadata,
		entry.CreatedAt,
	)
	if err != nil {
		log.Error("failed to append task log", "task_id", entry.TaskID, "error", err)
		return MapError(fmt.Errorf("failed to append task log: %w", err))
	}

	return nil
}

// ListLogs returns all log entries for a task, oldest first.
func (s *TaskLogStore) ListLogs(ctx context.Context, taskID uuid.UUID) ([]*domain.TaskLog, error) {
	query := `
		SELECT id, task_id, level, stage, message, metadata, created_at
		FROM task_logs
		WHERE task_id = $1
		ORDER BY created_at ASC
	`

	rows, err := s.db.QueryContext(ctx, query, taskID)
	if err != nil {
		return nil, MapError(fmt.Errorf("failed to list task logs: %w", err))
	}
	defer func() { _ = rows.Close() }()

	var entries []*domain.TaskLog
	for rows.Next() {
		var entry domain.TaskLog
		var metadata []byte
		if err := rows.Scan(
			&entry.ID,
			&entry.TaskID,
			&entry.Level,
			&entry.Stage,
			&entry.Message,
			&metadata,
			&entry.CreatedAt,
		); err != nil {
			return nil, MapError(fmt.Errorf("failed to scan task log row: %w", err))
		}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &entry.Metadata); err != nil {
				return nil, fmt.Errorf("failed to unmarshal log metadata: %w", err)
			}
		}
		entries = append(entries, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(fmt.Errorf("error iterating task log rows: %w", err))
	}

	return entries, nil
}
