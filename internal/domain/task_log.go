package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// LogLevel is the severity of a task log entry.
type LogLevel string

// Possible log levels, mirroring the severities the dashboard renders.
const (
	LogLevelInfo  LogLevel = "INFO"
	LogLevelWarn  LogLevel = "WARN"
	LogLevelError LogLevel = "ERROR"
)

// Common validation errors for TaskLog
var (
	ErrEmptyLogTaskID  = errors.New("log task ID cannot be empty")
	ErrEmptyLogMessage = errors.New("log message cannot be empty")
	ErrInvalidLogLevel = errors.New("invalid log level")
)

// TaskLog is one immutable, append-only record of a pipeline event. Entries
// are created only by the orchestrator and never mutated or deleted, so an
// external dashboard can render them as a timeline.
type TaskLog struct {
	ID        uuid.UUID      `json:"id"`
	TaskID    uuid.UUID      `json:"task_id"`
	Level     LogLevel       `json:"level"`
	Stage     string         `json:"stage"`
	Message   string         `json:"message"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// NewTaskLog creates a validated TaskLog entry with a fresh UUID.
func NewTaskLog(taskID uuid.UUID, level LogLevel, stage, message string, metadata map[string]any) (*TaskLog, error) {
	entry := &TaskLog{
		ID:        uuid.New(),
		TaskID:    taskID,
		Level:     level,
		Stage:     stage,
		Message:   message,
		Metadata:  metadata,
		CreatedAt: time.Now().UTC(),
	}

	if err := entry.Validate(); err != nil {
		return nil, err
	}

	return entry, nil
}

// Validate checks if the TaskLog has valid data.
func (l *TaskLog) Validate() error {
	if l.TaskID == uuid.Nil {
		return ErrEmptyLogTaskID
	}

	if l.Message == "" {
		return ErrEmptyLogMessage
	}

	switch l.Level {
	case LogLevelInfo, LogLevelWarn, LogLevelError:
	default:
		return ErrInvalidLogLevel
	}

	return nil
}
