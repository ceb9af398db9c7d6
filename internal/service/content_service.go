package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/inkpress/inkpress-api/internal/domain"
	"github.com/inkpress/inkpress-api/internal/platform/logger"
	"github.com/inkpress/inkpress-api/internal/store"
)

// TaskExecutor runs a content task to completion. Implemented by the agent
// orchestrator.
type TaskExecutor interface {
	ExecuteTask(ctx context.Context, taskID uuid.UUID) error
}

// TaskDetail is a task together with its execution log timeline.
type TaskDetail struct {
	Task *domain.ContentTask `json:"task"`
	Logs []*domain.TaskLog   `json:"logs"`
}

// ContentService owns the content task lifecycle as seen from the API:
// creating tasks, reading their state, and manual retries. Execution itself
// is handed to the orchestrator asynchronously.
type ContentService struct {
	logger     *slog.Logger
	tasks      store.TaskStore
	taskLogs   store.TaskLogStore
	executor   TaskExecutor
	maxRetries int
}

// NewContentService creates a ContentService. maxRetries overrides the
// domain default retry budget on created tasks when positive.
func NewContentService(log *slog.Logger, tasks store.TaskStore, taskLogs store.TaskLogStore, executor TaskExecutor, maxRetries int) *ContentService {
	if log == nil {
		log = slog.Default()
	}

	return &ContentService{
		logger:     log.With("component", "content_service"),
		tasks:      tasks,
		taskLogs:   taskLogs,
		executor:   executor,
		maxRetries: maxRetries,
	}
}

// Generate creates a PENDING task for the tenant and kicks off execution in
// the background. The returned task reflects the freshly created state, not
// the execution outcome.
func (s *ContentService) Generate(ctx context.Context, tenantID uuid.UUID, topic string, keywords []string) (*domain.ContentTask, error) {
	task, err := domain.NewContentTask(tenantID, topic, keywords, domain.TriggerSourceAPI)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}
	if s.maxRetries > 0 {
		task.MaxRetries = s.maxRetries
	}

	if err := s.tasks.CreateTask(ctx, task); err != nil {
		return nil, fmt.Errorf("create content task: %w", err)
	}

	s.logger.InfoContext(ctx, "content task created",
		"task_id", task.ID,
		"tenant_id", tenantID,
		"topic", topic)

	s.executeAsync(task.ID)
	return task, nil
}

// GetTask returns the tenant's task with its log timeline. Tasks belonging
// to other tenants are reported as not found.
func (s *ContentService) GetTask(ctx context.Context, tenantID, taskID uuid.UUID) (*TaskDetail, error) {
	task, err := s.tasks.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task.TenantID != tenantID {
		return nil, store.ErrTaskNotFound
	}

	logs, err := s.taskLogs.ListLogs(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("list task logs: %w", err)
	}

	return &TaskDetail{Task: task, Logs: logs}, nil
}

// ListTasks returns the tenant's tasks with the total count before
// pagination.
func (s *ContentService) ListTasks(ctx context.Context, tenantID uuid.UUID, filter store.TaskListFilter) ([]*domain.ContentTask, int, error) {
	return s.tasks.ListTasks(ctx, tenantID, filter)
}

// RetryTask restarts a FAILED task with a fresh retry budget. Any other
// state returns ErrTaskNotRetryable.
func (s *ContentService) RetryTask(ctx context.Context, tenantID, taskID uuid.UUID) (*domain.ContentTask, error) {
	task, err := s.tasks.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task.TenantID != tenantID {
		return nil, store.ErrTaskNotFound
	}

	if task.Status != domain.TaskStatusFailed {
		return nil, fmt.Errorf("%w: status %s", ErrTaskNotRetryable, task.Status)
	}

	if err := s.tasks.ResetTaskForManualRetry(ctx, taskID); err != nil {
		return nil, fmt.Errorf("reset task for retry: %w", err)
	}

	s.logger.InfoContext(ctx, "task reset for manual retry", "task_id", taskID)

	s.executeAsync(taskID)
	return s.tasks.GetTask(ctx, taskID)
}

// executeAsync hands the task to the orchestrator in a fresh goroutine with
// a background context: execution must outlive the HTTP request.
func (s *ContentService) executeAsync(taskID uuid.UUID) {
	go func() {
		ctx := logger.WithLogger(context.Background(), s.logger)
		if err := s.executor.ExecuteTask(ctx, taskID); err != nil {
			s.logger.Error("background task execution failed", "task_id", taskID, "error", err)
		}
	}()
}
