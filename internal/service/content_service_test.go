package service_test

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkpress/inkpress-api/internal/domain"
	"github.com/inkpress/inkpress-api/internal/service"
	"github.com/inkpress/inkpress-api/internal/store"
)

// stubTaskStore is a minimal in-memory TaskStore.
type stubTaskStore struct {
	mu    sync.Mutex
	tasks map[uuid.UUID]*domain.ContentTask
}

func newStubTaskStore() *stubTaskStore {
	return &stubTaskStore{tasks: make(map[uuid.UUID]*domain.ContentTask)}
}

func (s *stubTaskStore) CreateTask(_ context.Context, task *domain.ContentTask) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *task
	s.tasks[task.ID] = &copied
	return nil
}

func (s *stubTaskStore) GetTask(_ context.Context, id uuid.UUID) (*domain.ContentTask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[id]
	if !ok {
		return nil, store.ErrTaskNotFound
	}
	copied := *task
	return &copied, nil
}

func (s *stubTaskStore) ListTasks(_ context.Context, tenantID uuid.UUID, _ store.TaskListFilter) ([]*domain.ContentTask, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.ContentTask
	for _, task := range s.tasks {
		if task.TenantID == tenantID {
			copied := *task
			out = append(out, &copied)
		}
	}
	return out, len(out), nil
}

func (s *stubTaskStore) ListTasksByStatus(context.Context, domain.TaskStatus) ([]*domain.ContentTask, error) {
	return nil, nil
}

func (s *stubTaskStore) UpdateTaskStatus(_ context.Context, id uuid.UUID, status domain.TaskStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[id].Status = status
	return nil
}

func (s *stubTaskStore) SetTaskOutput(context.Context, uuid.UUID, domain.TaskStatus, *domain.ContentOutput, string) error {
	return nil
}

func (s *stubTaskStore) MarkTaskForRetry(context.Context, uuid.UUID, string) error { return nil }

func (s *stubTaskStore) ResetTaskForManualRetry(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	task := s.tasks[id]
	task.RetryCount = 0
	task.ErrorMessage = ""
	task.Status = domain.TaskStatusPending
	return nil
}

func (s *stubTaskStore) FailTask(_ context.Context, id uuid.UUID, msg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	task := s.tasks[id]
	task.Status = domain.TaskStatusFailed
	task.ErrorMessage = msg
	return nil
}

func (s *stubTaskStore) WithTx(*sql.Tx) store.TaskStore { return s }

// stubLogStore records appended entries.
type stubLogStore struct {
	mu      sync.Mutex
	entries []*domain.TaskLog
}

func (s *stubLogStore) AppendLog(_ context.Context, entry *domain.TaskLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return nil
}

func (s *stubLogStore) ListLogs(_ context.Context, taskID uuid.UUID) ([]*domain.TaskLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.TaskLog
	for _, entry := range s.entries {
		if entry.TaskID == taskID {
			out = append(out, entry)
		}
	}
	return out, nil
}

// stubExecutor records execution requests on a channel.
type stubExecutor struct {
	executed chan uuid.UUID
}

func newStubExecutor() *stubExecutor {
	return &stubExecutor{executed: make(chan uuid.UUID, 8)}
}

func (e *stubExecutor) ExecuteTask(_ context.Context, taskID uuid.UUID) error {
	e.executed <- taskID
	return nil
}

func (e *stubExecutor) waitForExecution(t *testing.T) uuid.UUID {
	t.Helper()
	select {
	case id := <-e.executed:
		return id
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for task execution")
		return uuid.Nil
	}
}

func TestContentService_GenerateCreatesPendingTaskAndExecutes(t *testing.T) {
	t.Parallel()

	tasks := newStubTaskStore()
	executor := newStubExecutor()
	svc := service.NewContentService(nil, tasks, &stubLogStore{}, executor, 0)

	tenantID := uuid.New()
	task, err := svc.Generate(context.Background(), tenantID, "observability on a budget", []string{"metrics"})
	require.NoError(t, err)

	assert.Equal(t, domain.TaskStatusPending, task.Status)
	assert.Equal(t, tenantID, task.TenantID)
	assert.Equal(t, domain.TriggerSourceAPI, task.TriggerSource)

	assert.Equal(t, task.ID, executor.waitForExecution(t))
}

func TestContentService_GenerateRejectsEmptyTopic(t *testing.T) {
	t.Parallel()

	svc := service.NewContentService(nil, newStubTaskStore(), &stubLogStore{}, newStubExecutor(), 0)

	_, err := svc.Generate(context.Background(), uuid.New(), "", nil)
	assert.ErrorIs(t, err, store.ErrInvalidEntity)
}

func TestContentService_GetTaskScopedToTenant(t *testing.T) {
	t.Parallel()

	tasks := newStubTaskStore()
	logs := &stubLogStore{}
	executor := newStubExecutor()
	svc := service.NewContentService(nil, tasks, logs, executor, 0)

	owner := uuid.New()
	task, err := svc.Generate(context.Background(), owner, "topic", nil)
	require.NoError(t, err)
	executor.waitForExecution(t)

	entry, err := domain.NewTaskLog(task.ID, domain.LogLevelInfo, "orchestrator", "task picked up", nil)
	require.NoError(t, err)
	require.NoError(t, logs.AppendLog(context.Background(), entry))

	detail, err := svc.GetTask(context.Background(), owner, task.ID)
	require.NoError(t, err)
	assert.Equal(t, task.ID, detail.Task.ID)
	require.Len(t, detail.Logs, 1)

	_, err = svc.GetTask(context.Background(), uuid.New(), task.ID)
	assert.ErrorIs(t, err, store.ErrTaskNotFound, "foreign tenants must not see the task")
}

func TestContentService_RetryTaskOnlyFromFailed(t *testing.T) {
	t.Parallel()

	tasks := newStubTaskStore()
	executor := newStubExecutor()
	svc := service.NewContentService(nil, tasks, &stubLogStore{}, executor, 0)

	tenantID := uuid.New()
	task, err := svc.Generate(context.Background(), tenantID, "topic", nil)
	require.NoError(t, err)
	executor.waitForExecution(t)

	_, err = svc.RetryTask(context.Background(), tenantID, task.ID)
	assert.ErrorIs(t, err, service.ErrTaskNotRetryable, "PENDING tasks cannot be retried")

	require.NoError(t, tasks.FailTask(context.Background(), task.ID, "model exploded"))

	retried, err := svc.RetryTask(context.Background(), tenantID, task.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusPending, retried.Status)
	assert.Equal(t, 0, retried.RetryCount)
	assert.Empty(t, retried.ErrorMessage)

	assert.Equal(t, task.ID, executor.waitForExecution(t))
}
