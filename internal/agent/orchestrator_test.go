package agent_test

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkpress/inkpress-api/internal/agent"
	"github.com/inkpress/inkpress-api/internal/domain"
	"github.com/inkpress/inkpress-api/internal/store"
)

// memTaskStore is an in-memory TaskStore that records every status
// transition it is asked to make.
type memTaskStore struct {
	mu          sync.Mutex
	tasks       map[uuid.UUID]*domain.ContentTask
	transitions map[uuid.UUID][]domain.TaskStatus
}

func newMemTaskStore() *memTaskStore {
	return &memTaskStore{
		tasks:       make(map[uuid.UUID]*domain.ContentTask),
		transitions: make(map[uuid.UUID][]domain.TaskStatus),
	}
}

func (s *memTaskStore) CreateTask(_ context.Context, task *domain.ContentTask) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *task
	s.tasks[task.ID] = &copied
	return nil
}

func (s *memTaskStore) GetTask(_ context.Context, id uuid.UUID) (*domain.ContentTask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[id]
	if !ok {
		return nil, store.ErrTaskNotFound
	}
	copied := *task
	return &copied, nil
}

func (s *memTaskStore) ListTasks(_ context.Context, tenantID uuid.UUID, _ store.TaskListFilter) ([]*domain.ContentTask, int, error) {
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

func (s *memTaskStore) ListTasksByStatus(_ context.Context, status domain.TaskStatus) ([]*domain.ContentTask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*domain.ContentTask
	for _, task := range s.tasks {
		if task.Status == status {
			copied := *task
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (s *memTaskStore) UpdateTaskStatus(_ context.Context, id uuid.UUID, status domain.TaskStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[id]
	if !ok {
		return store.ErrTaskNotFound
	}
	task.Status = status
	s.transitions[id] = append(s.transitions[id], status)
	return nil
}

func (s *memTaskStore) SetTaskOutput(_ context.Context, id uuid.UUID, status domain.TaskStatus, output *domain.ContentOutput, publishedCMSID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[id]
	if !ok {
		return store.ErrTaskNotFound
	}
	task.Status = status
	task.Output = output
	task.PublishedCMSID = publishedCMSID
	s.transitions[id] = append(s.transitions[id], status)
	return nil
}

func (s *memTaskStore) MarkTaskForRetry(_ context.Context, id uuid.UUID, errorMessage string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[id]
	if !ok {
		return store.ErrTaskNotFound
	}
	task.RetryCount++
	task.Status = domain.TaskStatusPending
	task.ErrorMessage = errorMessage
	s.transitions[id] = append(s.transitions[id], domain.TaskStatusPending)
	return nil
}

func (s *memTaskStore) ResetTaskForManualRetry(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[id]
	if !ok {
		return store.ErrTaskNotFound
	}
	task.RetryCount = 0
	task.ErrorMessage = ""
	task.Status = domain.TaskStatusPending
	s.transitions[id] = append(s.transitions[id], domain.TaskStatusPending)
	return nil
}

func (s *memTaskStore) FailTask(_ context.Context, id uuid.UUID, errorMessage string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[id]
	if !ok {
		return store.ErrTaskNotFound
	}
	task.Status = domain.TaskStatusFailed
	task.ErrorMessage = errorMessage
	s.transitions[id] = append(s.transitions[id], domain.TaskStatusFailed)
	return nil
}

func (s *memTaskStore) WithTx(*sql.Tx) store.TaskStore { return s }

func (s *memTaskStore) snapshot(id uuid.UUID) domain.ContentTask {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.tasks[id]
}

func (s *memTaskStore) transitionsFor(id uuid.UUID) []domain.TaskStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.TaskStatus(nil), s.transitions[id]...)
}

// memTenantStore serves a fixed set of tenants.
type memTenantStore struct {
	tenants map[uuid.UUID]*domain.Tenant
}

func (s *memTenantStore) CreateTenant(context.Context, *domain.Tenant) error { return nil }

func (s *memTenantStore) GetTenant(_ context.Context, id uuid.UUID) (*domain.Tenant, error) {
	tenant, ok := s.tenants[id]
	if !ok {
		return nil, store.ErrTenantNotFound
	}
	return tenant, nil
}

func (s *memTenantStore) GetTenantBySlug(context.Context, string) (*domain.Tenant, error) {
	return nil, store.ErrTenantNotFound
}

func (s *memTenantStore) GetTenantByAPIKey(context.Context, string) (*domain.Tenant, error) {
	return nil, store.ErrTenantNotFound
}

func (s *memTenantStore) UpdateTenant(context.Context, uuid.UUID, store.TenantUpdate) error {
	return nil
}

func (s *memTenantStore) ListActiveTenants(context.Context) ([]*domain.Tenant, error) {
	return nil, nil
}

func (s *memTenantStore) UpsertBrandProfile(context.Context, uuid.UUID, store.BrandProfileParams) (*domain.BrandProfile, error) {
	return nil, nil
}

func (s *memTenantStore) CreateCMSConnection(context.Context, *domain.CMSConnection) error {
	return nil
}

func (s *memTenantStore) WithTx(*sql.Tx) store.TenantStore { return s }

// memLogStore collects task log entries.
type memLogStore struct {
	mu      sync.Mutex
	entries []*domain.TaskLog
}

func (s *memLogStore) AppendLog(_ context.Context, entry *domain.TaskLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return nil
}

func (s *memLogStore) ListLogs(_ context.Context, taskID uuid.UUID) ([]*domain.TaskLog, error) {
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

func (s *memLogStore) levels() []domain.LogLevel {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.LogLevel, 0, len(s.entries))
	for _, entry := range s.entries {
		out = append(out, entry.Level)
	}
	return out
}

// orchestratorFixture wires an orchestrator over in-memory stores with a
// single tenant and one PENDING task.
type orchestratorFixture struct {
	orch     *agent.Orchestrator
	tasks    *memTaskStore
	logs     *memLogStore
	task     *domain.ContentTask
	tenant   *domain.Tenant
	registry *agent.Registry
}

func newFixture(t *testing.T, withBrand bool, retryDelay time.Duration, skills ...agent.Skill) *orchestratorFixture {
	t.Helper()

	tenant, err := domain.NewTenant("Acme", "acme", "tak_testkey")
	require.NoError(t, err)
	if withBrand {
		tenant.BrandProfile = &domain.BrandProfile{
			ID:          uuid.New(),
			TenantID:    tenant.ID,
			CompanyName: "Acme",
			Industry:    "devtools",
		}
	}

	task, err := domain.NewContentTask(tenant.ID, "why btree indexes matter", []string{"postgres"}, domain.TriggerSourceAPI)
	require.NoError(t, err)

	tasks := newMemTaskStore()
	require.NoError(t, tasks.CreateTask(context.Background(), task))

	tenants := &memTenantStore{tenants: map[uuid.UUID]*domain.Tenant{tenant.ID: tenant}}
	logs := &memLogStore{}

	registry := agent.NewRegistry(nil)
	for _, skill := range skills {
		registry.Register(skill)
	}

	orch := agent.NewOrchestrator(nil, tasks, tenants, logs, agent.NewPipeline(registry, nil), nil, retryDelay)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = orch.Shutdown(ctx)
	})

	return &orchestratorFixture{
		orch:     orch,
		tasks:    tasks,
		logs:     logs,
		task:     task,
		tenant:   tenant,
		registry: registry,
	}
}

// publishPipeline registers stand-ins for the whole default pipeline so the
// orchestrator's DefaultPipeline resolves.
func publishPipeline(publish bool) []agent.Skill {
	return []agent.Skill{
		&stubSkill{
			name: agent.SkillBlogGeneration,
			execute: func(_ context.Context, _ *agent.TaskContext, artifacts *agent.Artifacts) error {
				artifacts.Blog = &domain.BlogDraft{Title: "Generated", Slug: "generated"}
				return nil
			},
		},
		&stubSkill{
			name: agent.SkillSEOMetadata,
			execute: func(_ context.Context, _ *agent.TaskContext, artifacts *agent.Artifacts) error {
				artifacts.SEO = &domain.SEOMetadata{MetaTitle: "Generated"}
				return nil
			},
		},
		&stubSkill{name: agent.SkillCoverImage, guard: func(*agent.TaskContext, *agent.Artifacts) bool { return false }},
		&stubSkill{
			name: agent.SkillCMSPublish,
			guard: func(*agent.TaskContext, *agent.Artifacts) bool {
				return publish
			},
			execute: func(_ context.Context, _ *agent.TaskContext, artifacts *agent.Artifacts) error {
				artifacts.PublishedCMSID = "page-42"
				artifacts.PublishedURL = "https://notion.so/page-42"
				return nil
			},
		},
	}
}

func TestOrchestrator_SuccessfulRunPublishes(t *testing.T) {
	t.Parallel()

	f := newFixture(t, true, time.Millisecond, publishPipeline(true)...)

	err := f.orch.ExecuteTask(context.Background(), f.task.ID)
	require.NoError(t, err)

	got := f.tasks.snapshot(f.task.ID)
	assert.Equal(t, domain.TaskStatusPublished, got.Status)
	assert.Equal(t, "page-42", got.PublishedCMSID)
	require.NotNil(t, got.Output)
	assert.Equal(t, "Generated", got.Output.Blog.Title)
	assert.Equal(t, "https://notion.so/page-42", got.Output.PublishedURL)
	assert.Equal(t, 0, got.RetryCount)

	assert.Equal(t, []domain.TaskStatus{
		domain.TaskStatusInProgress,
		domain.TaskStatusGenerating,
		domain.TaskStatusPublished,
	}, f.tasks.transitionsFor(f.task.ID))
}

func TestOrchestrator_SuccessWithoutPublishEndsGenerating(t *testing.T) {
	t.Parallel()

	f := newFixture(t, true, time.Millisecond, publishPipeline(false)...)

	err := f.orch.ExecuteTask(context.Background(), f.task.ID)
	require.NoError(t, err)

	got := f.tasks.snapshot(f.task.ID)
	assert.Equal(t, domain.TaskStatusGenerating, got.Status)
	assert.Empty(t, got.PublishedCMSID)
	require.NotNil(t, got.Output, "output marks the GENERATING state as a completed run")
}

func TestOrchestrator_MissingBrandProfileFailsWithoutRetry(t *testing.T) {
	t.Parallel()

	f := newFixture(t, false, time.Minute, publishPipeline(true)...)

	err := f.orch.ExecuteTask(context.Background(), f.task.ID)
	require.NoError(t, err)

	got := f.tasks.snapshot(f.task.ID)
	assert.Equal(t, domain.TaskStatusFailed, got.Status)
	assert.Contains(t, got.ErrorMessage, "brand profile")
	assert.Equal(t, 0, got.RetryCount, "configuration failures must not consume retries")
	assert.False(t, f.orch.CancelRetry(f.task.ID), "no retry timer should be armed")

	assert.Equal(t, []domain.TaskStatus{domain.TaskStatusFailed}, f.tasks.transitionsFor(f.task.ID),
		"task moves directly from PENDING to FAILED")
}

func TestOrchestrator_FailureSchedulesRetryAndRecovers(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	attempts := 0

	skills := publishPipeline(true)
	skills[0] = &stubSkill{
		name: agent.SkillBlogGeneration,
		execute: func(_ context.Context, _ *agent.TaskContext, artifacts *agent.Artifacts) error {
			mu.Lock()
			attempts++
			failing := attempts == 1
			mu.Unlock()

			if failing {
				return errors.New("transient model error")
			}
			artifacts.Blog = &domain.BlogDraft{Title: "Generated", Slug: "generated"}
			return nil
		},
	}

	f := newFixture(t, true, time.Millisecond, skills...)

	err := f.orch.ExecuteTask(context.Background(), f.task.ID)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return f.tasks.snapshot(f.task.ID).Status == domain.TaskStatusPublished
	}, 5*time.Second, 10*time.Millisecond, "retry should re-execute and succeed")

	got := f.tasks.snapshot(f.task.ID)
	assert.Equal(t, 1, got.RetryCount)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 2, attempts)
}

func TestOrchestrator_RetryBudgetExhaustedFailsTask(t *testing.T) {
	t.Parallel()

	failing := &stubSkill{
		name: agent.SkillBlogGeneration,
		execute: func(context.Context, *agent.TaskContext, *agent.Artifacts) error {
			return errors.New("still broken")
		},
	}
	skills := publishPipeline(true)
	skills[0] = failing

	f := newFixture(t, true, time.Minute, skills...)

	// Simulate a task that already burned all but its final attempt.
	f.tasks.mu.Lock()
	f.tasks.tasks[f.task.ID].RetryCount = f.task.MaxRetries - 1
	f.tasks.mu.Unlock()

	err := f.orch.ExecuteTask(context.Background(), f.task.ID)
	require.NoError(t, err)

	got := f.tasks.snapshot(f.task.ID)
	assert.Equal(t, domain.TaskStatusFailed, got.Status)
	assert.Equal(t, f.task.MaxRetries-1, got.RetryCount, "retry count unchanged when budget is exhausted")
	assert.Contains(t, got.ErrorMessage, "still broken")
	assert.False(t, f.orch.CancelRetry(f.task.ID))
}

func TestOrchestrator_UnregisteredStageIsDropped(t *testing.T) {
	t.Parallel()

	// Deploy without the cover-image skill: the stage must be dropped and
	// the remaining sequence must still complete the task.
	all := publishPipeline(false)
	skills := []agent.Skill{all[0], all[1], all[3]}

	f := newFixture(t, true, time.Minute, skills...)

	err := f.orch.ExecuteTask(context.Background(), f.task.ID)
	require.NoError(t, err)

	got := f.tasks.snapshot(f.task.ID)
	assert.Equal(t, domain.TaskStatusGenerating, got.Status)
	require.NotNil(t, got.Output)
	assert.Equal(t, "Generated", got.Output.Blog.Title)
	assert.Equal(t, 0, got.RetryCount)
	assert.False(t, f.orch.CancelRetry(f.task.ID), "a missing stage must not trigger a retry")
}

func TestOrchestrator_RetryDecisionUsesStoredRetryCount(t *testing.T) {
	t.Parallel()

	// The stored retry count is exhausted while the attempt is running; the
	// failure handler must see the stored value, not its initial snapshot,
	// and fail the task instead of scheduling another attempt.
	var f *orchestratorFixture

	skills := publishPipeline(true)
	skills[0] = &stubSkill{
		name: agent.SkillBlogGeneration,
		execute: func(context.Context, *agent.TaskContext, *agent.Artifacts) error {
			f.tasks.mu.Lock()
			f.tasks.tasks[f.task.ID].RetryCount = f.task.MaxRetries - 1
			f.tasks.mu.Unlock()
			return errors.New("still broken")
		},
	}

	f = newFixture(t, true, time.Minute, skills...)

	err := f.orch.ExecuteTask(context.Background(), f.task.ID)
	require.NoError(t, err)

	got := f.tasks.snapshot(f.task.ID)
	assert.Equal(t, domain.TaskStatusFailed, got.Status)
	assert.Equal(t, f.task.MaxRetries-1, got.RetryCount)
	assert.False(t, f.orch.CancelRetry(f.task.ID), "no retry timer should be armed")
}

func TestOrchestrator_DuplicateExecutionIsRejected(t *testing.T) {
	t.Parallel()

	started := make(chan struct{})
	release := make(chan struct{})

	skills := publishPipeline(true)
	skills[0] = &stubSkill{
		name: agent.SkillBlogGeneration,
		execute: func(_ context.Context, _ *agent.TaskContext, artifacts *agent.Artifacts) error {
			close(started)
			<-release
			artifacts.Blog = &domain.BlogDraft{Title: "Generated"}
			return nil
		},
	}

	f := newFixture(t, true, time.Millisecond, skills...)

	done := make(chan error, 1)
	go func() {
		done <- f.orch.ExecuteTask(context.Background(), f.task.ID)
	}()

	<-started
	err := f.orch.ExecuteTask(context.Background(), f.task.ID)
	assert.ErrorIs(t, err, agent.ErrTaskInFlight)

	close(release)
	require.NoError(t, <-done)
}

func TestOrchestrator_TerminalTaskIsNotExecuted(t *testing.T) {
	t.Parallel()

	f := newFixture(t, true, time.Millisecond, publishPipeline(true)...)

	require.NoError(t, f.tasks.UpdateTaskStatus(context.Background(), f.task.ID, domain.TaskStatusCancelled))

	err := f.orch.ExecuteTask(context.Background(), f.task.ID)
	require.NoError(t, err)

	got := f.tasks.snapshot(f.task.ID)
	assert.Equal(t, domain.TaskStatusCancelled, got.Status)
	assert.Nil(t, got.Output)
}

func TestOrchestrator_CancelRetryStopsScheduledAttempt(t *testing.T) {
	t.Parallel()

	failing := &stubSkill{
		name: agent.SkillBlogGeneration,
		execute: func(context.Context, *agent.TaskContext, *agent.Artifacts) error {
			return errors.New("flaky")
		},
	}
	skills := publishPipeline(true)
	skills[0] = failing

	f := newFixture(t, true, time.Minute, skills...)

	err := f.orch.ExecuteTask(context.Background(), f.task.ID)
	require.NoError(t, err)

	got := f.tasks.snapshot(f.task.ID)
	assert.Equal(t, domain.TaskStatusPending, got.Status)
	assert.Equal(t, 1, got.RetryCount)

	assert.True(t, f.orch.CancelRetry(f.task.ID))
	assert.False(t, f.orch.CancelRetry(f.task.ID), "second cancel finds no timer")
}

func TestOrchestrator_TaskLogsRecordFailure(t *testing.T) {
	t.Parallel()

	skills := publishPipeline(true)
	skills[0] = &stubSkill{
		name: agent.SkillBlogGeneration,
		execute: func(context.Context, *agent.TaskContext, *agent.Artifacts) error {
			return errors.New("flaky")
		},
	}

	f := newFixture(t, true, time.Minute, skills...)
	defer f.orch.CancelRetry(f.task.ID)

	require.NoError(t, f.orch.ExecuteTask(context.Background(), f.task.ID))

	levels := f.logs.levels()
	assert.Contains(t, levels, domain.LogLevelInfo)
	assert.Contains(t, levels, domain.LogLevelError)
	assert.Contains(t, levels, domain.LogLevelWarn, "retry scheduling is logged at WARN")
}

func TestOrchestrator_ResumePendingExecutesTask(t *testing.T) {
	t.Parallel()

	f := newFixture(t, true, time.Millisecond, publishPipeline(true)...)

	require.NoError(t, f.orch.ResumePending(context.Background()))

	require.Eventually(t, func() bool {
		return f.tasks.snapshot(f.task.ID).Status == domain.TaskStatusPublished
	}, 5*time.Second, 10*time.Millisecond)
}
