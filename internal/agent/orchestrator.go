package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/inkpress/inkpress-api/internal/domain"
	"github.com/inkpress/inkpress-api/internal/platform/logger"
	"github.com/inkpress/inkpress-api/internal/store"
)

// Stage names used in persisted task logs.
const (
	stageOrchestrator = "orchestrator"
	stagePipeline     = "pipeline"
	stageRetry        = "retry"
)

// Orchestrator owns the lifecycle of content tasks: it loads the task and
// its tenant context, drives the skill pipeline, persists status transitions
// and task logs, and schedules automatic retries with exponential backoff.
//
// All collaborators are injected; the orchestrator holds no global state
// beyond its own in-flight bookkeeping.
type Orchestrator struct {
	logger   *slog.Logger
	tasks    store.TaskStore
	tenants  store.TenantStore
	taskLogs store.TaskLogStore
	pipeline *Pipeline
	metrics  Metrics

	// baseRetryDelay is doubled per prior retry: the delay before attempt
	// r+1 is baseRetryDelay * 2^r.
	baseRetryDelay time.Duration

	mu       sync.Mutex
	inflight map[uuid.UUID]struct{}
	timers   map[uuid.UUID]*time.Timer
	closed   bool

	wg sync.WaitGroup
}

// NewOrchestrator creates an Orchestrator. metrics may be nil.
func NewOrchestrator(
	log *slog.Logger,
	tasks store.TaskStore,
	tenants store.TenantStore,
	taskLogs store.TaskLogStore,
	pipeline *Pipeline,
	metrics Metrics,
	baseRetryDelay time.Duration,
) *Orchestrator {
	if log == nil {
		log = slog.Default()
	}
	if metrics == nil {
		metrics = NopMetrics{}
	}
	if baseRetryDelay <= 0 {
		baseRetryDelay = 2 * time.Second
	}

	return &Orchestrator{
		logger:         log.With("component", "orchestrator"),
		tasks:          tasks,
		tenants:        tenants,
		taskLogs:       taskLogs,
		pipeline:       pipeline,
		metrics:        metrics,
		baseRetryDelay: baseRetryDelay,
		inflight:       make(map[uuid.UUID]struct{}),
		timers:         make(map[uuid.UUID]*time.Timer),
	}
}

// ExecuteTask runs the full pipeline for the given task. It is safe to call
// concurrently; a second call for a task that is already executing in this
// process is a no-op returning ErrTaskInFlight.
//
// The method returns an error only for infrastructure faults it could not
// record against the task; pipeline failures are absorbed into the task's
// own state (retry scheduling or FAILED) and return nil.
func (o *Orchestrator) ExecuteTask(ctx context.Context, taskID uuid.UUID) error {
	if !o.acquire(taskID) {
		o.logger.WarnContext(ctx, "task already in flight, ignoring duplicate execution", "task_id", taskID)
		return ErrTaskInFlight
	}
	defer o.release(taskID)

	log := o.logger.With("task_id", taskID)
	ctx = logger.WithLogger(ctx, log)

	task, err := o.tasks.GetTask(ctx, taskID)
	if err != nil {
		log.ErrorContext(ctx, "failed to load task", "error", err)
		return fmt.Errorf("load task %s: %w", taskID, err)
	}

	if task.Status.IsTerminal() {
		log.WarnContext(ctx, "task is in a terminal state, skipping execution", "status", task.Status)
		return nil
	}

	// The tenant's brand profile is checked before any status write: a task
	// that cannot run at all goes straight from PENDING to FAILED.
	tenant, err := o.tenants.GetTenant(ctx, task.TenantID)
	if err != nil {
		o.handleFailure(ctx, task, fmt.Errorf("load tenant %s: %w", task.TenantID, err))
		return nil
	}

	if tenant.BrandProfile == nil {
		o.failTask(ctx, task, ErrMissingBrandProfile)
		return nil
	}

	if err := o.tasks.UpdateTaskStatus(ctx, taskID, domain.TaskStatusInProgress); err != nil {
		log.ErrorContext(ctx, "failed to mark task in progress", "error", err)
		return fmt.Errorf("mark task in progress: %w", err)
	}
	o.appendLog(ctx, taskID, domain.LogLevelInfo, stageOrchestrator, "task picked up", map[string]any{
		"topic":       task.Topic,
		"retry_count": task.RetryCount,
	})

	taskCtx := &TaskContext{
		TaskID:        task.ID,
		TenantID:      tenant.ID,
		Topic:         task.Topic,
		Keywords:      task.Keywords,
		Brand:         tenant.BrandProfile,
		CMSConnection: tenant.ActiveCMSConnection(),
	}

	if err := o.tasks.UpdateTaskStatus(ctx, taskID, domain.TaskStatusGenerating); err != nil {
		log.ErrorContext(ctx, "failed to mark task generating", "error", err)
		return fmt.Errorf("mark task generating: %w", err)
	}

	skills := o.pipelineFor(ctx, task)
	o.appendLog(ctx, taskID, domain.LogLevelInfo, stagePipeline, "pipeline started", map[string]any{
		"skills": skills,
	})

	artifacts, err := o.pipeline.Run(ctx, taskCtx, skills)
	if err != nil {
		o.handleFailure(ctx, task, err)
		return nil
	}

	return o.completeTask(ctx, task, artifacts)
}

// pipelineFor returns the skill sequence for the task. All current content
// types use the default blog pipeline. Stages whose skill is not registered
// are dropped with a warning, so a deployment missing an optional skill
// still runs the rest of the sequence.
func (o *Orchestrator) pipelineFor(ctx context.Context, _ *domain.ContentTask) []string {
	skills := make([]string, 0, len(DefaultPipeline))
	for _, name := range DefaultPipeline {
		if !o.pipeline.Has(name) {
			logger.FromContext(ctx).WarnContext(ctx, "skill not registered, dropping pipeline stage", "skill", name)
			continue
		}
		skills = append(skills, name)
	}
	return skills
}

// completeTask persists the pipeline's output and the terminal success
// status: PUBLISHED when the content reached the tenant's CMS, GENERATING
// (with output attached) when no publication happened.
func (o *Orchestrator) completeTask(ctx context.Context, task *domain.ContentTask, artifacts *Artifacts) error {
	log := logger.FromContext(ctx)

	output := &domain.ContentOutput{
		SEO:            artifacts.SEO,
		CoverImageURL:  artifacts.CoverImageURL,
		PublishedURL:   artifacts.PublishedURL,
		PublishedCMSID: artifacts.PublishedCMSID,
	}
	if artifacts.Blog != nil {
		output.Blog = *artifacts.Blog
	}

	status := domain.TaskStatusGenerating
	if artifacts.PublishedCMSID != "" {
		status = domain.TaskStatusPublished
	}

	if err := o.tasks.SetTaskOutput(ctx, task.ID, status, output, artifacts.PublishedCMSID); err != nil {
		log.ErrorContext(ctx, "failed to store task output", "error", err)
		return fmt.Errorf("store task output: %w", err)
	}

	o.appendLog(ctx, task.ID, domain.LogLevelInfo, stageOrchestrator, "task completed", map[string]any{
		"status":           string(status),
		"published_cms_id": artifacts.PublishedCMSID,
	})
	o.metrics.TaskFinished(status)

	log.InfoContext(ctx, "task completed", "status", status)
	return nil
}

// handleFailure applies the retry policy after a failed run. Recoverable
// failures within the retry budget schedule another attempt with delay
// baseRetryDelay * 2^retryCount; everything else fails the task.
func (o *Orchestrator) handleFailure(ctx context.Context, task *domain.ContentTask, cause error) {
	log := logger.FromContext(ctx)

	// Re-read the task so the retry decision sees the current retry count,
	// not the snapshot loaded when the attempt started.
	if current, err := o.tasks.GetTask(ctx, task.ID); err == nil {
		task = current
	} else {
		log.WarnContext(ctx, "failed to reload task for retry decision, using in-memory state", "error", err)
	}

	log.ErrorContext(ctx, "task execution failed", "error", cause, "retry_count", task.RetryCount)

	o.appendLog(ctx, task.ID, domain.LogLevelError, stagePipeline, cause.Error(), map[string]any{
		"retry_count": task.RetryCount,
	})

	if isUnrecoverable(cause) || !task.CanRetry() {
		o.failTask(ctx, task, cause)
		return
	}

	if err := o.tasks.MarkTaskForRetry(ctx, task.ID, cause.Error()); err != nil {
		log.ErrorContext(ctx, "failed to mark task for retry", "error", err)
		o.failTask(ctx, task, cause)
		return
	}

	delay := o.baseRetryDelay * (1 << task.RetryCount)
	o.appendLog(ctx, task.ID, domain.LogLevelWarn, stageRetry, "retry scheduled", map[string]any{
		"retry_count": task.RetryCount + 1,
		"max_retries": task.MaxRetries,
		"delay_ms":    delay.Milliseconds(),
	})
	o.metrics.TaskRetryScheduled()

	o.scheduleRetry(task.ID, delay)
}

// failTask transitions the task to FAILED.
func (o *Orchestrator) failTask(ctx context.Context, task *domain.ContentTask, cause error) {
	log := logger.FromContext(ctx)

	if err := o.tasks.FailTask(ctx, task.ID, cause.Error()); err != nil {
		log.ErrorContext(ctx, "failed to mark task failed", "error", err)
		return
	}

	o.appendLog(ctx, task.ID, domain.LogLevelError, stageOrchestrator, "task failed permanently", map[string]any{
		"error":       cause.Error(),
		"retry_count": task.RetryCount,
	})
	o.metrics.TaskFinished(domain.TaskStatusFailed)
}

// isUnrecoverable reports whether retrying cannot help: configuration
// mistakes rather than transient faults.
func isUnrecoverable(err error) bool {
	return errors.Is(err, ErrSkillNotFound) ||
		errors.Is(err, ErrMissingBrandProfile) ||
		errors.Is(err, store.ErrTenantNotFound)
}

// scheduleRetry arms a cancellable timer that re-executes the task after
// delay. Timers are dropped (not fired) when the orchestrator shuts down.
func (o *Orchestrator) scheduleRetry(taskID uuid.UUID, delay time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		o.logger.Warn("orchestrator closed, dropping retry", "task_id", taskID)
		return
	}

	if existing, ok := o.timers[taskID]; ok {
		existing.Stop()
	}

	o.timers[taskID] = time.AfterFunc(delay, func() {
		o.mu.Lock()
		delete(o.timers, taskID)
		closed := o.closed
		o.mu.Unlock()
		if closed {
			return
		}

		ctx := logger.WithLogger(context.Background(), o.logger)
		if err := o.ExecuteTask(ctx, taskID); err != nil && !errors.Is(err, ErrTaskInFlight) {
			o.logger.Error("retry execution failed", "task_id", taskID, "error", err)
		}
	})
}

// CancelRetry stops a pending retry timer for the task, if one is armed.
// Returns true when a timer was cancelled. The task's persisted state is
// untouched; callers that cancel are expected to set the task's status
// themselves.
func (o *Orchestrator) CancelRetry(taskID uuid.UUID) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	timer, ok := o.timers[taskID]
	if !ok {
		return false
	}

	timer.Stop()
	delete(o.timers, taskID)
	return true
}

// ResumePending re-executes tasks left in PENDING after a restart, plus
// tasks interrupted mid-run (IN_PROGRESS, or GENERATING without output).
// Each task runs in its own goroutine.
func (o *Orchestrator) ResumePending(ctx context.Context) error {
	var resumable []*domain.ContentTask

	pending, err := o.tasks.ListTasksByStatus(ctx, domain.TaskStatusPending)
	if err != nil {
		return fmt.Errorf("list pending tasks: %w", err)
	}
	resumable = append(resumable, pending...)

	inProgress, err := o.tasks.ListTasksByStatus(ctx, domain.TaskStatusInProgress)
	if err != nil {
		return fmt.Errorf("list in-progress tasks: %w", err)
	}
	resumable = append(resumable, inProgress...)

	generating, err := o.tasks.ListTasksByStatus(ctx, domain.TaskStatusGenerating)
	if err != nil {
		return fmt.Errorf("list generating tasks: %w", err)
	}
	for _, task := range generating {
		// GENERATING with output attached is a completed run, not an
		// interrupted one.
		if task.Output == nil {
			resumable = append(resumable, task)
		}
	}

	if len(resumable) == 0 {
		return nil
	}

	o.logger.InfoContext(ctx, "resuming interrupted tasks", "count", len(resumable))
	for _, task := range resumable {
		id := task.ID
		go func() {
			execCtx := logger.WithLogger(context.Background(), o.logger)
			if err := o.ExecuteTask(execCtx, id); err != nil && !errors.Is(err, ErrTaskInFlight) {
				o.logger.Error("resumed task execution failed", "task_id", id, "error", err)
			}
		}()
	}

	return nil
}

// Shutdown stops all retry timers and waits for in-flight executions to
// finish, or for ctx to expire.
func (o *Orchestrator) Shutdown(ctx context.Context) error {
	o.mu.Lock()
	o.closed = true
	for id, timer := range o.timers {
		timer.Stop()
		delete(o.timers, id)
	}
	o.mu.Unlock()

	done := make(chan struct{})
	go func() {
		o.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("orchestrator shutdown: %w", ctx.Err())
	}
}

// acquire claims the single-flight slot for a task.
func (o *Orchestrator) acquire(taskID uuid.UUID) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	if _, running := o.inflight[taskID]; running {
		return false
	}

	o.inflight[taskID] = struct{}{}
	o.wg.Add(1)
	return true
}

func (o *Orchestrator) release(taskID uuid.UUID) {
	o.mu.Lock()
	delete(o.inflight, taskID)
	o.mu.Unlock()
	o.wg.Done()
}

// appendLog persists a task log entry. Log write failures are reported to
// the process logger but never fail the task.
func (o *Orchestrator) appendLog(ctx context.Context, taskID uuid.UUID, level domain.LogLevel, stage, message string, metadata map[string]any) {
	entry, err := domain.NewTaskLog(taskID, level, stage, message, metadata)
	if err != nil {
		logger.FromContext(ctx).ErrorContext(ctx, "failed to build task log entry", "error", err)
		return
	}

	if err := o.taskLogs.AppendLog(ctx, entry); err != nil {
		logger.FromContext(ctx).ErrorContext(ctx, "failed to append task log", "error", err)
	}
}
