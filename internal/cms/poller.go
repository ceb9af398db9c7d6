package cms

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/inkpress/inkpress-api/internal/domain"
	"github.com/inkpress/inkpress-api/internal/store"
)

// TaskExecutor runs a content task to completion. Implemented by the agent
// orchestrator.
type TaskExecutor interface {
	ExecuteTask(ctx context.Context, taskID uuid.UUID) error
}

// Poller periodically scans every active tenant's trigger databases for
// requested topics, converts them into content tasks and reports the
// outcome back to the trigger entry.
type Poller struct {
	logger   *slog.Logger
	tenants  store.TenantStore
	tasks    store.TaskStore
	factory  *Factory
	executor TaskExecutor
	schedule string

	// maxRetries overrides the domain default retry budget on created
	// tasks when positive.
	maxRetries int

	cron *cron.Cron
}

// NewPoller creates a Poller on the given cron schedule (standard five-field
// cron expression).
func NewPoller(
	logger *slog.Logger,
	tenants store.TenantStore,
	tasks store.TaskStore,
	factory *Factory,
	executor TaskExecutor,
	schedule string,
	maxRetries int,
) *Poller {
	if logger == nil {
		logger = slog.Default()
	}

	return &Poller{
		logger:     logger.With("component", "cms_poller"),
		tenants:    tenants,
		tasks:      tasks,
		factory:    factory,
		executor:   executor,
		schedule:   schedule,
		maxRetries: maxRetries,
		cron:       cron.New(),
	}
}

// Start runs one immediate poll cycle and then polls on the configured
// schedule until Stop is called.
func (p *Poller) Start() error {
	if _, err := p.cron.AddFunc(p.schedule, func() {
		p.PollOnce(context.Background())
	}); err != nil {
		return fmt.Errorf("invalid poll schedule %q: %w", p.schedule, err)
	}

	go p.PollOnce(context.Background())
	p.cron.Start()

	p.logger.Info("CMS polling started", "schedule", p.schedule)
	return nil
}

// Stop halts the schedule and waits for a running cycle to finish, or for
// ctx to expire.
func (p *Poller) Stop(ctx context.Context) error {
	stopCtx := p.cron.Stop()
	select {
	case <-stopCtx.Done():
		p.logger.Info("CMS polling stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("poller stop: %w", ctx.Err())
	}
}

// PollOnce scans all tenants' trigger databases once. Per-connection
// failures are logged and do not abort the cycle.
func (p *Poller) PollOnce(ctx context.Context) {
	tenants, err := p.tenants.ListActiveTenants(ctx)
	if err != nil {
		p.logger.ErrorContext(ctx, "poll cycle failed to list tenants", "error", err)
		return
	}

	for _, tenant := range tenants {
		for _, conn := range tenant.CMSConnections {
			if !conn.IsActive || conn.TriggerDatabaseID == "" {
				continue
			}

			if err := p.pollConnection(ctx, tenant, conn); err != nil {
				p.logger.ErrorContext(ctx, "polling failed for connection",
					"tenant_id", tenant.ID,
					"connection_id", conn.ID,
					"error", err)
			}
		}
	}
}

func (p *Poller) pollConnection(ctx context.Context, tenant *domain.Tenant, conn *domain.CMSConnection) error {
	adapter, err := p.factory.AdapterFor(conn.Provider)
	if err != nil {
		return err
	}

	triggers, err := adapter.FetchPendingTriggers(ctx, conn)
	if err != nil {
		return fmt.Errorf("fetch triggers: %w", err)
	}
	if len(triggers) == 0 {
		return nil
	}

	p.logger.InfoContext(ctx, "found pending triggers",
		"tenant_id", tenant.ID,
		"count", len(triggers))

	for _, trigger := range triggers {
		if err := p.processTrigger(ctx, tenant, conn, adapter, trigger); err != nil {
			p.logger.ErrorContext(ctx, "failed to process trigger",
				"trigger_id", trigger.ID,
				"error", err)
			if markErr := adapter.MarkTriggerFailed(ctx, conn, trigger.ID, err.Error()); markErr != nil {
				p.logger.ErrorContext(ctx, "failed to mark trigger failed", "trigger_id", trigger.ID, "error", markErr)
			}
		}
	}

	return nil
}

func (p *Poller) processTrigger(ctx context.Context, tenant *domain.Tenant, conn *domain.CMSConnection, adapter Adapter, trigger Trigger) error {
	if err := adapter.MarkTriggerProcessing(ctx, conn, trigger.ID); err != nil {
		return err
	}

	task, err := domain.NewContentTask(tenant.ID, trigger.Topic, trigger.Keywords, domain.TriggerSourcePoll)
	if err != nil {
		return fmt.Errorf("build task from trigger: %w", err)
	}
	if p.maxRetries > 0 {
		task.MaxRetries = p.maxRetries
	}
	if err := p.tasks.CreateTask(ctx, task); err != nil {
		return fmt.Errorf("create task from trigger: %w", err)
	}

	p.logger.InfoContext(ctx, "task created from CMS trigger",
		"task_id", task.ID,
		"trigger_id", trigger.ID,
		"topic", trigger.Topic)

	go p.executeAndReport(tenant.ID, conn, adapter, trigger.ID, task.ID)
	return nil
}

// executeAndReport runs the task and writes the terminal outcome back to
// the trigger entry. Runs detached from the poll cycle.
func (p *Poller) executeAndReport(tenantID uuid.UUID, conn *domain.CMSConnection, adapter Adapter, triggerID string, taskID uuid.UUID) {
	ctx := context.Background()
	log := p.logger.With("task_id", taskID, "trigger_id", triggerID, "tenant_id", tenantID)

	if err := p.executor.ExecuteTask(ctx, taskID); err != nil {
		log.Error("trigger task execution failed", "error", err)
		if markErr := adapter.MarkTriggerFailed(ctx, conn, triggerID, err.Error()); markErr != nil {
			log.Error("failed to mark trigger failed", "error", markErr)
		}
		return
	}

	// The executor absorbs pipeline failures into task state; read it back
	// to learn the outcome. A task awaiting an automatic retry is left
	// alone; a later cycle's outcome check is not needed because the
	// trigger already shows Processing.
	task, err := p.tasks.GetTask(ctx, taskID)
	if err != nil {
		log.Error("failed to reload task after execution", "error", err)
		return
	}

	switch {
	case task.PublishedCMSID != "":
		pageRef := task.PublishedCMSID
		if task.Output != nil && task.Output.PublishedURL != "" {
			pageRef = task.Output.PublishedURL
		}
		if err := adapter.MarkTriggerPublished(ctx, conn, triggerID, pageRef); err != nil {
			log.Error("failed to mark trigger published", "error", err)
		}
	case task.Status == domain.TaskStatusFailed:
		reason := task.ErrorMessage
		if reason == "" {
			reason = "unknown error"
		}
		if err := adapter.MarkTriggerFailed(ctx, conn, triggerID, reason); err != nil {
			log.Error("failed to mark trigger failed", "error", err)
		}
	}
}

// pollTimeout bounds one manual cycle kicked off over HTTP.
const pollTimeout = 5 * time.Minute

// TriggerNow runs one poll cycle with a bounded context. Used by the
// webhook endpoint that lets operators poll on demand.
func (p *Poller) TriggerNow() {
	ctx, cancel := context.WithTimeout(context.Background(), pollTimeout)
	defer cancel()
	p.PollOnce(ctx)
}
