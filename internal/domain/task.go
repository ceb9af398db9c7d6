package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// TaskStatus represents the lifecycle state of a content generation task.
//
// Lifecycle:
//
//	PENDING -> IN_PROGRESS -> GENERATING -> PUBLISHED
//	                                     \> GENERATING (terminal, no CMS publish)
//	any non-terminal -> FAILED on unrecoverable error
//	FAILED -> PENDING on explicit retry
type TaskStatus string

// Possible task status values
const (
	// TaskStatusPending is the initial state: the task has been created but
	// not yet picked up by the orchestrator. Also the state a task returns
	// to while waiting for a scheduled retry.
	TaskStatusPending TaskStatus = "PENDING"

	// TaskStatusInProgress means the task has been loaded and its tenant
	// context resolved; skills are about to run.
	TaskStatusInProgress TaskStatus = "IN_PROGRESS"

	// TaskStatusGenerating means the pipeline is actively running skills.
	// It doubles as the terminal state for a successful run that produced
	// no CMS publication (no connection configured or publish skipped).
	TaskStatusGenerating TaskStatus = "GENERATING"

	// TaskStatusPublished is terminal: the pipeline completed and the
	// content was published to the tenant's CMS.
	TaskStatusPublished TaskStatus = "PUBLISHED"

	// TaskStatusFailed is terminal for the current attempt chain: retries
	// were exhausted or a configuration precondition was missing.
	TaskStatusFailed TaskStatus = "FAILED"

	// TaskStatusCancelled is terminal and only ever set by an external
	// collaborator; the orchestrator never transitions into it.
	TaskStatusCancelled TaskStatus = "CANCELLED"
)

// Trigger source values for ContentTask.TriggerSource.
const (
	TriggerSourceAPI  = "api"
	TriggerSourcePoll = "poll"
)

// DefaultMaxRetries is applied to new tasks unless the caller overrides it.
const DefaultMaxRetries = 3

// Common validation errors for ContentTask
var (
	ErrEmptyTaskID       = errors.New("task ID cannot be empty")
	ErrEmptyTaskTenantID = errors.New("task tenant ID cannot be empty")
	ErrEmptyTaskTopic    = errors.New("task topic cannot be empty")
	ErrInvalidTaskStatus = errors.New("invalid task status")
	ErrRetryCountExceeds = errors.New("retry count cannot exceed max retries")
)

// ContentTask represents one unit of content generation work for a tenant.
// It is created in PENDING state by an API handler or the CMS poller and
// from then on mutated exclusively by the orchestrator.
type ContentTask struct {
	ID             uuid.UUID      `json:"id"`
	TenantID       uuid.UUID      `json:"tenant_id"`
	ContentType    string         `json:"content_type"`
	Topic          string         `json:"topic"`
	Keywords       []string       `json:"keywords"`
	Status         TaskStatus     `json:"status"`
	TriggerSource  string         `json:"trigger_source"`
	Output         *ContentOutput `json:"output,omitempty"`
	PublishedCMSID string         `json:"published_cms_id,omitempty"`
	ErrorMessage   string         `json:"error_message,omitempty"`
	RetryCount     int            `json:"retry_count"`
	MaxRetries     int            `json:"max_retries"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// NewContentTask creates a new ContentTask in PENDING state with a fresh
// UUID and the default retry budget. Returns an error if validation fails.
func NewContentTask(tenantID uuid.UUID, topic string, keywords []string, triggerSource string) (*ContentTask, error) {
	if triggerSource == "" {
		triggerSource = TriggerSourceAPI
	}

	now := time.Now().UTC()
	task := &ContentTask{
		ID:            uuid.New(),
		TenantID:      tenantID,
		ContentType:   "blog",
		Topic:         topic,
		Keywords:      keywords,
		Status:        TaskStatusPending,
		TriggerSource: triggerSource,
		RetryCount:    0,
		MaxRetries:    DefaultMaxRetries,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}

	return task, nil
}

// Validate checks if the ContentTask has valid data.
func (t *ContentTask) Validate() error {
	if t.ID == uuid.Nil {
		return ErrEmptyTaskID
	}

	if t.TenantID == uuid.Nil {
		return ErrEmptyTaskTenantID
	}

	if t.Topic == "" {
		return ErrEmptyTaskTopic
	}

	if !t.Status.IsValid() {
		return ErrInvalidTaskStatus
	}

	if t.RetryCount > t.MaxRetries {
		return ErrRetryCountExceeds
	}

	return nil
}

// IsTerminal reports whether the task has reached a final state. GENERATING
// counts as terminal only once the orchestrator has stored an output for the
// task, so it is not included here; callers that need the
// success-without-publish distinction check Output != nil themselves.
func (s TaskStatus) IsTerminal() bool {
	switch s {
	case TaskStatusPublished, TaskStatusFailed, TaskStatusCancelled:
		return true
	default:
		return false
	}
}

// CanRetry reports whether another automatic retry attempt is allowed.
func (t *ContentTask) CanRetry() bool {
	return t.RetryCount+1 < t.MaxRetries
}

// IsValid reports whether the status is one of the known task states.
func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusGenerating,
		TaskStatusPublished, TaskStatusFailed, TaskStatusCancelled:
		return true
	default:
		return false
	}
}
