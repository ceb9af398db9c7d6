package agent

import (
	"context"

	"github.com/google/uuid"

	"github.com/inkpress/inkpress-api/internal/domain"
)

// TaskContext carries everything a skill may read about the task being
// executed. It is assembled once per run by the orchestrator and is
// read-only from the skills' perspective; skills communicate results
// exclusively through Artifacts.
type TaskContext struct {
	TaskID   uuid.UUID
	TenantID uuid.UUID

	Topic    string
	Keywords []string

	// Brand is never nil: the orchestrator refuses to run the pipeline for
	// a tenant without a brand profile.
	Brand *domain.BrandProfile

	// CMSConnection is the tenant's active publishing target, or nil when
	// none is configured. Skills that publish guard on it.
	CMSConnection *domain.CMSConnection
}

// Artifacts is the mutable state shared by the skills of one pipeline run.
// Each skill reads what its predecessors produced and writes its own
// contribution; the orchestrator assembles the task output from the final
// state.
type Artifacts struct {
	Blog           *domain.BlogDraft
	SEO            *domain.SEOMetadata
	CoverImageURL  string
	PublishedCMSID string
	PublishedURL   string
}

// Skill is one unit of pipeline work.
type Skill interface {
	// Name is the stable identifier the pipeline resolves skills by.
	Name() string

	// Description is a short human-readable summary for logs and debugging.
	Description() string

	// CanExecute reports whether the skill's preconditions hold for this
	// run. A false return skips the skill without failing the pipeline.
	CanExecute(taskCtx *TaskContext, artifacts *Artifacts) bool

	// Execute performs the skill's work, mutating artifacts in place. A
	// returned error aborts the remainder of the pipeline.
	Execute(ctx context.Context, taskCtx *TaskContext, artifacts *Artifacts) error
}
