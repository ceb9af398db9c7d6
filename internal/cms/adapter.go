package cms

import (
	"context"
	"time"

	"github.com/inkpress/inkpress-api/internal/domain"
)

// PublishRequest carries everything an adapter needs to publish one article.
type PublishRequest struct {
	Blog          *domain.BlogDraft
	SEO           *domain.SEOMetadata
	CoverImageURL string
}

// PublishResult identifies the published page in the provider's namespace.
type PublishResult struct {
	PageID  string
	PageURL string
}

// Trigger is one content request found in a tenant's trigger database.
type Trigger struct {
	ID          string
	Topic       string
	Keywords    []string
	RequestedAt time.Time
}

// Adapter is one CMS provider integration. Every method receives the
// connection so adapters stay stateless and one instance serves all tenants.
type Adapter interface {
	// PublishContent creates the article in the connection's content
	// database and returns the resulting page identity.
	PublishContent(ctx context.Context, conn *domain.CMSConnection, req PublishRequest) (*PublishResult, error)

	// FetchPendingTriggers returns trigger entries awaiting processing.
	// Returns nil when the connection has no trigger database configured.
	FetchPendingTriggers(ctx context.Context, conn *domain.CMSConnection) ([]Trigger, error)

	// MarkTriggerProcessing flags a trigger as picked up so other pollers
	// and humans see it is being worked on.
	MarkTriggerProcessing(ctx context.Context, conn *domain.CMSConnection, triggerID string) error

	// MarkTriggerPublished flags a trigger as done, linking the published
	// page.
	MarkTriggerPublished(ctx context.Context, conn *domain.CMSConnection, triggerID, pageURL string) error

	// MarkTriggerFailed flags a trigger as failed with a short reason.
	MarkTriggerFailed(ctx context.Context, conn *domain.CMSConnection, triggerID, reason string) error
}
