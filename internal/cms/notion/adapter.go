package notion

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/inkpress/inkpress-api/internal/cms"
	"github.com/inkpress/inkpress-api/internal/domain"
)

// blockBatchSize is the Notion API limit on children per request.
const blockBatchSize = 100

// Trigger database property values.
const (
	triggerStatusReady      = "Ready"
	triggerStatusProcessing = "Processing"
	triggerStatusPublished  = "Published"
	triggerStatusFailed     = "Failed"
)

// Adapter implements cms.Adapter for Notion. It is stateless; every call
// carries the tenant connection it operates on.
type Adapter struct {
	logger *slog.Logger
	client *Client
}

// NewAdapter creates a Notion CMS adapter over the given client.
func NewAdapter(logger *slog.Logger, client *Client) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}

	return &Adapter{
		logger: logger.With("component", "notion_adapter"),
		client: client,
	}
}

// PublishContent creates the article page in the connection's content
// database. The body is split into batches because page creation accepts at
// most 100 children; overflow is appended afterwards.
func (a *Adapter) PublishContent(ctx context.Context, conn *domain.CMSConnection, req cms.PublishRequest) (*cms.PublishResult, error) {
	properties := BlogProperties(req.Blog, req.SEO, req.CoverImageURL)
	blocks := MarkdownToBlocks(req.Blog.Content)

	first := blocks
	var remaining []Block
	if len(blocks) > blockBatchSize {
		first = blocks[:blockBatchSize]
		remaining = blocks[blockBatchSize:]
	}

	page, err := a.client.CreatePage(ctx, conn.AccessToken, conn.ContentDatabaseID, properties, first)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", cms.ErrPublishFailed, err)
	}

	for start := 0; start < len(remaining); start += blockBatchSize {
		end := start + blockBatchSize
		if end > len(remaining) {
			end = len(remaining)
		}
		if err := a.client.AppendBlockChildren(ctx, conn.AccessToken, page.ID, remaining[start:end]); err != nil {
			return nil, fmt.Errorf("%w: append blocks: %v", cms.ErrPublishFailed, err)
		}
	}

	a.logger.InfoContext(ctx, "content published to Notion", "page_id", page.ID, "url", page.URL)
	return &cms.PublishResult{PageID: page.ID, PageURL: page.URL}, nil
}

// titleProperty and richTextProperty mirror the wire shapes of the trigger
// database's columns for reading.
type titleProperty struct {
	Title []struct {
		PlainText string `json:"plain_text"`
	} `json:"title"`
}

type richTextProperty struct {
	RichText []struct {
		PlainText string `json:"plain_text"`
	} `json:"rich_text"`
}

// FetchPendingTriggers returns trigger pages whose Status is Ready. A
// connection without a trigger database yields nothing.
func (a *Adapter) FetchPendingTriggers(ctx context.Context, conn *domain.CMSConnection) ([]cms.Trigger, error) {
	if conn.TriggerDatabaseID == "" {
		return nil, nil
	}

	filter := map[string]any{
		"property": "Status",
		"select":   map[string]any{"equals": triggerStatusReady},
	}

	results, err := a.client.QueryDatabase(ctx, conn.AccessToken, conn.TriggerDatabaseID, filter)
	if err != nil {
		return nil, fmt.Errorf("query trigger database: %w", err)
	}

	triggers := make([]cms.Trigger, 0, len(results))
	for _, page := range results {
		topic := firstTitleText(page.Properties["Topic"])
		if topic == "" {
			a.logger.WarnContext(ctx, "skipping trigger without topic", "trigger_id", page.ID)
			continue
		}

		triggers = append(triggers, cms.Trigger{
			ID:          page.ID,
			Topic:       topic,
			Keywords:    splitKeywords(firstRichText(page.Properties["Keywords"])),
			RequestedAt: page.CreatedTime,
		})
	}

	return triggers, nil
}

// MarkTriggerProcessing flags the trigger page as picked up.
func (a *Adapter) MarkTriggerProcessing(ctx context.Context, conn *domain.CMSConnection, triggerID string) error {
	return a.updateTriggerStatus(ctx, conn, triggerID, map[string]any{
		"Status": map[string]any{"select": map[string]any{"name": triggerStatusProcessing}},
	})
}

// MarkTriggerPublished flags the trigger page as done and links the
// published page.
func (a *Adapter) MarkTriggerPublished(ctx context.Context, conn *domain.CMSConnection, triggerID, pageURL string) error {
	return a.updateTriggerStatus(ctx, conn, triggerID, map[string]any{
		"Status":         map[string]any{"select": map[string]any{"name": triggerStatusPublished}},
		"Published Page": richTextProp(pageURL),
	})
}

// MarkTriggerFailed flags the trigger page as failed with a truncated
// reason.
func (a *Adapter) MarkTriggerFailed(ctx context.Context, conn *domain.CMSConnection, triggerID, reason string) error {
	if len(reason) > 200 {
		reason = reason[:200]
	}
	return a.updateTriggerStatus(ctx, conn, triggerID, map[string]any{
		"Status": map[string]any{"select": map[string]any{"name": triggerStatusFailed}},
		"Error":  richTextProp(reason),
	})
}

func (a *Adapter) updateTriggerStatus(ctx context.Context, conn *domain.CMSConnection, triggerID string, properties map[string]any) error {
	if err := a.client.UpdatePageProperties(ctx, conn.AccessToken, triggerID, properties); err != nil {
		return fmt.Errorf("%w: %v", cms.ErrTriggerUpdateFailed, err)
	}
	return nil
}

func firstTitleText(raw json.RawMessage) string {
	if raw == nil {
		return ""
	}

	var prop titleProperty
	if err := json.Unmarshal(raw, &prop); err != nil || len(prop.Title) == 0 {
		return ""
	}
	return strings.TrimSpace(prop.Title[0].PlainText)
}

func firstRichText(raw json.RawMessage) string {
	if raw == nil {
		return ""
	}

	var prop richTextProperty
	if err := json.Unmarshal(raw, &prop); err != nil || len(prop.RichText) == 0 {
		return ""
	}
	return prop.RichText[0].PlainText
}

func splitKeywords(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	keywords := make([]string, 0, len(parts))
	for _, part := range parts {
		if kw := strings.TrimSpace(part); kw != "" {
			keywords = append(keywords, kw)
		}
	}
	return keywords
}
