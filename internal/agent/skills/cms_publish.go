package skills

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/inkpress/inkpress-api/internal/agent"
	"github.com/inkpress/inkpress-api/internal/cms"
)

// CMSPublish pushes the finished article to the tenant's CMS through the
// adapter matching the connection's provider.
type CMSPublish struct {
	logger  *slog.Logger
	factory *cms.Factory
}

// NewCMSPublish creates the CMS publishing skill.
func NewCMSPublish(logger *slog.Logger, factory *cms.Factory) *CMSPublish {
	if logger == nil {
		logger = slog.Default()
	}

	return &CMSPublish{
		logger:  logger.With("skill", agent.SkillCMSPublish),
		factory: factory,
	}
}

func (s *CMSPublish) Name() string { return agent.SkillCMSPublish }

func (s *CMSPublish) Description() string {
	return "publishes the finished article to the tenant's CMS"
}

// CanExecute requires an active CMS connection and a draft. Tenants without
// a connection finish their tasks unpublished rather than failing.
func (s *CMSPublish) CanExecute(taskCtx *agent.TaskContext, artifacts *agent.Artifacts) bool {
	return taskCtx.CMSConnection != nil && artifacts.Blog != nil
}

func (s *CMSPublish) Execute(ctx context.Context, taskCtx *agent.TaskContext, artifacts *agent.Artifacts) error {
	conn := taskCtx.CMSConnection

	adapter, err := s.factory.AdapterFor(conn.Provider)
	if err != nil {
		return err
	}

	result, err := adapter.PublishContent(ctx, conn, cms.PublishRequest{
		Blog:          artifacts.Blog,
		SEO:           artifacts.SEO,
		CoverImageURL: artifacts.CoverImageURL,
	})
	if err != nil {
		return fmt.Errorf("publish to %s: %w", conn.Provider, err)
	}

	artifacts.PublishedCMSID = result.PageID
	artifacts.PublishedURL = result.PageURL

	s.logger.InfoContext(ctx, "article published",
		"task_id", taskCtx.TaskID,
		"provider", conn.Provider,
		"page_id", result.PageID)

	return nil
}
