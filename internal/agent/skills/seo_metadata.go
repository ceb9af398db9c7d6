package skills

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/inkpress/inkpress-api/internal/agent"
	"github.com/inkpress/inkpress-api/internal/domain"
	"github.com/inkpress/inkpress-api/internal/generation"
)

// SEOMetadata derives search and social metadata from the generated draft.
type SEOMetadata struct {
	logger   *slog.Logger
	provider generation.AIProvider
}

// NewSEOMetadata creates the SEO metadata skill.
func NewSEOMetadata(logger *slog.Logger, provider generation.AIProvider) *SEOMetadata {
	if logger == nil {
		logger = slog.Default()
	}

	return &SEOMetadata{
		logger:   logger.With("skill", agent.SkillSEOMetadata),
		provider: provider,
	}
}

func (s *SEOMetadata) Name() string { return agent.SkillSEOMetadata }

func (s *SEOMetadata) Description() string {
	return "derives SEO and social metadata from the blog draft"
}

// CanExecute requires a draft to work from and skips when an earlier skill
// already produced SEO metadata.
func (s *SEOMetadata) CanExecute(_ *agent.TaskContext, artifacts *agent.Artifacts) bool {
	return artifacts.Blog != nil && artifacts.SEO == nil
}

func (s *SEOMetadata) Execute(ctx context.Context, taskCtx *agent.TaskContext, artifacts *agent.Artifacts) error {
	var seo domain.SEOMetadata
	if err := s.provider.GenerateJSON(ctx, seoSystemPrompt, seoUserPrompt(artifacts.Blog, taskCtx.Keywords), "seo_metadata", &seo); err != nil {
		return fmt.Errorf("generate SEO metadata: %w", err)
	}

	// Backfill from the draft so downstream consumers never see empty
	// required fields.
	if seo.MetaTitle == "" {
		seo.MetaTitle = artifacts.Blog.Title
	}
	if seo.MetaDescription == "" {
		seo.MetaDescription = artifacts.Blog.Excerpt
	}
	if seo.OGTitle == "" {
		seo.OGTitle = seo.MetaTitle
	}
	if seo.OGDescription == "" {
		seo.OGDescription = seo.MetaDescription
	}

	artifacts.SEO = &seo

	s.logger.InfoContext(ctx, "SEO metadata generated",
		"task_id", taskCtx.TaskID,
		"focus_keyword", seo.FocusKeyword)

	return nil
}
