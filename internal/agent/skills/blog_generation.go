package skills

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/inkpress/inkpress-api/internal/agent"
	"github.com/inkpress/inkpress-api/internal/domain"
	"github.com/inkpress/inkpress-api/internal/generation"
	"github.com/inkpress/inkpress-api/internal/markdown"
)

// maxArticleTokens bounds the article generation call.
const maxArticleTokens = 8192

// BlogGeneration writes the article: one free-form call for the body, one
// structured call for title, slug, excerpt and tags. The body is cleaned up
// with the markdown post-processor before it reaches the draft.
type BlogGeneration struct {
	logger   *slog.Logger
	provider generation.AIProvider
}

// NewBlogGeneration creates the blog generation skill.
func NewBlogGeneration(logger *slog.Logger, provider generation.AIProvider) *BlogGeneration {
	if logger == nil {
		logger = slog.Default()
	}

	return &BlogGeneration{
		logger:   logger.With("skill", agent.SkillBlogGeneration),
		provider: provider,
	}
}

func (s *BlogGeneration) Name() string { return agent.SkillBlogGeneration }

func (s *BlogGeneration) Description() string {
	return "generates the blog article body and its publication metadata"
}

// CanExecute requires a topic; the orchestrator guarantees the brand
// profile.
func (s *BlogGeneration) CanExecute(taskCtx *agent.TaskContext, _ *agent.Artifacts) bool {
	return taskCtx.Topic != "" && taskCtx.Brand != nil
}

// blogMetadata is the structured output of the metadata call.
type blogMetadata struct {
	Title   string   `json:"title"`
	Slug    string   `json:"slug"`
	Excerpt string   `json:"excerpt"`
	Tags    []string `json:"tags"`
}

func (s *BlogGeneration) Execute(ctx context.Context, taskCtx *agent.TaskContext, artifacts *agent.Artifacts) error {
	system := writerSystemPrompt(taskCtx.Brand, taskCtx.Topic)

	content, err := s.provider.Generate(ctx, system, writerUserPrompt(taskCtx.Topic, taskCtx.Keywords), maxArticleTokens)
	if err != nil {
		return fmt.Errorf("generate article body: %w", err)
	}

	content = markdown.PostProcess(content)

	var meta blogMetadata
	if err := s.provider.GenerateJSON(ctx, metadataSystemPrompt, metadataUserPrompt(taskCtx.Topic, content), "blog_metadata", &meta); err != nil {
		return fmt.Errorf("generate article metadata: %w", err)
	}

	if meta.Title == "" {
		meta.Title = taskCtx.Topic
	}
	if meta.Slug == "" {
		meta.Slug = markdown.Slugify(meta.Title)
	}

	author := taskCtx.Brand.DefaultAuthor
	if author == "" {
		author = taskCtx.Brand.CompanyName
	}

	artifacts.Blog = &domain.BlogDraft{
		Title:           meta.Title,
		Slug:            meta.Slug,
		Excerpt:         meta.Excerpt,
		Content:         content,
		Author:          author,
		ReadTimeMinutes: markdown.ReadTimeMinutes(content),
		Tags:            meta.Tags,
	}

	s.logger.InfoContext(ctx, "blog draft generated",
		"task_id", taskCtx.TaskID,
		"title", meta.Title,
		"read_time_minutes", artifacts.Blog.ReadTimeMinutes)

	return nil
}
