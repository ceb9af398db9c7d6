package skills

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/inkpress/inkpress-api/internal/agent"
	"github.com/inkpress/inkpress-api/internal/imaging"
)

// CoverImage generates a cover illustration for the article and uploads it
// to a public host. The image is a nice-to-have: generation or upload
// failures are logged and swallowed so the pipeline continues without a
// cover rather than failing the whole task.
type CoverImage struct {
	logger    *slog.Logger
	generator imaging.Generator
	uploader  imaging.Uploader
	enabled   bool
}

// NewCoverImage creates the cover image skill. When enabled is false or
// either dependency is nil the skill reports itself unable to execute.
func NewCoverImage(logger *slog.Logger, generator imaging.Generator, uploader imaging.Uploader, enabled bool) *CoverImage {
	if logger == nil {
		logger = slog.Default()
	}

	return &CoverImage{
		logger:    logger.With("skill", agent.SkillCoverImage),
		generator: generator,
		uploader:  uploader,
		enabled:   enabled,
	}
}

func (s *CoverImage) Name() string { return agent.SkillCoverImage }

func (s *CoverImage) Description() string {
	return "generates and hosts a cover image for the article"
}

func (s *CoverImage) CanExecute(_ *agent.TaskContext, artifacts *agent.Artifacts) bool {
	return s.enabled &&
		s.generator != nil &&
		s.uploader != nil &&
		artifacts.Blog != nil &&
		artifacts.CoverImageURL == ""
}

func (s *CoverImage) Execute(ctx context.Context, taskCtx *agent.TaskContext, artifacts *agent.Artifacts) error {
	log := s.logger.With("task_id", taskCtx.TaskID)

	data, mimeType, err := s.generator.GenerateImage(ctx, coverImagePrompt(taskCtx.Brand, artifacts.Blog))
	if err != nil {
		log.WarnContext(ctx, "cover image generation failed, continuing without cover", "error", err)
		return nil
	}

	filename := fmt.Sprintf("%s-cover%s", artifacts.Blog.Slug, extensionFor(mimeType))
	url, err := s.uploader.Upload(ctx, filename, data)
	if err != nil {
		log.WarnContext(ctx, "cover image upload failed, continuing without cover", "error", err)
		return nil
	}

	artifacts.CoverImageURL = url
	log.InfoContext(ctx, "cover image ready", "url", url)
	return nil
}

func extensionFor(mimeType string) string {
	switch mimeType {
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	default:
		return ".png"
	}
}
