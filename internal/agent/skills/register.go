package skills

import (
	"log/slog"

	"github.com/inkpress/inkpress-api/internal/agent"
	"github.com/inkpress/inkpress-api/internal/cms"
	"github.com/inkpress/inkpress-api/internal/generation"
	"github.com/inkpress/inkpress-api/internal/imaging"
)

// Deps bundles the external dependencies of the skill set.
type Deps struct {
	Logger         *slog.Logger
	Provider       generation.AIProvider
	ImageGenerator imaging.Generator
	ImageUploader  imaging.Uploader
	ImagesEnabled  bool
	CMS            *cms.Factory
}

// RegisterAll registers the default skill set into the registry.
func RegisterAll(registry *agent.Registry, deps Deps) {
	registry.Register(NewBlogGeneration(deps.Logger, deps.Provider))
	registry.Register(NewSEOMetadata(deps.Logger, deps.Provider))
	registry.Register(NewCoverImage(deps.Logger, deps.ImageGenerator, deps.ImageUploader, deps.ImagesEnabled))
	registry.Register(NewCMSPublish(deps.Logger, deps.CMS))
}
