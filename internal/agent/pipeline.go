package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/inkpress/inkpress-api/internal/platform/logger"
)

// DefaultPipeline is the skill sequence for blog content tasks.
var DefaultPipeline = []string{
	SkillBlogGeneration,
	SkillSEOMetadata,
	SkillCoverImage,
	SkillCMSPublish,
}

// Canonical skill names, shared between the skill implementations and the
// pipeline definitions that reference them.
const (
	SkillBlogGeneration = "blog-generation"
	SkillSEOMetadata    = "seo-metadata"
	SkillCoverImage     = "cover-image"
	SkillCMSPublish     = "cms-publish"
)

// Pipeline executes a named sequence of skills against a shared artifact
// set, fail-fast: the first resolution failure or skill error abandons the
// remainder of the sequence. Effects of skills that already ran are kept.
type Pipeline struct {
	registry *Registry
	metrics  Metrics
}

// NewPipeline creates a Pipeline over the given registry.
func NewPipeline(registry *Registry, metrics Metrics) *Pipeline {
	if metrics == nil {
		metrics = NopMetrics{}
	}

	return &Pipeline{
		registry: registry,
		metrics:  metrics,
	}
}

// Has reports whether the underlying registry can resolve the skill.
func (p *Pipeline) Has(name string) bool {
	return p.registry.Has(name)
}

// Run executes the named skills in order and returns the final artifacts.
//
// Skills are resolved lazily, one at a time: an unknown name aborts the run
// with ErrSkillNotFound only when reached, after every earlier skill has
// executed. A skill whose CanExecute returns false is skipped with a warning
// and the run continues. A skill error aborts the run with ErrSkillFailed
// wrapping the skill's name and message.
//
// The returned Artifacts is never nil; on error it holds whatever the
// completed skills produced.
func (p *Pipeline) Run(ctx context.Context, taskCtx *TaskContext, skillNames []string) (*Artifacts, error) {
	log := logger.FromContext(ctx).With("task_id", taskCtx.TaskID)
	artifacts := &Artifacts{}

	for _, name := range skillNames {
		if err := ctx.Err(); err != nil {
			return artifacts, fmt.Errorf("pipeline cancelled before skill %q: %w", name, err)
		}

		skill, ok := p.registry.Get(name)
		if !ok {
			return artifacts, fmt.Errorf("%w: %q", ErrSkillNotFound, name)
		}

		if !skill.CanExecute(taskCtx, artifacts) {
			log.WarnContext(ctx, "skipping skill: preconditions not met", "skill", name)
			continue
		}

		log.InfoContext(ctx, "executing skill", "skill", name)
		start := time.Now()
		err := skill.Execute(ctx, taskCtx, artifacts)
		p.metrics.SkillExecuted(name, err == nil, time.Since(start))

		if err != nil {
			return artifacts, fmt.Errorf("%w: %q: %v", ErrSkillFailed, name, err)
		}

		log.InfoContext(ctx, "skill completed", "skill", name, "duration", time.Since(start))
	}

	return artifacts, nil
}
