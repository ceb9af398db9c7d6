package agent

import (
	"time"

	"github.com/inkpress/inkpress-api/internal/domain"
)

// Metrics receives counters from the pipeline and orchestrator. The
// production implementation lives in internal/telemetry; tests and callers
// that do not care pass NopMetrics.
type Metrics interface {
	// TaskFinished records a task reaching a terminal outcome.
	TaskFinished(status domain.TaskStatus)

	// TaskRetryScheduled records an automatic retry being scheduled.
	TaskRetryScheduled()

	// SkillExecuted records one skill execution with its outcome.
	SkillExecuted(skill string, success bool, duration time.Duration)
}

// NopMetrics is a Metrics implementation that discards everything.
type NopMetrics struct{}

func (NopMetrics) TaskFinished(domain.TaskStatus)            {}
func (NopMetrics) TaskRetryScheduled()                       {}
func (NopMetrics) SkillExecuted(string, bool, time.Duration) {}
