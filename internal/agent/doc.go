// Package agent implements the content generation engine: a registry of
// skills, a fail-fast pipeline that runs them in order, and an orchestrator
// that owns the task lifecycle around a pipeline run (status transitions,
// structured task logs, retry scheduling).
package agent
