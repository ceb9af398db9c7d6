package agent

import "errors"

// Sentinel errors for the pipeline and orchestrator.
var (
	// ErrSkillNotFound indicates a pipeline referenced a skill name that is
	// not registered. The skills executed before the unknown name keep their
	// effects; only the remainder of the pipeline is abandoned.
	ErrSkillNotFound = errors.New("skill not found")

	// ErrSkillFailed indicates a skill ran and reported failure. The wrapped
	// message names the skill and its underlying error.
	ErrSkillFailed = errors.New("skill failed")

	// ErrTaskInFlight indicates ExecuteTask was called for a task that is
	// already being executed by this process.
	ErrTaskInFlight = errors.New("task already in flight")

	// ErrMissingBrandProfile indicates the task's tenant has no brand
	// profile configured. This is a configuration precondition, not a
	// transient fault, so the task fails without consuming retries.
	ErrMissingBrandProfile = errors.New("tenant has no brand profile")
)
