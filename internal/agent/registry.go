package agent

import (
	"log/slog"
	"sort"
	"sync"
)

// Registry holds the available skills by name. It is safe for concurrent
// use; registration normally happens once at startup but nothing prevents
// late additions.
type Registry struct {
	mu     sync.RWMutex
	skills map[string]Skill
	logger *slog.Logger
}

// NewRegistry creates an empty skill registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}

	return &Registry{
		skills: make(map[string]Skill),
		logger: logger.With("component", "skill_registry"),
	}
}

// Register adds a skill under its name. Registering a second skill with the
// same name replaces the first; the replacement is logged because it almost
// always indicates a wiring mistake.
func (r *Registry) Register(skill Skill) {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := skill.Name()
	if _, exists := r.skills[name]; exists {
		r.logger.Warn("replacing previously registered skill", "skill", name)
	}

	r.skills[name] = skill
}

// Get returns the skill registered under name.
func (r *Registry) Get(name string) (Skill, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	skill, ok := r.skills[name]
	return skill, ok
}

// Has reports whether a skill is registered under name.
func (r *Registry) Has(name string) bool {
	_, ok := r.Get(name)
	return ok
}

// Names returns the registered skill names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.skills))
	for name := range r.skills {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
