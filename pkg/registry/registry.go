// Package registry holds the catalog of runnable jobs. Jobs register a
// factory under a unique name at init time and the CLI looks them up by
// that name.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/jobforge/jobforge/pkg/engine"
)

// Factory builds a fresh job definition. A new tree is produced per run
// so that registered jobs carry no state between executions.
type Factory func() (*engine.Job, error)

// Registry maps job names to factories.
type Registry struct {
	// mu protects the factories map.
	mu sync.RWMutex

	factories map[string]Factory
}

// NewRegistry creates an empty job registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
	}
}

// Register adds a job factory under the given name.
func (r *Registry) Register(name string, factory Factory) error {
	if name == "" {
		return fmt.Errorf("job name must not be empty")
	}
	if factory == nil {
		return fmt.Errorf("job %q: factory must not be nil", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[name]; exists {
		return fmt.Errorf("job %q is already registered", name)
	}
	r.factories[name] = factory
	return nil
}

// Lookup builds the job registered under name.
func (r *Registry) Lookup(name string) (*engine.Job, error) {
	r.mu.RLock()
	factory, ok := r.factories[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown job %q", name)
	}
	job, err := factory()
	if err != nil {
		return nil, fmt.Errorf("building job %q: %w", name, err)
	}
	return job, nil
}

// Names returns the registered job names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Default is the process-wide registry used by the CLI.
var Default = NewRegistry()

// Register adds a job factory to the default registry, panicking on
// conflicts. Intended for use from package init functions.
func Register(name string, factory Factory) {
	if err := Default.Register(name, factory); err != nil {
		panic(err)
	}
}

// Lookup builds a job from the default registry.
func Lookup(name string) (*engine.Job, error) {
	return Default.Lookup(name)
}

// Names lists the jobs in the default registry.
func Names() []string {
	return Default.Names()
}
