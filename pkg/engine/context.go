package engine

import (
	"context"
	"strings"

	"github.com/jobforge/jobforge/pkg/delegate"
	"github.com/jobforge/jobforge/pkg/values"
)

// pathSeparator joins scope IDs into error-map keys. IDs are UUIDs, which
// never contain the separator.
const pathSeparator = "/"

// Context is the sole mutable shared state of one pipeline run: the scope
// stack, per-scope statuses and errors, the value store, and the ad-hoc
// teardown registry. It is created before a run, mutated only by the
// runner's single execution goroutine, and discarded afterwards.
type Context struct {
	std       context.Context
	values    *values.Values
	collector *StatusCollector

	stack    []Scope
	known    map[string]Scope
	statuses map[string]ScopeStatus

	// errs is keyed by the scope path current when the error was recorded;
	// errPaths preserves recording order for deterministic aggregation.
	errs     map[string][]error
	errPaths []string

	teardowns map[string]*delegate.Delegate[*Context]
}

// ContextOption configures a Context at construction.
type ContextOption func(*Context)

// WithValues seeds the context's value store.
func WithValues(seed map[string]any) ContextOption {
	return func(c *Context) { c.values = values.New(seed) }
}

// WithListener registers a status listener.
func WithListener(l StatusListener) ContextOption {
	return func(c *Context) { c.collector.AddListener(l) }
}

// NewContext creates the context for one run. std carries cancellation and
// deadlines down to actions that block; it is never consulted by the
// engine itself.
func NewContext(std context.Context, opts ...ContextOption) *Context {
	if std == nil {
		std = context.Background()
	}
	c := &Context{
		std:       std,
		values:    values.New(nil),
		known:     make(map[string]Scope),
		statuses:  make(map[string]ScopeStatus),
		errs:      make(map[string][]error),
		teardowns: make(map[string]*delegate.Delegate[*Context]),
	}
	c.collector = newStatusCollector(c)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// StdContext returns the standard library context actions should use for
// blocking work.
func (c *Context) StdContext() context.Context { return c.std }

// Values returns the run's value store.
func (c *Context) Values() *values.Values { return c.values }

// Status returns the run's status collector.
func (c *Context) Status() *StatusCollector { return c.collector }

// CurrentScope returns the innermost entered scope.
func (c *Context) CurrentScope() (Scope, bool) {
	if len(c.stack) == 0 {
		return nil, false
	}
	return c.stack[len(c.stack)-1], true
}

// ScopeStack returns the stack from outermost to innermost.
func (c *Context) ScopeStack() []Scope {
	out := make([]Scope, len(c.stack))
	copy(out, c.stack)
	return out
}

// ScopeNames returns the names of the stacked scopes, outermost first.
func (c *Context) ScopeNames() []string {
	names := make([]string, len(c.stack))
	for i, s := range c.stack {
		names[i] = s.Name()
	}
	return names
}

// ParentScope resolves the stacked scope the given number of generations
// above the current one: 0 is the current scope, 1 its parent, and so on.
func (c *Context) ParentScope(generation int) (Scope, bool) {
	idx := len(c.stack) - 1 - generation
	if idx < 0 || idx >= len(c.stack) {
		return nil, false
	}
	return c.stack[idx], true
}

// KnownScope resolves a scope by ID. Scopes stay known after they exit so
// teardown and error queries can still resolve them.
func (c *Context) KnownScope(id string) (Scope, bool) {
	s, ok := c.known[id]
	return s, ok
}

// ScopeStatus returns the status of a scope, StatusUnknown if it has
// never been entered or skipped.
func (c *Context) ScopeStatus(scope Scope) ScopeStatus {
	if st, ok := c.statuses[scope.ID()]; ok {
		return st
	}
	return StatusUnknown
}

// RecordError records err against the current scope path, marks the
// current scope failing, and fans the error out to status listeners.
func (c *Context) RecordError(err error) {
	key := c.currentPathKey()
	if _, ok := c.errs[key]; !ok {
		c.errPaths = append(c.errPaths, key)
	}
	c.errs[key] = append(c.errs[key], err)
	if current, ok := c.CurrentScope(); ok {
		c.statuses[current.ID()] = StatusFailing
	}
	c.collector.error(err)
}

// Errors returns the errors recorded while the given scope was anywhere on
// the stack, in recording order.
func (c *Context) Errors(scope Scope) []error {
	var out []error
	for _, key := range c.errPaths {
		if pathContains(key, scope.ID()) {
			out = append(out, c.errs[key]...)
		}
	}
	return out
}

// AllErrors returns every recorded error, in recording order.
func (c *Context) AllErrors() []error {
	var out []error
	for _, key := range c.errPaths {
		out = append(out, c.errs[key]...)
	}
	return out
}

// HasErrors reports whether any error has been recorded.
func (c *Context) HasErrors() bool { return len(c.errPaths) > 0 }

// AddTeardown registers an ad-hoc teardown callback for the given scope,
// which need not be on the stack or even entered yet. The callback joins
// the scope's own delegate whenever that scope is torn down.
func (c *Context) AddTeardown(scope Scope, fn delegate.Callback[*Context]) delegate.Registration {
	return c.teardownFor(scope.ID()).Add(fn)
}

// RemoveTeardown unregisters an ad-hoc teardown callback.
func (c *Context) RemoveTeardown(scope Scope, reg delegate.Registration) {
	c.teardownFor(scope.ID()).Remove(reg)
}

// teardownFor returns the ad-hoc teardown delegate for a scope ID,
// creating it on first use.
func (c *Context) teardownFor(id string) *delegate.Delegate[*Context] {
	d, ok := c.teardowns[id]
	if !ok {
		d = delegate.New[*Context](delegate.ContinueOnError(), delegate.Reverse())
		c.teardowns[id] = d
	}
	return d
}

func (c *Context) currentPathKey() string {
	ids := make([]string, len(c.stack))
	for i, s := range c.stack {
		ids[i] = s.ID()
	}
	return strings.Join(ids, pathSeparator)
}

func pathContains(key, id string) bool {
	for _, part := range strings.Split(key, pathSeparator) {
		if part == id {
			return true
		}
	}
	return false
}

// enterScope pushes scope onto the stack and transitions it to running.
// Entering a scope whose status is no longer unknown is a fatal error.
func (c *Context) enterScope(scope Scope) error {
	if st := c.ScopeStatus(scope); st != StatusUnknown {
		return NewFatalError("scope status already set", nil).
			WithCode(ErrCodeScopeReentered).
			WithScope(ScopeLabel(scope))
	}
	c.stack = append(c.stack, scope)
	c.known[scope.ID()] = scope
	c.statuses[scope.ID()] = StatusRunning
	return nil
}

// exitScope pops scope off the stack and settles its status: failed if any
// error was recorded for a path containing it, passed otherwise.
func (c *Context) exitScope(scope Scope) error {
	if len(c.stack) == 0 {
		return NewFatalError("scope stack is empty on exit", nil).
			WithCode(ErrCodeStackImbalance).
			WithScope(ScopeLabel(scope))
	}
	top := c.stack[len(c.stack)-1]
	if !SameScope(top, scope) {
		return NewFatalError("scope does not match scope on stack", nil).
			WithCode(ErrCodeStackImbalance).
			WithScope(ScopeLabel(scope))
	}
	c.stack = c.stack[:len(c.stack)-1]
	if len(c.Errors(scope)) > 0 {
		c.statuses[scope.ID()] = StatusFailed
	} else {
		c.statuses[scope.ID()] = StatusPassed
	}
	return nil
}

// markSkipped records that scope was skipped without ever entering.
func (c *Context) markSkipped(scope Scope) {
	c.known[scope.ID()] = scope
	c.statuses[scope.ID()] = StatusSkipped
}
