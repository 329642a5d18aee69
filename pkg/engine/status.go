package engine

import (
	"fmt"

	"github.com/jobforge/jobforge/pkg/delegate"
)

// ScopeStatus represents the execution status of a single scope.
type ScopeStatus string

const (
	// StatusUnknown indicates the scope has not been entered or skipped.
	StatusUnknown ScopeStatus = "unknown"

	// StatusRunning indicates the scope is currently executing.
	StatusRunning ScopeStatus = "running"

	// StatusFailing indicates the scope is executing and has recorded an error.
	StatusFailing ScopeStatus = "failing"

	// StatusFailed indicates the scope finished with recorded errors.
	StatusFailed ScopeStatus = "failed"

	// StatusPassed indicates the scope finished without errors.
	StatusPassed ScopeStatus = "passed"

	// StatusSkipped indicates the scope was skipped and never entered.
	StatusSkipped ScopeStatus = "skipped"
)

// IsTerminal returns true if the status represents a final state.
func (s ScopeStatus) IsTerminal() bool {
	return s == StatusFailed || s == StatusPassed || s == StatusSkipped
}

// IsActive returns true if the scope is currently on the stack.
func (s ScopeStatus) IsActive() bool {
	return s == StatusRunning || s == StatusFailing
}

// Validate checks if the scope status is valid.
func (s ScopeStatus) Validate() error {
	switch s {
	case StatusUnknown, StatusRunning, StatusFailing,
		StatusFailed, StatusPassed, StatusSkipped:
		return nil
	default:
		return fmt.Errorf("invalid scope status: %s", s)
	}
}

// ItemOutcome describes how a reported work item ended.
type ItemOutcome string

const (
	// ItemDone indicates the item completed.
	ItemDone ItemOutcome = "done"

	// ItemFailed indicates the item failed.
	ItemFailed ItemOutcome = "failed"

	// ItemSkipped indicates the item was not attempted.
	ItemSkipped ItemOutcome = "skipped"
)

// StatusListener observes the progress of a run. Every method receives the
// live context; a listener error never affects the run.
type StatusListener interface {
	StartScope(c *Context, scope Scope) error
	FinishScope(c *Context, scope Scope) error
	SkipScope(c *Context, scope Scope, reason string) error
	StartSection(c *Context, name string) error
	FinishSection(c *Context, name string) error
	StartItem(c *Context, description string) error
	FinishItem(c *Context, outcome ItemOutcome, err error) error
	Info(c *Context, message string) error
	Detail(c *Context, message string) error
	Error(c *Context, err error) error
	Warning(c *Context, err error) error
	Output(c *Context, output string, label string) error
}

// BaseStatusListener is a no-op StatusListener for embedding, so concrete
// listeners only implement the events they care about.
type BaseStatusListener struct{}

var _ StatusListener = (*BaseStatusListener)(nil)

func (BaseStatusListener) StartScope(*Context, Scope) error          { return nil }
func (BaseStatusListener) FinishScope(*Context, Scope) error         { return nil }
func (BaseStatusListener) SkipScope(*Context, Scope, string) error   { return nil }
func (BaseStatusListener) StartSection(*Context, string) error       { return nil }
func (BaseStatusListener) FinishSection(*Context, string) error      { return nil }
func (BaseStatusListener) StartItem(*Context, string) error          { return nil }
func (BaseStatusListener) FinishItem(*Context, ItemOutcome, error) error {
	return nil
}
func (BaseStatusListener) Info(*Context, string) error           { return nil }
func (BaseStatusListener) Detail(*Context, string) error         { return nil }
func (BaseStatusListener) Error(*Context, error) error           { return nil }
func (BaseStatusListener) Warning(*Context, error) error         { return nil }
func (BaseStatusListener) Output(*Context, string, string) error { return nil }

// statusEvent applies one listener method call to a listener.
type statusEvent func(l StatusListener) error

// StatusCollector fans status events out to zero or more listeners in
// registration order. Listener failures are contained: every listener
// observes every event regardless of what other listeners do.
type StatusCollector struct {
	ctx       *Context
	listeners *delegate.Delegate[statusEvent]
}

func newStatusCollector(ctx *Context) *StatusCollector {
	return &StatusCollector{
		ctx:       ctx,
		listeners: delegate.New[statusEvent](delegate.ContinueOnError()),
	}
}

// AddListener registers a listener for all subsequent events.
func (sc *StatusCollector) AddListener(l StatusListener) delegate.Registration {
	return sc.listeners.Add(func(ev statusEvent) error { return ev(l) })
}

// RemoveListener unregisters a previously added listener.
func (sc *StatusCollector) RemoveListener(reg delegate.Registration) {
	sc.listeners.Remove(reg)
}

func (sc *StatusCollector) emit(ev statusEvent) {
	// Listener errors are dropped; observation must not steer the run.
	_, _ = sc.listeners.Invoke(ev)
}

// StartScope reports a scope being entered.
func (sc *StatusCollector) StartScope(scope Scope) {
	sc.emit(func(l StatusListener) error { return l.StartScope(sc.ctx, scope) })
}

// FinishScope reports a scope having exited.
func (sc *StatusCollector) FinishScope(scope Scope) {
	sc.emit(func(l StatusListener) error { return l.FinishScope(sc.ctx, scope) })
}

// SkipScope reports a scope being skipped without ever entering.
func (sc *StatusCollector) SkipScope(scope Scope, reason string) {
	sc.emit(func(l StatusListener) error { return l.SkipScope(sc.ctx, scope, reason) })
}

// StartSection reports the start of a named output section.
func (sc *StatusCollector) StartSection(name string) {
	sc.emit(func(l StatusListener) error { return l.StartSection(sc.ctx, name) })
}

// FinishSection reports the end of a named output section.
func (sc *StatusCollector) FinishSection(name string) {
	sc.emit(func(l StatusListener) error { return l.FinishSection(sc.ctx, name) })
}

// StartItem reports the start of a reported work item.
func (sc *StatusCollector) StartItem(description string) {
	sc.emit(func(l StatusListener) error { return l.StartItem(sc.ctx, description) })
}

// FinishItem reports the end of the current work item. A non-nil err is
// also recorded as a run error.
func (sc *StatusCollector) FinishItem(outcome ItemOutcome, err error) {
	if err != nil {
		sc.ctx.RecordError(err)
	}
	sc.emit(func(l StatusListener) error { return l.FinishItem(sc.ctx, outcome, err) })
}

// Info reports an informational message.
func (sc *StatusCollector) Info(message string) {
	sc.emit(func(l StatusListener) error { return l.Info(sc.ctx, message) })
}

// Detail reports a low-importance message.
func (sc *StatusCollector) Detail(message string) {
	sc.emit(func(l StatusListener) error { return l.Detail(sc.ctx, message) })
}

// Warning reports a contained, non-fatal problem.
func (sc *StatusCollector) Warning(err error) {
	sc.emit(func(l StatusListener) error { return l.Warning(sc.ctx, err) })
}

// Output reports captured output, optionally labeled.
func (sc *StatusCollector) Output(output string, label string) {
	sc.emit(func(l StatusListener) error { return l.Output(sc.ctx, output, label) })
}

// error reports a recorded error. Called by Context.RecordError so that
// bookkeeping and fan-out stay in step.
func (sc *StatusCollector) error(err error) {
	sc.emit(func(l StatusListener) error { return l.Error(sc.ctx, err) })
}

// Section runs fn bracketed by StartSection/FinishSection events.
func (sc *StatusCollector) Section(name string, fn func() error) error {
	sc.StartSection(name)
	defer sc.FinishSection(name)
	return fn()
}

// Item runs fn bracketed by StartItem/FinishItem events; fn's error
// becomes the item outcome.
func (sc *StatusCollector) Item(description string, fn func() error) error {
	sc.StartItem(description)
	err := fn()
	if err != nil {
		sc.FinishItem(ItemFailed, err)
	} else {
		sc.FinishItem(ItemDone, nil)
	}
	return err
}
