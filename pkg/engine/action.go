package engine

import (
	"github.com/jobforge/jobforge/pkg/delegate"
)

// Action is the unit of work a step scope executes.
type Action interface {
	Execute(c *Context) error
}

// ActionFunc adapts a plain function to the Action interface.
type ActionFunc func(c *Context) error

// Execute implements Action.
func (f ActionFunc) Execute(c *Context) error { return f(c) }

// Teardowner is implemented by actions that carry their own cleanup. A
// step built around such an action registers the Teardown method on its
// teardown delegate automatically.
type Teardowner interface {
	Teardown(c *Context) error
}

// LazyAction defers building an action until the context is available, so
// the factory can resolve constructor arguments against live values. The
// built action is memoized on first execution; a factory error is not.
type LazyAction struct {
	build func(c *Context) (Action, error)
	built Action
}

// NewLazyAction creates a LazyAction around the given factory.
func NewLazyAction(build func(c *Context) (Action, error)) *LazyAction {
	return &LazyAction{build: build}
}

func (a *LazyAction) instance(c *Context) (Action, error) {
	if a.built != nil {
		return a.built, nil
	}
	built, err := a.build(c)
	if err != nil {
		return nil, err
	}
	a.built = built
	return built, nil
}

// Execute implements Action.
func (a *LazyAction) Execute(c *Context) error {
	act, err := a.instance(c)
	if err != nil {
		return err
	}
	return act.Execute(c)
}

// Teardown implements Teardowner. It forwards to the built action's
// teardown when the action has one; an action never built has nothing to
// tear down.
func (a *LazyAction) Teardown(c *Context) error {
	if a.built == nil {
		return nil
	}
	if td, ok := a.built.(Teardowner); ok {
		return td.Teardown(c)
	}
	return nil
}

// TeardownAt wraps fn so it only fires when the scope currently being torn
// down is of the given type. A teardown delegate is invoked once at its
// owner's own exit and again at each enclosing group's teardown walk, with
// the tearing-down scope current; the wrapper elects the firing level.
func TeardownAt(typ ScopeType, fn delegate.Callback[*Context]) delegate.Callback[*Context] {
	return func(c *Context) error {
		current, ok := c.CurrentScope()
		if !ok || current.Type() != typ {
			return nil
		}
		return fn(c)
	}
}

// LevelTeardown bundles per-level teardown callbacks. Its Callback
// dispatches on the tearing-down scope's type; unset levels are no-ops.
type LevelTeardown struct {
	Step  delegate.Callback[*Context]
	Stage delegate.Callback[*Context]
	Job   delegate.Callback[*Context]
}

// Callback returns the dispatching teardown callback.
func (lt LevelTeardown) Callback() delegate.Callback[*Context] {
	return func(c *Context) error {
		current, ok := c.CurrentScope()
		if !ok {
			return nil
		}
		var fn delegate.Callback[*Context]
		switch current.Type() {
		case TypeStep:
			fn = lt.Step
		case TypeStage:
			fn = lt.Stage
		case TypeJob:
			fn = lt.Job
		}
		if fn == nil {
			return nil
		}
		return fn(c)
	}
}
