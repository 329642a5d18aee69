package values

import (
	"fmt"
	"os"
)

// Computed is a Provider that derives its value on every read.
type Computed[T any] struct {
	fn func() (T, error)
}

// NewComputed creates a Computed provider from fn.
func NewComputed[T any](fn func() (T, error)) *Computed[T] {
	return &Computed[T]{fn: fn}
}

// Get evaluates the computation.
func (c *Computed[T]) Get() (T, error) { return c.fn() }

// Value implements Provider.
func (c *Computed[T]) Value() (any, error) {
	v, err := c.fn()
	if err != nil {
		return nil, err
	}
	return v, nil
}

// HasValue implements Provider. A computed value is always considered
// present; errors surface on read.
func (c *Computed[T]) HasValue() bool { return true }

// Lazy is a Provider that evaluates its factory once, on first read, and
// returns the memoized result thereafter. Errors are not memoized.
type Lazy[T any] struct {
	fn   func() (T, error)
	val  T
	done bool
}

// NewLazy creates a Lazy provider from fn.
func NewLazy[T any](fn func() (T, error)) *Lazy[T] {
	return &Lazy[T]{fn: fn}
}

// Get evaluates the factory on first call and memoizes the result.
func (l *Lazy[T]) Get() (T, error) {
	if l.done {
		return l.val, nil
	}
	v, err := l.fn()
	if err != nil {
		var zero T
		return zero, err
	}
	l.val = v
	l.done = true
	return v, nil
}

// Value implements Provider.
func (l *Lazy[T]) Value() (any, error) {
	v, err := l.Get()
	if err != nil {
		return nil, err
	}
	return v, nil
}

// HasValue implements Provider.
func (l *Lazy[T]) HasValue() bool { return true }

// Env is a Provider backed by an environment variable, with a coercer to
// turn the raw string into T and an optional default for when the variable
// is unset.
type Env[T any] struct {
	name   string
	coerce func(string) (T, error)
	def    T
	hasDef bool
}

// NewEnv creates an Env provider for the named variable.
func NewEnv[T any](name string, coerce func(string) (T, error)) *Env[T] {
	return &Env[T]{name: name, coerce: coerce}
}

// WithDefault returns a copy of the provider that yields def when the
// variable is unset.
func (e *Env[T]) WithDefault(def T) *Env[T] {
	c := *e
	c.def = def
	c.hasDef = true
	return &c
}

// Name returns the environment variable name.
func (e *Env[T]) Name() string { return e.name }

// Get reads and coerces the variable, falling back to the default.
func (e *Env[T]) Get() (T, error) {
	raw, ok := os.LookupEnv(e.name)
	if !ok {
		if e.hasDef {
			return e.def, nil
		}
		var zero T
		return zero, NewNoValueError("environment variable %q is not set", e.name)
	}
	v, err := e.coerce(raw)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("environment variable %q: %w", e.name, err)
	}
	return v, nil
}

// Value implements Provider.
func (e *Env[T]) Value() (any, error) {
	v, err := e.Get()
	if err != nil {
		return nil, err
	}
	return v, nil
}

// HasValue implements Provider.
func (e *Env[T]) HasValue() bool {
	if e.hasDef {
		return true
	}
	_, ok := os.LookupEnv(e.name)
	return ok
}

// String is a coercer for string-typed Env providers.
func String(raw string) (string, error) { return raw, nil }
