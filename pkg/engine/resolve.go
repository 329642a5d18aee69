package engine

import (
	"errors"
	"fmt"

	"github.com/jobforge/jobforge/pkg/values"
)

// Resolver is a context-aware value: something that needs the live run to
// compute itself. Conditions, context values, and lazy formats all
// implement it.
type Resolver interface {
	ResolveValue(c *Context) (any, error)
}

// ResolverFunc adapts a plain function to the Resolver interface.
type ResolverFunc func(c *Context) (any, error)

// ResolveValue implements Resolver.
func (f ResolverFunc) ResolveValue(c *Context) (any, error) { return f(c) }

// Resolve resolves value against the context. Dispatch, in order: a typed
// key is looked up in the context's value store; a Resolver computes
// against the context; a provider yields its current value; a context
// function is invoked; anything else is returned unchanged as a literal.
// A missing value is a fatal error; use ResolveOr for a default.
func Resolve(c *Context, value any) (any, error) {
	return resolve(c, value, nil, true)
}

// ResolveOr resolves value like Resolve but substitutes def when no value
// is present. Errors other than a missing value still propagate.
func ResolveOr(c *Context, value any, def any) (any, error) {
	return resolve(c, value, def, false)
}

// ResolveAs resolves value and coerces the result to T.
func ResolveAs[T any](c *Context, value any) (T, error) {
	var zero T
	raw, err := Resolve(c, value)
	if err != nil {
		return zero, err
	}
	v, ok := raw.(T)
	if !ok {
		return zero, fmt.Errorf("resolved value is %T, not %T", raw, zero)
	}
	return v, nil
}

// ResolveAll resolves each element. A missing element is a hard error, as
// when binding action arguments.
func ResolveAll(c *Context, vals ...any) ([]any, error) {
	out := make([]any, len(vals))
	for i, v := range vals {
		resolved, err := Resolve(c, v)
		if err != nil {
			return nil, err
		}
		out[i] = resolved
	}
	return out, nil
}

// ResolveMap resolves each value of the map. A missing value is a hard
// error.
func ResolveMap(c *Context, m map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(m))
	for k, v := range m {
		resolved, err := Resolve(c, v)
		if err != nil {
			return nil, err
		}
		out[k] = resolved
	}
	return out, nil
}

func resolve(c *Context, value any, def any, raiseIfMissing bool) (any, error) {
	switch v := value.(type) {
	case values.KeyRef:
		if c == nil {
			return missing(def, raiseIfMissing,
				values.NewNoValueError("no context to look up key %q", v.KeyName()))
		}
		raw, err := c.values.GetRaw(v.KeyName())
		if err != nil {
			return missingOrError(def, raiseIfMissing, err)
		}
		return raw, nil

	case Resolver:
		raw, err := v.ResolveValue(c)
		if err != nil {
			return missingOrError(def, raiseIfMissing, err)
		}
		return raw, nil

	case values.Provider:
		if !v.HasValue() {
			return missing(def, raiseIfMissing,
				values.NewNoValueError("provider %T holds no value", v))
		}
		raw, err := v.Value()
		if err != nil {
			return missingOrError(def, raiseIfMissing, err)
		}
		return raw, nil

	case func(*Context) (any, error):
		raw, err := v(c)
		if err != nil {
			return missingOrError(def, raiseIfMissing, err)
		}
		return raw, nil

	case func(*Context) error:
		if err := v(c); err != nil {
			return missingOrError(def, raiseIfMissing, err)
		}
		return nil, nil

	default:
		return value, nil
	}
}

// missingOrError substitutes the default only for missing-value errors;
// everything else propagates untouched.
func missingOrError(def any, raiseIfMissing bool, err error) (any, error) {
	var nv *values.NoValueError
	if errors.As(err, &nv) {
		return missing(def, raiseIfMissing, nv)
	}
	return nil, err
}

func missing(def any, raiseIfMissing bool, cause *values.NoValueError) (any, error) {
	if !raiseIfMissing {
		return def, nil
	}
	return nil, NewFatalError("no value", cause).WithCode(ErrCodeNoValue)
}

// Assign writes value to target: a consumer accepts it directly, a typed
// key writes through the context's value store. Anything else is a fatal
// error.
func Assign(c *Context, target any, value any) error {
	switch t := target.(type) {
	case values.Consumer:
		return t.SetValue(value)
	case values.KeyRef:
		if c == nil {
			return NewFatalError("unable to assign context value without a context", nil).
				WithCode(ErrCodeNotAssignable)
		}
		c.values.SetRaw(t.KeyName(), value)
		return nil
	default:
		return NewFatalError(fmt.Sprintf("unable to assign to %T", target), nil).
			WithCode(ErrCodeNotAssignable)
	}
}

// Unassign clears target: a consumer is unset, a typed key is removed from
// the context's value store. Anything else is a fatal error.
func Unassign(c *Context, target any) error {
	switch t := target.(type) {
	case values.Consumer:
		t.UnsetValue()
		return nil
	case values.KeyRef:
		if c == nil {
			return NewFatalError("unable to unassign context value without a context", nil).
				WithCode(ErrCodeNotAssignable)
		}
		c.values.Unset(t.KeyName())
		return nil
	default:
		return NewFatalError(fmt.Sprintf("unable to unassign %T", target), nil).
			WithCode(ErrCodeNotAssignable)
	}
}
