package engine

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/jobforge/jobforge/pkg/values"
)

// ContextValue is a resolvable that looks a key up with hierarchical scope
// qualification: with the live scope-name stack [job, stage, step] it
// probes "job.stage.step.key", "job.stage.key", "job.key", "key" and
// returns the first value present. When nothing is present and a default
// was supplied, the default is written back to the bare key so subsequent
// reads at any scope see it.
type ContextValue[T any] struct {
	key    string
	coerce func(any) (T, error)
	def    T
	hasDef bool
}

// NewContextValue creates a hierarchical context value for key.
func NewContextValue[T any](key string) *ContextValue[T] {
	return &ContextValue[T]{key: key}
}

// WithCoercer returns a copy that coerces raw stored values to T with fn
// instead of a plain type assertion.
func (v *ContextValue[T]) WithCoercer(fn func(any) (T, error)) *ContextValue[T] {
	c := *v
	c.coerce = fn
	return &c
}

// WithDefault returns a copy that yields def, memoized to the bare key,
// when no probed key holds a value.
func (v *ContextValue[T]) WithDefault(def T) *ContextValue[T] {
	c := *v
	c.def = def
	c.hasDef = true
	return &c
}

// Key returns the bare key name.
func (v *ContextValue[T]) Key() string { return v.key }

// probeKeys returns the lookup keys, most specific first, bare key last.
func (v *ContextValue[T]) probeKeys(c *Context) []string {
	if c == nil {
		return []string{v.key}
	}
	names := c.ScopeNames()
	keys := make([]string, 0, len(names)+1)
	for i := len(names); i > 0; i-- {
		keys = append(keys, strings.Join(names[:i], ".")+"."+v.key)
	}
	return append(keys, v.key)
}

// Get resolves the value against the context. A missing value with no
// default is a NoValueError reporting every probed key.
func (v *ContextValue[T]) Get(c *Context) (T, error) {
	var zero T
	keys := v.probeKeys(c)
	for _, key := range keys {
		if c == nil || !c.values.HasValue(key) {
			continue
		}
		raw, err := c.values.GetRaw(key)
		if err != nil {
			return zero, err
		}
		return v.coerceRaw(key, raw)
	}
	if v.hasDef {
		if c != nil {
			c.values.SetRaw(v.key, v.def)
		}
		return v.def, nil
	}
	return zero, values.NewNoValueError(
		"no value for any of the keys %s", strings.Join(keys, ", "))
}

func (v *ContextValue[T]) coerceRaw(key string, raw any) (T, error) {
	if v.coerce != nil {
		return v.coerce(raw)
	}
	var zero T
	typed, ok := raw.(T)
	if !ok {
		return zero, fmt.Errorf("value for key %q is %T, not %T", key, raw, zero)
	}
	return typed, nil
}

// ResolveValue implements Resolver.
func (v *ContextValue[T]) ResolveValue(c *Context) (any, error) {
	typed, err := v.Get(c)
	if err != nil {
		return nil, err
	}
	return typed, nil
}

// placeholderPattern matches {name} placeholders in lazy format strings.
var placeholderPattern = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_.-]*)\}`)

// Format builds a resolvable string template. Each {name} placeholder is
// substituted with the resolved value of args[name] at resolution time, so
// the template can reference keys, providers, and context values that only
// have values once the run is underway.
func Format(format string, args map[string]any) Resolver {
	return ResolverFunc(func(c *Context) (any, error) {
		var firstErr error
		out := placeholderPattern.ReplaceAllStringFunc(format, func(match string) string {
			if firstErr != nil {
				return match
			}
			name := match[1 : len(match)-1]
			arg, ok := args[name]
			if !ok {
				firstErr = fmt.Errorf("format references unknown argument %q", name)
				return match
			}
			resolved, err := Resolve(c, arg)
			if err != nil {
				firstErr = err
				return match
			}
			return fmt.Sprint(resolved)
		})
		if firstErr != nil {
			return nil, firstErr
		}
		return out, nil
	})
}
