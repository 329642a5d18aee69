package engine

import "fmt"

// Condition is a resolvable gating value for a scope's run_if/skip_if. It
// may be a plain bool, a ConditionValue, any resolvable that yields one of
// those (see Resolve), or nil for unset. A plain bool normalizes to a
// ConditionValue with an empty reason.
type Condition any

// ConditionValue is a condition verdict with a human-readable reason.
type ConditionValue struct {
	Value  bool
	Reason string
}

// NamedCondition is a built-in condition: a predicate over the context
// paired with a fixed reason string.
type NamedCondition struct {
	fn     func(c *Context) (bool, error)
	reason string
}

// NewCondition creates a named condition from a predicate and its reason.
func NewCondition(reason string, fn func(c *Context) (bool, error)) *NamedCondition {
	return &NamedCondition{fn: fn, reason: reason}
}

// ResolveValue implements Resolver.
func (nc *NamedCondition) ResolveValue(c *Context) (any, error) {
	v, err := nc.fn(c)
	if err != nil {
		return nil, err
	}
	return ConditionValue{Value: v, Reason: nc.reason}, nil
}

// String implements fmt.Stringer.
func (nc *NamedCondition) String() string { return nc.reason }

// Built-in conditions. They are stateless and safe to share across runs.
var (
	// Always resolves true.
	Always = NewCondition("Always", func(*Context) (bool, error) {
		return true, nil
	})

	// Never resolves false.
	Never = NewCondition("Never", func(*Context) (bool, error) {
		return false, nil
	})

	// JobFailing resolves true once any error has been recorded anywhere
	// in the run. It is the default skip condition for scopes with no
	// conditions of their own.
	JobFailing = NewCondition("Job has failures.", func(c *Context) (bool, error) {
		return c.HasErrors(), nil
	})

	// JobSucceeding resolves true while no error has been recorded.
	JobSucceeding = NewCondition("Job is succeeding.", func(c *Context) (bool, error) {
		return !c.HasErrors(), nil
	})
)

// ScopeFailing returns a condition that resolves true if errors have been
// recorded for the given scope.
func ScopeFailing(scope Scope) *NamedCondition {
	return NewCondition(fmt.Sprintf("%s has failures.", ScopeLabel(scope)), func(c *Context) (bool, error) {
		return len(c.Errors(scope)) > 0, nil
	})
}

// ScopeSucceeding returns a condition that resolves true if no errors have
// been recorded for the given scope.
func ScopeSucceeding(scope Scope) *NamedCondition {
	return NewCondition(fmt.Sprintf("%s is succeeding.", ScopeLabel(scope)), func(c *Context) (bool, error) {
		return len(c.Errors(scope)) == 0, nil
	})
}
