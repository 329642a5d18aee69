package engine

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/jobforge/jobforge/pkg/delegate"
)

// Runner executes a scope tree depth-first, one scope at a time, in
// declaration order. Action failures are contained and surfaced in the
// final aggregate; only structural programmer errors abort a run early.
type Runner struct {
	log zerolog.Logger
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithLogger sets the runner's logger.
func WithLogger(log zerolog.Logger) RunnerOption {
	return func(r *Runner) { r.log = log }
}

// NewRunner creates a runner. Without options it logs nowhere.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{log: zerolog.Nop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes the scope tree rooted at root. It returns a fatal error
// immediately; contained action failures are collected and returned as a
// single RunError only after the whole tree, teardown included, has
// finished.
func (r *Runner) Run(c *Context, root Scope) error {
	if err := r.runScope(c, root); err != nil {
		return err
	}
	if errs := c.AllErrors(); len(errs) > 0 {
		return &RunError{Errors: errs}
	}
	return nil
}

// runScope runs one scope: skip decision, enter, group recursion or
// action, teardown, exit. Only fatal errors are returned.
func (r *Runner) runScope(c *Context, scope Scope) error {
	group, isGroup := scope.(GroupScope)
	actor, isAction := scope.(ActionScope)
	_, hasTeardown := scope.(TeardownScope)
	if !isGroup && !isAction && !hasTeardown {
		return NewFatalError(fmt.Sprintf("unknown scope type: %s", scope.Type()), nil).
			WithCode(ErrCodeUnknownScope).
			WithScope(ScopeLabel(scope))
	}

	skip, reason, err := r.shouldSkip(c, scope)
	if err != nil {
		return err
	}
	if skip {
		r.log.Info().
			Str("scope", ScopeLabel(scope)).
			Str("scope_type", string(scope.Type())).
			Str("reason", reason).
			Msg("Skipping scope")
		c.markSkipped(scope)
		c.Status().SkipScope(scope, reason)
		return nil
	}

	if err := c.enterScope(scope); err != nil {
		return err
	}
	r.log.Debug().
		Str("scope", ScopeLabel(scope)).
		Str("scope_type", string(scope.Type())).
		Msg("Entering scope")
	c.Status().StartScope(scope)

	var fatal error
	if isGroup {
		for _, child := range group.Children() {
			if err := r.runScope(c, child); err != nil {
				fatal = err
				break
			}
		}
	} else if isAction {
		r.runAction(c, actor)
	}

	// Teardown always runs, even when a child failed fatally.
	r.runTeardown(c, scope)

	if err := c.exitScope(scope); err != nil && fatal == nil {
		fatal = err
	}
	c.Status().FinishScope(scope)
	r.log.Debug().
		Str("scope", ScopeLabel(scope)).
		Str("status", string(c.ScopeStatus(scope))).
		Msg("Finished scope")
	return fatal
}

// runAction executes a scope's action. A failure is recorded against the
// current scope path and contained; siblings and teardown still run.
func (r *Runner) runAction(c *Context, scope ActionScope) {
	action := scope.Action()
	if action == nil {
		return
	}
	if err := action.Execute(c); err != nil {
		r.log.Error().
			Err(err).
			Str("scope", ScopeLabel(scope)).
			Msg("Action failed")
		c.RecordError(NewActionError("action failed", err).WithScope(ScopeLabel(scope)))
	}
}

// runTeardown tears down the exiting scope's subtree: every descendant is
// visited in reversed depth-first declaration order, the scope itself
// last, and each visited scope's combined teardown (ad-hoc registrations
// plus its own delegate) is invoked with the exiting scope still current.
// A visited scope that never ran, status unknown or skipped, is passed
// over. Teardown failures become warnings and never abort the walk.
func (r *Runner) runTeardown(c *Context, scope Scope) {
	for _, target := range teardownWalk(scope) {
		if !SameScope(target, scope) {
			if st := c.ScopeStatus(target); st == StatusUnknown || st == StatusSkipped {
				continue
			}
		}

		var own *delegate.Delegate[*Context]
		if td, ok := target.(TeardownScope); ok {
			own = td.Teardown()
		}
		combined := delegate.Combine(
			[]delegate.Option{delegate.ContinueOnError(), delegate.Reverse()},
			c.teardownFor(target.ID()), own)

		if combined.Len() == 0 {
			if SameScope(target, scope) {
				c.Status().Detail(fmt.Sprintf("Skipping teardown of %s", ScopeLabel(scope)))
			}
			continue
		}

		label := fmt.Sprintf("Teardown %s", ScopeLabel(scope))
		if !SameScope(target, scope) {
			label = fmt.Sprintf("%s: %s", label, ScopeLabel(target))
		}
		_ = c.Status().Section(label, func() error {
			results, err := combined.Invoke(c)
			if err == nil {
				return nil
			}
			for _, result := range results {
				if result == nil {
					continue
				}
				warning := NewTeardownError("teardown failed", result).WithScope(ScopeLabel(target))
				r.log.Warn().
					Err(result).
					Str("scope", ScopeLabel(target)).
					Msg("Teardown failed")
				c.Status().Warning(warning)
			}
			return nil
		})
	}
}

// teardownWalk returns the scope's subtree in reversed depth-first
// declaration order, so the deepest, most recently declared scopes come
// first and the scope itself last.
func teardownWalk(scope Scope) []Scope {
	var preorder func(s Scope) []Scope
	preorder = func(s Scope) []Scope {
		out := []Scope{s}
		if group, ok := s.(GroupScope); ok {
			for _, child := range group.Children() {
				out = append(out, preorder(child)...)
			}
		}
		return out
	}
	ordered := preorder(scope)
	reversed := make([]Scope, len(ordered))
	for i, s := range ordered {
		reversed[len(ordered)-1-i] = s
	}
	return reversed
}

// shouldSkip decides whether scope runs. With no conditions the default
// job-failing condition applies. run_if is eligibility: when it resolves
// false the scope skips with run_if's reason and skip_if is never
// consulted. An eligible scope may still be vetoed by skip_if.
func (r *Runner) shouldSkip(c *Context, scope Scope) (bool, string, error) {
	cond, ok := scope.(ConditionalScope)
	if !ok {
		return false, "", nil
	}

	runIf, skipIf := cond.RunIf(), cond.SkipIf()
	if runIf == nil && skipIf == nil {
		return r.evalCondition(c, JobFailing)
	}
	if runIf == nil {
		return r.evalCondition(c, skipIf)
	}

	couldRun, reason, err := r.evalCondition(c, runIf)
	if err != nil {
		return false, "", err
	}
	if !couldRun || skipIf == nil {
		return !couldRun, reason, nil
	}
	return r.evalCondition(c, skipIf)
}

// evalCondition resolves a condition to its verdict and reason. A plain
// bool normalizes to an empty reason; an unresolvable condition counts as
// false.
func (r *Runner) evalCondition(c *Context, cond Condition) (bool, string, error) {
	resolved, err := ResolveOr(c, cond, false)
	if err != nil {
		return false, "", err
	}
	switch v := resolved.(type) {
	case bool:
		return v, "", nil
	case ConditionValue:
		return v.Value, v.Reason, nil
	case nil:
		return false, "", nil
	default:
		return false, "", NewFatalError(
			fmt.Sprintf("condition resolved to %T, not bool", resolved), nil)
	}
}
