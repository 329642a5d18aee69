package engine

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/jobforge/jobforge/pkg/delegate"
)

// ScopeType represents the level of a scope in the pipeline tree.
type ScopeType string

const (
	// TypeJob is the root level of a pipeline tree.
	TypeJob ScopeType = "job"

	// TypeStage is an intermediate grouping level.
	TypeStage ScopeType = "stage"

	// TypeStep is a leaf level executing a single unit of work.
	TypeStep ScopeType = "step"
)

// Validate checks if the scope type is valid.
func (t ScopeType) Validate() error {
	switch t {
	case TypeJob, TypeStage, TypeStep:
		return nil
	default:
		return fmt.Errorf("invalid scope type: %s", t)
	}
}

// Label returns the display form of the scope type.
func (t ScopeType) Label() string {
	switch t {
	case TypeJob:
		return "Job"
	case TypeStage:
		return "Stage"
	case TypeStep:
		return "Step"
	default:
		return string(t)
	}
}

// Scope is the minimal contract every pipeline tree node satisfies:
// opaque identity, level, and a display name. Identity is defined solely
// by ID, independent of concrete type, so a lightweight ScopeRef can stand
// in for a full scope anywhere equality or lookup is all that matters.
type Scope interface {
	ID() string
	Type() ScopeType
	Name() string
}

// GroupScope is the capability contract for a scope with ordered children,
// run depth-first in declaration order.
type GroupScope interface {
	Scope
	Children() []Scope
}

// ActionScope is the capability contract for a leaf scope executing a
// single unit of work. Action may return nil for a no-op scope.
type ActionScope interface {
	Scope
	Action() Action
}

// TeardownScope is the capability contract for a scope carrying a teardown
// delegate.
type TeardownScope interface {
	Scope
	Teardown() *delegate.Delegate[*Context]
}

// ConditionalScope is the capability contract for a scope gated by run/skip
// conditions. A nil condition means unset.
type ConditionalScope interface {
	Scope
	RunIf() Condition
	SkipIf() Condition
}

// SameScope reports whether two scopes are the same node, by identity.
func SameScope(a, b Scope) bool {
	if a == nil || b == nil {
		return false
	}
	return a.ID() == b.ID()
}

// ScopeLabel returns the display form of a scope, e.g. "Stage build".
func ScopeLabel(s Scope) string {
	return fmt.Sprintf("%s %s", s.Type().Label(), s.Name())
}

// ScopeRef is a lightweight stand-in carrying only scope identity. It can
// be used anywhere a full scope is expected for equality or lookup, e.g.
// referencing a not-yet-built scope inside a condition closure.
type ScopeRef struct {
	id   string
	typ  ScopeType
	name string
}

// NewScopeRef creates a stand-in for the given scope.
func NewScopeRef(s Scope) *ScopeRef {
	return &ScopeRef{id: s.ID(), typ: s.Type(), name: s.Name()}
}

// ID implements Scope.
func (r *ScopeRef) ID() string { return r.id }

// Type implements Scope.
func (r *ScopeRef) Type() ScopeType { return r.typ }

// Name implements Scope.
func (r *ScopeRef) Name() string { return r.name }

// String implements fmt.Stringer.
func (r *ScopeRef) String() string { return ScopeLabel(r) }

// baseScope carries the state shared by every concrete scope type.
type baseScope struct {
	id       string
	typ      ScopeType
	name     string
	runIf    Condition
	skipIf   Condition
	teardown *delegate.Delegate[*Context]
}

func newBaseScope(typ ScopeType, name string) baseScope {
	return baseScope{
		id:       uuid.NewString(),
		typ:      typ,
		name:     name,
		teardown: delegate.New[*Context](delegate.ContinueOnError(), delegate.Reverse()),
	}
}

// ID implements Scope.
func (s *baseScope) ID() string { return s.id }

// Type implements Scope.
func (s *baseScope) Type() ScopeType { return s.typ }

// Name implements Scope.
func (s *baseScope) Name() string { return s.name }

// RunIf implements ConditionalScope.
func (s *baseScope) RunIf() Condition { return s.runIf }

// SkipIf implements ConditionalScope.
func (s *baseScope) SkipIf() Condition { return s.skipIf }

// Teardown implements TeardownScope.
func (s *baseScope) Teardown() *delegate.Delegate[*Context] { return s.teardown }

// OnTeardown registers fn on the scope's own teardown delegate.
func (s *baseScope) OnTeardown(fn delegate.Callback[*Context]) delegate.Registration {
	return s.teardown.Add(fn)
}

// ScopeOption configures a scope at construction.
type ScopeOption func(*baseScope)

// WithRunIf sets the scope's run condition (eligibility).
func WithRunIf(cond Condition) ScopeOption {
	return func(s *baseScope) { s.runIf = cond }
}

// WithSkipIf sets the scope's skip condition (final veto).
func WithSkipIf(cond Condition) ScopeOption {
	return func(s *baseScope) { s.skipIf = cond }
}

// WithTeardown registers fn on the scope's teardown delegate.
func WithTeardown(fn delegate.Callback[*Context]) ScopeOption {
	return func(s *baseScope) { s.teardown.Add(fn) }
}

// WithID overrides the generated scope ID. Intended for tests and for
// recreating scopes with a stable identity.
func WithID(id string) ScopeOption {
	return func(s *baseScope) { s.id = id }
}

// Job is the root group scope of a pipeline tree.
type Job struct {
	baseScope
	children []Scope
}

// NewJob creates a job scope.
func NewJob(name string, opts ...ScopeOption) *Job {
	j := &Job{baseScope: newBaseScope(TypeJob, name)}
	for _, opt := range opts {
		opt(&j.baseScope)
	}
	return j
}

// Add appends children in declaration order and returns the job.
func (j *Job) Add(children ...Scope) *Job {
	j.children = append(j.children, children...)
	return j
}

// Children implements GroupScope.
func (j *Job) Children() []Scope { return j.children }

// String implements fmt.Stringer.
func (j *Job) String() string { return ScopeLabel(j) }

// Stage is an intermediate group scope.
type Stage struct {
	baseScope
	children []Scope
}

// NewStage creates a stage scope.
func NewStage(name string, opts ...ScopeOption) *Stage {
	st := &Stage{baseScope: newBaseScope(TypeStage, name)}
	for _, opt := range opts {
		opt(&st.baseScope)
	}
	return st
}

// Add appends children in declaration order and returns the stage.
func (st *Stage) Add(children ...Scope) *Stage {
	st.children = append(st.children, children...)
	return st
}

// Children implements GroupScope.
func (st *Stage) Children() []Scope { return st.children }

// String implements fmt.Stringer.
func (st *Stage) String() string { return ScopeLabel(st) }

// Step is a leaf scope executing a single action.
type Step struct {
	baseScope
	action Action
}

// NewStep creates a step scope around action, which may be nil for a
// no-op step. If the action also implements Teardowner, its Teardown
// method is registered on the step's teardown delegate.
func NewStep(name string, action Action, opts ...ScopeOption) *Step {
	s := &Step{baseScope: newBaseScope(TypeStep, name), action: action}
	if td, ok := action.(Teardowner); ok {
		s.teardown.Add(td.Teardown)
	}
	for _, opt := range opts {
		opt(&s.baseScope)
	}
	return s
}

// Action implements ActionScope.
func (s *Step) Action() Action { return s.action }

// SetAction replaces the step's action. Only valid before the run starts.
func (s *Step) SetAction(action Action) {
	s.action = action
	if td, ok := action.(Teardowner); ok {
		s.teardown.Add(td.Teardown)
	}
}

// String implements fmt.Stringer.
func (s *Step) String() string { return ScopeLabel(s) }
