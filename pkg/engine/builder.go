package engine

import (
	"errors"
	"fmt"
)

// JobBuilder assembles a job tree stage by stage. A stage block that
// fails only excludes that stage; the rest of the build proceeds and
// Build reports the collected errors alongside the partial job.
type JobBuilder struct {
	job  *Job
	errs []error
}

// BuildJob starts building a job scope.
func BuildJob(name string, opts ...ScopeOption) *JobBuilder {
	return &JobBuilder{job: NewJob(name, opts...)}
}

// Ref returns an identity stand-in for the job under construction, usable
// in condition closures before Build is called.
func (b *JobBuilder) Ref() Scope { return NewScopeRef(b.job) }

// Stage builds one stage through fn and appends it to the job. When fn
// returns an error the stage is not appended.
func (b *JobBuilder) Stage(name string, fn func(*StageBuilder) error, opts ...ScopeOption) *JobBuilder {
	sb := &StageBuilder{stage: NewStage(name, opts...)}
	if fn != nil {
		if err := fn(sb); err != nil {
			b.errs = append(b.errs, fmt.Errorf("stage %q: %w", name, err))
			return b
		}
	}
	if len(sb.errs) > 0 {
		b.errs = append(b.errs, sb.errs...)
	}
	b.job.Add(sb.stage)
	return b
}

// Build returns the assembled job. The job is returned even when stage
// blocks failed, holding the stages that built cleanly, together with the
// joined errors.
func (b *JobBuilder) Build() (*Job, error) {
	return b.job, errors.Join(b.errs...)
}

// StageBuilder assembles one stage's steps. A step block that fails only
// excludes that step.
type StageBuilder struct {
	stage *Stage
	errs  []error
}

// Ref returns an identity stand-in for the stage under construction.
func (sb *StageBuilder) Ref() Scope { return NewScopeRef(sb.stage) }

// Step appends a step executing action.
func (sb *StageBuilder) Step(name string, action Action, opts ...ScopeOption) *StageBuilder {
	sb.stage.Add(NewStep(name, action, opts...))
	return sb
}

// StepFn builds a step through fn and appends it. When fn returns an
// error the step is not appended.
func (sb *StageBuilder) StepFn(name string, fn func(*Step) error, opts ...ScopeOption) *StageBuilder {
	step := NewStep(name, nil, opts...)
	if fn != nil {
		if err := fn(step); err != nil {
			sb.errs = append(sb.errs, fmt.Errorf("step %q: %w", name, err))
			return sb
		}
	}
	sb.stage.Add(step)
	return sb
}

// Group appends a nested stage built through fn. When fn returns an error
// the nested stage is not appended.
func (sb *StageBuilder) Group(name string, fn func(*StageBuilder) error, opts ...ScopeOption) *StageBuilder {
	nested := &StageBuilder{stage: NewStage(name, opts...)}
	if fn != nil {
		if err := fn(nested); err != nil {
			sb.errs = append(sb.errs, fmt.Errorf("stage %q: %w", name, err))
			return sb
		}
	}
	if len(nested.errs) > 0 {
		sb.errs = append(sb.errs, nested.errs...)
	}
	sb.stage.Add(nested.stage)
	return sb
}
