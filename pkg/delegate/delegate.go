// Package delegate implements an ordered multicast callback list.
//
// Callbacks are invoked in registration order (or reversed, for teardown
// style lists). By default the first error aborts the invocation; a
// continue-on-error delegate runs every callback and collects the errors.
// Either way Invoke returns one result slot per registered callback, in
// registration order, so callers can correlate outcomes with callbacks.
package delegate

import (
	"fmt"
	"strings"
)

// Callback is a delegate entry. It receives the argument passed to Invoke.
type Callback[T any] func(arg T) error

// Registration identifies a registered callback for later removal.
type Registration struct {
	id int
}

// AggregateError collects the errors raised by one Invoke. Results holds
// one slot per registered callback in registration order: the callback's
// error if it ran and failed, nil if it ran and succeeded or never ran.
type AggregateError struct {
	Errors  []error
	Results []error
}

// Error implements the error interface.
func (e *AggregateError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	msgs := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("%d callbacks failed: %s", len(e.Errors), strings.Join(msgs, "; "))
}

// Unwrap exposes the collected errors to errors.Is and errors.As.
func (e *AggregateError) Unwrap() []error { return e.Errors }

type entry[T any] struct {
	id int
	fn Callback[T]
}

// Delegate is an ordered list of callbacks sharing one argument type.
// The zero value is usable.
type Delegate[T any] struct {
	entries         []entry[T]
	nextID          int
	continueOnError bool
	reverse         bool
}

// Option configures a Delegate at construction.
type Option func(*settings)

type settings struct {
	continueOnError bool
	reverse         bool
}

// ContinueOnError makes Invoke run every callback and report failures
// together instead of stopping at the first one.
func ContinueOnError() Option {
	return func(s *settings) { s.continueOnError = true }
}

// Reverse makes Invoke run callbacks in reverse registration order.
func Reverse() Option {
	return func(s *settings) { s.reverse = true }
}

// New creates a Delegate with the given options.
func New[T any](opts ...Option) *Delegate[T] {
	var s settings
	for _, opt := range opts {
		opt(&s)
	}
	return &Delegate[T]{continueOnError: s.continueOnError, reverse: s.reverse}
}

// Add registers fn and returns a token that removes it again.
func (d *Delegate[T]) Add(fn Callback[T]) Registration {
	d.nextID++
	d.entries = append(d.entries, entry[T]{id: d.nextID, fn: fn})
	return Registration{id: d.nextID}
}

// Remove unregisters the callback identified by reg. Removing an unknown
// or already-removed registration is a no-op.
func (d *Delegate[T]) Remove(reg Registration) {
	for i, e := range d.entries {
		if e.id == reg.id {
			d.entries = append(d.entries[:i], d.entries[i+1:]...)
			return
		}
	}
}

// Len returns the number of registered callbacks.
func (d *Delegate[T]) Len() int { return len(d.entries) }

// Invoke calls the registered callbacks with arg.
//
// It returns one result slot per callback in registration order. In the
// default mode the first failure stops the invocation: the failing slot
// holds the error, later slots stay nil, and the returned error is an
// AggregateError wrapping that single failure. In continue-on-error mode
// every callback runs and all failures are collected.
func (d *Delegate[T]) Invoke(arg T) ([]error, error) {
	results := make([]error, len(d.entries))
	var failures []error

	for n := range d.entries {
		i := n
		if d.reverse {
			i = len(d.entries) - 1 - n
		}
		if err := d.entries[i].fn(arg); err != nil {
			results[i] = err
			failures = append(failures, err)
			if !d.continueOnError {
				break
			}
		}
	}

	if len(failures) > 0 {
		return results, &AggregateError{Errors: failures, Results: results}
	}
	return results, nil
}

// Combine returns a new delegate with the given options whose callbacks are
// those of each source delegate in order. The sources are not modified.
func Combine[T any](opts []Option, sources ...*Delegate[T]) *Delegate[T] {
	combined := New[T](opts...)
	for _, src := range sources {
		if src == nil {
			continue
		}
		for _, e := range src.entries {
			combined.Add(e.fn)
		}
	}
	return combined
}
