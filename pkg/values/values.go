// Package values provides the key/value store and the polymorphic value
// primitives (providers, consumers, refs, keys) that bind pipeline data and
// control flow to a live run.
//
// A Provider is anything that may hold a value right now; a Consumer is
// anything a value can be assigned to. Ref combines both. Key is a typed
// handle into a Values store; the store itself is untyped and the typed
// accessors live at package level (Get, Set) so they can use generics.
//
// The store is deliberately unsynchronized: a run is single-threaded by
// design and the store lives and dies with one run.
package values

import (
	"fmt"
	"sort"
)

// NoValueError indicates a value was requested where none is present.
type NoValueError struct {
	Message string
}

// Error implements the error interface.
func (e *NoValueError) Error() string {
	if e.Message == "" {
		return "no value"
	}
	return e.Message
}

// NewNoValueError creates a NoValueError with the given message.
func NewNoValueError(format string, args ...any) *NoValueError {
	return &NoValueError{Message: fmt.Sprintf(format, args...)}
}

// Provider is the capability contract for a type that may hold a value.
// Value returns a NoValueError when HasValue is false.
type Provider interface {
	Value() (any, error)
	HasValue() bool
}

// Consumer is the capability contract for a type a value can be assigned to.
type Consumer interface {
	SetValue(value any) error
	UnsetValue()
}

// KeyRef identifies a value in a Values store by name. It is implemented by
// Key[T] and lets untyped code (the resolver) recognize typed keys.
type KeyRef interface {
	KeyName() string
}

// Key is a typed, named handle into a Values store.
type Key[T any] struct {
	Name string
}

// NewKey creates a typed key with the given name.
func NewKey[T any](name string) Key[T] {
	return Key[T]{Name: name}
}

// KeyName implements KeyRef.
func (k Key[T]) KeyName() string { return k.Name }

// Values is a string-keyed value store seeded before a run and mutated by
// actions and conditions during it.
type Values struct {
	m map[string]any
}

// New creates a Values store, optionally seeded from the given map.
func New(seed map[string]any) *Values {
	m := make(map[string]any, len(seed))
	for k, v := range seed {
		m[k] = v
	}
	return &Values{m: m}
}

// Keys returns a sorted snapshot of the current keys.
func (vs *Values) Keys() []string {
	keys := make([]string, 0, len(vs.m))
	for k := range vs.m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// GetRaw returns the value for key, or a NoValueError if absent.
func (vs *Values) GetRaw(key string) (any, error) {
	v, ok := vs.m[key]
	if !ok {
		return nil, NewNoValueError("no value associated with key %q", key)
	}
	return v, nil
}

// HasValue reports whether a value is present for key.
func (vs *Values) HasValue(key string) bool {
	_, ok := vs.m[key]
	return ok
}

// SetRaw associates value with key. A Provider value is unwrapped: its
// current value is stored if present, otherwise the key is unset.
func (vs *Values) SetRaw(key string, value any) {
	if p, ok := value.(Provider); ok {
		if !p.HasValue() {
			vs.Unset(key)
			return
		}
		v, err := p.Value()
		if err != nil {
			vs.Unset(key)
			return
		}
		vs.m[key] = v
		return
	}
	vs.m[key] = value
}

// Unset removes the value for key, if any.
func (vs *Values) Unset(key string) {
	delete(vs.m, key)
}

// GetOrElse returns the value for key, or def when absent.
func (vs *Values) GetOrElse(key string, def any) any {
	if v, ok := vs.m[key]; ok {
		return v
	}
	return def
}

// Get returns the value for key coerced to T. It returns a NoValueError
// when the key is absent and a plain error on a type mismatch.
func Get[T any](vs *Values, key Key[T]) (T, error) {
	var zero T
	raw, err := vs.GetRaw(key.Name)
	if err != nil {
		return zero, err
	}
	v, ok := raw.(T)
	if !ok {
		return zero, fmt.Errorf("value for key %q is %T, not %T", key.Name, raw, zero)
	}
	return v, nil
}

// Set associates value with the typed key.
func Set[T any](vs *Values, key Key[T], value T) {
	vs.SetRaw(key.Name, value)
}

// Ref returns a Ref view over the value associated with key. The view is
// live: reads and writes go through the store.
func (vs *Values) Ref(key string) *StoreRef {
	return &StoreRef{values: vs, key: key}
}

// StoreRef is a Provider/Consumer view over one key of a Values store.
type StoreRef struct {
	values *Values
	key    string
}

// Name returns the key this ref points at.
func (r *StoreRef) Name() string { return r.key }

// Value implements Provider.
func (r *StoreRef) Value() (any, error) { return r.values.GetRaw(r.key) }

// HasValue implements Provider.
func (r *StoreRef) HasValue() bool { return r.values.HasValue(r.key) }

// SetValue implements Consumer.
func (r *StoreRef) SetValue(value any) error {
	r.values.SetRaw(r.key, value)
	return nil
}

// UnsetValue implements Consumer.
func (r *StoreRef) UnsetValue() { r.values.Unset(r.key) }
