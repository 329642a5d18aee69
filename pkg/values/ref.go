package values

import "fmt"

// Ref is a typed, mutable cell that is both a Provider and a Consumer. The
// zero value is an empty ref.
type Ref[T any] struct {
	val T
	set bool
}

// NewRef creates a Ref holding value.
func NewRef[T any](value T) *Ref[T] {
	return &Ref[T]{val: value, set: true}
}

// EmptyRef creates a Ref holding no value.
func EmptyRef[T any]() *Ref[T] {
	return &Ref[T]{}
}

// Get returns the held value, or a NoValueError if the ref is empty.
func (r *Ref[T]) Get() (T, error) {
	if !r.set {
		var zero T
		return zero, NewNoValueError("ref holds no value")
	}
	return r.val, nil
}

// GetOrElse returns the held value, or def when the ref is empty.
func (r *Ref[T]) GetOrElse(def T) T {
	if !r.set {
		return def
	}
	return r.val
}

// Set stores value in the ref.
func (r *Ref[T]) Set(value T) {
	r.val = value
	r.set = true
}

// Unset empties the ref.
func (r *Ref[T]) Unset() {
	var zero T
	r.val = zero
	r.set = false
}

// Value implements Provider.
func (r *Ref[T]) Value() (any, error) {
	v, err := r.Get()
	if err != nil {
		return nil, err
	}
	return v, nil
}

// HasValue implements Provider.
func (r *Ref[T]) HasValue() bool { return r.set }

// SetValue implements Consumer. A value of the wrong dynamic type is an
// error; a Provider value is unwrapped first.
func (r *Ref[T]) SetValue(value any) error {
	if p, ok := value.(Provider); ok {
		if !p.HasValue() {
			r.Unset()
			return nil
		}
		v, err := p.Value()
		if err != nil {
			return err
		}
		value = v
	}
	v, ok := value.(T)
	if !ok {
		var zero T
		return fmt.Errorf("cannot assign %T to ref of %T", value, zero)
	}
	r.Set(v)
	return nil
}

// UnsetValue implements Consumer.
func (r *Ref[T]) UnsetValue() { r.Unset() }

// Mapped is a Provider backed by another Provider with a transform applied
// on read. It holds a value whenever the source does.
type Mapped[S, T any] struct {
	source Provider
	fn     func(S) (T, error)
}

// NewMapped creates a Mapped provider over source.
func NewMapped[S, T any](source Provider, fn func(S) (T, error)) *Mapped[S, T] {
	return &Mapped[S, T]{source: source, fn: fn}
}

// Get returns the transformed source value.
func (m *Mapped[S, T]) Get() (T, error) {
	var zero T
	raw, err := m.source.Value()
	if err != nil {
		return zero, err
	}
	s, ok := raw.(S)
	if !ok {
		return zero, fmt.Errorf("mapped source is %T, not %T", raw, s)
	}
	return m.fn(s)
}

// Value implements Provider.
func (m *Mapped[S, T]) Value() (any, error) {
	v, err := m.Get()
	if err != nil {
		return nil, err
	}
	return v, nil
}

// HasValue implements Provider.
func (m *Mapped[S, T]) HasValue() bool { return m.source.HasValue() }
