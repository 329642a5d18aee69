package values

import (
	"errors"
	"testing"

	"github.com/jobforge/jobforge/pkg/coerce"
)

func TestValuesGetSetUnset(t *testing.T) {
	vs := New(map[string]any{"seed": 1})

	if !vs.HasValue("seed") {
		t.Fatal("expected seeded key to be present")
	}

	vs.SetRaw("name", "build")
	got, err := vs.GetRaw("name")
	if err != nil {
		t.Fatalf("GetRaw: %v", err)
	}
	if got != "build" {
		t.Errorf("got %v, want build", got)
	}

	vs.Unset("name")
	if vs.HasValue("name") {
		t.Error("expected key to be absent after Unset")
	}

	_, err = vs.GetRaw("name")
	var nv *NoValueError
	if !errors.As(err, &nv) {
		t.Errorf("expected NoValueError, got %v", err)
	}
}

func TestValuesGetOrElse(t *testing.T) {
	vs := New(nil)
	if got := vs.GetOrElse("missing", 42); got != 42 {
		t.Errorf("got %v, want default 42", got)
	}
	vs.SetRaw("missing", 7)
	if got := vs.GetOrElse("missing", 42); got != 7 {
		t.Errorf("got %v, want stored 7", got)
	}
}

func TestValuesSetUnwrapsProvider(t *testing.T) {
	vs := New(nil)

	vs.SetRaw("ready", NewRef(true))
	got, err := vs.GetRaw("ready")
	if err != nil {
		t.Fatalf("GetRaw: %v", err)
	}
	if got != true {
		t.Errorf("got %v, want unwrapped true", got)
	}

	// An empty provider unsets the key instead of storing the provider.
	vs.SetRaw("ready", EmptyRef[bool]())
	if vs.HasValue("ready") {
		t.Error("expected empty provider to unset the key")
	}
}

func TestTypedKeys(t *testing.T) {
	vs := New(nil)
	count := NewKey[int]("count")

	Set(vs, count, 3)
	got, err := Get(vs, count)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != 3 {
		t.Errorf("got %d, want 3", got)
	}

	vs.SetRaw("count", "three")
	if _, err := Get(vs, count); err == nil {
		t.Error("expected type mismatch error")
	}
}

func TestStoreRef(t *testing.T) {
	vs := New(nil)
	ref := vs.Ref("branch")

	if ref.HasValue() {
		t.Fatal("expected no value initially")
	}
	if err := ref.SetValue("main"); err != nil {
		t.Fatalf("SetValue: %v", err)
	}
	if got, _ := vs.GetRaw("branch"); got != "main" {
		t.Errorf("store saw %v, want main", got)
	}
	ref.UnsetValue()
	if vs.HasValue("branch") {
		t.Error("expected store key removed")
	}
}

func TestRef(t *testing.T) {
	r := EmptyRef[int]()
	if _, err := r.Get(); err == nil {
		t.Fatal("expected NoValueError from empty ref")
	}
	if got := r.GetOrElse(9); got != 9 {
		t.Errorf("got %d, want 9", got)
	}

	r.Set(5)
	if got, err := r.Get(); err != nil || got != 5 {
		t.Errorf("got %d, %v; want 5, nil", got, err)
	}

	if err := r.SetValue("nope"); err == nil {
		t.Error("expected assignment type error")
	}
	if err := r.SetValue(6); err != nil {
		t.Errorf("SetValue: %v", err)
	}
	if got, _ := r.Get(); got != 6 {
		t.Errorf("got %d, want 6", got)
	}

	// Assigning a provider unwraps it.
	if err := r.SetValue(NewRef(7)); err != nil {
		t.Errorf("SetValue provider: %v", err)
	}
	if got, _ := r.Get(); got != 7 {
		t.Errorf("got %d, want 7", got)
	}
}

func TestComputed(t *testing.T) {
	calls := 0
	c := NewComputed(func() (int, error) {
		calls++
		return calls, nil
	})
	if !c.HasValue() {
		t.Fatal("computed should always report a value")
	}
	if v, _ := c.Get(); v != 1 {
		t.Errorf("got %d, want 1", v)
	}
	if v, _ := c.Get(); v != 2 {
		t.Errorf("got %d, want 2 (recomputed)", v)
	}
}

func TestLazyMemoizes(t *testing.T) {
	calls := 0
	l := NewLazy(func() (string, error) {
		calls++
		return "once", nil
	})
	for i := 0; i < 3; i++ {
		if v, err := l.Get(); err != nil || v != "once" {
			t.Fatalf("Get: %v, %v", v, err)
		}
	}
	if calls != 1 {
		t.Errorf("factory ran %d times, want 1", calls)
	}
}

func TestLazyErrorNotMemoized(t *testing.T) {
	calls := 0
	l := NewLazy(func() (int, error) {
		calls++
		if calls == 1 {
			return 0, errors.New("transient")
		}
		return 10, nil
	})
	if _, err := l.Get(); err == nil {
		t.Fatal("expected first call to fail")
	}
	if v, err := l.Get(); err != nil || v != 10 {
		t.Errorf("got %d, %v; want 10, nil", v, err)
	}
}

func TestEnv(t *testing.T) {
	t.Setenv("JOBFORGE_TEST_RETRIES", "4")
	e := NewEnv("JOBFORGE_TEST_RETRIES", coerce.ToIntString)
	if !e.HasValue() {
		t.Fatal("expected env value present")
	}
	if v, err := e.Get(); err != nil || v != 4 {
		t.Errorf("got %d, %v; want 4, nil", v, err)
	}

	missing := NewEnv("JOBFORGE_TEST_MISSING", String)
	if missing.HasValue() {
		t.Error("expected missing env var to report no value")
	}
	if _, err := missing.Get(); err == nil {
		t.Error("expected NoValueError")
	}
	if v, err := missing.WithDefault("fallback").Get(); err != nil || v != "fallback" {
		t.Errorf("got %q, %v; want fallback, nil", v, err)
	}
}

func TestMapped(t *testing.T) {
	src := NewRef(3)
	doubled := NewMapped(src, func(n int) (int, error) { return n * 2, nil })

	if v, err := doubled.Get(); err != nil || v != 6 {
		t.Errorf("got %d, %v; want 6, nil", v, err)
	}

	src.Unset()
	if doubled.HasValue() {
		t.Error("expected mapped to follow empty source")
	}
	if _, err := doubled.Get(); err == nil {
		t.Error("expected error from empty source")
	}
}
