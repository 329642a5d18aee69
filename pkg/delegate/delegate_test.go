package delegate

import (
	"errors"
	"testing"
)

func TestInvokeOrder(t *testing.T) {
	d := New[int]()
	var seen []string
	d.Add(func(int) error { seen = append(seen, "a"); return nil })
	d.Add(func(int) error { seen = append(seen, "b"); return nil })
	d.Add(func(int) error { seen = append(seen, "c"); return nil })

	results, err := d.Invoke(0)
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	if got := seen; got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Errorf("order %v, want a b c", got)
	}
}

func TestInvokeAbortsOnFirstError(t *testing.T) {
	d := New[int]()
	boom := errors.New("boom")
	var ran []int
	d.Add(func(int) error { ran = append(ran, 1); return boom })
	d.Add(func(int) error { ran = append(ran, 2); return nil })

	results, err := d.Invoke(0)
	if err == nil {
		t.Fatal("expected error")
	}
	if len(ran) != 1 {
		t.Errorf("second callback ran after failure")
	}
	// One slot per callback: the failure, then nil for the skipped one.
	if len(results) != 2 || results[0] != boom || results[1] != nil {
		t.Errorf("results %v, want [boom nil]", results)
	}

	var agg *AggregateError
	if !errors.As(err, &agg) {
		t.Fatalf("expected AggregateError, got %T", err)
	}
	if len(agg.Errors) != 1 || !errors.Is(err, boom) {
		t.Errorf("aggregate %v, want single boom", agg.Errors)
	}
}

func TestInvokeContinueOnError(t *testing.T) {
	d := New[string](ContinueOnError())
	e1 := errors.New("first")
	e2 := errors.New("second")
	var ran int
	d.Add(func(string) error { ran++; return e1 })
	d.Add(func(string) error { ran++; return nil })
	d.Add(func(string) error { ran++; return e2 })

	results, err := d.Invoke("x")
	if ran != 3 {
		t.Fatalf("ran %d callbacks, want 3", ran)
	}
	if results[0] != e1 || results[1] != nil || results[2] != e2 {
		t.Errorf("results %v, want [first nil second]", results)
	}
	var agg *AggregateError
	if !errors.As(err, &agg) {
		t.Fatalf("expected AggregateError, got %T", err)
	}
	if len(agg.Errors) != 2 {
		t.Errorf("collected %d errors, want 2", len(agg.Errors))
	}
}

func TestInvokeReverse(t *testing.T) {
	d := New[int](Reverse())
	var seen []string
	d.Add(func(int) error { seen = append(seen, "first"); return nil })
	d.Add(func(int) error { seen = append(seen, "second"); return nil })

	if _, err := d.Invoke(0); err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if seen[0] != "second" || seen[1] != "first" {
		t.Errorf("order %v, want reversed", seen)
	}
}

func TestRemove(t *testing.T) {
	d := New[int]()
	var ran []string
	reg := d.Add(func(int) error { ran = append(ran, "removed"); return nil })
	d.Add(func(int) error { ran = append(ran, "kept"); return nil })

	d.Remove(reg)
	d.Remove(reg) // second removal is a no-op

	if _, err := d.Invoke(0); err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if len(ran) != 1 || ran[0] != "kept" {
		t.Errorf("ran %v, want only kept", ran)
	}
}

func TestCombine(t *testing.T) {
	a := New[int]()
	b := New[int]()
	var seen []string
	a.Add(func(int) error { seen = append(seen, "a1"); return nil })
	b.Add(func(int) error { seen = append(seen, "b1"); return errors.New("b1 fails") })
	b.Add(func(int) error { seen = append(seen, "b2"); return nil })

	c := Combine([]Option{ContinueOnError(), Reverse()}, a, b, nil)
	if c.Len() != 3 {
		t.Fatalf("combined has %d callbacks, want 3", c.Len())
	}

	_, err := c.Invoke(0)
	if err == nil {
		t.Fatal("expected error from combined invoke")
	}
	if seen[0] != "b2" || seen[1] != "b1" || seen[2] != "a1" {
		t.Errorf("order %v, want b2 b1 a1", seen)
	}

	// Sources are untouched.
	if a.Len() != 1 || b.Len() != 2 {
		t.Error("combine modified its sources")
	}
}
