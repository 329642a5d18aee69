package registry

import (
	"errors"
	"testing"

	"github.com/jobforge/jobforge/pkg/engine"
)

func demoFactory(name string) Factory {
	return func() (*engine.Job, error) {
		return engine.NewJob(name), nil
	}
}

func TestRegisterAndLookup(t *testing.T) {
	r := NewRegistry()
	if err := r.Register("demo", demoFactory("demo")); err != nil {
		t.Fatalf("Register: %v", err)
	}

	job, err := r.Lookup("demo")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if job.Name() != "demo" {
		t.Errorf("job name: got %q", job.Name())
	}

	// Each lookup builds a fresh tree.
	again, err := r.Lookup("demo")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if again == job {
		t.Error("Lookup should build a new job per call")
	}
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	r := NewRegistry()
	if err := r.Register("demo", demoFactory("demo")); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := r.Register("demo", demoFactory("demo")); err == nil {
		t.Error("duplicate name should be rejected")
	}
}

func TestRegisterRejectsBadInputs(t *testing.T) {
	r := NewRegistry()
	if err := r.Register("", demoFactory("x")); err == nil {
		t.Error("empty name should be rejected")
	}
	if err := r.Register("x", nil); err == nil {
		t.Error("nil factory should be rejected")
	}
}

func TestLookupUnknown(t *testing.T) {
	if _, err := NewRegistry().Lookup("ghost"); err == nil {
		t.Error("unknown job should error")
	}
}

func TestLookupWrapsFactoryError(t *testing.T) {
	r := NewRegistry()
	boom := errors.New("boom")
	_ = r.Register("broken", func() (*engine.Job, error) { return nil, boom })

	if _, err := r.Lookup("broken"); !errors.Is(err, boom) {
		t.Errorf("factory error not propagated: %v", err)
	}
}

func TestNamesSorted(t *testing.T) {
	r := NewRegistry()
	for _, name := range []string{"zeta", "alpha", "mid"} {
		if err := r.Register(name, demoFactory(name)); err != nil {
			t.Fatalf("Register %s: %v", name, err)
		}
	}
	names := r.Names()
	want := []string{"alpha", "mid", "zeta"}
	if len(names) != len(want) {
		t.Fatalf("names: got %v", names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("names[%d]: got %q want %q", i, names[i], want[i])
		}
	}
}
