package actions

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jobforge/jobforge/pkg/engine"
	"github.com/jobforge/jobforge/pkg/values"
)

// eventLog records status events as readable strings.
type eventLog struct {
	engine.BaseStatusListener
	events []string
}

func (l *eventLog) StartSection(_ *engine.Context, name string) error {
	l.events = append(l.events, "section: "+name)
	return nil
}

func (l *eventLog) StartItem(_ *engine.Context, description string) error {
	l.events = append(l.events, "item: "+description)
	return nil
}

func (l *eventLog) FinishItem(_ *engine.Context, outcome engine.ItemOutcome, _ error) error {
	l.events = append(l.events, "outcome: "+string(outcome))
	return nil
}

func (l *eventLog) Output(_ *engine.Context, output string, label string) error {
	l.events = append(l.events, fmt.Sprintf("output[%s]: %s", label, strings.TrimSpace(output)))
	return nil
}

func (l *eventLog) Detail(_ *engine.Context, message string) error {
	l.events = append(l.events, "detail: "+message)
	return nil
}

func (l *eventLog) contains(want string) bool {
	for _, ev := range l.events {
		if ev == want {
			return true
		}
	}
	return false
}

func newActionContext(t *testing.T) (*engine.Context, *eventLog) {
	t.Helper()
	log := &eventLog{}
	return engine.NewContext(context.Background(), engine.WithListener(log)), log
}

func TestShellActionPublishesOutput(t *testing.T) {
	c, log := newActionContext(t)
	result := values.EmptyRef[*Result]()

	action := NewShellAction("sh", "-c", "echo out; echo err >&2").
		WithShell(quietShell()).
		WithResult(result)
	if err := action.Execute(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, want := range []string{
		"section: Executing sh -c 'echo out; echo err >&2'",
		"output[stdout]: out",
		"output[stderr]: err",
	} {
		if !log.contains(want) {
			t.Errorf("missing event %q in %q", want, log.events)
		}
	}
	got, err := result.Get()
	if err != nil {
		t.Fatalf("result not assigned: %v", err)
	}
	if got.ExitCode != 0 {
		t.Errorf("exit code: got %d, want 0", got.ExitCode)
	}
}

func TestShellActionResolvesArguments(t *testing.T) {
	c, log := newActionContext(t)
	message := values.NewRef("resolved")

	action := NewShellAction("echo", message).WithShell(quietShell())
	if err := action.Execute(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !log.contains("output[stdout]: resolved") {
		t.Errorf("ref argument not resolved: %q", log.events)
	}
}

func TestShellActionContainsFailure(t *testing.T) {
	c, _ := newActionContext(t)
	result := values.EmptyRef[*Result]()

	action := NewShellAction("sh", "-c", "exit 5").
		WithShell(quietShell()).
		WithResult(result)
	if err := action.Execute(c); err != nil {
		t.Fatalf("non-zero exit must be contained, got %v", err)
	}
	if !c.HasErrors() {
		t.Error("failure should be recorded on the context")
	}
	if got := result.GetOrElse(nil); got == nil || got.ExitCode != 5 {
		t.Errorf("result should still be assigned on failure, got %+v", got)
	}
}

func TestShellActionFailFast(t *testing.T) {
	c, _ := newActionContext(t)

	action := NewShellAction("sh", "-c", "exit 5").
		WithShell(quietShell()).
		FailFast()
	if err := action.Execute(c); err == nil {
		t.Fatal("expected the exit error to propagate")
	}
}

func TestShellActionUnassignsOnStartFailure(t *testing.T) {
	c, _ := newActionContext(t)
	result := values.NewRef(&Result{ExitCode: 99})

	action := NewShellAction("/no/such/binary").
		WithShell(quietShell()).
		WithResult(result)
	if err := action.Execute(c); err == nil {
		t.Fatal("expected an error")
	}
	if result.HasValue() {
		t.Error("result should be unassigned when the command never ran")
	}
}

func writeFile(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("x\n"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestVerifyTestLayout(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "src")
	tests := filepath.Join(root, "tests")
	writeFile(t, filepath.Join(src, "alpha.go"))
	writeFile(t, filepath.Join(src, "sub", "beta.go"))
	writeFile(t, filepath.Join(src, ".hidden.go"))
	writeFile(t, filepath.Join(tests, "alpha_test.go"))
	if err := os.MkdirAll(tests, 0o755); err != nil {
		t.Fatal(err)
	}

	c, log := newActionContext(t)
	missing := values.EmptyRef[[]string]()
	action := NewVerifyTestLayout(src, tests).WithMissing(missing)

	err := action.Execute(c)
	if err == nil {
		t.Fatal("expected a missing-tests error")
	}
	if !strings.Contains(err.Error(), filepath.Join("sub", "beta.go")) {
		t.Errorf("error should name the uncovered source: %v", err)
	}

	got := missing.GetOrElse(nil)
	if len(got) != 1 || got[0] != filepath.Join("sub", "beta.go") {
		t.Errorf("missing: got %q", got)
	}
	if !log.contains("item: alpha.go") || !log.contains("outcome: done") {
		t.Errorf("covered file should report a done item: %q", log.events)
	}
	if !log.contains("outcome: failed") {
		t.Errorf("uncovered file should report a failed item: %q", log.events)
	}
}

func TestVerifyTestLayoutAllCovered(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "src")
	tests := filepath.Join(root, "tests")
	writeFile(t, filepath.Join(src, "alpha.go"))
	writeFile(t, filepath.Join(tests, "alpha_test.go"))

	c, _ := newActionContext(t)
	missing := values.EmptyRef[[]string]()
	action := NewVerifyTestLayout(src, tests).WithMissing(missing)

	if err := action.Execute(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := missing.GetOrElse(nil); len(got) != 0 {
		t.Errorf("missing should be empty, got %q", got)
	}
}

func TestVerifyTestLayoutRejectsNonDirectories(t *testing.T) {
	c, _ := newActionContext(t)
	action := NewVerifyTestLayout(filepath.Join(t.TempDir(), "absent"), t.TempDir())
	if err := action.Execute(c); err == nil {
		t.Fatal("expected an error for a missing source directory")
	}
}

func TestVerifyTestLayoutResolvesPaths(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "src")
	tests := filepath.Join(root, "tests")
	writeFile(t, filepath.Join(src, "alpha.go"))
	writeFile(t, filepath.Join(tests, "alpha_test.go"))

	log := &eventLog{}
	c := engine.NewContext(context.Background(),
		engine.WithListener(log),
		engine.WithValues(map[string]any{"src": src, "tests": tests}))

	action := NewVerifyTestLayout(values.NewKey[string]("src"), values.NewKey[string]("tests"))
	if err := action.Execute(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
