package commands

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestDefaultRenderer(t *testing.T) {
	t.Setenv("GITHUB_ACTIONS", "")
	if got := defaultRenderer(); got != "console" {
		t.Errorf("outside CI: got %q", got)
	}

	t.Setenv("GITHUB_ACTIONS", "true")
	if got := defaultRenderer(); got != "markdown" {
		t.Errorf("inside GitHub Actions: got %q", got)
	}
}

func TestListCommand(t *testing.T) {
	root := newRootCommand("test", "none", "today")
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"list"})

	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out.String(), "verify-change") {
		t.Errorf("list output missing built-in job:\n%s", out.String())
	}
}

func TestRunCommandRequiresJob(t *testing.T) {
	root := newRootCommand("test", "none", "today")
	root.SetOut(new(bytes.Buffer))
	root.SetErr(new(bytes.Buffer))
	root.SetArgs([]string{"run"})

	if err := root.ExecuteContext(context.Background()); err == nil {
		t.Error("run without --job should fail")
	}
}

func TestRunCommandUnknownJob(t *testing.T) {
	root := newRootCommand("test", "none", "today")
	root.SetOut(new(bytes.Buffer))
	root.SetErr(new(bytes.Buffer))
	root.SetArgs([]string{"run", "--job", "ghost", "--renderer", "none"})

	err := root.ExecuteContext(context.Background())
	if err == nil || !strings.Contains(err.Error(), "ghost") {
		t.Errorf("unknown job: got %v", err)
	}
}
