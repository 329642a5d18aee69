package actions

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

func quietShell(opts ...ShellOption) *Shell {
	base := []ShellOption{Silent(), ConsoleTo(io.Discard, io.Discard)}
	return NewShell(append(base, opts...)...)
}

func TestShellCapturesOutput(t *testing.T) {
	result, err := quietShell().Run(context.Background(), "sh", "-c", "echo out; echo err >&2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.ExitCode != 0 {
		t.Errorf("exit code: got %d, want 0", result.ExitCode)
	}
	if result.Stdout != "out\n" {
		t.Errorf("stdout: got %q", result.Stdout)
	}
	if result.Stderr != "err\n" {
		t.Errorf("stderr: got %q", result.Stderr)
	}
}

func TestShellExitError(t *testing.T) {
	result, err := quietShell().Run(context.Background(), "sh", "-c", "echo oops >&2; exit 3")
	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("expected *ExitError, got %v", err)
	}
	if result == nil || result.ExitCode != 3 {
		t.Fatalf("result: got %+v", result)
	}
	if exitErr.Result != result {
		t.Error("error should carry the captured result")
	}
	if !strings.Contains(exitErr.Error(), "oops") {
		t.Errorf("error message should include stderr: %q", exitErr.Error())
	}
}

func TestShellNoExitCheck(t *testing.T) {
	result, err := quietShell(NoExitCheck()).Run(context.Background(), "sh", "-c", "exit 7")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.ExitCode != 7 {
		t.Errorf("exit code: got %d, want 7", result.ExitCode)
	}
}

func TestShellStartFailure(t *testing.T) {
	result, err := quietShell().Run(context.Background(), "/no/such/binary")
	if err == nil {
		t.Fatal("expected an error")
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		t.Fatal("start failures must not be exit errors")
	}
	if result != nil {
		t.Errorf("result should be nil, got %+v", result)
	}
}

func TestShellConsoleMirror(t *testing.T) {
	var console bytes.Buffer
	shell := NewShell(ConsoleTo(&console, io.Discard))
	if _, err := shell.Run(context.Background(), "echo", "visible"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if console.String() != "visible\n" {
		t.Errorf("console: got %q", console.String())
	}
}

func TestShellTee(t *testing.T) {
	var tee bytes.Buffer
	result, err := quietShell(TeeStdout(&tee)).Run(context.Background(), "echo", "teed")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tee.String() != "teed\n" || result.Stdout != "teed\n" {
		t.Errorf("tee %q, captured %q", tee.String(), result.Stdout)
	}
}

func TestShellStderrToStdout(t *testing.T) {
	result, err := quietShell(StderrToStdout()).Run(context.Background(), "sh", "-c", "echo one; echo two >&2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(result.Stdout, "one") || !strings.Contains(result.Stdout, "two") {
		t.Errorf("stdout should hold both streams: %q", result.Stdout)
	}
	if result.Stderr != "" {
		t.Errorf("stderr should be empty, got %q", result.Stderr)
	}
}

func TestShellEnvAndDir(t *testing.T) {
	dir := t.TempDir()
	shell := quietShell(WithDir(dir), WithEnv(map[string]string{"GREETING": "hi"}))
	result, err := shell.Run(context.Background(), "sh", "-c", `echo "$GREETING $(pwd)"`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(result.Stdout, "hi ") {
		t.Errorf("env not applied: %q", result.Stdout)
	}
	if !strings.Contains(result.Stdout, dir) {
		t.Errorf("dir not applied: %q", result.Stdout)
	}
}

func TestShellWithCopies(t *testing.T) {
	base := quietShell()
	loud := base.With(ShowStdout(true))
	if base.showStdout {
		t.Error("With must not modify the receiver")
	}
	if !loud.showStdout {
		t.Error("With must apply the option to the copy")
	}
}

func TestShellNoCommand(t *testing.T) {
	if _, err := quietShell().Run(context.Background()); err == nil {
		t.Fatal("expected an error for an empty command")
	}
}

func TestShellJoinQuoting(t *testing.T) {
	got := ShellJoin([]string{"echo", "two words", "plain", "", "it's"})
	want := `echo 'two words' plain '' 'it'"'"'s'`
	if got != want {
		t.Errorf("ShellJoin: got %s, want %s", got, want)
	}
}
