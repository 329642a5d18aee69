// Package actions provides reusable job actions and the subprocess
// helpers they are built from: a streaming shell runner, a chainable
// command builder for CLI tools, and tree-layout verification.
package actions

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"
)

// Result captures the outcome of a finished shell command.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// ExitError reports a command that ran to completion with a non-zero
// exit code. The captured Result is always attached.
type ExitError struct {
	Result *Result
}

func (e *ExitError) Error() string {
	msg := strings.TrimSpace(e.Result.Stderr)
	if msg == "" {
		return fmt.Sprintf("exit status %d", e.Result.ExitCode)
	}
	return fmt.Sprintf("exit status %d: %s", e.Result.ExitCode, msg)
}

// Shell runs subprocesses with captured, optionally mirrored and teed,
// stdout and stderr. The zero options show both streams on the console
// and treat a non-zero exit code as an error.
type Shell struct {
	showStdout     bool
	showStderr     bool
	dir            string
	env            map[string]string
	teeStdout      io.Writer
	teeStderr      io.Writer
	stderrToStdout bool
	checkExit      bool

	// Console sinks, replaceable for tests.
	stdout io.Writer
	stderr io.Writer
}

// ShellOption adjusts the behavior of a Shell.
type ShellOption func(*Shell)

// WithDir sets the working directory commands run in.
func WithDir(dir string) ShellOption {
	return func(s *Shell) { s.dir = dir }
}

// WithEnv adds environment variables on top of the process environment.
func WithEnv(env map[string]string) ShellOption {
	return func(s *Shell) { s.env = env }
}

// TeeStdout duplicates live stdout into w in addition to capturing it.
func TeeStdout(w io.Writer) ShellOption {
	return func(s *Shell) { s.teeStdout = w }
}

// TeeStderr duplicates live stderr into w in addition to capturing it.
func TeeStderr(w io.Writer) ShellOption {
	return func(s *Shell) { s.teeStderr = w }
}

// StderrToStdout folds stderr into the stdout stream; Result.Stderr
// stays empty.
func StderrToStdout() ShellOption {
	return func(s *Shell) { s.stderrToStdout = true }
}

// ShowStdout controls whether stdout is mirrored to the console.
func ShowStdout(show bool) ShellOption {
	return func(s *Shell) { s.showStdout = show }
}

// ShowStderr controls whether stderr is mirrored to the console.
func ShowStderr(show bool) ShellOption {
	return func(s *Shell) { s.showStderr = show }
}

// Silent suppresses console mirroring of both streams.
func Silent() ShellOption {
	return func(s *Shell) {
		s.showStdout = false
		s.showStderr = false
	}
}

// NoExitCheck makes Run return a nil error for non-zero exit codes;
// callers inspect Result.ExitCode themselves.
func NoExitCheck() ShellOption {
	return func(s *Shell) { s.checkExit = false }
}

// ConsoleTo redirects the console mirror sinks, primarily for tests.
func ConsoleTo(stdout, stderr io.Writer) ShellOption {
	return func(s *Shell) {
		s.stdout = stdout
		s.stderr = stderr
	}
}

// NewShell returns a Shell with the given options applied.
func NewShell(opts ...ShellOption) *Shell {
	s := &Shell{
		showStdout: true,
		showStderr: true,
		checkExit:  true,
		stdout:     os.Stdout,
		stderr:     os.Stderr,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// With returns a copy of the Shell with additional options applied.
// The receiver is not modified.
func (s *Shell) With(opts ...ShellOption) *Shell {
	clone := *s
	for _, opt := range opts {
		opt(&clone)
	}
	return &clone
}

// Run executes args as a command, streaming output to the configured
// sinks while capturing it. The command is killed when ctx is
// canceled. A non-zero exit code returns the Result together with an
// *ExitError unless NoExitCheck was set; errors before the command
// runs return a nil Result.
func (s *Shell) Run(ctx context.Context, args ...string) (*Result, error) {
	if len(args) == 0 {
		return nil, errors.New("no command given")
	}

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Dir = s.dir
	if len(s.env) > 0 {
		cmd.Env = mergedEnv(s.env)
	}

	var outBuf, errBuf bytes.Buffer
	outSinks := []io.Writer{&outBuf}
	if s.showStdout {
		outSinks = append(outSinks, s.stdout)
	}
	if s.teeStdout != nil {
		outSinks = append(outSinks, s.teeStdout)
	}
	cmd.Stdout = io.MultiWriter(outSinks...)

	if s.stderrToStdout {
		cmd.Stderr = cmd.Stdout
	} else {
		errSinks := []io.Writer{&errBuf}
		if s.showStderr {
			errSinks = append(errSinks, s.stderr)
		}
		if s.teeStderr != nil {
			errSinks = append(errSinks, s.teeStderr)
		}
		cmd.Stderr = io.MultiWriter(errSinks...)
	}

	runErr := cmd.Run()
	var exitErr *exec.ExitError
	if runErr != nil && !errors.As(runErr, &exitErr) {
		return nil, fmt.Errorf("running %s: %w", args[0], runErr)
	}

	result := &Result{
		ExitCode: cmd.ProcessState.ExitCode(),
		Stdout:   outBuf.String(),
		Stderr:   errBuf.String(),
	}
	if s.checkExit && result.ExitCode != 0 {
		return result, &ExitError{Result: result}
	}
	return result, nil
}

// mergedEnv layers overrides on the process environment in sorted key
// order so repeated runs build identical environments.
func mergedEnv(overrides map[string]string) []string {
	env := os.Environ()
	keys := make([]string, 0, len(overrides))
	for k := range overrides {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		env = append(env, k+"="+overrides[k])
	}
	return env
}

// ShellJoin renders argv as a copy-pasteable command line, quoting
// arguments that contain whitespace or shell metacharacters.
func ShellJoin(args []string) string {
	quoted := make([]string, len(args))
	for i, arg := range args {
		quoted[i] = shellQuote(arg)
	}
	return strings.Join(quoted, " ")
}

func shellQuote(arg string) string {
	if arg == "" {
		return "''"
	}
	if !strings.ContainsAny(arg, " \t\n\"'\\$&;|<>*?()[]{}~#`!") {
		return arg
	}
	return "'" + strings.ReplaceAll(arg, "'", `'"'"'`) + "'"
}
