package actions

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jobforge/jobforge/pkg/coerce"
	"github.com/jobforge/jobforge/pkg/engine"
	"github.com/jobforge/jobforge/pkg/values"
)

// ShellAction executes a shell command as a job step. Arguments are
// resolved against the run context just before execution, so they may
// be literals, value refs, context keys, or callables. Captured stdout
// and stderr are published through the status collector, and the
// Result is assigned to the action's result ref.
//
// A non-zero exit code is recorded as a contained step failure; with
// FailFast it aborts the action instead.
type ShellAction struct {
	args     []any
	shell    *Shell
	result   *values.Ref[*Result]
	failFast bool
}

var _ engine.Action = (*ShellAction)(nil)

// NewShellAction returns a ShellAction for the given resolvable
// arguments.
func NewShellAction(args ...any) *ShellAction {
	return &ShellAction{
		args:   args,
		shell:  NewShell(),
		result: values.EmptyRef[*Result](),
	}
}

// WithShell replaces the Shell the command runs with.
func (a *ShellAction) WithShell(s *Shell) *ShellAction {
	a.shell = s
	return a
}

// WithResult makes the action assign its Result to ref.
func (a *ShellAction) WithResult(ref *values.Ref[*Result]) *ShellAction {
	a.result = ref
	return a
}

// FailFast makes a non-zero exit code fail the action instead of
// recording a contained error.
func (a *ShellAction) FailFast() *ShellAction {
	a.failFast = true
	return a
}

// Result returns the ref holding the last execution's Result.
func (a *ShellAction) Result() *values.Ref[*Result] {
	return a.result
}

// Execute resolves the arguments and runs the command.
func (a *ShellAction) Execute(c *engine.Context) error {
	resolved, err := engine.ResolveAll(c, a.args...)
	if err != nil {
		return err
	}
	argv, err := argStrings(resolved)
	if err != nil {
		return err
	}

	return c.Status().Section("Executing "+ShellJoin(argv), func() error {
		result, runErr := a.shell.Run(c.StdContext(), argv...)
		if result == nil {
			a.result.Unset()
			return runErr
		}

		a.result.Set(result)
		if result.Stdout != "" {
			c.Status().Output(result.Stdout, "stdout")
		}
		if result.Stderr != "" {
			c.Status().Output(result.Stderr, "stderr")
		}

		var exitErr *ExitError
		if errors.As(runErr, &exitErr) && !a.failFast {
			c.RecordError(runErr)
			return nil
		}
		return runErr
	})
}

func argStrings(resolved []any) ([]string, error) {
	argv := make([]string, len(resolved))
	for i, arg := range resolved {
		s, err := coerce.ToString(arg)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
		argv[i] = s
	}
	return argv, nil
}

// VerifyTestLayout checks that a tests tree mirrors a source tree:
// every source file dir/name.ext must have a counterpart test file
// testsPath/dir/name_test.ext. Each checked file is reported as a work
// item; the relative paths of sources missing a test are assigned to
// the missing ref and fail the action.
//
// Entries named "testdata" or "vendor", entries starting with "." or
// "_", and files that are themselves test files are skipped.
type VerifyTestLayout struct {
	srcPath   any
	testsPath any
	missing   *values.Ref[[]string]
}

var _ engine.Action = (*VerifyTestLayout)(nil)

// NewVerifyTestLayout returns a VerifyTestLayout for the given
// resolvable source and tests directories.
func NewVerifyTestLayout(srcPath, testsPath any) *VerifyTestLayout {
	return &VerifyTestLayout{
		srcPath:   srcPath,
		testsPath: testsPath,
		missing:   values.EmptyRef[[]string](),
	}
}

// WithMissing makes the action assign the missing-test paths to ref.
func (v *VerifyTestLayout) WithMissing(ref *values.Ref[[]string]) *VerifyTestLayout {
	v.missing = ref
	return v
}

// Missing returns the ref holding the last execution's missing paths.
func (v *VerifyTestLayout) Missing() *values.Ref[[]string] {
	return v.missing
}

// Execute walks the source tree and verifies the mirrored test files.
func (v *VerifyTestLayout) Execute(c *engine.Context) error {
	src, err := resolvePathArg(c, v.srcPath, "source path")
	if err != nil {
		return err
	}
	tests, err := resolvePathArg(c, v.testsPath, "tests path")
	if err != nil {
		return err
	}

	missing := []string{}
	if err := v.verifyDir(c, src, tests, src, &missing); err != nil {
		return err
	}
	v.missing.Set(missing)
	if len(missing) > 0 {
		return fmt.Errorf("missing tests: %s", strings.Join(missing, ", "))
	}
	return nil
}

func (v *VerifyTestLayout) verifyDir(c *engine.Context, src, tests, dir string, missing *[]string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading %s: %w", dir, err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, entry := range entries {
		child := filepath.Join(dir, entry.Name())
		if skipEntry(entry.Name()) {
			c.Status().Detail("Skipping " + child)
			continue
		}
		if entry.IsDir() {
			if err := v.verifyDir(c, src, tests, child, missing); err != nil {
				return err
			}
			continue
		}

		rel, err := filepath.Rel(src, child)
		if err != nil {
			return err
		}
		expected := testName(rel)
		c.Status().StartItem(rel)
		if _, statErr := os.Stat(filepath.Join(tests, expected)); statErr != nil {
			c.Status().FinishItem(engine.ItemFailed, nil)
			*missing = append(*missing, rel)
			c.Status().Detail(fmt.Sprintf("Test file for %q not found: %s", rel, expected))
		} else {
			c.Status().FinishItem(engine.ItemDone, nil)
		}
	}
	return nil
}

// testName maps a relative source path to its mirrored test path by
// inserting "_test" before the file extension.
func testName(rel string) string {
	ext := filepath.Ext(rel)
	return strings.TrimSuffix(rel, ext) + "_test" + ext
}

func skipEntry(name string) bool {
	if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") {
		return true
	}
	if name == "testdata" || name == "vendor" {
		return true
	}
	base := strings.TrimSuffix(name, filepath.Ext(name))
	return strings.HasSuffix(base, "_test")
}

func resolvePathArg(c *engine.Context, value any, what string) (string, error) {
	resolved, err := engine.Resolve(c, value)
	if err != nil {
		return "", err
	}
	path, err := coerce.ToPath(resolved)
	if err != nil {
		return "", fmt.Errorf("%s: %w", what, err)
	}
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return "", fmt.Errorf("%s must be a directory: %s", what, path)
	}
	return path, nil
}
