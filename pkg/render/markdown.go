// Package render provides status listeners that turn run progress into
// human-readable output: GitHub-flavored markdown for CI summaries and
// a styled console renderer for terminals.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/jobforge/jobforge/pkg/engine"
)

// MarkdownWriter renders run progress as GitHub-flavored markdown,
// suitable for job summaries. Scopes become headings, sections bold
// paragraphs, items a task list, and captured output fenced code
// blocks, optionally wrapped in collapsible details elements.
type MarkdownWriter struct {
	engine.BaseStatusListener

	out         io.Writer
	showDetail  bool
	collapsible bool

	pendingItem string
}

var _ engine.StatusListener = (*MarkdownWriter)(nil)

// MarkdownOption adjusts a MarkdownWriter.
type MarkdownOption func(*MarkdownWriter)

// ShowDetail includes low-importance detail messages in the output.
func ShowDetail(show bool) MarkdownOption {
	return func(w *MarkdownWriter) { w.showDetail = show }
}

// CollapsibleOutput wraps captured command output in details elements
// so long logs stay folded by default.
func CollapsibleOutput(collapsible bool) MarkdownOption {
	return func(w *MarkdownWriter) { w.collapsible = collapsible }
}

// NewMarkdownWriter returns a MarkdownWriter writing to out.
func NewMarkdownWriter(out io.Writer, opts ...MarkdownOption) *MarkdownWriter {
	w := &MarkdownWriter{out: out}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *MarkdownWriter) printf(format string, args ...any) {
	fmt.Fprintf(w.out, format, args...)
}

func headingLevel(typ engine.ScopeType) string {
	switch typ {
	case engine.TypeJob:
		return "##"
	case engine.TypeStage:
		return "###"
	default:
		return "####"
	}
}

func statusMark(status engine.ScopeStatus) string {
	switch status {
	case engine.StatusPassed:
		return ":white_check_mark:"
	case engine.StatusFailed:
		return ":x:"
	case engine.StatusSkipped:
		return ":fast_forward:"
	default:
		return ":hourglass:"
	}
}

func (w *MarkdownWriter) StartScope(_ *engine.Context, scope engine.Scope) error {
	w.printf("%s %s\n\n", headingLevel(scope.Type()), engine.ScopeLabel(scope))
	return nil
}

func (w *MarkdownWriter) FinishScope(c *engine.Context, scope engine.Scope) error {
	status := c.ScopeStatus(scope)
	w.printf("%s %s %s\n\n", statusMark(status), engine.ScopeLabel(scope), status)
	return nil
}

func (w *MarkdownWriter) SkipScope(_ *engine.Context, scope engine.Scope, reason string) error {
	w.printf("> :fast_forward: Skipping %s: %s\n\n", engine.ScopeLabel(scope), reason)
	return nil
}

func (w *MarkdownWriter) StartSection(_ *engine.Context, name string) error {
	w.printf("**%s**\n\n", name)
	return nil
}

func (w *MarkdownWriter) StartItem(_ *engine.Context, description string) error {
	w.pendingItem = description
	return nil
}

func (w *MarkdownWriter) FinishItem(_ *engine.Context, outcome engine.ItemOutcome, err error) error {
	mark := ":white_check_mark:"
	switch outcome {
	case engine.ItemFailed:
		mark = ":x:"
	case engine.ItemSkipped:
		mark = ":fast_forward:"
	}
	w.printf("- %s %s", mark, w.pendingItem)
	if err != nil {
		w.printf(" (%v)", err)
	}
	w.printf("\n")
	w.pendingItem = ""
	return nil
}

func (w *MarkdownWriter) Info(_ *engine.Context, message string) error {
	w.printf("%s\n\n", message)
	return nil
}

func (w *MarkdownWriter) Detail(_ *engine.Context, message string) error {
	if w.showDetail {
		w.printf("_%s_\n\n", message)
	}
	return nil
}

func (w *MarkdownWriter) Error(_ *engine.Context, err error) error {
	w.printf("> :x: %v\n\n", err)
	return nil
}

func (w *MarkdownWriter) Warning(_ *engine.Context, err error) error {
	w.printf("> :warning: %v\n\n", err)
	return nil
}

func (w *MarkdownWriter) Output(_ *engine.Context, output string, label string) error {
	body := strings.TrimRight(output, "\n")
	if w.collapsible {
		w.printf("<details><summary>%s</summary>\n\n```\n%s\n```\n\n</details>\n\n", summaryLabel(label), body)
		return nil
	}
	if label != "" {
		w.printf("**%s**\n\n", label)
	}
	w.printf("```\n%s\n```\n\n", body)
	return nil
}

func summaryLabel(label string) string {
	if label == "" {
		return "output"
	}
	return label
}
