package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jobforge/jobforge/pkg/engine"
)

var (
	scopeStyleJob   = lipgloss.NewStyle().Foreground(lipgloss.Color("#5B8DEF")).Bold(true)
	scopeStyleStage = lipgloss.NewStyle().Foreground(lipgloss.Color("#B180EF")).Bold(true)
	scopeStyleStep  = lipgloss.NewStyle().Foreground(lipgloss.Color("#CCCCCC")).Bold(true)

	statusStylePassed  = lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50")).Bold(true)
	statusStyleFailed  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true)
	statusStyleSkipped = lipgloss.NewStyle().Foreground(lipgloss.Color("#999999"))

	sectionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F7B801"))
	detailStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#A0AEC0"))
	outputStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F7B801"))
)

// ConsoleWriter renders run progress for terminals with lipgloss
// styling, indenting by scope depth.
type ConsoleWriter struct {
	engine.BaseStatusListener

	out        io.Writer
	showDetail bool

	pendingItem string
}

var _ engine.StatusListener = (*ConsoleWriter)(nil)

// ConsoleOption adjusts a ConsoleWriter.
type ConsoleOption func(*ConsoleWriter)

// ConsoleShowDetail includes low-importance detail messages.
func ConsoleShowDetail(show bool) ConsoleOption {
	return func(w *ConsoleWriter) { w.showDetail = show }
}

// NewConsoleWriter returns a ConsoleWriter writing to out.
func NewConsoleWriter(out io.Writer, opts ...ConsoleOption) *ConsoleWriter {
	w := &ConsoleWriter{out: out}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// scopeIndent indents one level per enclosing scope. StartScope fires
// with the scope already on the stack, so the scope itself is excluded.
func scopeIndent(c *engine.Context) string {
	depth := len(c.ScopeStack())
	if depth > 0 {
		depth--
	}
	return strings.Repeat("  ", depth)
}

// bodyIndent indents content nested inside the current scope.
func bodyIndent(c *engine.Context) string {
	return strings.Repeat("  ", len(c.ScopeStack()))
}

func (w *ConsoleWriter) println(indent, line string) {
	fmt.Fprintln(w.out, indent+line)
}

func scopeStyle(typ engine.ScopeType) lipgloss.Style {
	switch typ {
	case engine.TypeJob:
		return scopeStyleJob
	case engine.TypeStage:
		return scopeStyleStage
	default:
		return scopeStyleStep
	}
}

func statusStyle(status engine.ScopeStatus) lipgloss.Style {
	switch status {
	case engine.StatusPassed:
		return statusStylePassed
	case engine.StatusFailed:
		return statusStyleFailed
	default:
		return statusStyleSkipped
	}
}

func (w *ConsoleWriter) StartScope(c *engine.Context, scope engine.Scope) error {
	label := scopeStyle(scope.Type()).Render(engine.ScopeLabel(scope))
	w.println(scopeIndent(c), label)
	return nil
}

func (w *ConsoleWriter) FinishScope(c *engine.Context, scope engine.Scope) error {
	status := c.ScopeStatus(scope)
	line := fmt.Sprintf("%s %s", engine.ScopeLabel(scope), statusStyle(status).Render(string(status)))
	w.println(scopeIndent(c), line)
	return nil
}

func (w *ConsoleWriter) SkipScope(c *engine.Context, scope engine.Scope, reason string) error {
	line := statusStyleSkipped.Render(fmt.Sprintf("Skipping %s: %s", engine.ScopeLabel(scope), reason))
	w.println(bodyIndent(c), line)
	return nil
}

func (w *ConsoleWriter) StartSection(c *engine.Context, name string) error {
	w.println(bodyIndent(c), sectionStyle.Render(name))
	return nil
}

func (w *ConsoleWriter) StartItem(_ *engine.Context, description string) error {
	w.pendingItem = description
	return nil
}

func (w *ConsoleWriter) FinishItem(c *engine.Context, outcome engine.ItemOutcome, err error) error {
	line := fmt.Sprintf("- %s: %s", w.pendingItem, outcome)
	if err != nil {
		line += fmt.Sprintf(" (%v)", err)
	}
	if outcome == engine.ItemFailed {
		line = errorStyle.Render(line)
	}
	w.println(bodyIndent(c), line)
	w.pendingItem = ""
	return nil
}

func (w *ConsoleWriter) Info(c *engine.Context, message string) error {
	w.println(bodyIndent(c), message)
	return nil
}

func (w *ConsoleWriter) Detail(c *engine.Context, message string) error {
	if w.showDetail {
		w.println(bodyIndent(c), detailStyle.Render(message))
	}
	return nil
}

func (w *ConsoleWriter) Error(c *engine.Context, err error) error {
	w.println(bodyIndent(c), errorStyle.Render(fmt.Sprintf("error: %v", err)))
	return nil
}

func (w *ConsoleWriter) Warning(c *engine.Context, err error) error {
	w.println(bodyIndent(c), warningStyle.Render(fmt.Sprintf("warning: %v", err)))
	return nil
}

func (w *ConsoleWriter) Output(c *engine.Context, output string, label string) error {
	indent := bodyIndent(c)
	if label != "" {
		w.println(indent, outputStyle.Render(label+":"))
	}
	for _, line := range strings.Split(strings.TrimRight(output, "\n"), "\n") {
		w.println(indent+"  ", outputStyle.Render(line))
	}
	return nil
}
