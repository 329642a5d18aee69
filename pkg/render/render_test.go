package render

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/jobforge/jobforge/pkg/engine"
)

// demoJob exercises scopes, sections, items, output, and a skip.
func demoJob() *engine.Job {
	report := engine.ActionFunc(func(c *engine.Context) error {
		return c.Status().Section("Checking sources", func() error {
			_ = c.Status().Item("main.go", func() error { return nil })
			c.Status().Info("All sources present.")
			c.Status().Detail("Cache was warm.")
			c.Status().Output("hello\n", "stdout")
			return nil
		})
	})
	return engine.NewJob("demo").Add(
		engine.NewStage("build").Add(
			engine.NewStep("compile", report),
			engine.NewStep("flaky", engine.ActionFunc(func(*engine.Context) error { return nil }),
				engine.WithRunIf(engine.Never)),
		),
	)
}

func renderRun(t *testing.T, listener engine.StatusListener) {
	t.Helper()
	c := engine.NewContext(context.Background(), engine.WithListener(listener))
	if err := engine.NewRunner().Run(c, demoJob()); err != nil {
		t.Fatalf("run failed: %v", err)
	}
}

func TestMarkdownWriterRendersRun(t *testing.T) {
	var buf bytes.Buffer
	renderRun(t, NewMarkdownWriter(&buf, CollapsibleOutput(true)))
	out := buf.String()

	for _, want := range []string{
		"## Job demo\n",
		"### Stage build\n",
		"#### Step compile\n",
		"**Checking sources**\n",
		"- :white_check_mark: main.go\n",
		"All sources present.\n",
		"<details><summary>stdout</summary>",
		"```\nhello\n```",
		"> :fast_forward: Skipping Step flaky: Never\n",
		":white_check_mark: Job demo passed\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in output:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Cache was warm.") {
		t.Error("detail messages should be hidden by default")
	}
}

func TestMarkdownWriterShowDetail(t *testing.T) {
	var buf bytes.Buffer
	renderRun(t, NewMarkdownWriter(&buf, ShowDetail(true)))
	if !strings.Contains(buf.String(), "_Cache was warm._") {
		t.Errorf("detail message should render in italics:\n%s", buf.String())
	}
}

func TestMarkdownWriterPlainOutput(t *testing.T) {
	var buf bytes.Buffer
	renderRun(t, NewMarkdownWriter(&buf))
	out := buf.String()
	if strings.Contains(out, "<details>") {
		t.Error("output should not be collapsible by default")
	}
	if !strings.Contains(out, "**stdout**\n\n```\nhello\n```") {
		t.Errorf("labeled fenced output missing:\n%s", out)
	}
}

func TestMarkdownWriterFailedItem(t *testing.T) {
	var buf bytes.Buffer
	w := NewMarkdownWriter(&buf)
	c := engine.NewContext(context.Background(), engine.WithListener(w))
	c.Status().StartItem("beta.go")
	c.Status().FinishItem(engine.ItemFailed, nil)
	if !strings.Contains(buf.String(), "- :x: beta.go\n") {
		t.Errorf("failed item marker missing:\n%s", buf.String())
	}
}

func TestConsoleWriterRendersRun(t *testing.T) {
	var buf bytes.Buffer
	renderRun(t, NewConsoleWriter(&buf))
	out := buf.String()

	for _, want := range []string{
		"Job demo",
		"Stage build",
		"Step compile",
		"Checking sources",
		"main.go: done",
		"All sources present.",
		"hello",
		"Skipping Step flaky: Never",
		"passed",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in output:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Cache was warm.") {
		t.Error("detail messages should be hidden by default")
	}
}

func TestConsoleWriterIndentsByDepth(t *testing.T) {
	var buf bytes.Buffer
	renderRun(t, NewConsoleWriter(&buf))

	var jobIndent, stageIndent, stepIndent int
	for _, line := range strings.Split(buf.String(), "\n") {
		trimmed := strings.TrimLeft(line, " ")
		indent := len(line) - len(trimmed)
		switch {
		case strings.Contains(trimmed, "Job demo") && jobIndent == 0:
			jobIndent = indent + 1
		case strings.Contains(trimmed, "Stage build") && stageIndent == 0:
			stageIndent = indent + 1
		case strings.Contains(trimmed, "Step compile") && stepIndent == 0:
			stepIndent = indent + 1
		}
	}
	if !(jobIndent < stageIndent && stageIndent < stepIndent) {
		t.Errorf("indent should grow with depth: job=%d stage=%d step=%d",
			jobIndent-1, stageIndent-1, stepIndent-1)
	}
}

func TestConsoleWriterErrorsAndWarnings(t *testing.T) {
	var buf bytes.Buffer
	w := NewConsoleWriter(&buf)
	c := engine.NewContext(context.Background(), engine.WithListener(w))
	c.Status().Warning(errString("disk almost full"))
	c.RecordError(errString("boom"))
	out := buf.String()
	if !strings.Contains(out, "warning: disk almost full") {
		t.Errorf("warning missing:\n%s", out)
	}
	if !strings.Contains(out, "error: boom") {
		t.Errorf("error missing:\n%s", out)
	}
}

type errString string

func (e errString) Error() string { return string(e) }
