package stores

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jobforge/jobforge/pkg/engine"
)

// Recorder is a status listener that persists a run into a Store: the
// run row itself, one scope result per visited scope, and the event
// log. The outermost scope of the run is recorded as the run.
type Recorder struct {
	engine.BaseStatusListener

	store Store
	runID string

	rootID string
	open   map[string]string // scope ID to scope result row ID
}

var _ engine.StatusListener = (*Recorder)(nil)

// NewRecorder returns a Recorder writing to store under a fresh run ID.
func NewRecorder(store Store) *Recorder {
	return &Recorder{
		store: store,
		runID: uuid.NewString(),
		open:  map[string]string{},
	}
}

// RunID returns the ID the run is recorded under.
func (r *Recorder) RunID() string {
	return r.runID
}

func scopePath(c *engine.Context) string {
	return strings.Join(c.ScopeNames(), "/")
}

func resultStatus(status engine.ScopeStatus) ScopeResultStatus {
	switch status {
	case engine.StatusPassed:
		return ScopeResultPassed
	case engine.StatusFailed:
		return ScopeResultFailed
	case engine.StatusSkipped:
		return ScopeResultSkipped
	default:
		return ScopeResultRunning
	}
}

func (r *Recorder) StartScope(c *engine.Context, scope engine.Scope) error {
	now := time.Now().UTC()
	std := c.StdContext()

	if r.rootID == "" {
		r.rootID = scope.ID()
		run := &Run{
			ID:        r.runID,
			Job:       scope.Name(),
			Status:    RunStatusRunning,
			StartedAt: now,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := r.store.CreateRun(std, run); err != nil {
			return err
		}
	}

	result := &ScopeResult{
		ID:        uuid.NewString(),
		RunID:     r.runID,
		Path:      scopePath(c),
		Type:      string(scope.Type()),
		Name:      scope.Name(),
		Status:    ScopeResultRunning,
		StartedAt: &now,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := r.store.CreateScopeResult(std, result); err != nil {
		return err
	}
	r.open[scope.ID()] = result.ID
	return nil
}

func (r *Recorder) FinishScope(c *engine.Context, scope engine.Scope) error {
	std := c.StdContext()
	status := resultStatus(c.ScopeStatus(scope))

	if rowID, ok := r.open[scope.ID()]; ok {
		delete(r.open, scope.ID())
		if err := r.store.FinishScopeResult(std, rowID, status); err != nil {
			return err
		}
	}

	if scope.ID() != r.rootID {
		return nil
	}
	r.rootID = ""

	runStatus := RunStatusPassed
	var errMsg *string
	if status == ScopeResultFailed {
		runStatus = RunStatusFailed
		messages := make([]string, 0, len(c.AllErrors()))
		for _, err := range c.AllErrors() {
			messages = append(messages, err.Error())
		}
		joined := strings.Join(messages, "\n")
		errMsg = &joined
	}
	return r.store.FinishRun(std, r.runID, runStatus, errMsg)
}

func (r *Recorder) SkipScope(c *engine.Context, scope engine.Scope, reason string) error {
	// Skipped scopes never enter the stack; extend the current path.
	path := scope.Name()
	if parent := scopePath(c); parent != "" {
		path = parent + "/" + scope.Name()
	}

	now := time.Now().UTC()
	result := &ScopeResult{
		ID:        uuid.NewString(),
		RunID:     r.runID,
		Path:      path,
		Type:      string(scope.Type()),
		Name:      scope.Name(),
		Status:    ScopeResultSkipped,
		Reason:    &reason,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return r.store.CreateScopeResult(c.StdContext(), result)
}

func (r *Recorder) appendEvent(c *engine.Context, level EventLevel, label, message string) error {
	event := &Event{
		RunID:     r.runID,
		Level:     level,
		Message:   message,
		Timestamp: time.Now().UTC(),
	}
	if path := scopePath(c); path != "" {
		event.Scope = &path
	}
	if label != "" {
		event.Label = &label
	}
	return r.store.AppendEvent(c.StdContext(), event)
}

func (r *Recorder) Info(c *engine.Context, message string) error {
	return r.appendEvent(c, EventLevelInfo, "", message)
}

func (r *Recorder) Detail(c *engine.Context, message string) error {
	return r.appendEvent(c, EventLevelDetail, "", message)
}

func (r *Recorder) Warning(c *engine.Context, err error) error {
	return r.appendEvent(c, EventLevelWarning, "", err.Error())
}

func (r *Recorder) Error(c *engine.Context, err error) error {
	return r.appendEvent(c, EventLevelError, "", err.Error())
}

func (r *Recorder) Output(c *engine.Context, output string, label string) error {
	return r.appendEvent(c, EventLevelOutput, label, output)
}
