package stores

import (
	"context"
	"database/sql"
	"time"
)

// RunStatus represents the status of a recorded job run.
type RunStatus string

const (
	RunStatusRunning RunStatus = "running"
	RunStatusPassed  RunStatus = "passed"
	RunStatusFailed  RunStatus = "failed"
)

// ScopeResultStatus represents the recorded outcome of a single scope.
type ScopeResultStatus string

const (
	ScopeResultRunning ScopeResultStatus = "running"
	ScopeResultPassed  ScopeResultStatus = "passed"
	ScopeResultFailed  ScopeResultStatus = "failed"
	ScopeResultSkipped ScopeResultStatus = "skipped"
)

// EventLevel represents the severity level of a run event.
type EventLevel string

const (
	EventLevelInfo    EventLevel = "info"
	EventLevelDetail  EventLevel = "detail"
	EventLevelWarning EventLevel = "warning"
	EventLevelError   EventLevel = "error"
	EventLevelOutput  EventLevel = "output"
)

// Run represents one execution of a job.
type Run struct {
	ID          string     `json:"id"`
	Job         string     `json:"job"`
	Status      RunStatus  `json:"status"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Error       *string    `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// ScopeResult represents the recorded outcome of one scope in a run.
type ScopeResult struct {
	ID          string            `json:"id"`
	RunID       string            `json:"run_id"`
	Path        string            `json:"path"` // scope names joined by "/"
	Type        string            `json:"type"` // job, stage, step
	Name        string            `json:"name"`
	Status      ScopeResultStatus `json:"status"`
	Reason      *string           `json:"reason,omitempty"` // skip reason
	StartedAt   *time.Time        `json:"started_at,omitempty"`
	CompletedAt *time.Time        `json:"completed_at,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// Event represents an append-only run log event.
type Event struct {
	ID        int64      `json:"id"`
	RunID     string     `json:"run_id"`
	Scope     *string    `json:"scope,omitempty"` // scope path, if any
	Level     EventLevel `json:"level"`
	Label     *string    `json:"label,omitempty"` // output label, if any
	Message   string     `json:"message"`
	Timestamp time.Time  `json:"timestamp"`
}

// Store defines the interface for the run-history persistence layer.
type Store interface {
	// Lifecycle
	Init(ctx context.Context) error
	Close() error
	Migrate(ctx context.Context) error

	// Transaction support
	BeginTx(ctx context.Context) (*sql.Tx, error)
	CommitTx(tx *sql.Tx) error
	RollbackTx(tx *sql.Tx) error

	// Run operations
	CreateRun(ctx context.Context, run *Run) error
	GetRun(ctx context.Context, id string) (*Run, error)
	FinishRun(ctx context.Context, id string, status RunStatus, errMsg *string) error
	ListRuns(ctx context.Context, limit, offset int) ([]*Run, error)
	DeleteRun(ctx context.Context, id string) error

	// ScopeResult operations
	CreateScopeResult(ctx context.Context, result *ScopeResult) error
	FinishScopeResult(ctx context.Context, id string, status ScopeResultStatus) error
	ListScopeResults(ctx context.Context, runID string) ([]*ScopeResult, error)

	// Event operations
	AppendEvent(ctx context.Context, event *Event) error
	ListEvents(ctx context.Context, runID string, level *EventLevel, limit, offset int) ([]*Event, error)

	// Utility
	HealthCheck(ctx context.Context) error
}
