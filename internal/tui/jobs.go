package tui

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

type jobKind string

type jobStatus string

const (
	jobKindPage     jobKind = "page"
	jobKindDetail   jobKind = "detail"
	jobKindFavorite jobKind = "favorite"
	jobKindDownload jobKind = "download"
)

const (
	jobStatusRunning   jobStatus = "running"
	jobStatusSucceeded jobStatus = "succeeded"
	jobStatusFailed    jobStatus = "failed"
	// jobStatusCanceled marks a job whose scope was cancelled while it ran.
	// Its payload belongs to state that no longer exists.
	jobStatusCanceled jobStatus = "canceled"
)

// jobSnapshot describes a job at its start or its end. Scope groups jobs
// that belong to one mounted list; unscoped jobs have an empty Scope.
type jobSnapshot struct {
	ID       string
	Kind     jobKind
	Scope    string
	Status   jobStatus
	Duration time.Duration
}

type jobSignalMsg struct {
	Snapshot jobSnapshot
}

type jobResultEnvelope struct {
	Snapshot jobSnapshot
	Payload  tea.Msg
}

type jobRunner func(context.Context) (tea.Msg, error)

type jobBus struct {
	mu      sync.Mutex
	counter int64
	logger  *slog.Logger
	running map[string]map[string]context.CancelFunc
}

func newJobBus(logger *slog.Logger) *jobBus {
	return &jobBus{
		logger:  logger.With("component", "jobs"),
		running: map[string]map[string]context.CancelFunc{},
	}
}

// Start announces the job, runs it off the update loop and delivers the
// payload wrapped in a jobResultEnvelope. Jobs started with a scope can be
// cancelled together with Cancel.
func (b *jobBus) Start(kind jobKind, scope string, runner jobRunner) tea.Cmd {
	signal, run := b.prepare(kind, scope, runner)
	return tea.Sequence(signal, run)
}

// prepare registers the job's context right away, so a Cancel issued before
// the command runs still reaches it.
func (b *jobBus) prepare(kind jobKind, scope string, runner jobRunner) (tea.Cmd, tea.Cmd) {
	ctx, cancel := context.WithCancel(context.Background())

	b.mu.Lock()
	b.counter++
	id := fmt.Sprintf("%s-%d", kind, b.counter)
	if scope != "" {
		if b.running[scope] == nil {
			b.running[scope] = map[string]context.CancelFunc{}
		}
		b.running[scope][id] = cancel
	}
	b.mu.Unlock()

	started := time.Now()
	signal := func() tea.Msg {
		return jobSignalMsg{Snapshot: jobSnapshot{ID: id, Kind: kind, Scope: scope, Status: jobStatusRunning}}
	}
	run := func() tea.Msg {
		defer b.finish(scope, id, cancel)
		payload, err := runner(ctx)
		snapshot := jobSnapshot{ID: id, Kind: kind, Scope: scope, Duration: time.Since(started)}
		switch {
		case ctx.Err() != nil:
			snapshot.Status = jobStatusCanceled
		case err != nil:
			snapshot.Status = jobStatusFailed
		default:
			snapshot.Status = jobStatusSucceeded
		}
		b.logger.Info("job finished", "id", id, "kind", kind, "scope", scope, "status", snapshot.Status, "duration", snapshot.Duration, "err", err)
		return jobResultEnvelope{Snapshot: snapshot, Payload: payload}
	}
	return signal, run
}

func (b *jobBus) finish(scope, id string, cancel context.CancelFunc) {
	cancel()
	if scope == "" {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.running[scope], id)
	if len(b.running[scope]) == 0 {
		delete(b.running, scope)
	}
}

// Cancel stops every running job in scope and reports how many it reached.
func (b *jobBus) Cancel(scope string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	jobs := b.running[scope]
	for _, cancel := range jobs {
		cancel()
	}
	delete(b.running, scope)
	if len(jobs) > 0 {
		b.logger.Debug("jobs cancelled", "scope", scope, "count", len(jobs))
	}
	return len(jobs)
}

// Running reports how many jobs in scope have not finished.
func (b *jobBus) Running(scope string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.running[scope])
}
