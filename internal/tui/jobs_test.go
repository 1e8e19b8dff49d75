package tui

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func TestJobBusCancelScope(t *testing.T) {
	bus := newJobBus(slog.New(slog.NewTextHandler(io.Discard, nil)))

	signal, run := bus.prepare(jobKindPage, "list-a", func(ctx context.Context) (tea.Msg, error) {
		<-ctx.Done()
		return pageResultMsg{listID: "list-a", err: ctx.Err()}, ctx.Err()
	})
	_, other := bus.prepare(jobKindDetail, "", func(context.Context) (tea.Msg, error) {
		return detailResultMsg{id: 7}, nil
	})

	start, ok := signal().(jobSignalMsg)
	if !ok || start.Snapshot.Scope != "list-a" || start.Snapshot.Status != jobStatusRunning {
		t.Fatalf("start signal = %+v", start)
	}
	if got := bus.Running("list-a"); got != 1 {
		t.Fatalf("Running(list-a) = %d, want 1", got)
	}
	if got := bus.Cancel("list-a"); got != 1 {
		t.Fatalf("Cancel(list-a) = %d, want 1", got)
	}

	env := run().(jobResultEnvelope)
	if env.Snapshot.Status != jobStatusCanceled || env.Snapshot.Kind != jobKindPage {
		t.Fatalf("cancelled snapshot = %+v", env.Snapshot)
	}
	if got := bus.Running("list-a"); got != 0 {
		t.Fatalf("Running(list-a) after finish = %d, want 0", got)
	}

	env = other().(jobResultEnvelope)
	if env.Snapshot.Status != jobStatusSucceeded {
		t.Fatalf("unscoped job status = %s, want succeeded", env.Snapshot.Status)
	}
}

func TestJobBusReportsFailure(t *testing.T) {
	bus := newJobBus(slog.New(slog.NewTextHandler(io.Discard, nil)))
	boom := errors.New("catalog unavailable")
	_, run := bus.prepare(jobKindDownload, "", func(context.Context) (tea.Msg, error) {
		return downloadResultMsg{imageID: "img-0001", err: boom}, boom
	})
	env := run().(jobResultEnvelope)
	if env.Snapshot.Status != jobStatusFailed {
		t.Fatalf("status = %s, want failed", env.Snapshot.Status)
	}
	if msg, ok := env.Payload.(downloadResultMsg); !ok || !errors.Is(msg.err, boom) {
		t.Fatalf("payload = %#v", env.Payload)
	}
	next, _ := bus.prepare(jobKindDownload, "", nil)
	if id := next().(jobSignalMsg).Snapshot.ID; id == env.Snapshot.ID {
		t.Fatalf("job ids repeat: %s", id)
	}
}
