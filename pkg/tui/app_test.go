package tui

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rs/zerolog"

	"github.com/salahayoub/ethup/pkg/status"
)

// fakeFetcher returns a fixed snapshot and counts calls.
type fakeFetcher struct {
	mu    sync.Mutex
	snap  status.Snapshot
	err   error
	calls int
}

func (f *fakeFetcher) Fetch(ctx context.Context) (status.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.snap, f.err
}

func (f *fakeFetcher) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func newTestApp(fetcher SnapshotFetcher) *App {
	return NewApp(fetcher, NewModel("hoodi", time.Hour), zerolog.Nop())
}

func TestHandleKeyEventQuit(t *testing.T) {
	tests := []KeyEvent{
		{Key: tcell.KeyCtrlC},
		{Key: tcell.KeyEscape},
		{Key: tcell.KeyRune, Rune: 'q'},
		{Key: tcell.KeyRune, Rune: 'Q'},
	}
	for _, ev := range tests {
		app := newTestApp(&fakeFetcher{})
		if !app.handleKeyEvent(ev) {
			t.Errorf("key %+v should quit", ev)
		}
	}
}

func TestHandleKeyEventRefresh(t *testing.T) {
	app := newTestApp(&fakeFetcher{})

	if app.handleKeyEvent(KeyEvent{Key: tcell.KeyRune, Rune: 'r'}) {
		t.Fatal("r should not quit")
	}
	select {
	case <-app.refreshChan:
	default:
		t.Fatal("r should request a refresh")
	}

	// Same key again within the debounce window is dropped.
	app.handleKeyEvent(KeyEvent{Key: tcell.KeyRune, Rune: 'r'})
	select {
	case <-app.refreshChan:
		t.Fatal("repeated key should be debounced")
	default:
	}
}

func TestHandleKeyEventIgnoresOtherKeys(t *testing.T) {
	app := newTestApp(&fakeFetcher{})
	if app.handleKeyEvent(KeyEvent{Key: tcell.KeyRune, Rune: 'x'}) {
		t.Error("x should not quit")
	}
	if len(app.refreshChan) != 0 {
		t.Error("x should not request a refresh")
	}
}

func TestRequestRefreshCoalesces(t *testing.T) {
	app := newTestApp(&fakeFetcher{})
	app.requestRefresh()
	app.requestRefresh()
	if len(app.refreshChan) != 1 {
		t.Errorf("pending refreshes = %d, want 1", len(app.refreshChan))
	}
}

func TestRefreshAppliesSnapshot(t *testing.T) {
	fetcher := &fakeFetcher{snap: status.Snapshot{Execution: sampleExecution(7), TakenAt: time.Now()}}
	app := newTestApp(fetcher)

	app.refresh(context.Background())

	m := app.GetModel()
	if m.Execution == nil || m.Execution.HeadBlock != 7 {
		t.Errorf("model execution = %+v", m.Execution)
	}
	if m.Refreshes != 1 {
		t.Errorf("Refreshes = %d, want 1", m.Refreshes)
	}
}

func TestRefreshCanceledLeavesModel(t *testing.T) {
	fetcher := &fakeFetcher{err: context.Canceled}
	app := newTestApp(fetcher)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	app.refresh(ctx)

	if app.GetModel().Refreshes != 0 {
		t.Error("a refresh cut short by shutdown should not touch the model")
	}
}

func TestRefreshRecordsError(t *testing.T) {
	app := newTestApp(&fakeFetcher{err: errors.New("dial tcp: connection refused")})
	app.refresh(context.Background())

	if got := app.GetModel().ErrorMessage; got != "dial tcp: connection refused" {
		t.Errorf("ErrorMessage = %q", got)
	}
}

func startSimulated(t *testing.T, fetcher *fakeFetcher) (*App, tcell.SimulationScreen, chan error) {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	app := newTestApp(fetcher)
	app.SetScreen(screen)

	done := make(chan error, 1)
	go func() { done <- app.Run(context.Background()) }()

	deadline := time.Now().Add(5 * time.Second)
	for fetcher.Calls() == 0 || !app.IsRunning() {
		if time.Now().After(deadline) {
			t.Fatal("app never performed its first refresh")
		}
		time.Sleep(10 * time.Millisecond)
	}
	return app, screen, done
}

func waitRun(t *testing.T, done chan error) {
	t.Helper()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return")
	}
}

func TestRunStop(t *testing.T) {
	fetcher := &fakeFetcher{snap: status.Snapshot{Execution: sampleExecution(1), TakenAt: time.Now()}}
	app, _, done := startSimulated(t, fetcher)

	app.Stop()
	app.Stop()
	waitRun(t, done)

	if app.IsRunning() {
		t.Error("app should not be running after Stop")
	}
}

func TestRunQuitKey(t *testing.T) {
	fetcher := &fakeFetcher{snap: status.Snapshot{Execution: sampleExecution(1), TakenAt: time.Now()}}
	_, screen, done := startSimulated(t, fetcher)

	screen.InjectKey(tcell.KeyRune, 'q', tcell.ModNone)
	waitRun(t, done)
}

func TestRunContextCancel(t *testing.T) {
	screen := tcell.NewSimulationScreen("UTF-8")
	app := newTestApp(&fakeFetcher{})
	app.SetScreen(screen)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	waitRun(t, done)
}
