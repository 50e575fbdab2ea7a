package tui

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rs/zerolog"
)

// KeyEvent represents a keyboard event.
type KeyEvent struct {
	Key  tcell.Key
	Rune rune
	Mod  tcell.ModMask
}

// App is the dashboard controller: it polls the fetcher on a ticker and
// redraws the screen after every refresh and key press.
type App struct {
	model   *Model
	view    *View
	fetcher SnapshotFetcher
	screen  tcell.Screen
	log     zerolog.Logger

	// Channels
	stopChan    chan struct{}
	keyChan     chan KeyEvent
	refreshChan chan struct{}

	// Synchronization
	mu        sync.RWMutex
	renderMu  sync.Mutex
	running   bool
	finalized bool // guarded by renderMu
	stopOnce  sync.Once

	// Key debouncing for Windows
	lastKeyTime time.Time
	lastKey     tcell.Key
	lastRune    rune
}

// NewApp creates a dashboard for model fed by fetcher.
func NewApp(fetcher SnapshotFetcher, model *Model, log zerolog.Logger) *App {
	return &App{
		model:       model,
		view:        NewView(),
		fetcher:     fetcher,
		log:         log.With().Str("component", "tui").Logger(),
		stopChan:    make(chan struct{}),
		keyChan:     make(chan KeyEvent, 10),
		refreshChan: make(chan struct{}, 1),
	}
}

// SetScreen replaces the terminal screen. Must be called before Run.
func (a *App) SetScreen(screen tcell.Screen) {
	a.screen = screen
}

// Run initializes the terminal and runs until ctx is done, Stop is called,
// or the operator quits.
func (a *App) Run(ctx context.Context) error {
	if a.screen == nil {
		screen, err := tcell.NewScreen()
		if err != nil {
			return fmt.Errorf("failed to create screen: %w", err)
		}
		a.screen = screen
	}
	if err := a.screen.Init(); err != nil {
		return fmt.Errorf("failed to initialize screen: %w", err)
	}
	a.screen.DisableMouse()
	a.screen.Clear()

	a.mu.Lock()
	a.running = true
	a.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		a.pollEvents(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		a.refreshLoop(ctx)
	}()

	a.render()
	a.requestRefresh()

	shutdown := func() error {
		cancel()
		a.renderMu.Lock()
		a.finalized = true
		a.screen.Fini()
		a.renderMu.Unlock()
		wg.Wait()

		a.mu.Lock()
		a.running = false
		a.mu.Unlock()
		return nil
	}

	for {
		select {
		case <-a.stopChan:
			return shutdown()
		case <-ctx.Done():
			return shutdown()
		case event := <-a.keyChan:
			if a.handleKeyEvent(event) {
				return shutdown()
			}
			a.render()
		}
	}
}

// Stop makes Run return. It is safe to call more than once.
func (a *App) Stop() {
	a.stopOnce.Do(func() { close(a.stopChan) })
}

// IsRunning returns whether Run is active.
func (a *App) IsRunning() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.running
}

// GetModel returns the current model (for testing).
func (a *App) GetModel() *Model {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.model
}

// pollEvents forwards terminal events until the screen is finalized.
func (a *App) pollEvents(ctx context.Context) {
	for {
		ev := a.screen.PollEvent()
		if ev == nil {
			return
		}

		switch e := ev.(type) {
		case *tcell.EventKey:
			select {
			case a.keyChan <- KeyEvent{Key: e.Key(), Rune: e.Rune(), Mod: e.Modifiers()}:
			case <-ctx.Done():
				return
			}
		case *tcell.EventResize:
			a.screen.Sync()
			a.render()
		}
	}
}

// refreshLoop refreshes on every tick and on every explicit request.
func (a *App) refreshLoop(ctx context.Context) {
	ticker := time.NewTicker(a.model.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-a.refreshChan:
		}
		a.refresh(ctx)
		if ctx.Err() != nil {
			return
		}
		a.render()
	}
}

// requestRefresh asks refreshLoop for an immediate refresh. Requests made
// while one is already pending are dropped.
func (a *App) requestRefresh() {
	select {
	case a.refreshChan <- struct{}{}:
	default:
	}
}

// refresh fetches a snapshot and folds it into the model. The fetch runs
// without the lock so a slow node does not freeze key handling.
func (a *App) refresh(ctx context.Context) {
	snap, err := a.fetcher.Fetch(ctx)
	if err != nil && ctx.Err() != nil {
		return
	}
	if err != nil {
		a.log.Debug().Err(err).Msg("refresh failed")
	}

	a.mu.Lock()
	a.model.Apply(snap, err)
	a.mu.Unlock()
}

// render draws the current model to the screen.
func (a *App) render() {
	a.renderMu.Lock()
	defer a.renderMu.Unlock()
	if a.finalized {
		return
	}

	width, height := a.screen.Size()

	a.mu.RLock()
	buf := a.view.Render(a.model, width, height)
	a.mu.RUnlock()

	a.screen.Clear()
	buf.ApplyToScreen(a.screen)
	a.screen.Show()
}

// handleKeyEvent processes a key press. Returns true if the app should exit.
// Repeats of the same key within 200ms are ignored; Windows terminals emit
// them while a key is held.
func (a *App) handleKeyEvent(event KeyEvent) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := time.Now()
	if now.Sub(a.lastKeyTime) < 200*time.Millisecond &&
		a.lastKey == event.Key && a.lastRune == event.Rune {
		return false
	}
	a.lastKeyTime = now
	a.lastKey = event.Key
	a.lastRune = event.Rune

	switch {
	case event.Key == tcell.KeyCtrlC, event.Key == tcell.KeyEscape:
		return true
	case event.Rune == 'q' || event.Rune == 'Q':
		return true
	case event.Rune == 'r' || event.Rune == 'R':
		a.requestRefresh()
	}
	return false
}
