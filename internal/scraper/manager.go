package scraper

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrAlreadyRunning is returned when a run is started while one is active.
var ErrAlreadyRunning = errors.New("a scrape run is already running")

// Runner is anything the manager can execute as one run.
type Runner interface {
	Run(ctx context.Context) (*RunResult, error)
}

// ScrapeRun represents an active run.
type ScrapeRun struct {
	ID        uuid.UUID
	StartedAt time.Time
}

// Manager guards the ingestion pipeline so at most one run is active.
// Thread-safe.
type Manager struct {
	mu       sync.Mutex
	current  *ScrapeRun
	cancelFn context.CancelFunc
	runner   Runner
}

func NewManager(runner Runner) *Manager {
	return &Manager{runner: runner}
}

// Start launches a new run in the background.
// Returns ErrAlreadyRunning if one is active.
func (m *Manager) Start(_ context.Context) (*ScrapeRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current != nil {
		return nil, ErrAlreadyRunning
	}

	// detach from the caller's context: the run outlives the request that
	// triggered it and is stopped explicitly via Stop
	runCtx, cancel := context.WithCancel(context.Background())
	m.cancelFn = cancel

	run := &ScrapeRun{
		ID:        uuid.New(),
		StartedAt: time.Now(),
	}
	m.current = run

	go m.run(runCtx, run)

	return run, nil
}

// Stop cancels the current run. Safe to call when nothing is running.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cancelFn != nil {
		m.cancelFn()
		m.cancelFn = nil
	}
	m.current = nil
}

// Current returns the active run, or nil.
func (m *Manager) Current() *ScrapeRun {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

func (m *Manager) run(ctx context.Context, run *ScrapeRun) {
	defer func() {
		m.mu.Lock()
		if m.current != nil && m.current.ID == run.ID {
			m.current = nil
			m.cancelFn = nil
		}
		m.mu.Unlock()
	}()

	if m.runner != nil {
		// errors are logged inside the run itself
		_, _ = m.runner.Run(ctx)
	}
}
