package comps

import (
	"sync"
	"time"
)

// DefaultAutosaveDelay is the quiet period before staged notes are flushed.
const DefaultAutosaveDelay = 500 * time.Millisecond

// Autosave debounces note saves: every staged edit cancels the pending
// timer and starts a new one, so the store file is only rewritten after a
// quiet period. Flush forces the pending save immediately and must run
// before any operation that assumes the file is current (delete, rename,
// switching comps, shutdown). Saves serialize on the repository, so no two
// writes are ever in flight.
type Autosave struct {
	repo    *Repository
	delay   time.Duration
	onError func(error)

	mu      sync.Mutex
	timer   *time.Timer
	pending bool
}

// NewAutosave creates an autosave wrapper around repo. delay <= 0 selects
// DefaultAutosaveDelay. onError, if non-nil, receives failures from
// timer-driven saves (which have no caller to report to).
func NewAutosave(repo *Repository, delay time.Duration, onError func(error)) *Autosave {
	if delay <= 0 {
		delay = DefaultAutosaveDelay
	}
	return &Autosave{repo: repo, delay: delay, onError: onError}
}

// StageNotes updates the comp's notes in memory and (re)schedules the
// debounced save.
func (a *Autosave) StageNotes(name, notes string) error {
	if err := a.repo.StageNotes(name, notes); err != nil {
		return err
	}

	a.mu.Lock()
	a.pending = true
	if a.timer == nil {
		a.timer = time.AfterFunc(a.delay, a.fire)
	} else {
		a.timer.Reset(a.delay)
	}
	a.mu.Unlock()
	return nil
}

// Flush cancels any pending timer and saves immediately when an edit is
// outstanding. A no-op otherwise.
func (a *Autosave) Flush() error {
	a.mu.Lock()
	if a.timer != nil {
		a.timer.Stop()
	}
	wasPending := a.pending
	a.pending = false
	a.mu.Unlock()

	if !wasPending {
		return nil
	}
	return a.repo.Save()
}

// Pending reports whether a staged edit is waiting for the timer.
func (a *Autosave) Pending() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.pending
}

func (a *Autosave) fire() {
	a.mu.Lock()
	if !a.pending {
		a.mu.Unlock()
		return
	}
	a.pending = false
	a.mu.Unlock()

	if err := a.repo.Save(); err != nil && a.onError != nil {
		a.onError(err)
	}
}
