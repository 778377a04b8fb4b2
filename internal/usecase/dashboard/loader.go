// Package dashboard loads engagement records for a meeting and turns them
// into the dashboard view model.
package dashboard

import (
	"context"
	"sync"

	"github.com/johnquangdev/silent-contributor/internal/domain/engagement"
)

// Status is the lifecycle stage of a Loader
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusLoaded
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusLoaded:
		return "loaded"
	case StatusFailed:
		return "failed"
	}
	return "unknown"
}

// State is a snapshot of a Loader. Records is set only when Loaded and
// Err only when Failed.
type State struct {
	Status  Status
	Records []engagement.Record
	Err     error
}

// Resolved reports whether the load has finished either way
func (s State) Resolved() bool {
	return s.Status == StatusLoaded || s.Status == StatusFailed
}

// FetchFunc produces the records of one load
type FetchFunc func(ctx context.Context) ([]engagement.Record, error)

// Loader runs a single fetch and resolves exactly once, to Loaded or
// Failed. A Loader is not reusable.
type Loader struct {
	fetch FetchFunc

	mu     sync.Mutex
	state  State
	cancel context.CancelFunc
	done   chan struct{}
}

// NewLoader creates an idle loader
func NewLoader(fetch FetchFunc) *Loader {
	return &Loader{
		fetch: fetch,
		state: State{Status: StatusIdle},
		done:  make(chan struct{}),
	}
}

// Start moves Idle to Loading and runs the fetch in the background. It
// returns false if the loader was already started or cancelled.
func (l *Loader) Start(ctx context.Context) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state.Status != StatusIdle {
		return false
	}

	fetchCtx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	l.state = State{Status: StatusLoading}

	go func() {
		defer cancel()
		records, err := l.fetch(fetchCtx)
		if err == nil && fetchCtx.Err() != nil {
			err = fetchCtx.Err()
		}

		l.mu.Lock()
		defer l.mu.Unlock()
		l.resolveLocked(records, err)
	}()
	return true
}

// Cancel aborts the fetch. An unresolved loader resolves to Failed with
// context.Canceled.
func (l *Loader) Cancel() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.cancel != nil {
		l.cancel()
	}
	l.resolveLocked(nil, context.Canceled)
}

// Wait blocks until the loader resolves or ctx is done, then returns the
// current state
func (l *Loader) Wait(ctx context.Context) State {
	select {
	case <-l.done:
	case <-ctx.Done():
	}
	return l.State()
}

// Done is closed once the loader resolves
func (l *Loader) Done() <-chan struct{} {
	return l.done
}

// State returns the current state
func (l *Loader) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

func (l *Loader) resolveLocked(records []engagement.Record, err error) {
	if l.state.Resolved() {
		return
	}
	if err != nil {
		l.state = State{Status: StatusFailed, Err: err}
	} else {
		if records == nil {
			records = []engagement.Record{}
		}
		l.state = State{Status: StatusLoaded, Records: records}
	}
	close(l.done)
}
