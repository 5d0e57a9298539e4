// Package progress delivers per-worker progress, information and error
// events to registered listeners. Events are emitted in the order the worker
// produces them; no ordering is guaranteed across workers.
package progress

import (
	"sync"
	"time"
)

// Stage represents the current stage of a transcode.
type Stage string

const (
	StagePending   Stage = "pending"
	StagePlanning  Stage = "planning"
	StageDecoding  Stage = "decoding"
	StageComplete  Stage = "complete"
	StageCancelled Stage = "cancelled"
	StageError     Stage = "error"
)

// Event is one progress notification.
type Event struct {
	Source    string    `json:"source"`
	Stage     Stage     `json:"stage"`
	Percent   int       `json:"percent"`
	Message   string    `json:"message,omitempty"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Tracker tracks one worker's progress. Percent is monotonically
// non-decreasing and only emitted when it changes, so listeners are not
// flooded on every packet.
type Tracker struct {
	mu        sync.RWMutex
	source    string
	stage     Stage
	percent   int
	listeners []func(Event)
}

// NewTracker creates a tracker for one source file.
func NewTracker(source string) *Tracker {
	return &Tracker{source: source, stage: StagePending}
}

// AddListener registers a listener for subsequent events.
func (t *Tracker) AddListener(listener func(Event)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.listeners = append(t.listeners, listener)
}

// SetStage moves the tracker to a new stage and notifies listeners.
func (t *Tracker) SetStage(stage Stage) {
	t.mu.Lock()
	t.stage = stage
	ev := t.eventLocked("")
	t.mu.Unlock()
	t.notify(ev)
}

// SetPercent reports progress in [0, 100]. Regressions and repeats are
// dropped.
func (t *Tracker) SetPercent(p int) {
	if p < 0 {
		p = 0
	}
	if p > 100 {
		p = 100
	}
	t.mu.Lock()
	if p <= t.percent {
		t.mu.Unlock()
		return
	}
	t.percent = p
	ev := t.eventLocked("")
	t.mu.Unlock()
	t.notify(ev)
}

// Info emits a human-readable status line.
func (t *Tracker) Info(message string) {
	t.mu.RLock()
	ev := t.eventLocked(message)
	t.mu.RUnlock()
	t.notify(ev)
}

// Fail emits an error message. It does not itself terminate the worker or
// change the stage; several may be emitted before the final failure, which
// is signalled separately via SetStage(StageError).
func (t *Tracker) Fail(message string) {
	t.mu.RLock()
	ev := t.eventLocked("")
	ev.Error = message
	t.mu.RUnlock()
	t.notify(ev)
}

// Percent returns the last reported progress.
func (t *Tracker) Percent() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.percent
}

// Stage returns the current stage.
func (t *Tracker) Stage() Stage {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.stage
}

func (t *Tracker) eventLocked(message string) Event {
	return Event{
		Source:    t.source,
		Stage:     t.stage,
		Percent:   t.percent,
		Message:   message,
		Timestamp: time.Now(),
	}
}

func (t *Tracker) notify(ev Event) {
	t.mu.RLock()
	listeners := t.listeners
	t.mu.RUnlock()
	for _, listener := range listeners {
		listener(ev)
	}
}
