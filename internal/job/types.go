package job

import (
	"context"
	"sync"
	"time"

	"github.com/FelixdelasPozas/transcodertomp3-sub000/internal/progress"
)

// Constants for job status
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
	StatusCancelled  = "cancelled"
)

// DefaultMaxConcurrentTasks bounds the pool when the configuration does not.
const DefaultMaxConcurrentTasks = 4

// Status is the externally visible state of a transcoding job. A job
// covers one batch of source files; individual file failures are recorded
// in Errors without stopping the batch.
type Status struct {
	ID        string           `json:"id"`
	Status    string           `json:"status"`
	Progress  float64          `json:"progress"`
	Message   string           `json:"message"`
	Errors    []string         `json:"errors,omitempty"`
	Outputs   []string         `json:"outputs,omitempty"`
	Events    []progress.Event `json:"events"`
	StartTime time.Time        `json:"startTime"`
	EndTime   *time.Time       `json:"endTime,omitempty"`
}

// Job is the live, mutable record behind a Status. The pool writes it from
// worker goroutines; readers take snapshots.
type Job struct {
	mu         sync.RWMutex
	status     Status
	cancelFunc context.CancelFunc
}

// ID returns the job's identifier.
func (j *Job) ID() string {
	return j.status.ID
}

// Snapshot returns a copy of the current state, safe to read while the
// pool is still writing.
func (j *Job) Snapshot() Status {
	j.mu.RLock()
	defer j.mu.RUnlock()
	out := j.status
	out.Errors = append([]string(nil), j.status.Errors...)
	out.Outputs = append([]string(nil), j.status.Outputs...)
	out.Events = append([]progress.Event(nil), j.status.Events...)
	if j.status.EndTime != nil {
		t := *j.status.EndTime
		out.EndTime = &t
	}
	return out
}

func (j *Job) setState(state, message string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.status.Status = state
	j.status.Message = message
}

func (j *Job) setProgress(p float64) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if p > j.status.Progress {
		j.status.Progress = p
	}
}

func (j *Job) addError(msg string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.status.Errors = append(j.status.Errors, msg)
}

func (j *Job) addOutputs(paths []string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.status.Outputs = append(j.status.Outputs, paths...)
}

func (j *Job) addEvent(ev progress.Event) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.status.Events = append(j.status.Events, ev)
}

func (j *Job) finish(state, message string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.status.Status = state
	j.status.Message = message
	end := time.Now()
	j.status.EndTime = &end
}
