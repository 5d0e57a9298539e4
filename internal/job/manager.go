package job

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Manager is the registry of jobs, keyed by uuid.
type Manager struct {
	mu   sync.RWMutex
	jobs map[string]*Job
}

// NewManager creates an empty job registry.
func NewManager() *Manager {
	return &Manager{
		jobs: make(map[string]*Job),
	}
}

// CreateJob registers a new pending job and returns it together with the
// context its workers must honor.
func (m *Manager) CreateJob() (*Job, context.Context) {
	ctx, cancel := context.WithCancel(context.Background())

	job := &Job{
		status: Status{
			ID:        uuid.NewString(),
			Status:    StatusPending,
			Message:   "Job created",
			StartTime: time.Now(),
		},
		cancelFunc: cancel,
	}

	m.mu.Lock()
	m.jobs[job.ID()] = job
	m.mu.Unlock()
	return job, ctx
}

// GetJob retrieves a job by ID.
func (m *Manager) GetJob(jobID string) (*Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	job, exists := m.jobs[jobID]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, jobID)
	}
	return job, nil
}

// CancelJob cancels a pending or processing job. The pool observes the
// cancelled context and tears its workers down cooperatively.
func (m *Manager) CancelJob(jobID string) error {
	job, err := m.GetJob(jobID)
	if err != nil {
		return err
	}

	if state := job.Snapshot().Status; state != StatusProcessing && state != StatusPending {
		return fmt.Errorf("%w: %s", ErrInvalidState, state)
	}

	job.cancelFunc()
	return nil
}

// ListJobs returns all jobs ordered by start time, oldest first.
func (m *Manager) ListJobs() []*Job {
	m.mu.RLock()
	defer m.mu.RUnlock()
	jobs := make([]*Job, 0, len(m.jobs))
	for _, job := range m.jobs {
		jobs = append(jobs, job)
	}
	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i].Snapshot().StartTime.Before(jobs[j].Snapshot().StartTime)
	})
	return jobs
}
