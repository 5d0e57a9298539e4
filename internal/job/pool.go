// Package job tracks transcoding batches and runs them on a bounded pool.
package job

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/FelixdelasPozas/transcodertomp3-sub000/config"
	"github.com/FelixdelasPozas/transcodertomp3-sub000/internal/covergate"
	"github.com/FelixdelasPozas/transcodertomp3-sub000/internal/domain"
	"github.com/FelixdelasPozas/transcodertomp3-sub000/internal/playlist"
	"github.com/FelixdelasPozas/transcodertomp3-sub000/internal/progress"
	"github.com/FelixdelasPozas/transcodertomp3-sub000/internal/transcode"
)

// worker is the per-source unit of work the pool drives.
type worker interface {
	Run(ctx context.Context) error
	Outputs() []string
}

// Pool runs one transcode worker per source with bounded concurrency.
// A failing source is recorded on the job and does not stop the batch;
// cancellation stops everything cooperatively.
type Pool struct {
	cfg       *config.Config
	manager   *Manager
	observe   func(progress.Event)
	newWorker func(opts transcode.Options) worker
}

// NewPool creates a pool reporting into manager. observe, when non-nil,
// receives every progress event from every worker (for UI rendering); it
// may be called from multiple goroutines.
func NewPool(cfg *config.Config, manager *Manager, observe func(progress.Event)) *Pool {
	return &Pool{
		cfg:     cfg,
		manager: manager,
		observe: observe,
		newWorker: func(opts transcode.Options) worker {
			return transcode.New(opts)
		},
	}
}

// Process transcodes the batch and blocks until every worker finished or
// the job was cancelled. The returned Status is registered with the
// manager, so a concurrent caller can cancel it by ID.
func (p *Pool) Process(ctx context.Context, sources []domain.Source) (*Job, error) {
	if len(sources) == 0 {
		return nil, ErrNoSources
	}

	job, jobCtx := p.manager.CreateJob()
	// Outside cancellation (signals, parent timeouts) funnels into the
	// job's own context.
	stop := context.AfterFunc(ctx, job.cancelFunc)
	defer stop()

	maxWorkers := p.cfg.Workers
	if maxWorkers < 1 {
		slog.Warn("invalid worker count, using default",
			"workers", p.cfg.Workers, "default", DefaultMaxConcurrentTasks)
		maxWorkers = DefaultMaxConcurrentTasks
	}
	semaphore := make(chan struct{}, maxWorkers)
	gate := covergate.New()

	total := len(sources)
	job.setState(StatusProcessing, fmt.Sprintf("Transcoding %d files", total))
	slog.Info("Starting job", "id", job.ID(), "sources", total, "workers", maxWorkers)

	var wg sync.WaitGroup
	var completed atomic.Int64
	for _, source := range sources {
		wg.Add(1)
		go func(source domain.Source) {
			defer wg.Done()

			select {
			case <-jobCtx.Done():
				return
			default:
			}

			select {
			case semaphore <- struct{}{}:
			case <-jobCtx.Done():
				return
			}
			defer func() { <-semaphore }()

			tracker := progress.NewTracker(source.Path)
			tracker.AddListener(func(ev progress.Event) {
				job.addEvent(ev)
				if p.observe != nil {
					p.observe(ev)
				}
			})

			w := p.newWorker(transcode.Options{
				Source:  source,
				Config:  p.cfg,
				Gate:    gate,
				Tracker: tracker,
			})
			if err := w.Run(jobCtx); err != nil {
				if !errors.Is(err, context.Canceled) {
					job.addError(fmt.Sprintf("%s: %v", filepath.Base(source.Path), err))
					slog.Error("Transcode failed", "source", source.Path, "error", err)
				}
				return
			}

			job.addOutputs(w.Outputs())
			done := completed.Add(1)
			job.setProgress(float64(done) * 100 / float64(total))
		}(source)
	}
	wg.Wait()

	snap := job.Snapshot()
	switch {
	case jobCtx.Err() != nil:
		job.finish(StatusCancelled, "Job cancelled")
	case len(snap.Outputs) == 0 && len(snap.Errors) > 0:
		job.finish(StatusFailed, "All sources failed")
	default:
		p.writePlaylists(job)
		job.finish(StatusCompleted,
			fmt.Sprintf("Transcoded %d of %d files", completed.Load(), total))
	}

	final := job.Snapshot()
	slog.Info("Job finished", "id", final.ID, "status", final.Status,
		"outputs", len(final.Outputs), "errors", len(final.Errors))
	return job, nil
}

// writePlaylists emits one M3U per output directory when configured.
func (p *Pool) writePlaylists(job *Job) {
	if !p.cfg.CreatePlaylist {
		return
	}
	byDir := make(map[string][]string)
	for _, out := range job.Snapshot().Outputs {
		dir := filepath.Dir(out)
		byDir[dir] = append(byDir[dir], out)
	}
	for dir, tracks := range byDir {
		sort.Strings(tracks)
		path, err := playlist.Write(dir, tracks)
		if err != nil {
			job.addError(fmt.Sprintf("playlist %s: %v", dir, err))
			continue
		}
		job.addOutputs([]string{path})
	}
}
