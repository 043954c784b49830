// Package engine runs download jobs on a bounded worker pool, entirely off
// the connection-handling path. Sessions only ever touch Submit, which never
// blocks.
package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/datallboy/gotube/internal/app"
	"github.com/datallboy/gotube/internal/domain"
	"github.com/datallboy/gotube/internal/progress"
	"github.com/datallboy/gotube/internal/registry"
)

// Submission is one accepted download handed off by the command router. The
// job must already exist in the registry as "starting".
type Submission struct {
	JobID   string
	URL     string
	Quality string
	Sink    progress.Sink
}

// Pool is a fixed set of workers draining a bounded submissions queue. The
// worker count caps concurrent engine calls; the queue absorbs bursts and
// rejects overflow instead of growing without bound.
type Pool struct {
	app *app.Context
	reg *registry.Registry

	// mu serializes sends on jobs with the close of jobs, so a submission
	// racing shutdown is rejected instead of panicking.
	mu     sync.Mutex
	closed bool

	jobs      chan Submission
	wg        sync.WaitGroup
	closeOnce sync.Once
}

func NewPool(appCtx *app.Context, reg *registry.Registry) *Pool {
	return &Pool{
		app:  appCtx,
		reg:  reg,
		jobs: make(chan Submission, appCtx.Config.Pool.QueueSize),
	}
}

// Start launches the workers. They exit when ctx is cancelled or the pool is
// closed.
func (p *Pool) Start(ctx context.Context) {
	for w := 1; w <= p.app.Config.Pool.Workers; w++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			p.worker(ctx)
		}()
	}
}

// Submit enqueues work without blocking. A saturated queue or a closed pool
// returns domain.ErrQueueFull so the caller can apply backpressure.
func (p *Pool) Submit(sub Submission) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return domain.ErrQueueFull
	}

	select {
	case p.jobs <- sub:
		return nil
	default:
		return domain.ErrQueueFull
	}
}

// Close stops intake and waits for queued and in-flight jobs to finish.
// Submissions arriving after Close are rejected, never a panic: sessions can
// still issue commands while the HTTP server drains.
func (p *Pool) Close() {
	p.closeOnce.Do(func() {
		p.mu.Lock()
		p.closed = true
		close(p.jobs)
		p.mu.Unlock()
	})
	p.wg.Wait()
}

func (p *Pool) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case sub, ok := <-p.jobs:
			if !ok {
				return
			}
			p.run(ctx, sub)
		}
	}
}

// run executes one job to its terminal state. Job-level failures never leave
// this function; the session and its other jobs are unaffected.
func (p *Pool) run(ctx context.Context, sub Submission) {
	emitter := progress.NewEmitter(sub.JobID, p.reg, sub.Sink)
	p.reg.MarkDownloading(sub.JobID)

	req := domain.DownloadRequest{
		URL:     sub.URL,
		Quality: sub.Quality,
		OutDir:  p.app.Config.Download.OutDir,
	}

	result, err := p.app.Engine.Download(ctx, req, emitter.Tick)
	if err != nil {
		p.app.Logger.Error("Job %s failed: %v", sub.JobID, err)
		emitter.Failed(fmt.Sprintf("Download failed: %v", err))
		return
	}

	// Engine success is not job success: the produced file must exist on
	// disk before the job may complete.
	info, err := os.Stat(result.Path)
	if err != nil {
		p.app.Logger.Error("Job %s: artifact %s missing after engine success", sub.JobID, result.Path)
		emitter.Failed(domain.ErrMissingArtifact.Error())
		return
	}

	artifact := domain.Artifact{
		Filename: filepath.Base(result.Path),
		Path:     result.Path,
		Size:     progress.FormatSizeMB(info.Size()),
	}

	if emitter.Completed(artifact) {
		p.app.Logger.Info("Job %s completed: %s (%s)", sub.JobID, artifact.Filename, artifact.Size)
	}
}
