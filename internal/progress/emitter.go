// Package progress bridges engine callbacks, which fire on worker
// goroutines, into per-client event streams. The emitter never writes to a
// connection itself; it posts finished event structs onto the owning
// session's outbound queue and lets the session's write loop do the send.
package progress

import (
	"math"
	"path/filepath"
	"sync"
	"time"

	"github.com/datallboy/gotube/internal/domain"
	"github.com/datallboy/gotube/internal/protocol"
	"github.com/datallboy/gotube/internal/registry"
)

// DefaultInterval caps progress emissions per job. Engines tick far more
// often than clients can usefully render.
const DefaultInterval = 200 * time.Millisecond

// Sink receives finished events for delivery to one client. Implementations
// must be safe for concurrent use and must not block; delivery to a dead
// client is dropped, never raised.
type Sink interface {
	Deliver(v any)
}

// Emitter normalizes raw engine ticks for a single job. All emissions for the
// job route through it sequentially, which is what keeps per-job event
// ordering intact.
type Emitter struct {
	jobID    string
	reg      *registry.Registry
	sink     Sink
	interval time.Duration

	mu       sync.Mutex
	lastEmit time.Time
}

func NewEmitter(jobID string, reg *registry.Registry, sink Sink) *Emitter {
	return &Emitter{
		jobID:    jobID,
		reg:      reg,
		sink:     sink,
		interval: DefaultInterval,
	}
}

// Tick is the engine progress callback. Throttled to one emission per
// interval; the first tick always passes. An engine-reported error forces the
// job terminal immediately, without waiting for pool cleanup.
func (e *Emitter) Tick(t domain.ProgressTick) {
	if t.Err != nil {
		e.Failed(t.Err.Error())
		return
	}

	e.mu.Lock()
	now := time.Now()
	if !e.lastEmit.IsZero() && now.Sub(e.lastEmit) < e.interval {
		e.mu.Unlock()
		return
	}
	e.lastEmit = now
	e.mu.Unlock()

	snap := domain.Progress{
		Percentage: round1(Percentage(t.Downloaded, t.Total)),
		Downloaded: FormatBytes(t.Downloaded),
		Total:      FormatBytes(t.Total),
		Speed:      FormatSpeed(t.Speed),
		ETA:        FormatETA(t.ETA, t.HasETA),
		Filename:   baseFilename(t.Filename),
	}

	// A tick that loses to a terminal transition is dropped entirely: no
	// events after completed/error.
	if !e.reg.RecordProgress(e.jobID, snap) {
		return
	}

	e.sink.Deliver(protocol.NewProgress(e.jobID, snap))
}

// Completed emits the terminal completion event if this job has not already
// reached a terminal state. Reports whether the event was emitted.
func (e *Emitter) Completed(artifact domain.Artifact) bool {
	if !e.reg.Complete(e.jobID, artifact) {
		return false
	}
	e.sink.Deliver(protocol.NewCompleted(e.jobID, artifact))
	return true
}

// Failed emits the terminal error event if this job has not already reached a
// terminal state. Reports whether the event was emitted.
func (e *Emitter) Failed(message string) bool {
	if !e.reg.Fail(e.jobID, message) {
		return false
	}
	e.sink.Deliver(protocol.NewError(e.jobID, message))
	return true
}

func round1(f float64) float64 {
	return math.Round(f*10) / 10
}

// baseFilename strips the directory, with a placeholder for ticks that carry
// no filename yet.
func baseFilename(path string) string {
	if path == "" {
		return "Unknown"
	}
	return filepath.Base(path)
}
