package ws

import (
	"encoding/json"
	"time"

	"github.com/segmentio/ksuid"

	"github.com/datallboy/gotube/internal/app"
	"github.com/datallboy/gotube/internal/domain"
	"github.com/datallboy/gotube/internal/engine"
	"github.com/datallboy/gotube/internal/progress"
	"github.com/datallboy/gotube/internal/protocol"
	"github.com/datallboy/gotube/internal/registry"
)

// Router interprets inbound control messages and invokes the dispatcher or
// registry. Unrecognized or malformed messages are logged and skipped; the
// session stays alive.
type Router struct {
	app  *app.Context
	reg  *registry.Registry
	pool *engine.Pool
}

func NewRouter(appCtx *app.Context, reg *registry.Registry, pool *engine.Pool) *Router {
	return &Router{
		app:  appCtx,
		reg:  reg,
		pool: pool,
	}
}

// Handle dispatches one raw inbound frame for the given session.
func (r *Router) Handle(sessionID string, sink progress.Sink, raw []byte) {
	var cmd protocol.Command
	if err := json.Unmarshal(raw, &cmd); err != nil {
		r.app.Logger.Warn("Session %s: malformed message: %v", sessionID, err)
		return
	}

	switch cmd.Type {
	case protocol.TypeStartDownload:
		r.startDownload(sessionID, sink, cmd)
	case protocol.TypeGetDownloads:
		r.sendDownloads(sessionID, sink)
	default:
		r.app.Logger.Warn("Session %s: unknown message type %q", sessionID, cmd.Type)
	}
}

func (r *Router) startDownload(sessionID string, sink progress.Sink, cmd protocol.Command) {
	if cmd.URL == "" {
		sink.Deliver(protocol.NewError("", "url is required"))
		return
	}

	quality := cmd.Quality
	if quality == "" {
		quality = "best"
	}

	job := &domain.Job{
		ID:        ksuid.New().String(),
		URL:       cmd.URL,
		Quality:   quality,
		SessionID: sessionID,
		Status:    domain.StatusStarting,
		CreatedAt: time.Now(),
	}

	if err := r.reg.Create(job); err != nil {
		r.app.Logger.Error("Session %s: register job: %v", sessionID, err)
		sink.Deliver(protocol.NewError("", "could not register download"))
		return
	}

	// The acknowledgment is enqueued before the dispatcher sees the job, so
	// it always precedes the job's first progress event.
	sink.Deliver(protocol.NewDownloadStarted(job.ID))

	r.app.Logger.Info("Session %s: job %s queued for %s (%s)", sessionID, job.ID, cmd.URL, quality)

	err := r.pool.Submit(engine.Submission{
		JobID:   job.ID,
		URL:     cmd.URL,
		Quality: quality,
		Sink:    sink,
	})
	if err != nil {
		r.app.Logger.Warn("Session %s: job %s rejected: %v", sessionID, job.ID, err)
		r.reg.Fail(job.ID, err.Error())
		sink.Deliver(protocol.NewError(job.ID, err.Error()))
	}
}

func (r *Router) sendDownloads(sessionID string, sink progress.Sink) {
	sink.Deliver(protocol.NewDownloadsStatus(r.reg.Snapshot(sessionID)))
}
