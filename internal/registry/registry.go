// Package registry is the single source of truth for in-flight job state.
// Worker goroutines and session handlers touch it concurrently; every
// mutation happens under the write lock and every read hands out a copy.
package registry

import (
	"sync"
	"time"

	"github.com/datallboy/gotube/internal/domain"
)

type Registry struct {
	mu   sync.RWMutex
	jobs map[string]*domain.Job
}

func New() *Registry {
	return &Registry{
		jobs: make(map[string]*domain.Job),
	}
}

// Create inserts a new job keyed by its ID. Duplicate IDs are rejected.
func (r *Registry) Create(job *domain.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.jobs[job.ID]; exists {
		return domain.ErrDuplicateJob
	}

	clone := *job
	if clone.CreatedAt.IsZero() {
		clone.CreatedAt = time.Now()
	}
	r.jobs[job.ID] = &clone
	return nil
}

// Get returns a point-in-time snapshot of the job.
func (r *Registry) Get(id string) (domain.Job, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	job, ok := r.jobs[id]
	if !ok {
		return domain.Job{}, false
	}
	return *job, true
}

// BySession returns snapshots of all jobs owned by the session.
func (r *Registry) BySession(sessionID string) []domain.Job {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var jobs []domain.Job
	for _, job := range r.jobs {
		if job.SessionID == sessionID {
			jobs = append(jobs, *job)
		}
	}
	return jobs
}

// Snapshot returns the session's jobs keyed by id, for status responses.
func (r *Registry) Snapshot(sessionID string) map[string]domain.Job {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]domain.Job)
	for id, job := range r.jobs {
		if job.SessionID == sessionID {
			out[id] = *job
		}
	}
	return out
}

// MarkDownloading moves a starting job to downloading. Terminal jobs are
// left untouched.
func (r *Registry) MarkDownloading(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if job, ok := r.jobs[id]; ok && !job.Status.Terminal() {
		job.Status = domain.StatusDownloading
	}
}

// RecordProgress stores the latest snapshot and reports whether it was
// accepted. Dropped once the job is terminal so late callbacks cannot
// resurrect a finished job.
func (r *Registry) RecordProgress(id string, p domain.Progress) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[id]
	if !ok || job.Status.Terminal() {
		return false
	}

	job.Status = domain.StatusDownloading
	job.Progress = p
	return true
}

// Complete transitions the job to completed and reports whether this call won
// the terminal transition. Exactly one of Complete/Fail wins per job.
func (r *Registry) Complete(id string, artifact domain.Artifact) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[id]
	if !ok || job.Status.Terminal() {
		return false
	}

	job.Status = domain.StatusCompleted
	job.Artifact = artifact
	job.Progress.Percentage = 100
	return true
}

// Fail transitions the job to error and reports whether this call won the
// terminal transition.
func (r *Registry) Fail(id string, message string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[id]
	if !ok || job.Status.Terminal() {
		return false
	}

	job.Status = domain.StatusError
	job.Error = message
	return true
}

// Prune drops terminal jobs older than the cutoff. The registry otherwise
// retains jobs for the life of the process.
func (r *Registry) Prune(olderThan time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := time.Now().Add(-olderThan)
	removed := 0
	for id, job := range r.jobs {
		if job.Status.Terminal() && job.CreatedAt.Before(cutoff) {
			delete(r.jobs, id)
			removed++
		}
	}
	return removed
}
