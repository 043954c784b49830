package registry

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/datallboy/gotube/internal/domain"
)

func newJob(id, sessionID string) *domain.Job {
	return &domain.Job{
		ID:        id,
		URL:       "https://example.com/v/" + id,
		Quality:   "best",
		SessionID: sessionID,
		Status:    domain.StatusStarting,
	}
}

func TestCreateDuplicate(t *testing.T) {
	r := New()

	if err := r.Create(newJob("a", "s1")); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if err := r.Create(newJob("a", "s1")); !errors.Is(err, domain.ErrDuplicateJob) {
		t.Errorf("duplicate create = %v, want ErrDuplicateJob", err)
	}
}

func TestMutatorsOnUnknownJob(t *testing.T) {
	r := New()

	if r.RecordProgress("missing", domain.Progress{Percentage: 10}) {
		t.Error("RecordProgress accepted an unknown job")
	}
	if r.Complete("missing", domain.Artifact{}) {
		t.Error("Complete accepted an unknown job")
	}
	if r.Fail("missing", "x") {
		t.Error("Fail accepted an unknown job")
	}
}

func TestMarkDownloading(t *testing.T) {
	r := New()
	if err := r.Create(newJob("a", "s1")); err != nil {
		t.Fatal(err)
	}

	r.MarkDownloading("a")
	if job, _ := r.Get("a"); job.Status != domain.StatusDownloading {
		t.Errorf("status = %s, want downloading", job.Status)
	}

	// Terminal jobs stay terminal.
	r.Complete("a", domain.Artifact{Filename: "a.mp4"})
	r.MarkDownloading("a")
	if job, _ := r.Get("a"); job.Status != domain.StatusCompleted {
		t.Errorf("status = %s, want completed", job.Status)
	}
}

func TestGetReturnsSnapshot(t *testing.T) {
	r := New()
	if err := r.Create(newJob("a", "s1")); err != nil {
		t.Fatal(err)
	}

	snap, ok := r.Get("a")
	if !ok {
		t.Fatal("job not found")
	}

	// Mutating the snapshot must not touch registry state.
	snap.Status = domain.StatusError
	again, _ := r.Get("a")
	if again.Status != domain.StatusStarting {
		t.Errorf("registry state leaked through snapshot: %s", again.Status)
	}
}

func TestBySessionFiltersOwner(t *testing.T) {
	r := New()
	for i := 0; i < 3; i++ {
		if err := r.Create(newJob(fmt.Sprintf("mine-%d", i), "s1")); err != nil {
			t.Fatal(err)
		}
	}
	if err := r.Create(newJob("theirs", "s2")); err != nil {
		t.Fatal(err)
	}

	jobs := r.BySession("s1")
	if len(jobs) != 3 {
		t.Fatalf("BySession(s1) returned %d jobs, want 3", len(jobs))
	}
	for _, j := range jobs {
		if j.SessionID != "s1" {
			t.Errorf("job %s owned by %s leaked into s1's view", j.ID, j.SessionID)
		}
	}

	snap := r.Snapshot("s2")
	if len(snap) != 1 {
		t.Fatalf("Snapshot(s2) returned %d jobs, want 1", len(snap))
	}
	if _, ok := snap["theirs"]; !ok {
		t.Error("Snapshot(s2) missing job 'theirs'")
	}
}

func TestTerminalTransitionsAreMonotonic(t *testing.T) {
	t.Run("completed wins once", func(t *testing.T) {
		r := New()
		if err := r.Create(newJob("a", "s1")); err != nil {
			t.Fatal(err)
		}

		if !r.Complete("a", domain.Artifact{Filename: "a.mp4"}) {
			t.Fatal("first Complete should win")
		}
		if r.Complete("a", domain.Artifact{Filename: "b.mp4"}) {
			t.Error("second Complete should lose")
		}
		if r.Fail("a", "late failure") {
			t.Error("Fail after Complete should lose")
		}

		job, _ := r.Get("a")
		if job.Status != domain.StatusCompleted || job.Artifact.Filename != "a.mp4" {
			t.Errorf("job = %s/%s, want completed/a.mp4", job.Status, job.Artifact.Filename)
		}
	})

	t.Run("error wins once", func(t *testing.T) {
		r := New()
		if err := r.Create(newJob("a", "s1")); err != nil {
			t.Fatal(err)
		}

		if !r.Fail("a", "boom") {
			t.Fatal("first Fail should win")
		}
		if r.Complete("a", domain.Artifact{}) {
			t.Error("Complete after Fail should lose")
		}

		job, _ := r.Get("a")
		if job.Status != domain.StatusError || job.Error != "boom" {
			t.Errorf("job = %s/%q, want error/boom", job.Status, job.Error)
		}
	})

	t.Run("progress dropped after terminal", func(t *testing.T) {
		r := New()
		if err := r.Create(newJob("a", "s1")); err != nil {
			t.Fatal(err)
		}
		r.Fail("a", "boom")

		if r.RecordProgress("a", domain.Progress{Percentage: 50}) {
			t.Error("RecordProgress accepted after terminal state")
		}
		job, _ := r.Get("a")
		if job.Status != domain.StatusError {
			t.Errorf("status = %s, want error", job.Status)
		}
	})
}

func TestRecordProgressMarksDownloading(t *testing.T) {
	r := New()
	if err := r.Create(newJob("a", "s1")); err != nil {
		t.Fatal(err)
	}

	if !r.RecordProgress("a", domain.Progress{Percentage: 12.5, Downloaded: "1.0 MB"}) {
		t.Fatal("RecordProgress rejected for live job")
	}

	job, _ := r.Get("a")
	if job.Status != domain.StatusDownloading {
		t.Errorf("status = %s, want downloading", job.Status)
	}
	if job.Progress.Percentage != 12.5 {
		t.Errorf("percentage = %v, want 12.5", job.Progress.Percentage)
	}
}

func TestConcurrentAccess(t *testing.T) {
	r := New()
	const jobs = 20

	var wg sync.WaitGroup
	for i := 0; i < jobs; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := fmt.Sprintf("job-%d", n)
			if err := r.Create(newJob(id, "s1")); err != nil {
				t.Errorf("create %s: %v", id, err)
				return
			}
			for p := 0; p <= 100; p += 20 {
				r.RecordProgress(id, domain.Progress{Percentage: float64(p)})
				r.Get(id)
				r.BySession("s1")
			}
			r.Complete(id, domain.Artifact{Filename: id + ".mp4"})
		}(i)
	}
	wg.Wait()

	all := r.BySession("s1")
	if len(all) != jobs {
		t.Fatalf("got %d jobs, want %d", len(all), jobs)
	}
	for _, j := range all {
		if j.Status != domain.StatusCompleted {
			t.Errorf("job %s = %s, want completed", j.ID, j.Status)
		}
	}
}

func TestPrune(t *testing.T) {
	r := New()

	old := newJob("old", "s1")
	old.CreatedAt = time.Now().Add(-2 * time.Hour)
	if err := r.Create(old); err != nil {
		t.Fatal(err)
	}
	r.Complete("old", domain.Artifact{})

	live := newJob("live", "s1")
	live.CreatedAt = time.Now().Add(-2 * time.Hour)
	if err := r.Create(live); err != nil {
		t.Fatal(err)
	}

	if removed := r.Prune(time.Hour); removed != 1 {
		t.Errorf("Prune removed %d, want 1 (terminal only)", removed)
	}
	if _, ok := r.Get("old"); ok {
		t.Error("terminal job survived prune")
	}
	if _, ok := r.Get("live"); !ok {
		t.Error("non-terminal job was pruned")
	}
}
