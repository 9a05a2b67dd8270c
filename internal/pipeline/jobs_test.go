package pipeline

import (
	"testing"
	"time"
)

func TestJobLifecycle(t *testing.T) {
	job := NewJob("norma.pdf", "", []byte("raw"))
	if job.ID == "" {
		t.Fatal("job missing id")
	}
	if job.Status != StatusQueued {
		t.Errorf("status = %s", job.Status)
	}

	job.SetStatus(StatusExtracting, "extract")
	job.SetTitle("Norma 1462")
	job.SetPages(12)
	job.SetTotalChunks(40)
	job.ChunkEnriched(false)
	job.ChunkEnriched(true)
	job.SetIndexCounts(38, 2, 40)

	snap := job.Snapshot()
	if snap.Status != StatusExtracting || snap.Phase != "extract" {
		t.Errorf("snapshot status = %s/%s", snap.Status, snap.Phase)
	}
	if snap.Title != "Norma 1462" || snap.Pages != 12 {
		t.Errorf("snapshot = %+v", snap)
	}
	p := snap.Progress
	if p.TotalChunks != 40 || p.ChunksEnriched != 2 || p.Fallbacks != 1 {
		t.Errorf("progress = %+v", p)
	}
	if p.Embedded != 38 || p.Placeholders != 2 || p.Stored != 40 {
		t.Errorf("index counts = %+v", p)
	}
	if p.Errors == nil {
		t.Error("snapshot errors must be non-nil for JSON")
	}
}

func TestJobErrors(t *testing.T) {
	job := NewJob("f.pdf", "", nil)
	job.AddError("first")
	job.AddError("second")
	snap := job.Snapshot()
	if len(snap.Progress.Errors) != 2 || snap.Progress.Errors[1] != "second" {
		t.Errorf("errors = %v", snap.Progress.Errors)
	}
}

func TestReleaseFileData(t *testing.T) {
	job := NewJob("f.pdf", "", []byte("payload"))
	if string(job.FileData()) != "payload" {
		t.Fatal("file data lost")
	}
	job.ReleaseFileData()
	if job.FileData() != nil {
		t.Error("file data retained after release")
	}
}

func TestJobStore(t *testing.T) {
	store := NewJobStore(time.Hour)
	job := NewJob("a.pdf", "", nil)
	store.Put(job)

	if got := store.Get(job.ID); got != job {
		t.Error("Get did not return the stored job")
	}
	if got := store.Get("missing"); got != nil {
		t.Error("Get for unknown id should be nil")
	}
	if snaps := store.Snapshots(); len(snaps) != 1 || snaps[0].ID != job.ID {
		t.Errorf("snapshots = %+v", snaps)
	}
}

func TestJobStoreCleanup(t *testing.T) {
	store := NewJobStore(10 * time.Millisecond)
	job := NewJob("a.pdf", "", nil)
	store.Put(job)

	job.mu.Lock()
	job.UpdatedAt = time.Now().Add(-time.Minute)
	job.mu.Unlock()

	store.Cleanup()
	if store.Get(job.ID) != nil {
		t.Error("expired job survived cleanup")
	}
}
