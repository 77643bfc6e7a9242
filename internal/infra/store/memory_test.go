package store

import (
	"testing"
	"time"

	"agent-task-bridge/internal/domain"
	"agent-task-bridge/internal/domain/model"
)

func newJob(id string, status model.JobStatus) *model.Job {
	now := time.Now()
	return &model.Job{
		ID:        id,
		AgentID:   "agent-1",
		CallerID:  "caller-1",
		ChannelID: "chan-" + id,
		Prompt:    "hello",
		Status:    status,
		CreatedAt: now,
		ExpiresAt: now.Add(time.Minute),
	}
}

func TestMemoryStore_InsertAndGet(t *testing.T) {
	s := NewMemoryStore()

	if err := s.Insert(newJob("j1", model.JobStatusPending)); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := s.Insert(newJob("j1", model.JobStatusPending)); err != domain.ErrAlreadyExists {
		t.Fatalf("want ErrAlreadyExists, got %v", err)
	}

	got, ok := s.Get("j1")
	if !ok {
		t.Fatalf("job not found")
	}
	if got.ID != "j1" || got.Status != model.JobStatusPending {
		t.Fatalf("unexpected job: %+v", got)
	}

	// Mutating the snapshot must not leak into the table.
	got.Status = model.JobStatusCompleted
	again, _ := s.Get("j1")
	if again.Status != model.JobStatusPending {
		t.Fatalf("snapshot mutation leaked into store")
	}

	if _, ok := s.Get("missing"); ok {
		t.Fatalf("want not found")
	}
}

func TestMemoryStore_UpdateIsCompareAndSet(t *testing.T) {
	s := NewMemoryStore()
	if err := s.Insert(newJob("j1", model.JobStatusProcessing)); err != nil {
		t.Fatalf("insert: %v", err)
	}

	won := s.Update("j1", func(j *model.Job) bool {
		if j.Status != model.JobStatusProcessing {
			return false
		}
		j.Status = model.JobStatusCompleted
		return true
	})
	if !won {
		t.Fatalf("first transition should win")
	}

	won = s.Update("j1", func(j *model.Job) bool {
		if j.Status != model.JobStatusProcessing {
			return false
		}
		j.Status = model.JobStatusTimeout
		return true
	})
	if won {
		t.Fatalf("second transition should lose")
	}

	got, _ := s.Get("j1")
	if got.Status != model.JobStatusCompleted {
		t.Fatalf("want completed, got %s", got.Status)
	}

	if s.Update("missing", func(j *model.Job) bool { return true }) {
		t.Fatalf("update on absent id should report false")
	}
}

func TestMemoryStore_DeleteForEachLen(t *testing.T) {
	s := NewMemoryStore()
	for _, id := range []string{"a", "b", "c"} {
		if err := s.Insert(newJob(id, model.JobStatusPending)); err != nil {
			t.Fatalf("insert %s: %v", id, err)
		}
	}
	if s.Len() != 3 {
		t.Fatalf("want 3, got %d", s.Len())
	}

	s.Delete("b")
	s.Delete("b") // idempotent
	if s.Len() != 2 {
		t.Fatalf("want 2, got %d", s.Len())
	}

	seen := map[string]bool{}
	s.ForEach(func(j *model.Job) { seen[j.ID] = true })
	if !seen["a"] || !seen["c"] || seen["b"] {
		t.Fatalf("unexpected iteration set: %v", seen)
	}
}
