package sched

import (
	"strconv"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"agent-task-bridge/internal/domain"
	"agent-task-bridge/internal/domain/model"
	"agent-task-bridge/internal/infra/store"
)

func newLogger() *zerolog.Logger { l := zerolog.Nop(); return &l }

func seedJob(t *testing.T, s *store.MemoryStore, id string, status model.JobStatus, createdAt time.Time, ttl time.Duration) {
	t.Helper()
	err := s.Insert(&model.Job{
		ID:        id,
		AgentID:   "agent-1",
		CallerID:  "caller-1",
		ChannelID: "chan-" + id,
		Prompt:    "p",
		Status:    status,
		CreatedAt: createdAt,
		ExpiresAt: createdAt.Add(ttl),
	})
	if err != nil {
		t.Fatalf("seed %s: %v", id, err)
	}
}

func TestSweep_DeletesExpiredTerminalJobs(t *testing.T) {
	s := store.NewMemoryStore()
	now := time.Now()
	seedJob(t, s, "done-old", model.JobStatusCompleted, now.Add(-time.Hour), time.Minute)
	seedJob(t, s, "failed-old", model.JobStatusFailed, now.Add(-time.Hour), time.Minute)
	seedJob(t, s, "done-fresh", model.JobStatusCompleted, now, time.Minute)

	w := NewSweeper(time.Second, s, 100, 0.10, newLogger())
	stats := w.Sweep(now)

	if stats.Deleted != 2 {
		t.Fatalf("want 2 deleted, got %d", stats.Deleted)
	}
	if _, ok := s.Get("done-old"); ok {
		t.Fatalf("expired terminal job not collected")
	}
	if _, ok := s.Get("done-fresh"); !ok {
		t.Fatalf("unexpired job must survive")
	}
}

func TestSweep_TimesOutExpiredInFlightJobs(t *testing.T) {
	s := store.NewMemoryStore()
	now := time.Now()
	seedJob(t, s, "stale", model.JobStatusProcessing, now.Add(-time.Hour), time.Minute)
	seedJob(t, s, "live", model.JobStatusProcessing, now, time.Minute)

	w := NewSweeper(time.Second, s, 100, 0.10, newLogger())
	stats := w.Sweep(now)

	if stats.TimedOut != 1 {
		t.Fatalf("want 1 timed out, got %d", stats.TimedOut)
	}
	got, _ := s.Get("stale")
	if got.Status != model.JobStatusTimeout || got.Error != domain.TimeoutErrorMessage {
		t.Fatalf("unexpected stale job: status=%s error=%q", got.Status, got.Error)
	}
	// Timed-out jobs are retained until a later pass collects them.
	if _, ok := s.Get("stale"); !ok {
		t.Fatalf("freshly timed-out job must stay observable")
	}
	live, _ := s.Get("live")
	if live.Status != model.JobStatusProcessing {
		t.Fatalf("live job must be untouched, got %s", live.Status)
	}
}

func TestSweep_SecondPassCollectsTimedOut(t *testing.T) {
	s := store.NewMemoryStore()
	now := time.Now()
	seedJob(t, s, "stale", model.JobStatusProcessing, now.Add(-time.Hour), time.Minute)

	w := NewSweeper(time.Second, s, 100, 0.10, newLogger())
	w.Sweep(now)
	stats := w.Sweep(now)

	if stats.Deleted != 1 {
		t.Fatalf("want the timed-out job collected, got %+v", stats)
	}
	if s.Len() != 0 {
		t.Fatalf("table should be empty, has %d", s.Len())
	}
}

func TestSweep_CapacityEvictionOldestFirst(t *testing.T) {
	s := store.NewMemoryStore()
	now := time.Now()
	// 20 in-flight jobs over a max of 10; none expired. Eviction ignores status.
	for i := 0; i < 20; i++ {
		seedJob(t, s, "j"+strconv.Itoa(i), model.JobStatusProcessing, now.Add(time.Duration(i)*time.Second), time.Hour)
	}

	w := NewSweeper(time.Second, s, 10, 0.10, newLogger())
	stats := w.Sweep(now)

	if stats.Evicted != 10 {
		t.Fatalf("want 10 evicted, got %d", stats.Evicted)
	}
	if s.Len() != 10 {
		t.Fatalf("capacity bound violated: %d > 10", s.Len())
	}
	// The oldest ten are gone, the newest ten survive.
	for i := 0; i < 10; i++ {
		if _, ok := s.Get("j" + strconv.Itoa(i)); ok {
			t.Fatalf("oldest job j%d should have been evicted", i)
		}
	}
	for i := 10; i < 20; i++ {
		if _, ok := s.Get("j" + strconv.Itoa(i)); !ok {
			t.Fatalf("newer job j%d should have survived", i)
		}
	}
	if w.EvictedTotal() != 10 {
		t.Fatalf("want eviction counter 10, got %d", w.EvictedTotal())
	}
}

func TestSweep_NoEvictionUnderCapacity(t *testing.T) {
	s := store.NewMemoryStore()
	now := time.Now()
	for i := 0; i < 5; i++ {
		seedJob(t, s, "j"+strconv.Itoa(i), model.JobStatusProcessing, now, time.Hour)
	}

	w := NewSweeper(time.Second, s, 10, 0.10, newLogger())
	stats := w.Sweep(now)

	if stats.Evicted != 0 || s.Len() != 5 {
		t.Fatalf("no eviction expected: evicted=%d len=%d", stats.Evicted, s.Len())
	}
}
