package sched

import (
	"context"
	"sort"
	"sync/atomic"
	"time"

	"agent-task-bridge/internal/domain"
	"agent-task-bridge/internal/domain/model"
	"agent-task-bridge/internal/domain/ports/repository"
	"agent-task-bridge/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// SweepStats summarizes one sweeper pass.
type SweepStats struct {
	Deleted  int // expired terminal jobs garbage-collected
	TimedOut int // expired in-flight jobs transitioned to timeout
	Evicted  int // jobs shed by the capacity policy, any status
}

// Sweeper periodically expires overdue jobs and enforces the table's
// capacity ceiling. Eviction is backpressure, not correctness: shed in-flight
// jobs simply vanish and any late reply is dropped by the correlator's
// compare-and-set.
type Sweeper struct {
	interval      time.Duration
	store         repository.JobStore
	maxJobs       int
	evictFraction float64
	log           *zerolog.Logger

	evictedTotal atomic.Uint64
}

func NewSweeper(interval time.Duration, store repository.JobStore, maxJobs int, evictFraction float64, logger *zerolog.Logger) *Sweeper {
	if evictFraction <= 0 || evictFraction > 1 {
		evictFraction = 0.10
	}
	swLog := logger.With().Str("component", "Sweeper").Logger()
	return &Sweeper{
		interval:      interval,
		store:         store,
		maxJobs:       maxJobs,
		evictFraction: evictFraction,
		log:           &swLog,
	}
}

func (w *Sweeper) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Msg("starting sweeper")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("stopping sweeper")
			return ctx.Err()
		case <-ticker.C:
			stats := w.Sweep(time.Now())
			if stats.Deleted > 0 || stats.TimedOut > 0 || stats.Evicted > 0 {
				w.log.Info().
					Int("deleted", stats.Deleted).
					Int("timed_out", stats.TimedOut).
					Int("evicted", stats.Evicted).
					Msg("sweep pass")
			}
		}
	}
}

// Sweep executes one pass. Exposed so tests and shutdown paths can drive it
// without the ticker.
func (w *Sweeper) Sweep(now time.Time) SweepStats {
	var stats SweepStats

	w.store.ForEach(func(j *model.Job) {
		if !j.Expired(now) {
			return
		}
		if j.Status.Terminal() {
			// Answered or failed work past its deadline; nobody can still
			// be waiting on it.
			w.store.Delete(j.ID)
			stats.Deleted++
			return
		}
		timedOut := w.store.Update(j.ID, func(live *model.Job) bool {
			if live.Status.Terminal() {
				return false
			}
			live.Status = model.JobStatusTimeout
			live.Error = domain.TimeoutErrorMessage
			return true
		})
		if timedOut {
			stats.TimedOut++
			metrics.IncJobFinished(string(model.JobStatusTimeout))
		}
	})

	stats.Evicted = w.evictOldest()
	metrics.SetJobTableSize(w.store.Len())
	return stats
}

// evictOldest sheds the oldest fraction of the table when it exceeds the
// configured maximum, regardless of status.
func (w *Sweeper) evictOldest() int {
	size := w.store.Len()
	if size <= w.maxJobs {
		return 0
	}

	jobs := make([]*model.Job, 0, size)
	w.store.ForEach(func(j *model.Job) { jobs = append(jobs, j) })
	sort.Slice(jobs, func(i, k int) bool { return jobs[i].CreatedAt.Before(jobs[k].CreatedAt) })

	n := int(float64(len(jobs)) * w.evictFraction)
	if over := len(jobs) - w.maxJobs; n < over {
		n = over
	}
	if n > len(jobs) {
		n = len(jobs)
	}
	for _, j := range jobs[:n] {
		w.store.Delete(j.ID)
	}
	w.evictedTotal.Add(uint64(n))
	metrics.AddJobsEvicted(n)
	w.log.Warn().Int("evicted", n).Int("max_jobs", w.maxJobs).Msg("capacity eviction")
	return n
}

// EvictedTotal reports the lifetime count of capacity evictions; surfaced on
// the health endpoint so operators can see shedding happen.
func (w *Sweeper) EvictedTotal() uint64 { return w.evictedTotal.Load() }
