package usecase

import (
	"regexp"
	"sync"
	"sync/atomic"
	"time"

	"agent-task-bridge/internal/domain/model"
	"agent-task-bridge/internal/infra/metrics"
)

// progressMarker recognizes the agent runtime's self-narrating tool notices,
// e.g. "*running action WALLET_BALANCE*" or "is using the search tool".
// Publishers that set MessageEvent.Kind bypass this heuristic entirely.
var progressMarker = regexp.MustCompile(
	`(?i)^[\s*_\[(]*(?:is\s+)?(?:executing|running|calling|using)\s+(?:the\s+)?(?:an?\s+)?\S*\s*(?:action|tool|plugin)\b`)

// isProgress classifies a matched event. A structured kind wins; the content
// heuristic only covers publishers that never set one.
func isProgress(ev model.MessageEvent) bool {
	switch ev.Kind {
	case model.EventKindProgress:
		return true
	case model.EventKindFinal:
		return false
	}
	return progressMarker.MatchString(ev.Content)
}

// watch registers the per-job bus listener and arms the grace timer that
// bounds its lifetime. j is a private snapshot: the immutable identity
// fields are all the filter needs, so no store read happens per event.
func (u *jobUC) watch(j *model.Job) {
	log := u.log.With().Str("job_id", j.ID).Str("channel_id", j.ChannelID).Logger()

	done := make(chan struct{})
	var once sync.Once
	finish := func() { once.Do(func() { close(done) }) }

	var progressSeen atomic.Bool
	sub := u.bus.Subscribe(func(ev model.MessageEvent) {
		if !ev.WellFormed() ||
			ev.ChannelID != j.ChannelID ||
			ev.AuthorID != j.AgentID ||
			ev.ID == j.CallerMessageID {
			return
		}
		// A progress notice is not the answer; remember it and keep
		// waiting. Whatever arrives next is treated as final.
		if isProgress(ev) && !progressSeen.Swap(true) {
			log.Debug().Str("message_id", ev.ID).Msg("intermediate agent message, waiting for final")
			return
		}
		if u.complete(j.ID, ev) {
			log.Info().Str("message_id", ev.ID).Msg("job completed")
		} else {
			// Already terminal or evicted; the event is discarded.
			log.Debug().Str("message_id", ev.ID).Msg("late agent reply dropped")
		}
		finish()
	})

	// Release the listener on completion, or unconditionally once the job's
	// deadline plus grace has passed, whichever comes first.
	go func() {
		timer := time.NewTimer(time.Until(j.ExpiresAt) + u.cfg.ListenerGrace)
		defer timer.Stop()
		select {
		case <-done:
		case <-timer.C:
			log.Debug().Msg("listener released by grace deadline")
		}
		sub.Close()
	}()
}

// complete performs the at-most-once terminal transition. The status
// re-check runs under the store lock, so a duplicate delivery or a race with
// the sweeper leaves exactly one winner.
func (u *jobUC) complete(jobID string, ev model.MessageEvent) bool {
	var latencyMs int64
	won := u.store.Update(jobID, func(job *model.Job) bool {
		if job.Status != model.JobStatusProcessing {
			return false
		}
		latencyMs = time.Since(job.CreatedAt).Milliseconds()
		job.Status = model.JobStatusCompleted
		job.ResponseMessageID = ev.ID
		job.Result = &model.JobResult{
			Message: model.ResultMessage{
				ID:        ev.ID,
				Content:   ev.Content,
				AuthorID:  ev.AuthorID,
				CreatedAt: ev.CreatedAt,
				Metadata:  ev.Metadata,
			},
			ProcessingTimeMs: latencyMs,
		}
		return true
	})
	if won {
		metrics.IncJobFinished(string(model.JobStatusCompleted))
		metrics.ObserveCompletionLatency(latencyMs)
	}
	return won
}
