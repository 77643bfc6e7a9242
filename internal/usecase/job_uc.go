package usecase

import (
	"context"
	"crypto/rand"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"agent-task-bridge/internal/config"
	"agent-task-bridge/internal/domain"
	"agent-task-bridge/internal/domain/model"
	"agent-task-bridge/internal/domain/ports/adapter"
	"agent-task-bridge/internal/domain/ports/repository"
	"agent-task-bridge/internal/infra/logging"
	"agent-task-bridge/internal/infra/metrics"
)

const channelKindJob = "job"

// Compile-time check
var _ JobUseCase = (*jobUC)(nil)

// HealthReport is the operator-facing summary served by the health endpoint.
type HealthReport struct {
	Healthy      bool           `json:"healthy"`
	Timestamp    time.Time      `json:"timestamp"`
	TotalJobs    int            `json:"total_jobs"`
	StatusCounts map[string]int `json:"status_counts"`
	MaxJobs      int            `json:"max_jobs"`
}

type JobUseCase interface {
	// Create admits a one-off request: inserts the job, opens the transient
	// channel, posts the prompt, publishes it on the bus and registers the
	// response correlator. A conversation-open failure rolls the job back; a
	// message-post failure leaves the job behind in failed status.
	Create(ctx context.Context, callerID, agentID, prompt string, timeout time.Duration, metadata map[string]any) (*model.Job, error)
	// Get returns a snapshot, applying the lazy timeout check first.
	Get(ctx context.Context, jobID string) (*model.Job, error)
	// PollUntilTerminal repeatedly Gets until the job leaves the in-flight
	// states or maxAttempts is spent.
	PollUntilTerminal(ctx context.Context, jobID string, interval time.Duration, maxAttempts int) (*model.Job, error)
	Health(ctx context.Context) HealthReport
}

type jobUC struct {
	store  repository.JobStore
	conv   adapter.ConversationAdapter
	agents adapter.AgentDirectory
	bus    adapter.MessageBus
	cfg    config.JobsConfig
	log    *zerolog.Logger
}

func NewJobUseCase(
	store repository.JobStore,
	conv adapter.ConversationAdapter,
	agents adapter.AgentDirectory,
	bus adapter.MessageBus,
	cfg config.JobsConfig,
	logger *zerolog.Logger,
) *jobUC {
	ucLog := logger.With().Str("component", "JobUC").Logger()
	return &jobUC{
		store:  store,
		conv:   conv,
		agents: agents,
		bus:    bus,
		cfg:    cfg,
		log:    &ucLog,
	}
}

func (u *jobUC) Create(ctx context.Context, callerID, agentID, prompt string, timeout time.Duration, metadata map[string]any) (*model.Job, error) {
	defer logging.TraceDuration(u.log, "JobUC.Create")()

	prompt = strings.TrimSpace(prompt)
	if prompt == "" || callerID == "" {
		return nil, domain.ErrInvalidArgument
	}

	if agentID == "" {
		resolved, err := u.agents.ResolveDefault(ctx)
		if err != nil {
			return nil, err
		}
		agentID = resolved
	} else {
		ok, err := u.agents.Exists(ctx, agentID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, domain.ErrUnknownAgent
		}
	}

	if timeout <= 0 {
		timeout = u.cfg.DefaultTimeout
	}
	if timeout > u.cfg.MaxTimeout {
		timeout = u.cfg.MaxTimeout
	}

	now := time.Now()
	job := &model.Job{
		ID:        ulid.MustNew(ulid.Timestamp(now), rand.Reader).String(),
		AgentID:   agentID,
		CallerID:  callerID,
		ChannelID: uuid.NewString(),
		Prompt:    prompt,
		Status:    model.JobStatusPending,
		CreatedAt: now,
		ExpiresAt: now.Add(timeout),
		Metadata:  metadata,
	}
	if err := u.store.Insert(job); err != nil {
		return nil, err
	}
	metrics.IncJobCreated()
	metrics.SetJobTableSize(u.store.Len())

	log := u.log.With().Str("job_id", job.ID).Str("channel_id", job.ChannelID).Str("agent_id", agentID).Logger()

	participants := []string{callerID, agentID}
	if err := u.conv.CreateChannel(ctx, job.ChannelID, channelKindJob, participants, metadata); err != nil {
		// The job never existed from the caller's perspective.
		u.store.Delete(job.ID)
		metrics.SetJobTableSize(u.store.Len())
		log.Error().Err(err).Msg("channel creation failed, job rolled back")
		return nil, fmt.Errorf("%w: %v", domain.ErrAdmissionFailed, err)
	}

	posted, err := u.conv.PostMessage(ctx, job.ChannelID, callerID, prompt, metadata)
	if err != nil {
		// The channel exists, so keep the job around in failed state for the
		// caller to observe. No automatic retry.
		u.store.Update(job.ID, func(j *model.Job) bool {
			j.Status = model.JobStatusFailed
			j.Error = domain.DeliveryErrorMessage
			return true
		})
		metrics.IncJobFinished(string(model.JobStatusFailed))
		log.Error().Err(err).Msg("prompt delivery failed")
		job.Status = model.JobStatusFailed
		job.Error = domain.DeliveryErrorMessage
		return job.Clone(), nil
	}

	u.store.Update(job.ID, func(j *model.Job) bool {
		j.CallerMessageID = posted.ID
		j.Status = model.JobStatusProcessing
		return true
	})
	job.CallerMessageID = posted.ID
	job.Status = model.JobStatusProcessing

	u.watch(job.Clone())

	u.bus.Publish(model.MessageEvent{
		ID:        posted.ID,
		ChannelID: job.ChannelID,
		AuthorID:  callerID,
		Content:   prompt,
		CreatedAt: posted.CreatedAt,
		Metadata:  metadata,
	})

	log.Info().Time("expires_at", job.ExpiresAt).Msg("job admitted")
	return job.Clone(), nil
}

func (u *jobUC) Get(ctx context.Context, jobID string) (*model.Job, error) {
	defer logging.TraceDuration(u.log, "JobUC.Get")()

	u.expireIfDue(jobID, time.Now())
	j, ok := u.store.Get(jobID)
	if !ok {
		return nil, domain.ErrNotFound
	}
	return j, nil
}

// expireIfDue is the lazy timeout check shared by the read path; a poller
// sees timeout promptly even when the sweeper has not run yet.
func (u *jobUC) expireIfDue(jobID string, now time.Time) {
	timedOut := u.store.Update(jobID, func(j *model.Job) bool {
		if j.Status.Terminal() || !j.Expired(now) {
			return false
		}
		j.Status = model.JobStatusTimeout
		j.Error = domain.TimeoutErrorMessage
		return true
	})
	if timedOut {
		metrics.IncJobFinished(string(model.JobStatusTimeout))
		u.log.Info().Str("job_id", jobID).Msg("job timed out on read")
	}
}

func (u *jobUC) PollUntilTerminal(ctx context.Context, jobID string, interval time.Duration, maxAttempts int) (*model.Job, error) {
	if interval <= 0 {
		interval = u.cfg.PollInterval
	}
	if maxAttempts <= 0 {
		maxAttempts = u.cfg.PollMaxAttempts
	}
	for attempt := 0; attempt < maxAttempts; attempt++ {
		// Sleep between attempts, never after the last one.
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(interval):
			}
		}
		j, err := u.Get(ctx, jobID)
		if err != nil {
			return nil, err
		}
		switch j.Status {
		case model.JobStatusCompleted:
			return j, nil
		case model.JobStatusFailed:
			return j, domain.ErrJobFailed
		case model.JobStatusTimeout:
			return j, domain.ErrJobTimedOut
		}
	}
	return nil, domain.ErrPollExhausted
}

func (u *jobUC) Health(ctx context.Context) HealthReport {
	counts := map[string]int{}
	total := 0
	u.store.ForEach(func(j *model.Job) {
		counts[string(j.Status)]++
		total++
	})
	return HealthReport{
		Healthy:      true,
		Timestamp:    time.Now(),
		TotalJobs:    total,
		StatusCounts: counts,
		MaxJobs:      u.cfg.MaxJobs,
	}
}
