package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"agent-task-bridge/internal/domain"
	"agent-task-bridge/internal/domain/model"
	"agent-task-bridge/internal/infra/logging"
)

type jobCreateRequest struct {
	Prompt    string         `json:"prompt"`
	AgentID   string         `json:"agent_id,omitempty"`
	TimeoutMs int64          `json:"timeout_ms,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

type jobCreateResponse struct {
	JobID     string    `json:"job_id"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

type jobSnapshotResponse struct {
	JobID     string           `json:"job_id"`
	Status    string           `json:"status"`
	AgentID   string           `json:"agent_id"`
	CallerID  string           `json:"caller_id"`
	Prompt    string           `json:"prompt"`
	CreatedAt time.Time        `json:"created_at"`
	ExpiresAt time.Time        `json:"expires_at"`
	Result    *model.JobResult `json:"result,omitempty"`
	Error     string           `json:"error,omitempty"`
	Metadata  map[string]any   `json:"metadata,omitempty"`
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req jobCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	// Negative timeouts are treated as absent; the use case applies the
	// default and clamps to the configured maximum.
	timeout := time.Duration(req.TimeoutMs) * time.Millisecond
	if timeout < 0 {
		timeout = 0
	}

	job, err := s.jobs.Create(ctx, callerFrom(ctx), req.AgentID, req.Prompt, timeout, req.Metadata)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidArgument):
			writeError(w, http.StatusUnprocessableEntity, "prompt is required")
		case errors.Is(err, domain.ErrUnknownAgent), errors.Is(err, domain.ErrNoDefaultAgent):
			writeError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, domain.ErrAdmissionFailed):
			writeError(w, http.StatusBadGateway, "job admission failed")
		default:
			logging.With(ctx, s.log).Error().Err(err).Msg("job create failed")
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	writeJSON(w, http.StatusCreated, jobCreateResponse{
		JobID:     job.ID,
		Status:    string(job.Status),
		CreatedAt: job.CreatedAt,
		ExpiresAt: job.ExpiresAt,
	})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	ctx := logging.WithJobID(r.Context(), jobID)

	job, err := s.jobs.Get(ctx, jobID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "job not found")
			return
		}
		logging.With(ctx, s.log).Error().Err(err).Msg("job get failed")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, jobSnapshotResponse{
		JobID:     job.ID,
		Status:    string(job.Status),
		AgentID:   job.AgentID,
		CallerID:  job.CallerID,
		Prompt:    job.Prompt,
		CreatedAt: job.CreatedAt,
		ExpiresAt: job.ExpiresAt,
		Result:    job.Result,
		Error:     job.Error,
		Metadata:  job.Metadata,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := s.jobs.Health(r.Context())

	var evicted uint64
	if s.evictions != nil {
		evicted = s.evictions.EvictedTotal()
	}
	writeJSON(w, http.StatusOK, struct {
		Healthy      bool           `json:"healthy"`
		Timestamp    time.Time      `json:"timestamp"`
		TotalJobs    int            `json:"total_jobs"`
		StatusCounts map[string]int `json:"status_counts"`
		MaxJobs      int            `json:"max_jobs"`
		EvictedTotal uint64         `json:"evicted_total"`
	}{
		Healthy:      report.Healthy,
		Timestamp:    report.Timestamp,
		TotalJobs:    report.TotalJobs,
		StatusCounts: report.StatusCounts,
		MaxJobs:      report.MaxJobs,
		EvictedTotal: evicted,
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, struct {
		Error string `json:"error"`
	}{Error: msg})
}
