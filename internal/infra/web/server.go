package web

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"agent-task-bridge/internal/domain/ports/adapter"
	"agent-task-bridge/internal/infra/logging"
	"agent-task-bridge/internal/usecase"
)

type ctxKey string

const ctxCaller ctxKey = "caller_id"

// EvictionStats is what the health endpoint needs from the sweeper.
type EvictionStats interface {
	EvictedTotal() uint64
}

type Server struct {
	jobs      usecase.JobUseCase
	auth      adapter.CallerAuthorizer
	evictions EvictionStats
	log       *zerolog.Logger

	server *http.Server
}

func NewServer(jobs usecase.JobUseCase, authorizer adapter.CallerAuthorizer, evictions EvictionStats, logger *zerolog.Logger) *Server {
	srvLog := logger.With().Str("component", "web").Logger()
	return &Server{
		jobs:      jobs,
		auth:      authorizer,
		evictions: evictions,
		log:       &srvLog,
	}
}

// Router builds the chi mux. Health and metrics stay outside the auth gate;
// everything that creates or reads jobs goes through it.
func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Handle("/metrics", promhttp.Handler())
	r.Route("/api/v1/jobs", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)
			r.Post("/", s.handleCreate)
			r.Get("/{jobID}", s.handleGet)
		})
	})
	return r
}

func (s *Server) Start(port int) error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.log.Info().Str("addr", s.server.Addr).Msg("http server listening")
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// authMiddleware resolves the caller identity from the bearer credential and
// stashes it, along with the request id, on the request context so handler
// logs carry both. The bridge never sees unauthorized requests past this
// point.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var credential string
		authHeader := r.Header.Get("Authorization")
		if authHeader != "" {
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				writeError(w, http.StatusUnauthorized, "malformed authorization header")
				return
			}
			credential = parts[1]
		}

		callerID, err := s.auth.Authorize(r.Context(), credential)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		ctx := context.WithValue(r.Context(), ctxCaller, callerID)
		if reqID := middleware.GetReqID(ctx); reqID != "" {
			ctx = logging.WithRequestID(ctx, reqID)
		}
		ctx = logging.WithCallerID(ctx, callerID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func callerFrom(ctx context.Context) string {
	if v, ok := ctx.Value(ctxCaller).(string); ok {
		return v
	}
	return ""
}
