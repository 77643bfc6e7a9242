package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"agent-task-bridge/internal/config"
	"agent-task-bridge/internal/domain/ports/adapter"
	"agent-task-bridge/internal/infra/agents"
	"agent-task-bridge/internal/infra/auth"
	"agent-task-bridge/internal/infra/bus"
	"agent-task-bridge/internal/infra/conversation"
	"agent-task-bridge/internal/infra/logging"
	"agent-task-bridge/internal/infra/metrics"
	"agent-task-bridge/internal/infra/sched"
	"agent-task-bridge/internal/infra/store"
	"agent-task-bridge/internal/infra/web"
	"agent-task-bridge/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, static caller)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Info().Msg("dev mode enabled")
	}

	metrics.MustRegister()

	// ---- Core wiring: table, bus, collaborators ----
	jobStore := store.NewMemoryStore()
	msgBus := bus.NewMemoryBus()
	conv := conversation.NewMemoryConversations()
	directory := agents.NewStaticDirectory(cfg.Agents.Default, cfg.Agents.IDs)

	var authorizer adapter.CallerAuthorizer
	switch cfg.Auth.Mode {
	case "jwt":
		authorizer = auth.NewJWTAuthorizer(cfg.Auth.JWTSecret)
	default:
		authorizer = auth.NewStaticAuthorizer(cfg.Auth.StaticID)
	}

	jobUC := usecase.NewJobUseCase(jobStore, conv, directory, msgBus, cfg.Jobs, logger)

	// ---- Sweeper ----
	sweeper := sched.NewSweeper(cfg.Jobs.SweepInterval, jobStore, cfg.Jobs.MaxJobs, cfg.Jobs.EvictFraction, logger)
	go func() { _ = sweeper.Run(ctx) }()

	// ---- HTTP server ----
	srv := web.NewServer(jobUC, authorizer, sweeper, logger)
	go func() {
		if err := srv.Start(cfg.Server.Port); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server stopped")
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown error")
	}
}
