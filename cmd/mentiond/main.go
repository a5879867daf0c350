package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/forumkit/mentiond/internal/community"
	"github.com/forumkit/mentiond/internal/config"
	"github.com/forumkit/mentiond/internal/decision"
	"github.com/forumkit/mentiond/internal/event"
	"github.com/forumkit/mentiond/internal/identity"
	"github.com/forumkit/mentiond/internal/llm"
	"github.com/forumkit/mentiond/internal/memory"
	"github.com/forumkit/mentiond/internal/memory/inmem"
	"github.com/forumkit/mentiond/internal/memory/sqlite"
	"github.com/forumkit/mentiond/internal/respond"
	"github.com/forumkit/mentiond/internal/server"
	"github.com/forumkit/mentiond/internal/signature"
	"github.com/forumkit/mentiond/internal/telemetry"
	"github.com/forumkit/mentiond/internal/webhook"
)

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	shutdownTracer, err := telemetry.InitTracer("mentiond", logger)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			logger.Error("failed to shutdown tracer", slog.String("error", err.Error()))
		}
	}()

	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	store, err := openStore(cfg)
	if err != nil {
		log.Fatalf("Failed to open memory store: %v", err)
	}
	defer store.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var clientOpts []community.ClientOption
	if cfg.Community.BaseURL != "" {
		clientOpts = append(clientOpts, community.WithBaseURL(cfg.Community.BaseURL))
	}
	client := community.New(cfg.Community.APIKey, clientOpts...)

	profile, err := client.SelfIdentity(ctx)
	if err != nil {
		log.Fatalf("Failed to resolve agent identity: %v", err)
	}
	name := cfg.Agent.Name
	if name == "" {
		name = profile.DisplayName
	}
	self := identity.Self{
		UserID:  profile.ID,
		ActorID: identity.SelfActorID(profile.ID),
		Name:    name,
	}
	logger.Info("agent identity resolved",
		slog.Int64("user_id", self.UserID),
		slog.String("name", self.Name),
	)

	gemini, err := llm.NewGemini(ctx, cfg.GenAI.APIKey, cfg.GenAI.Model)
	if err != nil {
		log.Fatalf("Failed to create generation client: %v", err)
	}

	composer, err := memory.NewComposer(store, cfg.Agent.TokenBudget)
	if err != nil {
		log.Fatalf("Failed to create context composer: %v", err)
	}

	orchestrator := respond.New(
		store,
		composer,
		decision.NewEngine(gemini, logger),
		gemini,
		client,
		respond.NewLogDispatcher(logger),
		self,
		logger,
	)

	verifier := signature.New(cfg.SigningKeyMap(), logger)
	normalizer := event.NewNormalizer(logger)
	handler := webhook.NewHandler(verifier, normalizer, orchestrator, logger)

	srv := server.New(cfg.Server.Port, logger)
	handler.Routes(srv.Router)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	case <-sigCh:
		logger.Info("shutdown signal received")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}

func openStore(cfg *config.Config) (memory.Store, error) {
	switch cfg.Storage.Type {
	case "sqlite":
		return sqlite.New(cfg.Storage.SQLite.Path)
	default:
		return inmem.New(), nil
	}
}
