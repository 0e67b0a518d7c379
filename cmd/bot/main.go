package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	goredis "github.com/redis/go-redis/v9"

	"github.com/worktrack/attendance-bot/internal/api"
	"github.com/worktrack/attendance-bot/internal/bot"
	"github.com/worktrack/attendance-bot/internal/core/ports"
	"github.com/worktrack/attendance-bot/internal/core/service"
	"github.com/worktrack/attendance-bot/internal/infrastructure/backend"
	"github.com/worktrack/attendance-bot/internal/infrastructure/config"
	redisconn "github.com/worktrack/attendance-bot/internal/infrastructure/db/redis"
	"github.com/worktrack/attendance-bot/internal/infrastructure/queue"
	"github.com/worktrack/attendance-bot/internal/infrastructure/session"
	"github.com/worktrack/attendance-bot/internal/transport/telegram"
	"github.com/worktrack/attendance-bot/pkg/logger"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		// Logger is not up yet.
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	// --- Backend client (single shared HTTP session) ---
	client := backend.NewClient(backend.Config{
		BaseURL:   cfg.Backend.URL,
		JWTSecret: cfg.Backend.JWTSecret,
		Timeout:   cfg.Backend.Timeout,
	}, logger.Component("backend"))

	// --- Session store ---
	var sessions ports.SessionStore
	rdb, err := buildSessions(ctx, cfg, &sessions)
	if err != nil {
		log.Fatal().Err(err).Msg("session store init failed")
	}
	if rdb != nil {
		defer rdb.Close()
	}

	// --- Workflow engine ---
	enricher := service.NewEnricher(client, logger.Component("enricher"))

	transport, err := telegram.New(cfg.Telegram.Token, cfg.Telegram.PollTimeout, logger.Component("telegram"))
	if err != nil {
		log.Fatal().Err(err).Msg("telegram init failed")
	}

	router := bot.NewRouter(sessions, logger.Component("router"))
	bot.RegisterRoutes(router,
		bot.NewAuthFlow(client, sessions, transport, logger.Component("auth")),
		bot.NewOvertimeFlow(client, sessions, transport, logger.Component("overtime")),
		bot.NewStaffHandlers(client, transport, logger.Component("staff")),
	)

	dispatcher := queue.NewDispatcher(cfg.Workers, bot.NewPipeline(enricher, router), logger.Component("dispatcher"))
	dispatcher.Start(ctx)

	// --- Ops server (health probes + metrics) ---
	ops := api.NewRouter(client, rdb)
	go func() {
		if err := ops.Start(":" + cfg.Ops.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("ops server stopped")
		}
	}()

	log.Info().Str("env", cfg.Env).Int("workers", cfg.Workers).Msg("starting bot")
	transport.Run(ctx, dispatcher.Enqueue)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := ops.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("ops server shutdown failed")
	}
	log.Info().Msg("bot stopped")
}

// buildSessions selects the session store per configuration. The returned
// redis client is nil for the memory store.
func buildSessions(ctx context.Context, cfg *config.Config, out *ports.SessionStore) (*goredis.Client, error) {
	if cfg.Session.Store != "redis" {
		*out = session.NewMemoryStore()
		return nil, nil
	}

	rdb, err := redisconn.Connect(ctx, redisconn.Config{
		Addr: cfg.Redis.Addr,
		DB:   cfg.Redis.DB,
	})
	if err != nil {
		return nil, err
	}
	*out = session.NewRedisStore(rdb, cfg.Session.TTL)
	return rdb, nil
}
