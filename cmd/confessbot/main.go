package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m3rciful/confessbot/internal/comment"
	"github.com/m3rciful/confessbot/internal/confession"
	"github.com/m3rciful/confessbot/internal/config"
	"github.com/m3rciful/confessbot/internal/flow"
	"github.com/m3rciful/confessbot/internal/logging"
	"github.com/m3rciful/confessbot/internal/moderation"
	"github.com/m3rciful/confessbot/internal/storage"
	"github.com/m3rciful/confessbot/internal/telegram"
)

const defaultConfigPath = "config.yaml"

func main() {
	if err := run(); err != nil {
		log.Fatalf("confessbot: %v", err)
	}
}

func run() error {
	startedAt := time.Now()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = defaultConfigPath
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	logging.Init(cfg.Logging)
	appLog := logging.Component("app")

	if err := storage.RunMigrations(cfg.Database); err != nil {
		return err
	}
	repo, err := storage.Connect(cfg.Database)
	if err != nil {
		return err
	}
	defer repo.Close()

	api, err := telegram.NewAPI(cfg)
	if err != nil {
		return err
	}

	gateway := moderation.NewGateway(repo, cfg.Telegram.MainAdminID)
	confessions := confession.NewService(repo, gateway, telegram.NewPublisher(api))
	comments := comment.NewService(repo)

	bot := telegram.New(api, telegram.Deps{
		Config:      cfg,
		Repo:        repo,
		Flows:       flow.NewTracker(flow.NewMemoryStore()),
		Gateway:     gateway,
		Confessions: confessions,
		Comments:    comments,
	})

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	appLog.Info("app ready",
		slog.String("event", "ready"),
		slog.Duration("startup_duration", logging.RoundMS(time.Since(startedAt))),
	)

	err = bot.Run(ctx)

	appLog.Info("shutting down",
		slog.String("event", "shutdown"),
	)
	return err
}
