// Command janitor runs the periodic maintenance passes once and exits.
// It is meant to be driven by cron or a container scheduler; both
// operations are idempotent, so overlapping or repeated runs are safe.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"sqipit/internal/config"
	"sqipit/internal/subscriptions"
	"sqipit/pkg/logger"
	"sqipit/pkg/utils"
)

func main() {
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	db, err := utils.OpenPostgres(rootCtx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{})
	if err != nil {
		log.Error("postgres init failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(rootCtx, 5*time.Minute)
	defer cancel()
	ctx = logger.With(ctx, log)

	janitor := subscriptions.NewJanitor(subscriptions.NewPostgresRepo(db), &cfg)

	failed := false
	if n, err := janitor.ResetMonthlyUsage(ctx); err != nil {
		log.Error("monthly usage reset failed", "err", err)
		failed = true
	} else {
		log.Info("monthly usage reset", "subscriptions", n)
	}

	if n, err := janitor.DeactivateDormantOrganizations(ctx); err != nil {
		log.Error("dormant deactivation failed", "err", err)
		failed = true
	} else {
		log.Info("dormant queues deactivated", "queues", n)
	}

	if failed {
		os.Exit(1)
	}
}
