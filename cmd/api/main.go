package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"

	"sqipit/internal/audit"
	"sqipit/internal/auth"
	"sqipit/internal/config"
	"sqipit/internal/database"
	"sqipit/internal/directory"
	"sqipit/internal/httpapi"
	"sqipit/internal/notifications"
	"sqipit/internal/queue"
	"sqipit/internal/reporting"
	"sqipit/internal/subscriptions"
	"sqipit/pkg/logger"
	"sqipit/pkg/utils"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	authManager, err := auth.NewManager(cfg.Auth)
	if err != nil {
		log.Error("auth init failed", "err", err)
		os.Exit(1)
	}

	db, err := utils.OpenPostgres(rootCtx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{})
	if err != nil {
		log.Error("postgres init failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := database.Migrate(rootCtx, db); err != nil {
		log.Error("migrations failed", "err", err)
		os.Exit(1)
	}

	rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr()})
	if err != nil {
		log.Error("redis init failed", "err", err)
		os.Exit(1)
	}
	defer rdb.Close()

	// Services
	directoryService := directory.NewService(directory.NewPostgresRepo(db))
	subscriptionService := subscriptions.NewService(subscriptions.NewPostgresRepo(db), &cfg)
	auditService := audit.NewService(audit.NewPostgresRepo(db))
	reportingService := reporting.NewService(reporting.NewPostgresRepo(db), subscriptionService)

	gateway := notifications.NewGateway(
		notifications.NewPostmarkProvider(cfg.Postmark.APIToken, cfg.Postmark.FromEmail),
		notifications.NewTwilioProvider(cfg.Twilio.AccountSID, cfg.Twilio.AuthToken, cfg.Twilio.PhoneNumber),
	)

	queueService := queue.NewService(queue.Deps{
		Repo:      queue.NewPostgresRepo(db),
		Directory: directoryReader{dir: directoryService},
		Quota:     subscriptionService,
		Notifier:  gateway,
		Audit:     auditService,
		Events:    queue.NewRedisPublisher(rdb),
	})

	// Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	handlers := httpapi.Handlers{
		Auth:          authManager,
		Queues:        queueService,
		Directory:     directoryService,
		Subscriptions: subscriptionService,
		Reports:       reportingService,
	}
	registerRoutes(r, handlers, authManager, rdb)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}
}
