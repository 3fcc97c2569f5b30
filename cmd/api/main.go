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

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ybthummar/MathFlowAI/internal/app/migrate"
	httpx "github.com/ybthummar/MathFlowAI/internal/http"
	"github.com/ybthummar/MathFlowAI/internal/repository/postgres"
	"github.com/ybthummar/MathFlowAI/internal/service/admin"
	"github.com/ybthummar/MathFlowAI/internal/service/auth"
	"github.com/ybthummar/MathFlowAI/internal/service/feed"
	"github.com/ybthummar/MathFlowAI/internal/service/notify"
	"github.com/ybthummar/MathFlowAI/internal/service/receipt"
	"github.com/ybthummar/MathFlowAI/internal/service/registration"
	"github.com/ybthummar/MathFlowAI/internal/ws"
	"github.com/ybthummar/MathFlowAI/pkg/config"
	"github.com/ybthummar/MathFlowAI/pkg/logger"
	"github.com/ybthummar/MathFlowAI/pkg/regid"
)

const shutdownGrace = 10 * time.Second

func main() {
	cfg := config.LoadAPIConfig()
	log := logger.New("api", logger.ParseLevel(cfg.LogLevel))

	if err := run(cfg, log); err != nil {
		log.Error("api exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.APIConfig, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	runner, err := migrate.New(pool, cfg.DatabaseURL, cfg.MigrationsDir, log)
	if err != nil {
		return err
	}
	if err := runner.Ping(ctx); err != nil {
		return err
	}
	if err := runner.Ensure(ctx); err != nil {
		return err
	}

	repo := postgres.New(pool)

	hub := ws.NewHub()
	feedSvc := feed.New(hub, log)

	var sender notify.Sender
	if cfg.SMTPHost != "" {
		smtp, err := notify.NewSMTPSender(cfg)
		if err != nil {
			return err
		}
		sender = smtp
	} else {
		sender = notify.LogSender{Logger: log}
	}

	receipts := receipt.New(cfg.EventName, cfg.EventDate, cfg.EventVenue)
	notifier := notify.New(sender, receipts, cfg, log)
	go notifier.Run(ctx)

	authSvc := auth.New(repo, log, cfg)
	if err := authSvc.EnsureBootstrapAdmin(ctx); err != nil {
		return err
	}

	registrationSvc := registration.New(repo, notifier, feedSvc, regid.New(cfg.RegistrationPrefix), log)
	adminSvc := admin.New(repo, notifier, feedSvc, log)

	var limiter httpx.RateLimiter
	if cfg.RateLimitRedisAddr != "" {
		limiter, err = httpx.NewRedisRateLimiter(cfg.RateLimitRedisAddr, cfg.RateLimitRedisPass, cfg.RateLimitRedisDB, log)
		if err != nil {
			log.Warn("redis rate limiter unavailable, falling back to memory", "error", err)
			limiter = httpx.NewMemoryRateLimiter()
		}
	} else {
		limiter = httpx.NewMemoryRateLimiter()
	}

	router := httpx.NewRouter(log, authSvc, registrationSvc, adminSvc, receipts, feedSvc, limiter, pool.Ping)
	defer router.Close()

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("api listening", "addr", cfg.Addr, "env", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
