package main

import (
	"context"
	"flag"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ybthummar/MathFlowAI/internal/app/migrate"
	"github.com/ybthummar/MathFlowAI/pkg/config"
	"github.com/ybthummar/MathFlowAI/pkg/logger"
)

func main() {
	var (
		command = flag.String("cmd", "up", "migration command: up, status or down")
		target  = flag.Int64("to", 0, "target version for down (0 rolls back one)")
	)
	flag.Parse()

	cfg := config.LoadAPIConfig()
	log := logger.New("migrate", logger.ParseLevel(cfg.LogLevel))

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("connect database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	runner, err := migrate.New(pool, cfg.DatabaseURL, cfg.MigrationsDir, log)
	if err != nil {
		log.Error("configure migrations", "error", err)
		os.Exit(1)
	}
	if err := runner.Ping(ctx); err != nil {
		log.Error("database unreachable", "error", err)
		os.Exit(1)
	}

	switch *command {
	case "up":
		err = runner.Ensure(ctx)
	case "status":
		err = runner.Status(ctx)
	case "down":
		err = runner.Down(ctx, *target)
	default:
		log.Error("unknown command", "cmd", *command)
		os.Exit(2)
	}
	if err != nil {
		log.Error("migration failed", "cmd", *command, "error", err)
		os.Exit(1)
	}
}
