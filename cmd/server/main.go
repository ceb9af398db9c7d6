// Package main implements the entry point for the InkPress API server,
// which turns tenant brand profiles and topics into published blog posts
// through an LLM skill pipeline.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/inkpress/inkpress-api/internal/config"
	"github.com/inkpress/inkpress-api/internal/platform/logger"
)

func main() {
	migrateCmd := flag.String("migrate", "", "run a migration command (up, down, status) and exit")
	flag.Parse()

	if err := run(*migrateCmd); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(migrateCmd string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	appLogger, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("set up logger: %w", err)
	}

	db, err := setupDatabase(cfg, appLogger)
	if err != nil {
		return fmt.Errorf("set up database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			appLogger.Error("error closing database connection", "error", err)
		}
	}()

	if migrateCmd != "" {
		if err := runMigrations(db, migrateCmd, appLogger); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
		os.Exit(0)
	}

	// Apply pending migrations on startup so a fresh deployment needs no
	// separate migration step.
	if err := runMigrations(db, "up", appLogger); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	ctx := context.Background()
	app, err := newApplication(ctx, cfg, appLogger, db)
	if err != nil {
		return fmt.Errorf("initialize application: %w", err)
	}

	return app.Run(ctx)
}
