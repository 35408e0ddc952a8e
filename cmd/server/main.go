// Command server wires configuration, a Timetable loader, and
// internal/httpapi together into an HTTP service, generalizing the
// teacher's main.go from a single hard-coded Postgres pool to a
// pluggable backend chosen by config.Backend.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/antigravity/raptor-transit/internal/config"
	"github.com/antigravity/raptor-transit/internal/httpapi"
	"github.com/antigravity/raptor-transit/internal/store/csv"
	"github.com/antigravity/raptor-transit/internal/store/postgres"
	"github.com/antigravity/raptor-transit/internal/store/sqlite"
	"github.com/antigravity/raptor-transit/internal/timetable"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to load .env", "error", err)
	}

	cfg := config.Load()
	log := slog.Default()

	ctx := context.Background()
	tt, err := loadTimetable(ctx, cfg, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load timetable: %v\n", err)
		os.Exit(1)
	}

	srv := httpapi.New(tt, log, cfg.DefaultTransfersLimit)

	addr := fmt.Sprintf(":%d", cfg.HTTPPort)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      srv.Router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	log.Info("server starting", "addr", addr, "backend", cfg.Backend)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func loadTimetable(ctx context.Context, cfg *config.Config, log *slog.Logger) (*timetable.Timetable, error) {
	switch cfg.Backend {
	case "sqlite":
		loader, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		defer loader.Close()
		return loader.Load(ctx)
	case "csv":
		return csv.Load(cfg.CSVDir)
	default:
		pool, err := pgxpool.New(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		defer pool.Close()
		if err := pool.Ping(ctx); err != nil {
			return nil, err
		}
		log.Info("connected to postgres")
		return postgres.NewLoader(pool).Load(ctx)
	}
}
