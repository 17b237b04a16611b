package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/SscSPs/fintrack/internal/middleware"
	"github.com/SscSPs/fintrack/internal/platform/app"
	"github.com/SscSPs/fintrack/internal/platform/config"
	"github.com/SscSPs/fintrack/pkg/database"
	"github.com/jackc/pgx/v5/pgxpool"

	portssvc "github.com/SscSPs/fintrack/internal/core/ports/services"
)

// runtime is bound into every command's Run method. The database and services are
// opened on first use so commands like parsers work offline.
type runtime struct {
	ctx    context.Context
	logger *slog.Logger
	out    io.Writer

	cfg  *config.Config
	pool *pgxpool.Pool
	app  *app.App
}

func newRuntime(debug bool) *runtime {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return &runtime{
		ctx:    middleware.WithLogger(context.Background(), logger),
		logger: logger,
		out:    os.Stdout,
	}
}

func (rt *runtime) config() (*config.Config, error) {
	if rt.cfg == nil {
		cfg, err := config.LoadConfig()
		if err != nil {
			return nil, err
		}
		rt.cfg = cfg
	}
	return rt.cfg, nil
}

func (rt *runtime) services() (*portssvc.ServiceContainer, error) {
	if rt.app != nil {
		return rt.app.Services, nil
	}
	cfg, err := rt.config()
	if err != nil {
		return nil, err
	}
	pool, err := database.NewPgxPool(rt.ctx, cfg.DatabaseURL, cfg.DBConnectMaxElapsed)
	if err != nil {
		return nil, err
	}
	rt.pool = pool
	a, err := app.New(rt.ctx, cfg, pool, rt.logger)
	if err != nil {
		return nil, err
	}
	rt.app = a
	return a.Services, nil
}

func (rt *runtime) close() {
	if rt.app != nil {
		rt.app.Close()
	}
	database.ClosePgxPool(rt.pool)
}

// print writes v as indented JSON.
func (rt *runtime) print(v any) error {
	enc := json.NewEncoder(rt.out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
