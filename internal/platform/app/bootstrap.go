// Package app assembles repositories, adapters and services from configuration. Both the
// HTTP server and finctl start from here.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SscSPs/fintrack/internal/adapters/blobstore"
	"github.com/SscSPs/fintrack/internal/adapters/categorizers"
	"github.com/SscSPs/fintrack/internal/adapters/gemini"
	"github.com/SscSPs/fintrack/internal/adapters/parsers"
	portsrepo "github.com/SscSPs/fintrack/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/fintrack/internal/core/ports/services"
	"github.com/SscSPs/fintrack/internal/core/services"
	"github.com/SscSPs/fintrack/internal/platform/config"
	"github.com/SscSPs/fintrack/internal/repositories/database/pgsql"
	"github.com/jackc/pgx/v5/pgxpool"
)

// App is the wired application.
type App struct {
	Services *portssvc.ServiceContainer
	Repos    portsrepo.RepositoryProvider
	closers  []func() error
}

// Close releases external clients opened by New.
func (a *App) Close() {
	for _, c := range a.closers {
		if err := c(); err != nil {
			slog.Warn("Failed to close client", slog.String("error", err.Error()))
		}
	}
}

// New wires every component. Gemini-backed parsing and categorization are enabled only when
// an API key is configured.
func New(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool, logger *slog.Logger) (*App, error) {
	a := &App{}

	var blobs portsrepo.BlobStore
	if cfg.BlobBackend == config.BlobBackendGCS {
		gcs, err := blobstore.NewGCSStore(ctx, cfg.GCSBucket, cfg.GCSCredentialsFile)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, gcs.Close)
		blobs = gcs
		logger.Info("Statement files stored in GCS", slog.String("bucket", cfg.GCSBucket))
	}
	a.Repos = pgsql.NewRepositoryProvider(pool, blobs)

	rules, err := categorizers.LoadRules(cfg.CategoryRulesFile)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to load category rules: %w", err)
	}
	registry, gen, err := NewParserRegistry(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	// Gemini answers first; the rules fill in what it left out.
	links := []portssvc.Categorizer{rules}
	if gen != nil {
		links = []portssvc.Categorizer{categorizers.NewGeminiCategorizer(gen, cfg.GeminiModel), rules}
		logger.Info("Gemini parsing and categorization enabled", slog.String("model", cfg.GeminiModel))
	}

	a.Services = services.NewServiceContainer(cfg, a.Repos, registry, categorizers.NewChain(links...))
	return a, nil
}

// NewParserRegistry returns the built-in parsers plus the Gemini PDF parser when an API key
// is configured. The generator is nil without a key.
func NewParserRegistry(ctx context.Context, cfg *config.Config) (*parsers.Registry, gemini.Generator, error) {
	if cfg.GeminiAPIKey == "" {
		return parsers.Default(), nil, nil
	}
	gen, err := gemini.NewGenerator(ctx, cfg.GeminiAPIKey)
	if err != nil {
		return nil, nil, err
	}
	registry := parsers.NewRegistry(
		parsers.NewOFXParser(),
		parsers.NewNubankParser(),
		parsers.NewBrazilianCSVParser(),
		parsers.NewGeminiPDFParser(gen, cfg.GeminiModel),
	)
	return registry, gen, nil
}
