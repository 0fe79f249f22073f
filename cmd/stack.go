package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/listingpress/listingpress/internal/compose"
	"github.com/listingpress/listingpress/internal/config"
	"github.com/listingpress/listingpress/internal/imaging"
	"github.com/listingpress/listingpress/internal/pipeline"
	"github.com/listingpress/listingpress/internal/render"
	"github.com/listingpress/listingpress/internal/storage"
	"github.com/listingpress/listingpress/internal/store"
	"github.com/listingpress/listingpress/internal/store/crm"
	"github.com/listingpress/listingpress/internal/store/postgres"
)

// listingCacheTTL bounds how stale CRM listing data may be during generation.
const listingCacheTTL = 5 * time.Minute

// stack holds the wired application dependencies shared by the serve and
// generate commands.
type stack struct {
	pg       *postgres.Pool
	crm      *crm.Pool
	drafts   *postgres.DraftRepository
	brands   *postgres.BrandRepository
	listings *store.CachedListings
	blobs    *storage.FileStore
	pipe     *pipeline.Pipeline
}

func (s *stack) close() {
	if s.crm != nil {
		_ = s.crm.Close()
	}
	if s.pg != nil {
		_ = s.pg.Close()
	}
}

func newLogger() zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()
}

// buildProvider picks the external composition provider from configuration.
// A nil provider means every draft composes through the offline path.
func buildProvider(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (compose.Provider, error) {
	switch {
	case cfg.OpenAI.Token != "":
		logger.Info().Msg("using OpenAI composition provider")
		return compose.NewOpenAIProvider(cfg.OpenAI.Token), nil
	case cfg.Gemini.APIKey != "":
		logger.Info().Msg("using Gemini composition provider")
		provider, err := compose.NewGeminiProvider(ctx, cfg.Gemini.APIKey)
		if err != nil {
			return nil, fmt.Errorf("creating gemini provider: %w", err)
		}
		return provider, nil
	default:
		logger.Info().Msg("no AI provider configured, composing offline")
		return nil, nil
	}
}

// buildStack connects to both databases, runs migrations, and wires the
// generation pipeline.
func buildStack(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*stack, error) {
	pg, err := postgres.Initialize(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("initializing postgres: %w", err)
	}

	crmPool, err := crm.NewPool(cfg.CRM.DSN)
	if err != nil {
		pg.Close()
		return nil, fmt.Errorf("connecting to CRM database: %w", err)
	}

	blobs, err := storage.NewFileStore(cfg.Storage.Path)
	if err != nil {
		crmPool.Close()
		pg.Close()
		return nil, fmt.Errorf("creating file store: %w", err)
	}

	provider, err := buildProvider(ctx, cfg, logger)
	if err != nil {
		crmPool.Close()
		pg.Close()
		return nil, err
	}

	renderer, err := render.New()
	if err != nil {
		crmPool.Close()
		pg.Close()
		return nil, fmt.Errorf("parsing page templates: %w", err)
	}

	drafts := postgres.NewDraftRepository(pg)
	brands := postgres.NewBrandRepository(pg)
	listings := store.NewCachedListings(crmPool, listingCacheTTL)

	pipe := pipeline.New(
		drafts,
		listings,
		brands,
		blobs,
		compose.NewEngine(provider, &cfg.Presets, cfg.AI, logger),
		imaging.NewTransformer(&cfg.Presets),
		renderer,
		render.NewChromiumRenderer(cfg.Render.ChromiumPath, cfg.Render.Timeout, logger),
		cfg.AI.Concurrency,
		logger,
	)

	return &stack{
		pg:       pg,
		crm:      crmPool,
		drafts:   drafts,
		brands:   brands,
		listings: listings,
		blobs:    blobs,
		pipe:     pipe,
	}, nil
}
