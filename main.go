package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aleksih/moveinventory/internal/api"
	"github.com/aleksih/moveinventory/internal/config"
	"github.com/aleksih/moveinventory/internal/llm"
	"github.com/aleksih/moveinventory/internal/pipeline"
	"github.com/aleksih/moveinventory/internal/storage"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const interRoomDelay = 500 * time.Millisecond

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	config.LoadEnvFile()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var encryptionKey []byte
	if cfg.FieldKey != "" {
		encryptionKey, err = storage.DeriveKey(cfg.FieldKey)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to derive encryption key")
		}
	}

	store, err := storage.NewSQLiteStore(cfg.DBPath, encryptionKey)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize store")
	}
	defer store.Close()
	log.Info().Str("dbPath", cfg.DBPath).Msg("store initialized")

	if _, err := store.PruneCache(cfg.CacheMaxAge); err != nil {
		log.Warn().Err(err).Msg("failed to prune response cache")
	}

	backend, err := newModelBackend(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize model backend")
	}

	policy := llm.DefaultRetryPolicy()
	policy.MaxAttempts = cfg.MaxRetries
	policy.CallTimeout = cfg.CallTimeout

	client := llm.NewCachedClient(llm.Retrying(backend, policy), store)
	detector := pipeline.NewDetector(client, interRoomDelay)

	e := echo.New()
	e.HideBanner = true
	server := api.NewServer(detector, store, api.NewPricingSource(cfg.PricingFile, cfg.PricingTTL))
	server.Register(e)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("addr", cfg.ListenAddr).Msg("listening")
		if err := e.Start(cfg.ListenAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("shutdown with error")
	} else {
		log.Info().Msg("shutdown complete")
	}
}

func newModelBackend(ctx context.Context, cfg *config.Config) (llm.Client, error) {
	switch cfg.ModelBackend {
	case "gemini":
		return llm.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.ModelName)
	default:
		return llm.NewOpenAIClient(llm.OpenAIOpts{
			BaseURL: cfg.OpenAIBase,
			APIKey:  cfg.OpenAIAPIKey,
			Model:   cfg.ModelName,
		}), nil
	}
}
