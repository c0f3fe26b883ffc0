package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"weaponforge/internal/cache"
	"weaponforge/internal/db"
	"weaponforge/internal/extractor"
	"weaponforge/internal/forge"
	"weaponforge/internal/generator"
	"weaponforge/internal/model"
	"weaponforge/internal/observability"
	"weaponforge/internal/predictor"
	"weaponforge/internal/repository"
)

func newGenerator() (generator.Generator, error) {
	switch cfg.GenerationBackend {
	case "openai":
		return generator.NewOpenAIGenerator(generator.OpenAIConfig{
			APIKey:      cfg.OpenAIKey,
			BaseURL:     cfg.GenerationURL,
			Model:       cfg.GenerationModel,
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
		}, logger), nil
	default:
		return generator.NewOllamaGenerator(generator.OllamaConfig{
			BaseURL:     cfg.GenerationURL,
			Model:       cfg.GenerationModel,
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
		}, logger)
	}
}

func newExtractor(mode string) (*extractor.Extractor, error) {
	m, err := extractor.ParseMode(mode)
	if err != nil {
		return nil, err
	}
	return extractor.New(m, extractor.WithName(), extractor.WithLogger(logger)), nil
}

// newPricing returns the encoder and predictor. The model file provides the
// column layout in both cases; a remote predictor without a model file falls
// back to Damage and Weight.
func newPricing() (*predictor.Encoder, predictor.Predictor, error) {
	lm, err := predictor.LoadLinearModel(cfg.ModelPath)
	if cfg.PredictorURL == "" {
		if err != nil {
			return nil, nil, err
		}
		return lm.Encoder(), lm, nil
	}

	enc := predictor.NewEncoder([]string{model.FieldDamage, model.FieldWeight}, nil)
	switch {
	case err == nil:
		enc = lm.Encoder()
	case !errors.Is(err, fs.ErrNotExist):
		return nil, nil, err
	}
	return enc, predictor.NewHTTPPredictor(cfg.PredictorURL, enc.Columns), nil
}

func openWeaponStore(ctx context.Context) (*repository.WeaponRepository, func(), error) {
	if cfg.DatabaseURL == "" {
		return nil, func() {}, errors.New("DATABASE_URL is not set")
	}
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, func() {}, err
	}
	repo := &repository.WeaponRepository{DB: pool}
	if err := repo.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, func() {}, err
	}
	return repo, pool.Close, nil
}

func openGenerationLog(ctx context.Context) (*repository.RawRepository, func(), error) {
	conn, err := db.New(cfg.RawDBDriver, cfg.RawDBURL)
	if err != nil {
		return nil, func() {}, err
	}
	repo := &repository.RawRepository{DB: conn, Driver: cfg.RawDBDriver}
	if err := repo.EnsureSchema(ctx); err != nil {
		conn.Close()
		return nil, func() {}, err
	}
	return repo, func() { conn.Close() }, nil
}

// newService wires every collaborator. Storage, the generation log and the
// name cache are optional: a failure to reach them is logged and the service
// runs without them.
func newService(ctx context.Context, metrics *observability.Metrics, persist bool) (*forge.Service, func(), error) {
	gen, err := newGenerator()
	if err != nil {
		return nil, nil, fmt.Errorf("generator: %w", err)
	}
	ex, err := newExtractor(cfg.ExtractMode)
	if err != nil {
		return nil, nil, err
	}
	enc, pred, err := newPricing()
	if err != nil {
		return nil, nil, fmt.Errorf("predictor: %w", err)
	}

	svc := &forge.Service{
		Generator:   gen,
		Extractor:   ex,
		Encoder:     enc,
		Predictor:   pred,
		Metrics:     metrics,
		MaxAttempts: cfg.MaxAttempts,
		Logger:      logger,
	}
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	openCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if persist {
		if store, closeStore, err := openWeaponStore(openCtx); err != nil {
			logger.Warn("forge.store_unavailable", "error", err)
		} else {
			svc.Store = store
			closers = append(closers, closeStore)
		}
	}

	if genLog, closeLog, err := openGenerationLog(openCtx); err != nil {
		logger.Warn("forge.log_unavailable", "error", err)
	} else {
		svc.Log = genLog
		closers = append(closers, closeLog)
	}

	if cfg.RedisURL != "" {
		names := cache.New(cfg.RedisURL)
		if err := names.Client.Ping(openCtx).Err(); err != nil {
			logger.Warn("forge.cache_unavailable", "addr", cfg.RedisURL, "error", err)
			names.Close()
		} else {
			svc.Names = names
			closers = append(closers, func() { names.Close() })
		}
	}

	return svc, cleanup, nil
}
