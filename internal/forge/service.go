// Package forge wires generation, extraction, pricing and persistence into a
// single "make me a weapon" operation.
package forge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"weaponforge/internal/extractor"
	"weaponforge/internal/generator"
	"weaponforge/internal/model"
	"weaponforge/internal/observability"
	"weaponforge/internal/predictor"
	"weaponforge/internal/repository"
)

var (
	ErrGenerationFailed = errors.New("no valid weapon generated")
	ErrEmptyBaseName    = errors.New("base name is required")
)

// GenerationLog records every generation attempt.
type GenerationLog interface {
	Save(ctx context.Context, l *model.GenerationLog) error
}

type NameCache interface {
	Get(ctx context.Context, base string) (string, bool)
	Set(ctx context.Context, base, name string) error
}

// Service holds every collaborator explicitly. Store, Log, Names and Metrics
// are optional.
type Service struct {
	Generator   generator.Generator
	Extractor   *extractor.Extractor
	Encoder     *predictor.Encoder
	Predictor   predictor.Predictor
	Store       repository.WeaponStore
	Log         GenerationLog
	Names       NameCache
	Metrics     *observability.Metrics
	MaxAttempts int
	Logger      *slog.Logger
}

func (s *Service) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

// Forge generates a named weapon from base, prices it and stores it. A
// storage failure is logged and counted but does not fail the call.
func (s *Service) Forge(ctx context.Context, base string) (*model.WeaponDocument, error) {
	base = strings.TrimSpace(base)
	if base == "" {
		return nil, ErrEmptyBaseName
	}
	start := time.Now()

	name := s.weaponName(ctx, base)
	rec, err := s.generateRecord(ctx, base, name)
	if err != nil {
		return nil, err
	}
	rec.Name = name

	doc, err := s.Price(ctx, rec)
	if err != nil {
		return nil, err
	}
	doc.Model = s.Generator.Model()

	if s.Store != nil {
		if err := s.Store.Save(ctx, doc); err != nil {
			s.Metrics.StoreError()
			s.logger().Error("forge.store_failed", "name", doc.Name, "error", err)
		} else {
			s.logger().Info("forge.stored", "id", doc.ID, "name", doc.Name)
		}
	}

	s.logger().Info("forge.done",
		"name", doc.Name,
		"type", doc.Type,
		"predicted_price", doc.PredictedPrice,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return doc, nil
}

// Price encodes rec, predicts its price and returns a new document holding
// the price rounded to two decimals.
func (s *Service) Price(ctx context.Context, rec model.FieldRecord) (*model.WeaponDocument, error) {
	features := s.Encoder.Encode(rec)
	price, err := s.Predictor.Predict(ctx, features)
	if err != nil {
		return nil, fmt.Errorf("predict price: %w", err)
	}
	price = predictor.Round2(price)
	s.Metrics.ObservePrice(price)

	return &model.WeaponDocument{
		FieldRecord:    rec,
		PredictedPrice: price,
		CreatedAt:      time.Now().UTC(),
	}, nil
}

func (s *Service) weaponName(ctx context.Context, base string) string {
	if s.Names != nil {
		if name, ok := s.Names.Get(ctx, base); ok {
			s.logger().Debug("forge.name_cached", "base", base, "name", name)
			return name
		}
	}

	name, err := generator.GenerateName(ctx, s.Generator, base)
	if err != nil {
		s.logger().Warn("forge.name_fallback", "base", base, "name", name, "error", err)
		return name
	}
	if s.Names != nil {
		if err := s.Names.Set(ctx, base, name); err != nil {
			s.logger().Warn("forge.name_cache_set", "base", base, "error", err)
		}
	}
	return name
}

// generateRecord re-prompts until the extractor accepts the answer or
// MaxAttempts is reached. Transport errors are returned immediately.
func (s *Service) generateRecord(ctx context.Context, base, name string) (model.FieldRecord, error) {
	attempts := s.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	mode := string(s.Extractor.Mode())
	prompt := generator.StatsPrompt(name)

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return model.FieldRecord{}, err
		}

		start := time.Now()
		text, err := s.Generator.Generate(ctx, prompt)
		s.Metrics.ObserveGeneration(time.Since(start).Seconds())
		if err != nil {
			return model.FieldRecord{}, fmt.Errorf("generate stats: %w", err)
		}

		rec, err := s.Extractor.Extract(text)
		reason := extractor.Reason(err)
		s.Metrics.ObserveExtraction(mode, reason)
		s.audit(ctx, &model.GenerationLog{
			BaseName:   base,
			WeaponName: name,
			Prompt:     prompt,
			RawText:    text,
			Attempt:    attempt,
			Outcome:    reason,
			Error:      errString(err),
		})
		if err == nil {
			return rec, nil
		}

		lastErr = err
		s.logger().Warn("forge.extract_failed", "name", name, "attempt", attempt, "of", attempts, "error", err)
	}
	return model.FieldRecord{}, fmt.Errorf("%w after %d attempts: %w", ErrGenerationFailed, attempts, lastErr)
}

func (s *Service) audit(ctx context.Context, l *model.GenerationLog) {
	if s.Log == nil {
		return
	}
	if err := s.Log.Save(ctx, l); err != nil {
		s.logger().Warn("forge.audit_failed", "error", err)
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
