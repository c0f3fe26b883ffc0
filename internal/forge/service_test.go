package forge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"weaponforge/internal/extractor"
	"weaponforge/internal/model"
	"weaponforge/internal/observability"
	"weaponforge/internal/predictor"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

const axeLine = "Damage: 15, Weight: 10.5, Upgrade: Steel to Daedric, Perk: Frostbite Cleave, Type: Axe, Category: Melee."

// scriptedGenerator answers name prompts with name and stats prompts with
// stats in order, repeating the last entry.
type scriptedGenerator struct {
	mu        sync.Mutex
	name      string
	nameErr   error
	stats     []string
	statsErr  error
	nameCalls int
	calls     int
}

func (g *scriptedGenerator) Generate(_ context.Context, prompt string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if strings.Contains(prompt, "Skyrim-style weapon name") {
		g.nameCalls++
		return g.name, g.nameErr
	}
	g.calls++
	if g.statsErr != nil {
		return "", g.statsErr
	}
	if len(g.stats) == 0 {
		return "", errors.New("script exhausted")
	}
	text := g.stats[0]
	if len(g.stats) > 1 {
		g.stats = g.stats[1:]
	}
	return text, nil
}

func (g *scriptedGenerator) Model() string { return "scripted" }

type memStore struct {
	mu   sync.Mutex
	docs []model.WeaponDocument
	err  error
}

func (s *memStore) Save(_ context.Context, doc *model.WeaponDocument) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	if doc.ID == "" {
		doc.ID = fmt.Sprintf("id-%d", len(s.docs)+1)
	}
	s.docs = append(s.docs, *doc)
	return nil
}

func (s *memStore) List(_ context.Context, limit int) ([]model.WeaponDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.WeaponDocument(nil), s.docs...), s.err
}

func (s *memStore) UpdatePrice(_ context.Context, id string, price float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.docs {
		if s.docs[i].ID == id {
			s.docs[i].PredictedPrice = price
			return nil
		}
	}
	return errors.New("not found")
}

type memLog struct {
	logs []model.GenerationLog
}

func (l *memLog) Save(_ context.Context, g *model.GenerationLog) error {
	l.logs = append(l.logs, *g)
	return nil
}

type memNames map[string]string

func (m memNames) Get(_ context.Context, base string) (string, bool) {
	n, ok := m[base]
	return n, ok
}

func (m memNames) Set(_ context.Context, base, name string) error {
	m[base] = name
	return nil
}

func newService(gen *scriptedGenerator, store *memStore, log *memLog) *Service {
	lm := &predictor.LinearModel{
		Columns:      []string{"Damage", "Weight"},
		Intercept:    1,
		Coefficients: []float64{2, 1},
	}
	svc := &Service{
		Generator:   gen,
		Extractor:   extractor.New(extractor.Permissive, extractor.WithLogger(quiet)),
		Encoder:     lm.Encoder(),
		Predictor:   lm,
		Store:       store,
		Metrics:     observability.NewMetrics(),
		MaxAttempts: 3,
		Logger:      quiet,
	}
	if log != nil {
		svc.Log = log
	}
	return svc
}

func TestForge_RetriesUntilValid(t *testing.T) {
	gen := &scriptedGenerator{name: "Blade of Hilda", stats: []string{"I am but a humble blacksmith.", axeLine}}
	store := &memStore{}
	log := &memLog{}
	svc := newService(gen, store, log)

	doc, err := svc.Forge(context.Background(), "Hilda")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Name != "Blade of Hilda" || doc.Damage != 15 || doc.Category != "Melee" {
		t.Errorf("unexpected document %+v", doc)
	}
	if doc.PredictedPrice != 41.5 {
		t.Errorf("expected price 41.5, got %v", doc.PredictedPrice)
	}
	if doc.Model != "scripted" {
		t.Errorf("unexpected model %q", doc.Model)
	}
	if gen.calls != 2 {
		t.Errorf("expected 2 stats calls, got %d", gen.calls)
	}
	if len(store.docs) != 1 || store.docs[0].ID == "" {
		t.Errorf("expected one stored document, got %+v", store.docs)
	}
	if len(log.logs) != 2 || log.logs[0].Outcome != "missing_fields" || log.logs[1].Outcome != "ok" {
		t.Errorf("unexpected audit log %+v", log.logs)
	}
	if got := testutil.ToFloat64(svc.Metrics.Extractions.WithLabelValues("permissive", "missing_fields")); got != 1 {
		t.Errorf("expected 1 failed extraction metric, got %v", got)
	}
}

func TestForge_ExhaustsAttempts(t *testing.T) {
	gen := &scriptedGenerator{name: "Blade of Hilda", stats: []string{"Damage: 15, Weight: heavy"}}
	store := &memStore{}
	svc := newService(gen, store, &memLog{})

	_, err := svc.Forge(context.Background(), "Hilda")
	if !errors.Is(err, ErrGenerationFailed) {
		t.Fatalf("expected ErrGenerationFailed, got %v", err)
	}
	if !errors.Is(err, extractor.ErrInvalidWeight) {
		t.Errorf("expected last extraction error to be wrapped, got %v", err)
	}
	if gen.calls != 3 {
		t.Errorf("expected 3 attempts, got %d", gen.calls)
	}
	if len(store.docs) != 0 {
		t.Error("nothing should be stored")
	}
}

func TestForge_StoreFailureIsNotFatal(t *testing.T) {
	gen := &scriptedGenerator{name: "Blade of Hilda", stats: []string{axeLine}}
	svc := newService(gen, &memStore{err: errors.New("connection refused")}, nil)

	doc, err := svc.Forge(context.Background(), "Hilda")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc == nil || doc.PredictedPrice == 0 {
		t.Fatalf("expected priced document, got %+v", doc)
	}
	if got := testutil.ToFloat64(svc.Metrics.StoreErrors); got != 1 {
		t.Errorf("expected 1 store error, got %v", got)
	}
}

func TestForge_TransportError(t *testing.T) {
	boom := errors.New("ollama down")
	gen := &scriptedGenerator{name: "Blade of Hilda", statsErr: boom}
	svc := newService(gen, &memStore{}, nil)

	_, err := svc.Forge(context.Background(), "Hilda")
	if !errors.Is(err, boom) {
		t.Fatalf("expected transport error, got %v", err)
	}
	if errors.Is(err, ErrGenerationFailed) {
		t.Error("transport errors must not be reported as extraction failures")
	}
	if gen.calls != 1 {
		t.Errorf("transport errors should not be retried, got %d calls", gen.calls)
	}
}

func TestForge_Names(t *testing.T) {
	t.Run("cached", func(t *testing.T) {
		gen := &scriptedGenerator{name: "Unused", stats: []string{axeLine}}
		svc := newService(gen, &memStore{}, nil)
		svc.Names = memNames{"Hilda": "Cached Blade"}

		doc, err := svc.Forge(context.Background(), "Hilda")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if doc.Name != "Cached Blade" || gen.nameCalls != 0 {
			t.Errorf("expected cached name without generation, got %q (%d calls)", doc.Name, gen.nameCalls)
		}
	})

	t.Run("stored after generation", func(t *testing.T) {
		names := memNames{}
		svc := newService(&scriptedGenerator{name: "Hilda's Vengeance", stats: []string{axeLine}}, &memStore{}, nil)
		svc.Names = names

		if _, err := svc.Forge(context.Background(), " Hilda "); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if names["Hilda"] != "Hilda's Vengeance" {
			t.Errorf("expected name to be cached, got %v", names)
		}
	})

	t.Run("fallback", func(t *testing.T) {
		names := memNames{}
		svc := newService(&scriptedGenerator{nameErr: errors.New("timeout"), stats: []string{axeLine}}, &memStore{}, nil)
		svc.Names = names

		doc, err := svc.Forge(context.Background(), "Hilda")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if doc.Name != "Hilda's Weapon" {
			t.Errorf("expected fallback name, got %q", doc.Name)
		}
		if len(names) != 0 {
			t.Error("fallback names should not be cached")
		}
	})
}

func TestForge_EmptyBase(t *testing.T) {
	svc := newService(&scriptedGenerator{}, &memStore{}, nil)
	if _, err := svc.Forge(context.Background(), "   "); !errors.Is(err, ErrEmptyBaseName) {
		t.Errorf("expected ErrEmptyBaseName, got %v", err)
	}
}
