package generator

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
)

// OllamaGenerator uses Ollama's native /api/generate endpoint.
type OllamaGenerator struct {
	client      *api.Client
	model       string
	temperature float32
	maxTokens   int
	logger      *slog.Logger
}

type OllamaConfig struct {
	BaseURL     string // empty uses OLLAMA_HOST
	Model       string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
}

func NewOllamaGenerator(cfg OllamaConfig, logger *slog.Logger) (*OllamaGenerator, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 200
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Minute
	}

	var client *api.Client
	if cfg.BaseURL == "" {
		c, err := api.ClientFromEnvironment()
		if err != nil {
			return nil, fmt.Errorf("failed to create ollama client: %w", err)
		}
		client = c
	} else {
		base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
		if err != nil {
			return nil, fmt.Errorf("parse ollama url: %w", err)
		}
		client = api.NewClient(base, &http.Client{Timeout: cfg.Timeout})
	}

	return &OllamaGenerator{
		client:      client,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		logger:      logger,
	}, nil
}

func (o *OllamaGenerator) Model() string {
	return o.model
}

func (o *OllamaGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	stream := false
	req := &api.GenerateRequest{
		Model:  o.model,
		Prompt: prompt,
		Stream: &stream,
		Options: map[string]any{
			"temperature": o.temperature,
			"num_predict": o.maxTokens,
		},
	}

	var sb strings.Builder
	err := o.client.Generate(ctx, req, func(resp api.GenerateResponse) error {
		sb.WriteString(resp.Response)
		return nil
	})
	if err != nil {
		o.logger.Error("generator.ollama.error", "model", o.model, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return "", fmt.Errorf("ollama generation failed: %w", err)
	}

	text := sb.String()
	o.logger.Info("generator.ollama.response", "model", o.model, "chars", len(text),
		"elapsed_ms", time.Since(start).Milliseconds())
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
