package generator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIGenerator uses any OpenAI-compatible chat completions endpoint,
// including Ollama's /v1.
type OpenAIGenerator struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
	logger      *slog.Logger
}

type OpenAIConfig struct {
	APIKey      string
	BaseURL     string // e.g. http://localhost:11434/v1
	Model       string
	Temperature float32
	MaxTokens   int
}

func NewOpenAIGenerator(cfg OpenAIConfig, logger *slog.Logger) *OpenAIGenerator {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Model == "" {
		cfg.Model = openai.GPT4oMini
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 200
	}

	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	return &OpenAIGenerator{
		client:      openai.NewClientWithConfig(oc),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		logger:      logger,
	}
}

func (g *OpenAIGenerator) Model() string {
	return g.model
}

func (g *OpenAIGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   g.maxTokens,
		Temperature: g.temperature,
	})
	if err != nil {
		g.logger.Error("generator.openai.error", "model", g.model, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", ErrEmptyResponse
	}

	g.logger.Info("generator.openai.response", "model", g.model,
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens,
		"elapsed_ms", time.Since(start).Milliseconds())
	return resp.Choices[0].Message.Content, nil
}
