package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL string `toml:"database_url"`
	RawDBDriver string `toml:"raw_db_driver"`
	RawDBURL    string `toml:"raw_db_url"`
	RedisURL    string `toml:"redis_url"`

	GenerationBackend string  `toml:"generation_backend"`
	GenerationURL     string  `toml:"generation_url"`
	GenerationModel   string  `toml:"generation_model"`
	OpenAIKey         string  `toml:"openai_api_key"`
	Temperature       float32 `toml:"temperature"`
	MaxTokens         int     `toml:"max_tokens"`

	ExtractMode string `toml:"extract_mode"`
	MaxAttempts int    `toml:"max_attempts"`

	ModelPath    string `toml:"model_path"`
	PredictorURL string `toml:"predictor_url"`

	HTTPAddr    string `toml:"http_addr"`
	MetricsPort string `toml:"metrics_port"`
	WorkerCount int    `toml:"worker_count"`

	LogLevel string `toml:"log_level"`
	LogFile  string `toml:"log_file"`
}

func Defaults() *Config {
	return &Config{
		RawDBDriver:       "sqlite",
		RawDBURL:          "generations.db",
		RedisURL:          "localhost:6379",
		GenerationBackend: "ollama",
		GenerationModel:   "hf.co/DavidAU/Gemma-The-Writer-Mighty-Sword-9B-GGUF:Q2_K",
		Temperature:       0.7,
		MaxTokens:         200,
		ExtractMode:       "permissive",
		MaxAttempts:       3,
		ModelPath:         "model.json",
		HTTPAddr:          ":8080",
		MetricsPort:       "9090",
		WorkerCount:       4,
		LogLevel:          "info",
	}
}

// Load builds the configuration from defaults, then the TOML file at path
// (skipped when it does not exist), then environment variables. A .env file is
// loaded into the environment first.
func Load(path string) (*Config, error) {
	// project root first, then the working directory
	_ = godotenv.Load("../../.env")
	_ = godotenv.Load()

	cfg := Defaults()

	if path == "" {
		path = getEnv("FORGE_CONFIG", "forge.toml")
	}
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
	}

	cfg.DatabaseURL = getEnv("DATABASE_URL", cfg.DatabaseURL)
	cfg.RawDBDriver = getEnv("RAW_DB_DRIVER", cfg.RawDBDriver)
	cfg.RawDBURL = getEnv("RAW_DB_URL", cfg.RawDBURL)
	cfg.RedisURL = getEnv("REDIS_URL", cfg.RedisURL)
	cfg.GenerationBackend = getEnv("GENERATION_BACKEND", cfg.GenerationBackend)
	cfg.GenerationURL = getEnv("GENERATION_URL", cfg.GenerationURL)
	cfg.GenerationModel = getEnv("GENERATION_MODEL", cfg.GenerationModel)
	cfg.OpenAIKey = getEnv("OPENAI_API_KEY", cfg.OpenAIKey)
	cfg.Temperature = getEnvFloat32("GENERATION_TEMPERATURE", cfg.Temperature)
	cfg.MaxTokens = getEnvInt("GENERATION_MAX_TOKENS", cfg.MaxTokens)
	cfg.ExtractMode = getEnv("EXTRACT_MODE", cfg.ExtractMode)
	cfg.MaxAttempts = getEnvInt("MAX_ATTEMPTS", cfg.MaxAttempts)
	cfg.ModelPath = getEnv("MODEL_PATH", cfg.ModelPath)
	cfg.PredictorURL = getEnv("PREDICTOR_URL", cfg.PredictorURL)
	cfg.HTTPAddr = getEnv("HTTP_ADDR", cfg.HTTPAddr)
	cfg.MetricsPort = getEnv("METRICS_PORT", cfg.MetricsPort)
	cfg.WorkerCount = getEnvInt("WORKER_COUNT", cfg.WorkerCount)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFile = getEnv("LOG_FILE", cfg.LogFile)

	if cfg.GenerationURL == "" {
		cfg.GenerationURL = DefaultGenerationURL(cfg.GenerationBackend)
	}

	return cfg, nil
}

// DefaultGenerationURL is the local Ollama endpoint in the form each backend
// expects: the native API root, or its OpenAI-compatible /v1 prefix.
func DefaultGenerationURL(backend string) string {
	if backend == "openai" {
		return "http://localhost:11434/v1"
	}
	return "http://localhost:11434"
}

func (c *Config) Validate() error {
	switch c.ExtractMode {
	case "permissive", "strict":
	default:
		return fmt.Errorf("extract_mode must be permissive or strict, got %q", c.ExtractMode)
	}
	switch c.GenerationBackend {
	case "ollama", "openai":
	default:
		return fmt.Errorf("generation_backend must be ollama or openai, got %q", c.GenerationBackend)
	}
	switch c.RawDBDriver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("raw_db_driver must be sqlite or postgres, got %q", c.RawDBDriver)
	}
	if c.MaxAttempts < 1 {
		return fmt.Errorf("max_attempts must be at least 1, got %d", c.MaxAttempts)
	}
	if c.WorkerCount < 1 {
		return fmt.Errorf("worker_count must be at least 1, got %d", c.WorkerCount)
	}
	return nil
}

func getEnv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func getEnvInt(k string, d int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return d
}

func getEnvFloat32(k string, d float32) float32 {
	if v := os.Getenv(k); v != "" {
		if f, err := strconv.ParseFloat(v, 32); err == nil {
			return float32(f)
		}
	}
	return d
}
