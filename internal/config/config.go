package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultProvider  = "openai"
	DefaultModelName = "gpt-4o"
	DefaultEnvFile   = ".env"
)

var ErrMissingModelName = errors.New("MODEL_NAME must not be empty")

type Config struct {
	LLMProvider string
	ModelName   string
	APIKey      string
	MaxTokens   int
	Temperature float64

	Endpoints EndpointConfig
	Emergent  EmergentConfig
	HTTP      HTTPConfig
	Log       LogConfig
	Metrics   MetricsConfig
}

// EndpointConfig holds per-provider base URL overrides. Empty means the
// provider default.
type EndpointConfig struct {
	OpenAI    string
	DashScope string
	Ollama    string
	Gemini    string
	Anthropic string
}

type EmergentConfig struct {
	SessionID     string
	SystemMessage string
	BaseURL       string
}

type HTTPConfig struct {
	ClientTimeout time.Duration
	MaxRetries    int
	BackoffBase   time.Duration
}

type LogConfig struct {
	Level string
}

type MetricsConfig struct {
	ListenAddr string
}

// Load reads the dotenv file (ENV_FILE, default .env) into the process
// environment, then builds the config from it. Call it once at startup.
func Load() (*Config, error) {
	if err := loadEnvFile(mustEnv("ENV_FILE", DefaultEnvFile)); err != nil {
		return nil, err
	}

	cfg := &Config{
		LLMProvider: strings.ToLower(mustEnv("LLM_PROVIDER", DefaultProvider)),
		ModelName:   mustEnv("MODEL_NAME", DefaultModelName),
		MaxTokens:   mustInt("MAX_TOKENS", 0),
		Temperature: mustFloat("TEMPERATURE", 0),
		Endpoints: EndpointConfig{
			OpenAI:    mustEnv("OPENAI_BASE_URL", ""),
			DashScope: mustEnv("DASHSCOPE_BASE_URL", ""),
			Ollama:    mustEnv("OLLAMA_HOST", ""),
			Gemini:    mustEnv("GEMINI_BASE_URL", ""),
			Anthropic: mustEnv("ANTHROPIC_BASE_URL", ""),
		},
		Emergent: EmergentConfig{
			SessionID:     mustEnv("EMERGENT_SESSION_ID", ""),
			SystemMessage: mustEnv("EMERGENT_SYSTEM_MESSAGE", ""),
			BaseURL:       mustEnv("EMERGENT_BASE_URL", ""),
		},
		HTTP: HTTPConfig{
			ClientTimeout: mustDuration("HTTP_TIMEOUT", 60*time.Second),
			MaxRetries:    mustInt("HTTP_MAX_RETRIES", 0),
			BackoffBase:   mustDuration("HTTP_BACKOFF_BASE", 400*time.Millisecond),
		},
		Log: LogConfig{
			Level: strings.ToLower(mustEnv("LOG_LEVEL", "info")),
		},
		Metrics: MetricsConfig{
			ListenAddr: mustEnv("METRICS_ADDR", ""),
		},
	}
	cfg.APIKey = apiKeyFor(cfg.LLMProvider)

	if cfg.ModelName == "" {
		return nil, ErrMissingModelName
	}
	if cfg.MaxTokens < 0 {
		return nil, fmt.Errorf("MAX_TOKENS must be >= 0, got %d", cfg.MaxTokens)
	}
	if cfg.Temperature < 0 {
		return nil, fmt.Errorf("TEMPERATURE must be >= 0, got %v", cfg.Temperature)
	}
	return cfg, nil
}

// BaseURL returns the endpoint override for provider.
func (c *Config) BaseURL(provider string) string {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "openai":
		return c.Endpoints.OpenAI
	case "dashscope":
		return c.Endpoints.DashScope
	case "ollama":
		return c.Endpoints.Ollama
	case "gemini":
		return c.Endpoints.Gemini
	case "anthropic":
		return c.Endpoints.Anthropic
	default:
		return ""
	}
}

func loadEnvFile(path string) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env file %q: %w", path, err)
	}
	return nil
}

// apiKeyFor prefers API_KEY, then the provider-specific variable.
func apiKeyFor(provider string) string {
	if v := mustEnv("API_KEY", ""); v != "" {
		return v
	}
	if provider == "" {
		return ""
	}
	return mustEnv(strings.ToUpper(provider)+"_API_KEY", "")
}

func mustEnv(key string, def string) string {
	if v := os.Getenv(key); v != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func mustInt(key string, def int) int {
	v := mustEnv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func mustFloat(key string, def float64) float64 {
	v := mustEnv(key, "")
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func mustDuration(key string, def time.Duration) time.Duration {
	v := mustEnv(key, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
