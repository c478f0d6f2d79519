package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

var configKeys = []string{
	"LLM_PROVIDER", "MODEL_NAME", "API_KEY", "MAX_TOKENS", "TEMPERATURE",
	"OPENAI_API_KEY", "ANTHROPIC_API_KEY", "GEMINI_API_KEY", "DASHSCOPE_API_KEY",
	"OPENAI_BASE_URL", "DASHSCOPE_BASE_URL", "OLLAMA_HOST", "GEMINI_BASE_URL", "ANTHROPIC_BASE_URL",
	"EMERGENT_SESSION_ID", "EMERGENT_SYSTEM_MESSAGE", "EMERGENT_BASE_URL",
	"HTTP_TIMEOUT", "HTTP_MAX_RETRIES", "HTTP_BACKOFF_BASE", "LOG_LEVEL", "METRICS_ADDR",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range configKeys {
		t.Setenv(k, "")
	}
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.LLMProvider != DefaultProvider || cfg.ModelName != DefaultModelName {
		t.Fatalf("unexpected defaults %q/%q", cfg.LLMProvider, cfg.ModelName)
	}
	if cfg.APIKey != "" {
		t.Fatalf("expected empty api key, got %q", cfg.APIKey)
	}
	if cfg.HTTP.ClientTimeout != 60*time.Second || cfg.HTTP.MaxRetries != 0 {
		t.Fatalf("unexpected http defaults %+v", cfg.HTTP)
	}
	if cfg.Log.Level != "info" || cfg.Metrics.ListenAddr != "" {
		t.Fatalf("unexpected log/metrics defaults %+v %+v", cfg.Log, cfg.Metrics)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("LLM_PROVIDER", "Anthropic")
	t.Setenv("MODEL_NAME", "claude-sonnet-4")
	t.Setenv("ANTHROPIC_API_KEY", " sk-ant ")
	t.Setenv("ANTHROPIC_BASE_URL", "http://proxy.local")
	t.Setenv("HTTP_TIMEOUT", "5s")
	t.Setenv("HTTP_MAX_RETRIES", "not-a-number")
	t.Setenv("EMERGENT_SESSION_ID", "s-42")
	t.Setenv("TEMPERATURE", "0.4")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.LLMProvider != "anthropic" {
		t.Fatalf("expected lowercased provider, got %q", cfg.LLMProvider)
	}
	if cfg.APIKey != "sk-ant" {
		t.Fatalf("expected provider-specific key, got %q", cfg.APIKey)
	}
	if cfg.BaseURL("ANTHROPIC") != "http://proxy.local" || cfg.BaseURL("openai") != "" || cfg.BaseURL("other") != "" {
		t.Fatalf("unexpected base url lookup")
	}
	if cfg.HTTP.ClientTimeout != 5*time.Second {
		t.Fatalf("unexpected timeout %v", cfg.HTTP.ClientTimeout)
	}
	if cfg.HTTP.MaxRetries != 0 {
		t.Fatalf("invalid int must fall back to default, got %d", cfg.HTTP.MaxRetries)
	}
	if cfg.Temperature != 0.4 {
		t.Fatalf("unexpected temperature %v", cfg.Temperature)
	}
	if cfg.Emergent.SessionID != "s-42" {
		t.Fatalf("unexpected session id %q", cfg.Emergent.SessionID)
	}
}

func TestAPIKeyPrecedence(t *testing.T) {
	clearEnv(t)
	t.Setenv("API_KEY", "sk-emergent-universal")
	t.Setenv("OPENAI_API_KEY", "sk-openai")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.APIKey != "sk-emergent-universal" {
		t.Fatalf("API_KEY must win, got %q", cfg.APIKey)
	}
}

func TestLoadEnvFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "friday.env")
	content := "# local overrides\nEMERGENT_BASE_URL=http://gateway.local/llm\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("ENV_FILE", path)
	// EMERGENT_BASE_URL is set to "" by clearEnv, so godotenv would not
	// override it; unset it so the file value applies.
	os.Unsetenv("EMERGENT_BASE_URL")
	t.Cleanup(func() { os.Unsetenv("EMERGENT_BASE_URL") })

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Emergent.BaseURL != "http://gateway.local/llm" {
		t.Fatalf("expected value from env file, got %q", cfg.Emergent.BaseURL)
	}
}

func TestLoadRejectsNegativeMaxTokens(t *testing.T) {
	clearEnv(t)
	t.Setenv("MAX_TOKENS", "-1")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for negative MAX_TOKENS")
	}
}

func TestLoadRejectsNegativeTemperature(t *testing.T) {
	clearEnv(t)
	t.Setenv("TEMPERATURE", "-0.5")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for negative TEMPERATURE")
	}
}
