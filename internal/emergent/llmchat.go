// Package emergent is a client for the Emergent universal-key LLM gateway.
// One key reaches several upstream providers; the gateway speaks the
// OpenAI chat-completions protocol and routes on a "provider/model" name.
package emergent

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"friday/internal/providers/openai_compat"
)

const (
	DefaultBaseURL = "https://integrations.emergentagent.com/llm"
	KeyPrefix      = "sk-emergent"
)

type Config struct {
	APIKey        string
	SessionID     string
	SystemMessage string
	BaseURL       string
	Temperature   float64
	HTTPClient    *http.Client
	MaxRetries    int
	BackoffBase   time.Duration
}

type UserMessage struct {
	Text string
}

// LlmChat holds the session id and system message fixed at construction.
// Each SendMessage is a single independent round trip.
type LlmChat struct {
	sessionID     string
	systemMessage string
	provider      string
	model         string
	temperature   float64
	transport     *openai_compat.Client
}

func NewLlmChat(cfg Config) *LlmChat {
	base := strings.TrimSpace(cfg.BaseURL)
	if base == "" {
		base = DefaultBaseURL
	}
	return &LlmChat{
		sessionID:     cfg.SessionID,
		systemMessage: cfg.SystemMessage,
		provider:      "openai",
		temperature:   cfg.Temperature,
		transport: openai_compat.New(openai_compat.Config{
			BaseURL:     base,
			APIKey:      cfg.APIKey,
			HTTPClient:  cfg.HTTPClient,
			MaxRetries:  cfg.MaxRetries,
			BackoffBase: cfg.BackoffBase,
		}),
	}
}

// WithModel selects the upstream provider and model.
func (c *LlmChat) WithModel(provider, model string) *LlmChat {
	c.provider = strings.ToLower(strings.TrimSpace(provider))
	c.model = strings.TrimSpace(model)
	return c
}

func (c *LlmChat) SendMessage(ctx context.Context, msg UserMessage) (string, error) {
	if c.model == "" {
		return "", fmt.Errorf("no model selected")
	}
	messages := make([]map[string]any, 0, 2)
	if strings.TrimSpace(c.systemMessage) != "" {
		messages = append(messages, map[string]any{"role": "system", "content": c.systemMessage})
	}
	messages = append(messages, map[string]any{"role": "user", "content": msg.Text})

	return c.transport.Chat(ctx, openai_compat.Request{
		Model:       c.routedModel(),
		Messages:    messages,
		User:        c.sessionID,
		Temperature: c.temperature,
	})
}

func (c *LlmChat) routedModel() string {
	if c.provider == "" {
		return c.model
	}
	return c.provider + "/" + c.model
}

// IsUniversalKey reports whether key should be routed through the gateway.
func IsUniversalKey(key string) bool {
	return strings.HasPrefix(key, KeyPrefix)
}
