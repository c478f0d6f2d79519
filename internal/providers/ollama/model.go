package ollama

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"friday/internal/formatter"
	"friday/internal/message"
	"friday/internal/providers"
	"friday/internal/providers/openai_compat"
)

const DefaultHost = "http://localhost:11434"

type Config struct {
	Host        string
	ModelName   string
	HTTPClient  *http.Client
	MaxRetries  int
	BackoffBase time.Duration
	MaxTokens   int
	Temperature float64
}

// ChatModel talks to a local Ollama server through its OpenAI-compatible
// /v1 endpoint. Ollama needs no API key.
type ChatModel struct {
	client      *openai_compat.Client
	format      formatter.Ollama
	model       string
	maxTokens   int
	temperature float64
}

var _ providers.ChatModel = (*ChatModel)(nil)

func New(cfg Config) *ChatModel {
	host := strings.TrimSuffix(strings.TrimSpace(cfg.Host), "/")
	if host == "" {
		host = DefaultHost
	}
	return &ChatModel{
		client: openai_compat.New(openai_compat.Config{
			BaseURL:     host + "/v1",
			HTTPClient:  cfg.HTTPClient,
			MaxRetries:  cfg.MaxRetries,
			BackoffBase: cfg.BackoffBase,
		}),
		model:       cfg.ModelName,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
	}
}

func (m *ChatModel) ModelName() string { return m.model }

func (m *ChatModel) Call(ctx context.Context, messages []message.Msg) (message.Msg, error) {
	wire, err := m.format.Format(messages)
	if err != nil {
		return message.Msg{}, err
	}
	text, err := m.client.Chat(ctx, openai_compat.Request{
		Model:       m.model,
		Messages:    wire,
		MaxTokens:   m.maxTokens,
		Temperature: m.temperature,
	})
	if err != nil {
		return message.Msg{}, fmt.Errorf("ollama chat: %w", err)
	}
	return message.Assistant(text), nil
}
