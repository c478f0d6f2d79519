package dashscope

import (
	"net/http"
	"strings"

	"friday/internal/providers"
	"friday/internal/providers/openai"
)

// DefaultBaseURL is DashScope's OpenAI-compatible endpoint.
const DefaultBaseURL = "https://dashscope.aliyuncs.com/compatible-mode/v1"

type Config struct {
	APIKey     string
	ModelName  string
	BaseURL    string
	HTTPClient *http.Client
	MaxTokens  int
}

type ChatModel struct {
	*openai.ChatModel
}

var _ providers.ChatModel = (*ChatModel)(nil)

func New(cfg Config) *ChatModel {
	base := strings.TrimSpace(cfg.BaseURL)
	if base == "" {
		base = DefaultBaseURL
	}
	return &ChatModel{ChatModel: openai.New(openai.Config{
		APIKey:     cfg.APIKey,
		ModelName:  cfg.ModelName,
		BaseURL:    base,
		HTTPClient: cfg.HTTPClient,
		MaxTokens:  cfg.MaxTokens,
	})}
}
