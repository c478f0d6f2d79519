package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"friday/internal/formatter"
	"friday/internal/message"
	"friday/internal/providers"
)

const (
	DefaultBaseURL   = "https://api.anthropic.com"
	apiVersion       = "2023-06-01"
	defaultMaxTokens = 4096
)

type Config struct {
	APIKey     string
	ModelName  string
	BaseURL    string
	HTTPClient *http.Client
	MaxTokens  int
}

// ChatModel calls the Anthropic Messages API.
type ChatModel struct {
	apiKey    string
	model     string
	baseURL   string
	maxTokens int
	client    *http.Client
	format    formatter.Anthropic
}

var _ providers.ChatModel = (*ChatModel)(nil)

func New(cfg Config) *ChatModel {
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 60 * time.Second}
	}
	base := strings.TrimSuffix(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	return &ChatModel{
		apiKey:    cfg.APIKey,
		model:     cfg.ModelName,
		baseURL:   base,
		maxTokens: cfg.MaxTokens,
		client:    cfg.HTTPClient,
	}
}

func (m *ChatModel) ModelName() string { return m.model }

type messagesRequest struct {
	Model     string           `json:"model"`
	MaxTokens int              `json:"max_tokens"`
	System    string           `json:"system,omitempty"`
	Messages  []map[string]any `json:"messages"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
}

func (m *ChatModel) Call(ctx context.Context, messages []message.Msg) (message.Msg, error) {
	body, err := m.buildRequest(messages)
	if err != nil {
		return message.Msg{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return message.Msg{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", m.apiKey)
	req.Header.Set("anthropic-version", apiVersion)

	resp, err := m.client.Do(req)
	if err != nil {
		return message.Msg{}, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return message.Msg{}, fmt.Errorf("read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return message.Msg{}, fmt.Errorf("anthropic api error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var out messagesResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return message.Msg{}, fmt.Errorf("decode messages response: %w", err)
	}
	parts := make([]string, 0, len(out.Content))
	for _, block := range out.Content {
		if block.Type == "text" {
			parts = append(parts, block.Text)
		}
	}
	return message.Assistant(strings.Join(parts, "")), nil
}

// buildRequest lifts system turns into the top-level system field; the
// Messages API rejects a system role inside messages.
func (m *ChatModel) buildRequest(messages []message.Msg) ([]byte, error) {
	wire, err := m.format.Format(messages)
	if err != nil {
		return nil, err
	}
	var system []string
	turns := make([]map[string]any, 0, len(wire))
	for i, entry := range wire {
		if entry["role"] == string(message.RoleSystem) {
			system = append(system, messages[i].Text())
			continue
		}
		turns = append(turns, entry)
	}
	if len(turns) == 0 {
		return nil, fmt.Errorf("no user or assistant messages to send")
	}

	b, err := json.Marshal(messagesRequest{
		Model:     m.model,
		MaxTokens: m.maxTokens,
		System:    strings.Join(system, "\n"),
		Messages:  turns,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal messages request: %w", err)
	}
	return b, nil
}
