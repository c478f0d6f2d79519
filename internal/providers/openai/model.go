package openai

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	oai "github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"friday/internal/formatter"
	"friday/internal/message"
	"friday/internal/providers"
)

type Config struct {
	APIKey     string
	ModelName  string
	BaseURL    string
	HTTPClient *http.Client
	MaxTokens  int
}

type ChatModel struct {
	client    oai.Client
	model     string
	maxTokens int
}

var _ providers.ChatModel = (*ChatModel)(nil)

func New(cfg Config) *ChatModel {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if strings.TrimSpace(cfg.BaseURL) != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}
	return &ChatModel{
		client:    oai.NewClient(opts...),
		model:     cfg.ModelName,
		maxTokens: cfg.MaxTokens,
	}
}

func (m *ChatModel) ModelName() string { return m.model }

func (m *ChatModel) Call(ctx context.Context, messages []message.Msg) (message.Msg, error) {
	params, err := m.buildParams(messages)
	if err != nil {
		return message.Msg{}, err
	}
	resp, err := m.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return message.Msg{}, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return message.Msg{}, fmt.Errorf("empty choices in chat completion response")
	}
	return message.Assistant(resp.Choices[0].Message.Content), nil
}

func (m *ChatModel) buildParams(messages []message.Msg) (oai.ChatCompletionNewParams, error) {
	out := make([]oai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, msg := range messages {
		text := msg.Text()
		switch msg.Role {
		case message.RoleSystem:
			out = append(out, oai.SystemMessage(text))
		case message.RoleAssistant:
			out = append(out, oai.AssistantMessage(text))
		case message.RoleUser:
			out = append(out, oai.UserMessage(text))
		default:
			return oai.ChatCompletionNewParams{}, fmt.Errorf("%w %q", formatter.ErrUnsupportedRole, msg.Role)
		}
	}
	params := oai.ChatCompletionNewParams{
		Messages: out,
		Model:    oai.ChatModel(m.model),
	}
	if m.maxTokens > 0 {
		params.MaxTokens = oai.Int(int64(m.maxTokens))
	}
	return params, nil
}
