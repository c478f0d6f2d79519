package gemini

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"friday/internal/formatter"
	"friday/internal/message"
	"friday/internal/providers"
)

type Config struct {
	APIKey     string
	ModelName  string
	BaseURL    string
	HTTPClient *http.Client
}

type ChatModel struct {
	client *genai.Client
	model  string
}

var _ providers.ChatModel = (*ChatModel)(nil)

func New(cfg Config) (*ChatModel, error) {
	cc := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: cfg.HTTPClient,
	}
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: base}
	}
	client, err := genai.NewClient(context.Background(), cc)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &ChatModel{client: client, model: cfg.ModelName}, nil
}

func (m *ChatModel) ModelName() string { return m.model }

func (m *ChatModel) Call(ctx context.Context, messages []message.Msg) (message.Msg, error) {
	contents, system, err := buildContents(messages)
	if err != nil {
		return message.Msg{}, err
	}
	gc := &genai.GenerateContentConfig{}
	if system != "" {
		gc.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: system}}}
	}

	resp, err := m.client.Models.GenerateContent(ctx, m.model, contents, gc)
	if err != nil {
		return message.Msg{}, fmt.Errorf("gemini generate content: %w", err)
	}
	return message.Assistant(resp.Text()), nil
}

// buildContents splits system turns out into a single instruction string.
func buildContents(messages []message.Msg) ([]*genai.Content, string, error) {
	contents := make([]*genai.Content, 0, len(messages))
	system := make([]string, 0)
	for _, msg := range messages {
		text := msg.Text()
		switch msg.Role {
		case message.RoleSystem:
			system = append(system, text)
		case message.RoleUser:
			contents = append(contents, &genai.Content{Role: "user", Parts: []*genai.Part{{Text: text}}})
		case message.RoleAssistant:
			contents = append(contents, &genai.Content{Role: "model", Parts: []*genai.Part{{Text: text}}})
		default:
			return nil, "", fmt.Errorf("%w %q", formatter.ErrUnsupportedRole, msg.Role)
		}
	}
	if len(contents) == 0 {
		return nil, "", fmt.Errorf("no user or assistant messages to send")
	}
	return contents, strings.Join(system, "\n"), nil
}
