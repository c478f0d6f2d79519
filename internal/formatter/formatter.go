package formatter

import (
	"errors"
	"fmt"

	"friday/internal/message"
	"friday/internal/providers"
)

var ErrUnsupportedRole = errors.New("unsupported message role")

var (
	_ providers.Formatter = OpenAI{}
	_ providers.Formatter = DashScope{}
	_ providers.Formatter = Ollama{}
	_ providers.Formatter = Gemini{}
	_ providers.Formatter = Anthropic{}
)

// OpenAI produces chat-completions messages with plain string content.
type OpenAI struct{}

func (OpenAI) Format(messages []message.Msg) ([]map[string]any, error) {
	out := make([]map[string]any, 0, len(messages))
	for _, m := range messages {
		if err := checkRole(m.Role); err != nil {
			return nil, err
		}
		entry := map[string]any{"role": string(m.Role), "content": m.Text()}
		if m.Name != "" {
			entry["name"] = m.Name
		}
		out = append(out, entry)
	}
	return out, nil
}

// DashScope wraps content into a list of text parts.
type DashScope struct{}

func (DashScope) Format(messages []message.Msg) ([]map[string]any, error) {
	out := make([]map[string]any, 0, len(messages))
	for _, m := range messages {
		if err := checkRole(m.Role); err != nil {
			return nil, err
		}
		out = append(out, map[string]any{
			"role":    string(m.Role),
			"content": []map[string]any{{"text": m.Text()}},
		})
	}
	return out, nil
}

type Ollama struct{}

func (Ollama) Format(messages []message.Msg) ([]map[string]any, error) {
	out := make([]map[string]any, 0, len(messages))
	for _, m := range messages {
		if err := checkRole(m.Role); err != nil {
			return nil, err
		}
		out = append(out, map[string]any{"role": string(m.Role), "content": m.Text()})
	}
	return out, nil
}

// Gemini maps assistant turns to "model" and system turns to "user"; the
// generateContent API has no system role inside contents.
type Gemini struct{}

func (Gemini) Format(messages []message.Msg) ([]map[string]any, error) {
	out := make([]map[string]any, 0, len(messages))
	for _, m := range messages {
		if err := checkRole(m.Role); err != nil {
			return nil, err
		}
		role := "user"
		if m.Role == message.RoleAssistant {
			role = "model"
		}
		out = append(out, map[string]any{
			"role":  role,
			"parts": []map[string]any{{"text": m.Text()}},
		})
	}
	return out, nil
}

// Anthropic emits text content blocks. System messages are kept in place;
// the model lifts them into the top-level system field.
type Anthropic struct{}

func (Anthropic) Format(messages []message.Msg) ([]map[string]any, error) {
	out := make([]map[string]any, 0, len(messages))
	for _, m := range messages {
		if err := checkRole(m.Role); err != nil {
			return nil, err
		}
		out = append(out, map[string]any{
			"role":    string(m.Role),
			"content": []map[string]any{{"type": "text", "text": m.Text()}},
		})
	}
	return out, nil
}

func checkRole(r message.Role) error {
	switch r {
	case message.RoleUser, message.RoleAssistant, message.RoleSystem:
		return nil
	default:
		return fmt.Errorf("%w %q", ErrUnsupportedRole, r)
	}
}
