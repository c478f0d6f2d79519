package providers

import (
	"context"

	"friday/internal/message"
)

// ChatModel sends a conversation to an LLM and returns one assistant turn.
type ChatModel interface {
	Call(ctx context.Context, messages []message.Msg) (message.Msg, error)
	ModelName() string
}

// Formatter converts messages into the wire shape a provider expects.
type Formatter interface {
	Format(messages []message.Msg) ([]map[string]any, error)
}
