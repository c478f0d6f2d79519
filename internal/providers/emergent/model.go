package emergent

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	emergentclient "friday/internal/emergent"
	"friday/internal/formatter"
	"friday/internal/message"
	"friday/internal/metrics"
	"friday/internal/providers"
)

const (
	DefaultSessionID     = "friday-agent-session"
	DefaultSystemMessage = "You are Friday, a helpful assistant specialized in daily task management and AgentScope framework support."

	errorPrefix = "Error calling Emergent LLM: "
)

// Sender is the part of the universal-key client the model depends on.
type Sender interface {
	SendMessage(ctx context.Context, msg emergentclient.UserMessage) (string, error)
}

type Config struct {
	APIKey        string
	Provider      string
	ModelName     string
	SessionID     string
	SystemMessage string
	BaseURL       string
	Temperature   float64
	HTTPClient    *http.Client
	MaxRetries    int
	BackoffBase   time.Duration
	Logger        zerolog.Logger
	Metrics       *metrics.Metrics
}

// CallError wraps a failure from the universal-key gateway.
type CallError struct {
	Provider string
	Model    string
	Err      error
}

func (e *CallError) Error() string {
	return fmt.Sprintf("emergent %s/%s: %v", e.Provider, e.Model, e.Err)
}

func (e *CallError) Unwrap() error { return e.Err }

// ChatModel adapts the universal-key gateway to providers.ChatModel. The
// whole conversation is flattened into one user turn.
type ChatModel struct {
	sender   Sender
	provider string
	model    string
	logger   zerolog.Logger
	metrics  *metrics.Metrics
}

var _ providers.ChatModel = (*ChatModel)(nil)

func New(cfg Config) *ChatModel {
	if cfg.SessionID == "" {
		cfg.SessionID = DefaultSessionID
	}
	if cfg.SystemMessage == "" {
		cfg.SystemMessage = DefaultSystemMessage
	}
	chat := emergentclient.NewLlmChat(emergentclient.Config{
		APIKey:        cfg.APIKey,
		SessionID:     cfg.SessionID,
		SystemMessage: cfg.SystemMessage,
		BaseURL:       cfg.BaseURL,
		Temperature:   cfg.Temperature,
		HTTPClient:    cfg.HTTPClient,
		MaxRetries:    cfg.MaxRetries,
		BackoffBase:   cfg.BackoffBase,
	}).WithModel(cfg.Provider, cfg.ModelName)
	return NewWithSender(chat, cfg)
}

func NewWithSender(sender Sender, cfg Config) *ChatModel {
	m := cfg.Metrics
	if m == nil {
		m = metrics.Global()
	}
	return &ChatModel{
		sender:   sender,
		provider: strings.ToLower(strings.TrimSpace(cfg.Provider)),
		model:    cfg.ModelName,
		logger:   cfg.Logger,
		metrics:  m,
	}
}

func (m *ChatModel) ModelName() string { return m.model }

func (m *ChatModel) Provider() string { return m.provider }

// Formatter returns the OpenAI formatter; the gateway converts for the
// upstream provider itself.
func (m *ChatModel) Formatter() providers.Formatter { return formatter.OpenAI{} }

// Send flattens messages into one prompt and returns the reply, or a
// *CallError if the gateway call fails.
func (m *ChatModel) Send(ctx context.Context, messages []message.Msg) (message.Msg, error) {
	reply, err := m.sender.SendMessage(ctx, emergentclient.UserMessage{Text: Prompt(messages)})
	if err != nil {
		return message.Msg{}, &CallError{Provider: m.provider, Model: m.model, Err: err}
	}
	return message.Assistant(reply), nil
}

// CallAsync computes the reply on its own goroutine. The channel receives one
// message, also when the sender panics.
func (m *ChatModel) CallAsync(ctx context.Context, messages []message.Msg) <-chan message.Msg {
	out := make(chan message.Msg, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				m.metrics.EmergentFailures.Inc()
				m.logger.Error().Interface("panic", r).Str("provider", m.provider).Str("model", m.model).Msg("emergent call panicked")
				out <- message.Assistant(errorPrefix + fmt.Sprint(r))
			}
		}()
		out <- m.reply(ctx, messages)
	}()
	return out
}

// Call never returns an error: gateway failures come back as an assistant
// message starting with "Error calling Emergent LLM:". Use Send to get the
// error instead.
func (m *ChatModel) Call(ctx context.Context, messages []message.Msg) (message.Msg, error) {
	return <-m.CallAsync(ctx, messages), nil
}

func (m *ChatModel) reply(ctx context.Context, messages []message.Msg) message.Msg {
	msg, err := m.Send(ctx, messages)
	if err == nil {
		return msg
	}
	m.metrics.EmergentFailures.Inc()
	m.logger.Error().Err(err).Str("provider", m.provider).Str("model", m.model).Msg("emergent call failed")

	cause := err
	var ce *CallError
	if errors.As(err, &ce) {
		cause = ce.Err
	}
	return message.Assistant(errorPrefix + cause.Error())
}

// Prompt joins the text of every message with newlines.
func Prompt(messages []message.Msg) string {
	var b strings.Builder
	for _, msg := range messages {
		b.WriteString(msg.Text())
		b.WriteString("\n")
	}
	return strings.TrimSpace(b.String())
}
