package registry

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	emergentclient "friday/internal/emergent"
	"friday/internal/formatter"
	"friday/internal/metrics"
	"friday/internal/providers"
	"friday/internal/providers/anthropic"
	"friday/internal/providers/dashscope"
	"friday/internal/providers/emergent"
	"friday/internal/providers/gemini"
	"friday/internal/providers/ollama"
	"friday/internal/providers/openai"
)

type Kind string

const (
	KindDashScope Kind = "dashscope"
	KindOpenAI    Kind = "openai"
	KindOllama    Kind = "ollama"
	KindGemini    Kind = "gemini"
	KindAnthropic Kind = "anthropic"

	// routeEmergent labels selections made by the universal-key prefix.
	routeEmergent = "emergent"
)

var ErrUnsupportedProvider = errors.New("unsupported model provider")

type Options struct {
	Provider  string
	ModelName string
	APIKey    string
	// BaseURL overrides the chosen provider's endpoint (host for Ollama).
	BaseURL   string
	MaxTokens int
	// Temperature is sent by the Ollama and universal-key routes; zero omits it.
	Temperature float64

	// Universal-key route only.
	SessionID       string
	SystemMessage   string
	EmergentBaseURL string

	HTTPClient  *http.Client
	MaxRetries  int
	BackoffBase time.Duration
	Logger      zerolog.Logger
	Metrics     *metrics.Metrics
}

// Selection pairs a chat model with the formatter that matches it.
type Selection struct {
	Model     providers.ChatModel
	Formatter providers.Formatter
}

type entry struct {
	newModel     func(Options) (providers.ChatModel, error)
	newFormatter func() providers.Formatter
}

var table = map[Kind]entry{
	KindDashScope: {
		newModel: func(o Options) (providers.ChatModel, error) {
			return dashscope.New(dashscope.Config{
				APIKey:     o.APIKey,
				ModelName:  o.ModelName,
				BaseURL:    o.BaseURL,
				HTTPClient: o.HTTPClient,
				MaxTokens:  o.MaxTokens,
			}), nil
		},
		newFormatter: func() providers.Formatter { return formatter.DashScope{} },
	},
	KindOpenAI: {
		newModel: func(o Options) (providers.ChatModel, error) {
			return openai.New(openai.Config{
				APIKey:     o.APIKey,
				ModelName:  o.ModelName,
				BaseURL:    o.BaseURL,
				HTTPClient: o.HTTPClient,
				MaxTokens:  o.MaxTokens,
			}), nil
		},
		newFormatter: func() providers.Formatter { return formatter.OpenAI{} },
	},
	KindOllama: {
		newModel: func(o Options) (providers.ChatModel, error) {
			return ollama.New(ollama.Config{
				Host:        o.BaseURL,
				ModelName:   o.ModelName,
				HTTPClient:  o.HTTPClient,
				MaxRetries:  o.MaxRetries,
				BackoffBase: o.BackoffBase,
				MaxTokens:   o.MaxTokens,
				Temperature: o.Temperature,
			}), nil
		},
		newFormatter: func() providers.Formatter { return formatter.Ollama{} },
	},
	KindGemini: {
		newModel: func(o Options) (providers.ChatModel, error) {
			return gemini.New(gemini.Config{
				APIKey:     o.APIKey,
				ModelName:  o.ModelName,
				BaseURL:    o.BaseURL,
				HTTPClient: o.HTTPClient,
			})
		},
		newFormatter: func() providers.Formatter { return formatter.Gemini{} },
	},
	KindAnthropic: {
		newModel: func(o Options) (providers.ChatModel, error) {
			return anthropic.New(anthropic.Config{
				APIKey:     o.APIKey,
				ModelName:  o.ModelName,
				BaseURL:    o.BaseURL,
				HTTPClient: o.HTTPClient,
				MaxTokens:  o.MaxTokens,
			}), nil
		},
		newFormatter: func() providers.Formatter { return formatter.Anthropic{} },
	},
}

// ParseKind resolves a provider name case-insensitively.
func ParseKind(provider string) (Kind, bool) {
	k := Kind(strings.ToLower(strings.TrimSpace(provider)))
	_, ok := table[k]
	return k, ok
}

// Kinds returns the supported providers in sorted order.
func Kinds() []Kind {
	out := make([]Kind, 0, len(table))
	for k := range table {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// GetFormatter never fails: unknown providers get the OpenAI formatter.
// Fallbacks are counted on metrics.Global().
func GetFormatter(provider string) providers.Formatter {
	return GetFormatterWith(provider, metrics.Global())
}

// GetFormatterWith is GetFormatter counting fallbacks on m.
func GetFormatterWith(provider string, m *metrics.Metrics) providers.Formatter {
	k, ok := ParseKind(provider)
	if !ok {
		if m == nil {
			m = metrics.Global()
		}
		m.FormatterFallbacks.Inc()
		return formatter.OpenAI{}
	}
	return table[k].newFormatter()
}

// GetModel builds the chat model for opts. Universal keys are routed to the
// Emergent gateway whatever the provider says; otherwise an unknown provider
// is an ErrUnsupportedProvider.
func GetModel(opts Options) (providers.ChatModel, error) {
	m := opts.Metrics
	if m == nil {
		m = metrics.Global()
	}

	if emergentclient.IsUniversalKey(opts.APIKey) {
		m.ModelSelections.WithLabelValues(routeEmergent).Inc()
		opts.Logger.Debug().Str("provider", opts.Provider).Str("model", opts.ModelName).Msg("routing through universal key")
		return emergent.New(emergent.Config{
			APIKey:        opts.APIKey,
			Provider:      opts.Provider,
			ModelName:     opts.ModelName,
			SessionID:     opts.SessionID,
			SystemMessage: opts.SystemMessage,
			BaseURL:       opts.EmergentBaseURL,
			Temperature:   opts.Temperature,
			HTTPClient:    opts.HTTPClient,
			MaxRetries:    opts.MaxRetries,
			BackoffBase:   opts.BackoffBase,
			Logger:        opts.Logger,
			Metrics:       m,
		}), nil
	}

	k, ok := ParseKind(opts.Provider)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedProvider, opts.Provider)
	}
	model, err := table[k].newModel(opts)
	if err != nil {
		return nil, fmt.Errorf("build %s model: %w", k, err)
	}
	m.ModelSelections.WithLabelValues(string(k)).Inc()
	opts.Logger.Debug().Str("provider", string(k)).Str("model", opts.ModelName).Msg("model selected")
	return model, nil
}

// Select returns the model for opts with its matching formatter.
func Select(opts Options) (Selection, error) {
	model, err := GetModel(opts)
	if err != nil {
		return Selection{}, err
	}
	if em, ok := model.(*emergent.ChatModel); ok {
		return Selection{Model: model, Formatter: em.Formatter()}, nil
	}
	return Selection{Model: model, Formatter: GetFormatterWith(opts.Provider, opts.Metrics)}, nil
}
