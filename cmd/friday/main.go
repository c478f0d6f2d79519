package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"friday/internal/config"
	"friday/internal/message"
	"friday/internal/metrics"
	"friday/internal/providers/registry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	setupLogger(cfg.Log.Level)
	log.Info().
		Str("provider", cfg.LLMProvider).
		Str("model", cfg.ModelName).
		Bool("api_key_set", cfg.APIKey != "").
		Msg("starting friday")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	prompt, err := readPrompt(os.Args[1:], os.Stdin)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to read prompt")
	}

	m := metrics.Global()
	var metricsServer *http.Server
	if cfg.Metrics.ListenAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsServer = &http.Server{
			Addr:              cfg.Metrics.ListenAddr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			log.Info().Str("addr", cfg.Metrics.ListenAddr).Msg("metrics server started")
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error().Err(err).Msg("metrics server failed")
			}
		}()
	}

	sel, err := registry.Select(registry.Options{
		Provider:        cfg.LLMProvider,
		ModelName:       cfg.ModelName,
		APIKey:          cfg.APIKey,
		BaseURL:         cfg.BaseURL(cfg.LLMProvider),
		MaxTokens:       cfg.MaxTokens,
		Temperature:     cfg.Temperature,
		SessionID:       cfg.Emergent.SessionID,
		SystemMessage:   cfg.Emergent.SystemMessage,
		EmergentBaseURL: cfg.Emergent.BaseURL,
		HTTPClient:      &http.Client{Timeout: cfg.HTTP.ClientTimeout},
		MaxRetries:      cfg.HTTP.MaxRetries,
		BackoffBase:     cfg.HTTP.BackoffBase,
		Logger:          log.Logger,
		Metrics:         m,
	})
	if errors.Is(err, registry.ErrUnsupportedProvider) {
		log.Fatal().Err(err).Strs("supported", kindNames(registry.Kinds())).Msg("failed to select model")
	}
	if err != nil {
		log.Fatal().Err(err).Msg("failed to select model")
	}

	msgs := []message.Msg{message.New("user", message.RoleUser, prompt)}
	if wire, err := sel.Formatter.Format(msgs); err == nil {
		log.Debug().Int("messages", len(wire)).Str("formatter", fmt.Sprintf("%T", sel.Formatter)).Msg("formatted request")
	}

	exitCode := 0
	reply, err := sel.Model.Call(ctx, msgs)
	if err != nil {
		log.Error().Msg(redactKey(err, cfg.APIKey))
		exitCode = 1
	} else {
		fmt.Println(reply.Text())
	}

	if metricsServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("failed to stop metrics server")
		}
		shutdownCancel()
	}
	cancel()
	os.Exit(exitCode)
}

// readPrompt joins the arguments, or reads stdin when there are none.
func readPrompt(args []string, stdin io.Reader) (string, error) {
	if len(args) > 0 {
		if p := strings.TrimSpace(strings.Join(args, " ")); p != "" {
			return p, nil
		}
	}
	b, err := io.ReadAll(bufio.NewReader(stdin))
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	p := strings.TrimSpace(string(b))
	if p == "" {
		return "", fmt.Errorf("empty prompt: pass it as arguments or on stdin")
	}
	return p, nil
}

func setupLogger(level string) {
	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.SetGlobalLevel(parseLogLevel(level))
	log.Logger = newLogger(os.Stderr)
}

// newLogger writes to w; stdout is kept for the model reply.
func newLogger(w io.Writer) zerolog.Logger {
	return zerolog.New(w).With().Timestamp().Logger()
}

func parseLogLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func kindNames(kinds []registry.Kind) []string {
	out := make([]string, 0, len(kinds))
	for _, k := range kinds {
		out = append(out, string(k))
	}
	return out
}

func redactKey(err error, key string) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	if strings.TrimSpace(key) == "" {
		return msg
	}
	return strings.ReplaceAll(msg, key, "<redacted-key>")
}
