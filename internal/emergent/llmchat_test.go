package emergent

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSendMessage(t *testing.T) {
	var payload struct {
		Model       string              `json:"model"`
		User        string              `json:"user"`
		Temperature float64             `json:"temperature"`
		Messages []map[string]string `json:"messages"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/llm/chat/completions" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer sk-emergent-123" {
			t.Errorf("unexpected authorization %q", r.Header.Get("Authorization"))
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode: %v", err)
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"done"}}]}`))
	}))
	defer srv.Close()

	chat := NewLlmChat(Config{
		APIKey:        "sk-emergent-123",
		SessionID:     "s-1",
		SystemMessage: "You are Friday.",
		BaseURL:       srv.URL + "/llm",
		Temperature:   0.7,
	}).WithModel(" Anthropic ", "claude-sonnet-4")

	text, err := chat.SendMessage(context.Background(), UserMessage{Text: "plan my day"})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if text != "done" {
		t.Fatalf("unexpected reply %q", text)
	}
	if payload.Model != "anthropic/claude-sonnet-4" {
		t.Fatalf("unexpected routed model %q", payload.Model)
	}
	if payload.User != "s-1" {
		t.Fatalf("expected session id as user, got %q", payload.User)
	}
	if payload.Temperature != 0.7 {
		t.Fatalf("expected temperature 0.7, got %v", payload.Temperature)
	}
	if len(payload.Messages) != 2 || payload.Messages[0]["role"] != "system" || payload.Messages[1]["content"] != "plan my day" {
		t.Fatalf("unexpected messages %#v", payload.Messages)
	}
}

func TestSendMessageWithoutModel(t *testing.T) {
	chat := NewLlmChat(Config{APIKey: "sk-emergent-x"})
	if _, err := chat.SendMessage(context.Background(), UserMessage{Text: "hi"}); err == nil {
		t.Fatalf("expected error without model")
	}
}

func TestIsUniversalKey(t *testing.T) {
	if !IsUniversalKey("sk-emergent-abc") {
		t.Fatalf("expected prefix match")
	}
	for _, k := range []string{"", "sk-openai", "SK-EMERGENT-abc", " sk-emergent"} {
		if IsUniversalKey(k) {
			t.Fatalf("unexpected match for %q", k)
		}
	}
}
