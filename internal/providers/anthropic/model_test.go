package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"friday/internal/message"
)

func TestCall(t *testing.T) {
	var got messagesRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if r.Header.Get("X-API-Key") != "sk-ant" {
			t.Errorf("unexpected api key %q", r.Header.Get("X-API-Key"))
		}
		if r.Header.Get("anthropic-version") != apiVersion {
			t.Errorf("unexpected version %q", r.Header.Get("anthropic-version"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"Hello"},{"type":"text","text":", world"}],"stop_reason":"end_turn"}`))
	}))
	defer srv.Close()

	m := New(Config{APIKey: "sk-ant", ModelName: "claude-sonnet-4", BaseURL: srv.URL})
	reply, err := m.Call(context.Background(), []message.Msg{
		message.New("system", message.RoleSystem, "be kind"),
		message.New("user", message.RoleUser, "hi"),
	})
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if reply.Text() != "Hello, world" {
		t.Fatalf("unexpected reply %q", reply.Text())
	}
	if got.System != "be kind" {
		t.Fatalf("expected system lifted, got %q", got.System)
	}
	if len(got.Messages) != 1 || got.Messages[0]["role"] != "user" {
		t.Fatalf("unexpected messages %#v", got.Messages)
	}
	if got.MaxTokens != defaultMaxTokens {
		t.Fatalf("expected default max tokens, got %d", got.MaxTokens)
	}
}

func TestCallAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"bad model"}}`))
	}))
	defer srv.Close()

	m := New(Config{APIKey: "k", ModelName: "nope", BaseURL: srv.URL})
	_, err := m.Call(context.Background(), []message.Msg{message.New("user", message.RoleUser, "hi")})
	if err == nil || !strings.Contains(err.Error(), "status 400") {
		t.Fatalf("expected status error, got %v", err)
	}
}

func TestBuildRequestNeedsTurns(t *testing.T) {
	m := New(Config{ModelName: "claude"})
	if _, err := m.buildRequest([]message.Msg{message.New("system", message.RoleSystem, "x")}); err == nil {
		t.Fatalf("expected error when only system messages are present")
	}
}
