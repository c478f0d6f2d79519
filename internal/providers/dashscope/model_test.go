package dashscope

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"friday/internal/message"
)

func TestCallUsesCompatibleEndpoint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/compatible-mode/v1/") {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"1","object":"chat.completion","created":1,"model":"qwen-max","choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"ni hao"}}]}`))
	}))
	defer srv.Close()

	m := New(Config{APIKey: "sk-ds", ModelName: "qwen-max", BaseURL: srv.URL + "/compatible-mode/v1/"})
	reply, err := m.Call(context.Background(), []message.Msg{message.New("user", message.RoleUser, "hello")})
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if reply.Text() != "ni hao" {
		t.Fatalf("unexpected reply %q", reply.Text())
	}
	if m.ModelName() != "qwen-max" {
		t.Fatalf("unexpected model name %q", m.ModelName())
	}
}
