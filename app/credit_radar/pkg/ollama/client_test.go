package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cloudwego/eino/schema"
)

func TestGenerate(t *testing.T) {
	var got ChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"model":"llama3.1","message":{"role":"assistant","content":"{\"summary\":\"ok\"}"},"done":true}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", "llama3.1", 0, 5*time.Second)
	out, err := c.Generate(context.Background(), []*schema.Message{
		schema.SystemMessage("you are an analyst"),
		schema.UserMessage("analyze"),
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if out != `{"summary":"ok"}` {
		t.Errorf("Generate() = %q", out)
	}
	if got.Model != "llama3.1" || got.Stream || got.Format != "json" {
		t.Errorf("unexpected request %+v", got)
	}
	if len(got.Messages) != 2 || got.Messages[0].Role != "system" || got.Messages[1].Content != "analyze" {
		t.Errorf("unexpected messages %+v", got.Messages)
	}
}

func TestGenerateServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"model \"nope\" not found"}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "nope", 0, time.Second).Generate(context.Background(), nil)
	if err == nil || !strings.Contains(err.Error(), "not found") || !strings.Contains(err.Error(), "404") {
		t.Fatalf("Generate() error = %v", err)
	}
}

func TestGenerateContextCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := NewClient(srv.URL, "m", 0, 0).Generate(ctx, nil); err == nil {
		t.Fatal("Generate() should fail when the context expires")
	}
}
