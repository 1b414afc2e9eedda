package openaicompat

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ygtangsdu/qse-architect/internal/llm"
)

func completionJSON(text string) string {
	b, _ := json.Marshal(map[string]any{
		"model": "gpt-4o-mini-2024",
		"choices": []any{
			map[string]any{
				"message":       map[string]any{"role": "assistant", "content": text},
				"finish_reason": "stop",
			},
		},
		"usage": map[string]any{
			"prompt_tokens":     float64(10),
			"completion_tokens": float64(20),
			"total_tokens":      float64(30),
		},
	})
	return string(b)
}

func TestAdapter_Complete(t *testing.T) {
	var gotAuth, gotPath string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		b, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(b, &gotBody)
		_, _ = w.Write([]byte(completionJSON("hello")))
	}))
	defer srv.Close()

	a := New("openai", "sk-test", srv.URL)
	maxTok := 512
	resp, err := a.Complete(t.Context(), llm.Request{
		Model:     "gpt-4o-mini",
		MaxTokens: &maxTok,
		Messages: []llm.Message{
			llm.System("you are terse"),
			llm.User("say hello"),
		},
		ResponseFormat: &llm.ResponseFormat{Type: "json"},
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}

	if gotAuth != "Bearer sk-test" {
		t.Fatalf("authorization: %q", gotAuth)
	}
	if gotPath != "/chat/completions" {
		t.Fatalf("path: %q", gotPath)
	}
	msgs, _ := gotBody["messages"].([]any)
	if len(msgs) != 2 {
		t.Fatalf("messages: %v", gotBody["messages"])
	}
	if gotBody["max_tokens"] != float64(512) {
		t.Fatalf("max_tokens: %v", gotBody["max_tokens"])
	}
	rf, _ := gotBody["response_format"].(map[string]any)
	if rf["type"] != "json_object" {
		t.Fatalf("response_format: %v", gotBody["response_format"])
	}

	if resp.Text != "hello" || resp.FinishReason != "stop" {
		t.Fatalf("response: %+v", resp)
	}
	if resp.Model != "gpt-4o-mini-2024" {
		t.Fatalf("served model not surfaced: %q", resp.Model)
	}
	if resp.Usage.TotalTokens != 30 {
		t.Fatalf("usage: %+v", resp.Usage)
	}
}

func TestAdapter_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": {"message": "invalid api key"}}`))
	}))
	defer srv.Close()

	a := New("openai", "bad", srv.URL)
	_, err := a.Complete(t.Context(), llm.Request{
		Model:    "gpt-4o-mini",
		Messages: []llm.Message{llm.User("hi")},
	})
	var auth *llm.AuthenticationError
	if !errors.As(err, &auth) {
		t.Fatalf("expected AuthenticationError, got %v", err)
	}
}

func TestNew_Defaults(t *testing.T) {
	a := New("", "k", "")
	if a.Name() != "openai" {
		t.Fatalf("name: %q", a.Name())
	}
	if a.BaseURL != "https://api.openai.com/v1" {
		t.Fatalf("default base url: %q", a.BaseURL)
	}

	named := New("deepseek", "k", "https://api.deepseek.com/v1/")
	if named.Name() != "deepseek" {
		t.Fatalf("custom name: %q", named.Name())
	}
	if named.BaseURL != "https://api.deepseek.com/v1" {
		t.Fatalf("trailing slash not trimmed: %q", named.BaseURL)
	}
}
