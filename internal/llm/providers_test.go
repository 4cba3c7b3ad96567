package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	openai "github.com/sashabaranov/go-openai"
)

func openAIStub(t *testing.T, content, finish string, captured *map[string]any) *OpenAIProvider {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if captured != nil {
			body, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(body, captured)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-test",
			"object":  "chat.completion",
			"created": 1,
			"model":   "gpt-4o-mini",
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]any{"role": "assistant", "content": content},
				"finish_reason": finish,
			}},
			"usage": map[string]any{"prompt_tokens": 40, "completion_tokens": 12, "total_tokens": 52},
		})
	}))
	t.Cleanup(srv.Close)

	oc := openai.DefaultConfig("test-key")
	oc.BaseURL = srv.URL + "/v1"
	return &OpenAIProvider{client: openai.NewClientWithConfig(oc), model: "gpt-4o-mini"}
}

func TestOpenAIProvider_PlainText(t *testing.T) {
	var body map[string]any
	p := openAIStub(t, "My head has been pounding since this morning.", "stop", &body)

	resp, err := p.Generate(context.Background(), Request{
		System:   "You are the patient.",
		Messages: []Message{{Role: RoleUser, Content: "What brings you in?"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Text() != "My head has been pounding since this morning." {
		t.Errorf("Text() = %q", resp.Text())
	}
	if resp.Usage.InputTokens != 40 || resp.Usage.OutputTokens != 12 {
		t.Errorf("usage = %+v", resp.Usage)
	}
	if _, ok := body["response_format"]; ok {
		t.Error("plain text request should not set response_format")
	}
	msgs, _ := body["messages"].([]any)
	if len(msgs) != 2 {
		t.Fatalf("sent %d messages, want system+user", len(msgs))
	}
}

func TestOpenAIProvider_SchemaEnforced(t *testing.T) {
	var body map[string]any
	p := openAIStub(t, `{"accepted":true,"score":70}`, "stop", &body)
	if _, err := p.Generate(context.Background(), Request{Schema: verdictSchema, Messages: []Message{{Role: RoleUser, Content: "grade"}}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rf, _ := body["response_format"].(map[string]any)
	if rf["type"] != "json_schema" {
		t.Errorf("response_format = %v", rf)
	}

	bad := openAIStub(t, `{"accepted":true}`, "stop", nil)
	_, err := bad.Generate(context.Background(), Request{Schema: verdictSchema, Messages: []Message{{Role: RoleUser, Content: "grade"}}})
	var inv *ErrInvalidResponse
	if !errors.As(err, &inv) {
		t.Fatalf("expected ErrInvalidResponse, got %T (%v)", err, err)
	}
}

func TestOpenAIProvider_Truncated(t *testing.T) {
	p := openAIStub(t, `{"accepted":tr`, "length", nil)
	_, err := p.Generate(context.Background(), Request{Schema: verdictSchema, Messages: []Message{{Role: RoleUser, Content: "grade"}}})
	var trunc *ErrMaxTokensExceeded
	if !errors.As(err, &trunc) {
		t.Fatalf("expected ErrMaxTokensExceeded, got %T (%v)", err, err)
	}
}

func TestOpenAIProvider_StatusMapping(t *testing.T) {
	tests := []struct {
		status int
		check  func(error) bool
	}{
		{http.StatusTooManyRequests, func(err error) bool { var e *ErrRateLimit; return errors.As(err, &e) }},
		{http.StatusBadGateway, func(err error) bool { var e *ErrProviderUnavailable; return errors.As(err, &e) }},
	}
	for _, tt := range tests {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(tt.status)
			_ = json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"message": "nope", "type": "x"}})
		}))
		oc := openai.DefaultConfig("k")
		oc.BaseURL = srv.URL + "/v1"
		p := &OpenAIProvider{client: openai.NewClientWithConfig(oc), model: "gpt-4o-mini"}
		_, err := p.Generate(context.Background(), UserPrompt("", "x"))
		srv.Close()
		if !tt.check(err) {
			t.Errorf("status %d mapped to %T (%v)", tt.status, err, err)
		}
	}
}

func TestAnthropicProvider_PlainText(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &body)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":          "msg_test",
			"type":        "message",
			"role":        "assistant",
			"content":     []map[string]any{{"type": "text", "text": "  It started two days ago.  "}},
			"model":       "claude-haiku-4-5-20251001",
			"stop_reason": "end_turn",
			"usage":       map[string]any{"input_tokens": 30, "output_tokens": 8},
		})
	}))
	t.Cleanup(srv.Close)

	client := anthropic.NewClient(option.WithAPIKey("k"), option.WithBaseURL(srv.URL))
	p := &AnthropicProvider{client: &client, model: "claude-haiku-4-5-20251001"}

	resp, err := p.Generate(context.Background(), Request{
		System: "You are the patient.",
		Messages: []Message{
			{Role: RoleUser, Content: "When did it start?"},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Text() != "It started two days ago." {
		t.Errorf("Text() = %q", resp.Text())
	}
	if resp.Usage.TotalTokens != 38 {
		t.Errorf("total tokens = %d", resp.Usage.TotalTokens)
	}
	if sys, _ := json.Marshal(body["system"]); !strings.Contains(string(sys), "You are the patient.") {
		t.Errorf("system prompt not sent: %s", sys)
	}
	if body["max_tokens"] != float64(1024) {
		t.Errorf("max_tokens default = %v", body["max_tokens"])
	}
}

func TestNewOpenRouterProvider(t *testing.T) {
	if _, err := NewOpenRouterProvider(VendorConfig{}); err == nil {
		t.Error("expected error without key")
	}
	p, err := NewOpenRouterProvider(VendorConfig{APIKey: "sk-or", Model: "gemini-flash"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ModelID() != "google/gemini-2.0-flash-001" {
		t.Errorf("ModelID = %q", p.ModelID())
	}
}

func TestResolveModel(t *testing.T) {
	tests := []struct {
		in      string
		aliases map[string]string
		want    string
	}{
		{"gemini-flash", geminiAliases, "gemini-2.0-flash"},
		{"gemini-2.5-flash-lite", geminiAliases, "gemini-2.5-flash-lite"},
		{"claude-haiku", anthropicAliases, "claude-haiku-4-5-20251001"},
		{"gpt-mini", openaiAliases, "gpt-4o-mini"},
	}
	for _, tt := range tests {
		if got := resolveModel(tt.in, tt.aliases); got != tt.want {
			t.Errorf("resolveModel(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestGeminiSchema(t *testing.T) {
	s := geminiSchema(verdictSchema.Definition)
	if s.Type != "OBJECT" {
		t.Fatalf("type = %s", s.Type)
	}
	if s.Properties["accepted"].Type != "BOOLEAN" {
		t.Errorf("accepted type = %s", s.Properties["accepted"].Type)
	}
	score := s.Properties["score"]
	if score.Type != "INTEGER" || score.Minimum == nil || *score.Maximum != 100 {
		t.Errorf("score = %+v", score)
	}
	if len(s.Required) != 2 {
		t.Errorf("required = %v", s.Required)
	}
}
