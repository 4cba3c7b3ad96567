package llm

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

func fastRetry(n int) RetryConfig {
	return RetryConfig{MaxAttempts: n, InitialWait: time.Millisecond, MaxWait: 2 * time.Millisecond, Multiplier: 2}
}

func TestRetry_RecoversFromTransient(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Err: &ErrProviderUnavailable{Err: errors.New("502")}},
		MockResponse{Err: &ErrRateLimit{Err: errors.New("429")}},
		MockText("fine"),
	)
	p := WithRetry(mock, fastRetry(3))

	resp, err := p.Generate(context.Background(), UserPrompt("", "hi"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Text() != "fine" {
		t.Errorf("Text() = %q, want %q", resp.Text(), "fine")
	}
	if mock.CallCount() != 3 {
		t.Errorf("calls = %d, want 3", mock.CallCount())
	}
}

func TestRetry_InvalidResponseRetriedOnce(t *testing.T) {
	bad := MockResponse{Err: &ErrInvalidResponse{Err: errors.New("bad json")}}
	mock := NewMockProvider(bad, bad, MockText("never reached"))
	p := WithRetry(mock, fastRetry(5))

	_, err := p.Generate(context.Background(), UserPrompt("", "hi"))
	var inv *ErrInvalidResponse
	if !errors.As(err, &inv) {
		t.Fatalf("expected ErrInvalidResponse, got %T (%v)", err, err)
	}
	if mock.CallCount() != 2 {
		t.Errorf("calls = %d, want 2", mock.CallCount())
	}
}

func TestRetry_NeverRetriesTimeoutOrTruncation(t *testing.T) {
	for _, first := range []error{context.DeadlineExceeded, &ErrMaxTokensExceeded{}} {
		mock := NewMockProvider(MockResponse{Err: first}, MockText("x"))
		_, err := WithRetry(mock, fastRetry(3)).Generate(context.Background(), UserPrompt("", "hi"))
		if err == nil {
			t.Fatalf("%T: expected error", first)
		}
		if mock.CallCount() != 1 {
			t.Errorf("%T: calls = %d, want 1", first, mock.CallCount())
		}
	}
}

func TestTimeout_BoundsBlockedCall(t *testing.T) {
	mock := NewMockProvider(MockResponse{Block: true})
	p := WithTimeout(mock, 20*time.Millisecond)

	start := time.Now()
	_, err := p.Generate(context.Background(), UserPrompt("", "hi"))
	if !IsTimeout(err) {
		t.Fatalf("expected timeout, got %v", err)
	}
	if time.Since(start) > time.Second {
		t.Errorf("timeout not honoured: %s", time.Since(start))
	}
}

func TestTimeout_ZeroIsPassthrough(t *testing.T) {
	mock := NewMockProvider()
	if WithTimeout(mock, 0) != Provider(mock) {
		t.Error("zero timeout should return the inner provider")
	}
}

type memJournal struct {
	mu  sync.Mutex
	got []Exchange
	err error
}

func (j *memJournal) AppendLLMRequest(_ context.Context, ex Exchange) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.got = append(j.got, ex)
	return j.err
}

func TestJournal_RecordsSuccessAndFailure(t *testing.T) {
	j := &memJournal{}
	mock := NewMockProvider(
		MockResponse{Content: json.RawMessage(`hello`), Usage: Usage{InputTokens: 7, OutputTokens: 3}},
		MockResponse{Err: errors.New("boom")},
	)
	p := WithJournal(mock, ProviderAnthropic, j)
	ctx := WithPurpose(context.Background(), PurposeSimulate)

	req := Request{System: "be a patient", Messages: []Message{{Role: RoleUser, Content: "how are you"}}}
	if _, err := p.Generate(ctx, req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := p.Generate(ctx, req); err == nil {
		t.Fatal("expected error")
	}

	if len(j.got) != 2 {
		t.Fatalf("journal entries = %d, want 2", len(j.got))
	}
	ok, failed := j.got[0], j.got[1]
	if !ok.Success || ok.Purpose != PurposeSimulate || ok.InputTokens != 7 || ok.ResponseBody != "hello" {
		t.Errorf("success entry = %+v", ok)
	}
	if ok.Provider != ProviderAnthropic || ok.Model != mock.ModelID() {
		t.Errorf("provider/model = %q/%q, want %q/%q", ok.Provider, ok.Model, ProviderAnthropic, mock.ModelID())
	}
	if !strings.Contains(ok.RequestBody, "[system]\nbe a patient") || !strings.Contains(ok.RequestBody, "[user]\nhow are you") {
		t.Errorf("request body = %q", ok.RequestBody)
	}
	if failed.Success || failed.ErrorMessage != "boom" {
		t.Errorf("failure entry = %+v", failed)
	}
}

func TestJournal_WriteErrorDoesNotFailRequest(t *testing.T) {
	j := &memJournal{err: errors.New("db locked")}
	p := WithJournal(NewMockProvider(MockText("ok")), ProviderMock, j)
	if _, err := p.Generate(context.Background(), UserPrompt("", "x")); err != nil {
		t.Fatalf("journal error leaked: %v", err)
	}
}

func TestPurposeFrom(t *testing.T) {
	if got := PurposeFrom(context.Background()); got != "unknown" {
		t.Errorf("default purpose = %q", got)
	}
	if got := PurposeFrom(WithPurpose(context.Background(), PurposeEvaluate)); got != PurposeEvaluate {
		t.Errorf("purpose = %q", got)
	}
}

func TestMock_ValidatesSchema(t *testing.T) {
	schema := &Schema{
		Name: "mock-ack",
		Definition: map[string]any{
			"type":                 "object",
			"properties":           map[string]any{"ok": map[string]any{"type": "boolean"}},
			"required":             []string{"ok"},
			"additionalProperties": false,
		},
	}
	mock := NewMockProvider(MockJSON(`{"ok":"yes"}`), MockJSON(`{"ok":true}`))
	req := Request{Schema: schema, Messages: []Message{{Role: RoleUser, Content: "ack?"}}}

	if _, err := mock.Generate(context.Background(), req); err == nil {
		t.Error("expected schema violation")
	}
	if _, err := mock.Generate(context.Background(), req); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if mock.LastCall().Schema != schema {
		t.Error("LastCall did not record the request")
	}
}
