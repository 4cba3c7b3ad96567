// Package llm is the thin abstraction over hosted language models used to
// voice the simulated patient and to grade treatment plans.
package llm

import (
	"context"
	"encoding/json"
	"strings"
)

// Provider generates one completion per call.
type Provider interface {
	// Generate sends req to the model. With req.Schema set the returned
	// Content is JSON validated against it; without a schema Content holds
	// the model's plain text.
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID returns the configured model identifier.
	ModelID() string
}

// Request is a single completion request.
type Request struct {
	System      string
	Messages    []Message
	Schema      *Schema // nil for free-text replies
	MaxTokens   int
	Temperature float64
}

// Message is one turn of the prompt conversation.
type Message struct {
	Role    Role
	Content string
}

// Role is the author of a Message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Schema is a JSON Schema the model must answer in.
type Schema struct {
	// Name must be unique per definition; compiled schemas are cached by it.
	Name        string
	Description string
	Definition  map[string]any
}

// Response is a completed generation.
type Response struct {
	Content    json.RawMessage
	Usage      Usage
	Model      string
	StopReason string // "end", "max_tokens"
}

// Text returns Content as a trimmed string, for schema-less requests.
func (r *Response) Text() string {
	if r == nil {
		return ""
	}
	return strings.TrimSpace(string(r.Content))
}

// Usage is the token accounting reported by the provider.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// UserPrompt is shorthand for a request with a single user message.
func UserPrompt(system, prompt string) Request {
	return Request{
		System:   system,
		Messages: []Message{{Role: RoleUser, Content: prompt}},
	}
}

// resolveModel maps a friendly alias to a concrete model id; unknown names
// pass through so full ids can be configured directly.
func resolveModel(name string, aliases map[string]string) string {
	if id, ok := aliases[name]; ok {
		return id
	}
	return name
}
