package llm

import (
	"encoding/json"
	"errors"
	"testing"
)

var verdictSchema = &Schema{
	Name: "test-verdict",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"accepted": map[string]any{"type": "boolean"},
			"score":    map[string]any{"type": "integer", "minimum": 0, "maximum": 100},
		},
		"required":             []string{"accepted", "score"},
		"additionalProperties": false,
	},
}

func TestValidateContent(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"valid", `{"accepted":true,"score":80}`, false},
		{"missing field", `{"accepted":true}`, true},
		{"wrong type", `{"accepted":"yes","score":80}`, true},
		{"out of range", `{"accepted":true,"score":120}`, true},
		{"extra field", `{"accepted":true,"score":1,"x":1}`, true},
		{"not json", `Sure! Here is the JSON`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateContent(verdictSchema, json.RawMessage(tt.raw))
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				var inv *ErrInvalidResponse
				if !errors.As(err, &inv) {
					t.Errorf("expected *ErrInvalidResponse, got %T", err)
				}
			}
		})
	}
}

func TestValidateContent_NilSchema(t *testing.T) {
	if err := ValidateContent(nil, json.RawMessage("plain words")); err != nil {
		t.Errorf("nil schema should pass, got %v", err)
	}
}
