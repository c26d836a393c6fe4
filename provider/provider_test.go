package provider

import (
	"encoding/json"
	"testing"

	"github.com/aschepis/aichat/llm"
)

func TestValidateKey(t *testing.T) {
	tests := []struct {
		name    string
		proxy   bool
		key     string
		wantErr bool
	}{
		{"direct with official key", false, "sk-abc123", false},
		{"direct with proxy key", false, "pk-relay-issued", true},
		{"proxy with proxy key", true, "pk-relay-issued", false},
		{"proxy with official key", true, "sk-abc123", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateKey(tt.proxy, tt.key)
			if tt.wantErr && err == nil {
				t.Fatal("expected error")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if err != nil && !llm.IsConfigError(err) {
				t.Errorf("expected ConfigError, got %T", err)
			}
		})
	}
}

func TestDecodeAPIError(t *testing.T) {
	apiErr := decodeAPIError(429, []byte(`{"error":{"type":"rate_limit","code":"rate_limit_exceeded","message":"slow down"}}`))
	if apiErr.StatusCode != 429 || apiErr.Type != "rate_limit" || apiErr.Message != "slow down" {
		t.Errorf("decoded error = %+v", apiErr)
	}
	if apiErr.Error() != "provider error (HTTP 429): slow down" {
		t.Errorf("Error() = %q", apiErr.Error())
	}
}

func TestDecodeAPIError_NonJSONBody(t *testing.T) {
	apiErr := decodeAPIError(502, []byte("<html>bad gateway</html>"))
	if apiErr.Body != "<html>bad gateway</html>" {
		t.Errorf("raw body should be preserved, got %q", apiErr.Body)
	}
	if apiErr.Message != "" {
		t.Errorf("message should stay empty, got %q", apiErr.Message)
	}
}

func TestTextOutput_ConvenienceField(t *testing.T) {
	r := &Response{OutputText: "direct"}
	if got := r.TextOutput(); got != "direct" {
		t.Errorf("TextOutput() = %q", got)
	}
}

func TestTextOutput_ScansPastReasoningItems(t *testing.T) {
	r := &Response{Output: []OutputItem{
		{Type: "reasoning"},
		{Type: "image_generation_call", Result: "aGk="},
		{Type: "message", Content: []OutputContent{
			{Type: "refusal", Text: "nope"},
			{Type: "output_text", Text: "the answer"},
		}},
	}}
	if got := r.TextOutput(); got != "the answer" {
		t.Errorf("TextOutput() = %q", got)
	}
}

func TestTextOutput_Empty(t *testing.T) {
	r := &Response{Output: []OutputItem{{Type: "reasoning"}}}
	if got := r.TextOutput(); got != "" {
		t.Errorf("TextOutput() = %q, want empty", got)
	}
}

func TestItemUnmarshal_KeepsRaw(t *testing.T) {
	var item Item
	payload := `{"id":"item_1","type":"message","role":"assistant","summary":[{"text":"hidden field"}]}`
	if err := json.Unmarshal([]byte(payload), &item); err != nil {
		t.Fatalf("unmarshal returned error: %v", err)
	}
	if item.ID != "item_1" || item.Type != "message" || item.Role != "assistant" {
		t.Errorf("typed fields = %+v", item)
	}
	if _, ok := item.Raw["summary"]; !ok {
		t.Error("unmodeled provider fields should stay reachable through Raw")
	}
}
