package llm

import (
	"errors"
	"net/http"
	"testing"
)

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare", `{"a":1}`, `{"a":1}`},
		{"padded", "  {\"a\":1}\n", `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"plain fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"single line", "```json{\"a\":1}```", `{"a":1}`},
		{"empty", "   ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stripCodeFence(tt.in); got != tt.want {
				t.Errorf("stripCodeFence(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestClassifyStatus(t *testing.T) {
	cause := errors.New("boom")

	var rl *ErrRateLimit
	if !errors.As(classifyStatus(http.StatusTooManyRequests, cause), &rl) {
		t.Error("429 should be a rate limit")
	}
	for _, status := range []int{0, http.StatusBadRequest, http.StatusInternalServerError} {
		var unavail *ErrProviderUnavailable
		err := classifyStatus(status, cause)
		if !errors.As(err, &unavail) {
			t.Errorf("status %d: got %T, want ErrProviderUnavailable", status, err)
		}
		if !errors.Is(err, cause) {
			t.Errorf("status %d: cause not wrapped", status)
		}
	}
}

func TestFinish(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		_, err := finish(Request{}, completion{provider: "gemini", text: "  "})
		var empty *ErrEmptyResponse
		if !errors.As(err, &empty) {
			t.Fatalf("expected ErrEmptyResponse, got %T (%v)", err, err)
		}
		if empty.Provider != "gemini" {
			t.Errorf("provider = %q, want gemini", empty.Provider)
		}
	})

	t.Run("truncated", func(t *testing.T) {
		_, err := finish(Request{}, completion{text: `{"title":`, stop: StopMaxTokens})
		var maxTok *ErrMaxTokensExceeded
		if !errors.As(err, &maxTok) {
			t.Fatalf("expected ErrMaxTokensExceeded, got %T (%v)", err, err)
		}
		if string(maxTok.Content) != `{"title":` {
			t.Errorf("content = %s", maxTok.Content)
		}
	})

	t.Run("off schema", func(t *testing.T) {
		_, err := finish(Request{Schema: testSchema()}, completion{text: `{"title":"Find main","kind":"navigation"}`})
		var invalid *ErrInvalidResponse
		if !errors.As(err, &invalid) {
			t.Fatalf("expected ErrInvalidResponse, got %T (%v)", err, err)
		}
	})

	t.Run("fenced and valid", func(t *testing.T) {
		resp, err := finish(Request{Schema: testSchema()}, completion{
			model: "m",
			text:  "```json\n{\"title\":\"Find main\",\"kind\":\"navigation\",\"target\":{\"filePath\":\"main.go\"}}\n```",
			usage: Usage{InputTokens: 1, OutputTokens: 2, TotalTokens: 3},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(resp.Content) != `{"title":"Find main","kind":"navigation","target":{"filePath":"main.go"}}` {
			t.Errorf("content = %s", resp.Content)
		}
		if resp.StopReason != StopEnd {
			t.Errorf("stop = %q, want %q", resp.StopReason, StopEnd)
		}
		if resp.Model != "m" || resp.Usage.TotalTokens != 3 {
			t.Errorf("unexpected response %+v", resp)
		}
	})
}
