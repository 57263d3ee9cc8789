package llm

import (
	"encoding/json"
	"net/http"
	"strings"
)

// Normalised stop reasons reported in Response.StopReason.
const (
	StopEnd       = "end"
	StopMaxTokens = "max_tokens"
)

// completion is a backend's raw answer before normalisation.
type completion struct {
	provider string
	model    string
	text     string
	stop     string
	usage    Usage
}

// finish turns a backend answer into a Response. Every backend goes
// through here so empty, truncated, and off-schema output fail the same
// way regardless of vendor.
func finish(req Request, c completion) (*Response, error) {
	text := stripCodeFence(c.text)
	if text == "" {
		return nil, &ErrEmptyResponse{Provider: c.provider}
	}
	content := json.RawMessage(text)

	if c.stop == StopMaxTokens {
		return nil, &ErrMaxTokensExceeded{Content: content}
	}
	if req.Schema != nil {
		if err := validateResponse(req.Schema, content); err != nil {
			return nil, err
		}
	}

	stop := c.stop
	if stop == "" {
		stop = StopEnd
	}
	return &Response{
		Content:    content,
		Usage:      c.usage,
		Model:      c.model,
		StopReason: stop,
	}, nil
}

// stripCodeFence unwraps a reply the model wrapped in a markdown code
// block despite being asked for bare JSON.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:] // drop the language tag line
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// classifyStatus maps the HTTP status of a failed backend call onto the
// errors the retry decorator understands. Anything but a rate limit is
// treated as the provider being unavailable.
func classifyStatus(status int, err error) error {
	if status == http.StatusTooManyRequests {
		return &ErrRateLimit{Err: err}
	}
	return &ErrProviderUnavailable{Err: err}
}
