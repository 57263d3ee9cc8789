package challenge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/abhisek/codehunt/internal/llm"
)

// Generator produces challenges for a code digest.
type Generator interface {
	// Generate produces a single validated challenge.
	Generate(ctx context.Context, input GenerateInput) (*Challenge, error)
}

// Config controls the behavior of the LLMGenerator.
type Config struct {
	// Validators run in order on every generated challenge; the first
	// failure rejects it.
	Validators []Validator

	// MaxTokens is the token budget for the LLM response.
	MaxTokens int

	// Temperature controls LLM output randomness (0.0-1.0).
	Temperature float64

	// Purpose labels provider calls in the request log.
	Purpose string
}

// DefaultConfig returns a Config with the standard validator chain.
func DefaultConfig() Config {
	return Config{
		Validators: []Validator{
			&StructuralValidator{},
			&TargetValidator{},
			&PatternValidator{},
			&HintValidator{},
		},
		MaxTokens:   1500,
		Temperature: 0.8,
		Purpose:     llm.PurposeChallengeGen,
	}
}

// LLMGenerator implements Generator using an LLM provider.
type LLMGenerator struct {
	provider llm.Provider
	config   Config
	now      func() time.Time
}

// New creates a new LLMGenerator. A nil provider yields a generator whose
// every call fails with ErrProviderUnavailable.
func New(provider llm.Provider, cfg Config) *LLMGenerator {
	return &LLMGenerator{provider: provider, config: cfg, now: time.Now}
}

// challengeOutput is the raw LLM response before validation.
type challengeOutput struct {
	Challenge *struct {
		Type        string `json:"type"`
		Title       string `json:"title"`
		Description string `json:"description"`
		Target      struct {
			FilePath     string `json:"filePath"`
			LineNumber   *int   `json:"lineNumber"`
			Pattern      string `json:"pattern"`
			FunctionName string `json:"functionName"`
			ClassName    string `json:"className"`
		} `json:"target"`
		ExpectedAction string   `json:"expectedAction"`
		Hints          []string `json:"hints"`
		Difficulty     string   `json:"difficulty"`
	} `json:"challenge"`
}

// Generate asks the provider for a challenge grounded on input.Context.
func (g *LLMGenerator) Generate(ctx context.Context, input GenerateInput) (*Challenge, error) {
	if g.provider == nil {
		return nil, ErrProviderUnavailable
	}
	if input.Context == nil || len(input.Context.Files) == 0 {
		return nil, ErrNoSourceFiles
	}

	ctx = llm.WithPurpose(ctx, g.config.Purpose)

	req := llm.Request{
		System: systemPrompt,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: buildUserMessage(input)},
		},
		Schema:      ChallengeSchema,
		MaxTokens:   g.config.MaxTokens,
		Temperature: g.config.Temperature,
	}

	resp, err := g.provider.Generate(ctx, req)
	if err != nil {
		return nil, classifyProviderError(err)
	}
	if len(strings.TrimSpace(string(resp.Content))) == 0 {
		return nil, ErrEmptyGeneration
	}

	var raw challengeOutput
	if err := json.Unmarshal(resp.Content, &raw); err != nil {
		return nil, fmt.Errorf("%w: parse response: %v", ErrInvalidGeneration, err)
	}
	if raw.Challenge == nil {
		return nil, fmt.Errorf("%w: response has no challenge object", ErrInvalidGeneration)
	}

	out := raw.Challenge
	c := &Challenge{
		ID:          g.newID(),
		Kind:        Kind(out.Type),
		Title:       out.Title,
		Description: out.Description,
		Difficulty:  Difficulty(out.Difficulty),
		Target: Target{
			FilePath:     out.Target.FilePath,
			Pattern:      out.Target.Pattern,
			FunctionName: out.Target.FunctionName,
			ClassName:    out.Target.ClassName,
		},
		ExpectedAction: out.ExpectedAction,
		Hints:          out.Hints,
		Points:         PointsFor(Difficulty(out.Difficulty)),
	}
	if out.Target.LineNumber != nil {
		c.Target.LineNumber = *out.Target.LineNumber
	}

	for _, v := range g.config.Validators {
		if verr := v.Validate(c, input); verr != nil {
			return nil, verr
		}
	}

	return c, nil
}

func (g *LLMGenerator) newID() string {
	return fmt.Sprintf("challenge_%d_%s", g.now().UnixMilli(), uuid.NewString()[:8])
}

// classifyProviderError maps provider failures onto the generation error
// taxonomy, keeping the cause in the chain.
func classifyProviderError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var (
		empty   *llm.ErrEmptyResponse
		invalid *llm.ErrInvalidResponse
		maxTok  *llm.ErrMaxTokensExceeded
		limited *llm.ErrRateLimit
	)
	switch {
	case errors.As(err, &limited):
		return fmt.Errorf("%w: %w", ErrRateLimited, err)
	case errors.As(err, &empty):
		return fmt.Errorf("%w: %w", ErrEmptyGeneration, err)
	case errors.As(err, &invalid), errors.As(err, &maxTok):
		return fmt.Errorf("%w: %w", ErrInvalidGeneration, err)
	default:
		return fmt.Errorf("%w: %w", ErrProviderUnavailable, err)
	}
}
