// Package genai generates funnel documents and answer analyses with Gemini.
package genai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/funnel/internal/logging"
	"github.com/aretw0/funnel/pkg/domain"
	"github.com/aretw0/funnel/pkg/ports"
	"github.com/aretw0/funnel/pkg/schema"
	"google.golang.org/genai"
)

const (
	// DefaultModel is used when no model is configured.
	DefaultModel = "gemini-2.5-pro"
	// MaxPromptLength bounds generation prompts, in characters.
	MaxPromptLength = 5000
)

var (
	ErrInvalidPrompt   = ports.ErrInvalidPrompt
	ErrRateLimited     = ports.ErrRateLimited
	ErrOverloaded      = ports.ErrOverloaded
	ErrInvalidResponse = ports.ErrInvalidResponse
)

const funnelInstruction = `You are an expert in marketing, psychology and instructional design.
Create a complete interactive quiz funnel configuration from the user's prompt.
The output MUST be a single valid JSON object with this shape:
{"steps": [...], "theme": {"font": "...", "colors": {...}}, "redirectUrl": "..."}
Each step has a unique "id" and a "type": 0 welcome {title, buttonText},
1 question {question, answerInput: {type: buttons|text|voice|video}, options: [{id, text, nextStepId?}]},
2 message {title, buttonText}, 3 lead capture {title, subtitle, namePlaceholder,
emailPlaceholder, phonePlaceholder, buttonText}.
Use at most 15 steps. Start with a welcome step, mix questions and messages,
and end with a lead capture step. Every id in the document must be unique.
Return ONLY the JSON object, without markdown.`

const analysisInstruction = `You analyze user feedback.
Return a single valid JSON object {"sentiment": "Positive"|"Negative"|"Neutral",
"keywords": [3 to 5 relevant keywords], "summary": "one actionable sentence"}.
Return ONLY the JSON object, without markdown.`

// generateFunc performs one model call and returns the response text.
type generateFunc func(ctx context.Context, model, prompt string, cfg *genai.GenerateContentConfig) (string, error)

// Generator implements ports.Generator and ports.Analyzer.
type Generator struct {
	generate     generateFunc
	model        string
	attempts     int
	initialDelay time.Duration
	sleep        func(ctx context.Context, d time.Duration) error
	logger       *slog.Logger
}

// Option configures the Generator.
type Option func(*Generator)

// WithModel selects the Gemini model.
func WithModel(model string) Option {
	return func(g *Generator) {
		if model != "" {
			g.model = model
		}
	}
}

// WithRetry sets the number of attempts and the first backoff delay for overloaded responses.
func WithRetry(attempts int, initialDelay time.Duration) Option {
	return func(g *Generator) {
		if attempts > 0 {
			g.attempts = attempts
		}
		g.initialDelay = initialDelay
	}
}

// WithLogger sets a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Generator) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// New creates a Generator backed by the Gemini API.
func New(ctx context.Context, apiKey string, opts ...Option) (*Generator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GenAI API key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	call := func(ctx context.Context, model, prompt string, cfg *genai.GenerateContentConfig) (string, error) {
		resp, err := client.Models.GenerateContent(ctx, model, genai.Text(prompt), cfg)
		if err != nil {
			return "", err
		}
		return resp.Text(), nil
	}
	return newGenerator(call, opts...), nil
}

func newGenerator(call generateFunc, opts ...Option) *Generator {
	g := &Generator{
		generate:     call,
		model:        DefaultModel,
		attempts:     3,
		initialDelay: 2 * time.Second,
		sleep:        sleepContext,
		logger:       logging.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.logger = g.logger.With("component", "genai", "model", g.model)
	return g
}

// GenerateFunnel asks the model for a funnel document. The result is decoded and
// must pass schema validation.
func (g *Generator) GenerateFunnel(ctx context.Context, prompt string) (*domain.Document, error) {
	if strings.TrimSpace(prompt) == "" || len([]rune(prompt)) > MaxPromptLength {
		return nil, ErrInvalidPrompt
	}

	g.logger.InfoContext(ctx, "generating funnel", "prompt_length", len(prompt))
	text, err := g.call(ctx, prompt, funnelInstruction)
	if err != nil {
		return nil, err
	}

	doc, err := schema.Decode([]byte(text))
	if err != nil {
		g.logger.ErrorContext(ctx, "failed to decode generated funnel", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if err := schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidResponse, err)
	}
	g.logger.InfoContext(ctx, "funnel generated", "steps", doc.Len())
	return doc, nil
}

// AnalyzeText classifies a free-text answer.
func (g *Generator) AnalyzeText(ctx context.Context, text string) (domain.Analysis, error) {
	if strings.TrimSpace(text) == "" {
		return domain.Analysis{}, ErrInvalidPrompt
	}

	out, err := g.call(ctx, fmt.Sprintf("Analyze the following text: %q", text), analysisInstruction)
	if err != nil {
		return domain.Analysis{}, err
	}

	var analysis domain.Analysis
	if err := json.Unmarshal([]byte(out), &analysis); err != nil {
		return domain.Analysis{}, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	switch analysis.Sentiment {
	case domain.SentimentPositive, domain.SentimentNegative, domain.SentimentNeutral:
	default:
		analysis.Sentiment = domain.SentimentNeutral
	}
	return analysis, nil
}

// call runs the model with retries on overload and returns the response with code fences removed.
func (g *Generator) call(ctx context.Context, prompt, instruction string) (string, error) {
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(instruction, genai.RoleUser),
		ResponseMIMEType:  "application/json",
	}

	delay := g.initialDelay
	var err error
	for attempt := 1; attempt <= g.attempts; attempt++ {
		var text string
		text, err = g.generate(ctx, g.model, prompt, cfg)
		if err == nil {
			text = StripFences(text)
			if text == "" {
				return "", fmt.Errorf("%w: empty response", ErrInvalidResponse)
			}
			return text, nil
		}

		err = classify(err)
		if !errors.Is(err, ErrOverloaded) || attempt == g.attempts {
			break
		}
		g.logger.WarnContext(ctx, "model overloaded, retrying", "attempt", attempt, "delay", delay)
		if serr := g.sleep(ctx, delay); serr != nil {
			return "", serr
		}
		delay *= 2
	}
	return "", err
}

// classify maps API failures onto the package errors.
func classify(err error) error {
	code, status := 0, ""
	var apiErr genai.APIError
	var apiErrPtr *genai.APIError
	switch {
	case errors.As(err, &apiErr):
		code, status = apiErr.Code, apiErr.Status
	case errors.As(err, &apiErrPtr):
		code, status = apiErrPtr.Code, apiErrPtr.Status
	default:
		return err
	}

	switch {
	case code == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %w", ErrRateLimited, err)
	case code == http.StatusServiceUnavailable || status == "UNAVAILABLE":
		return fmt.Errorf("%w: %w", ErrOverloaded, err)
	}
	return err
}

// StripFences removes a surrounding markdown code fence, such as ```json ... ```.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
