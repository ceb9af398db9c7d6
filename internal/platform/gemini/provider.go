package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"strings"
	"time"

	"github.com/inkpress/inkpress-api/internal/config"
	"github.com/inkpress/inkpress-api/internal/generation"
	"google.golang.org/genai"
)

// defaultTemperature is used for all generation calls; the blog prompts
// want some creative latitude without drifting off-structure.
const defaultTemperature = float32(0.7)

// Provider implements generation.AIProvider backed by the Gemini API.
type Provider struct {
	logger *slog.Logger
	config config.LLMConfig
	client *genai.Client
	model  string

	// rng drives retry jitter.
	rng *rand.Rand
}

// NewProvider creates a Gemini-backed AIProvider.
// Returns generation.ErrInvalidConfig (wrapped) when required configuration
// is missing or the client cannot be constructed.
func NewProvider(ctx context.Context, logger *slog.Logger, cfg config.LLMConfig) (*Provider, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", generation.ErrInvalidConfig)
	}

	if cfg.ModelName == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", generation.ErrInvalidConfig)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v", generation.ErrInvalidConfig, err)
	}

	return &Provider{
		logger: logger.With("provider", "gemini", "model", cfg.ModelName),
		config: cfg,
		client: client,
		model:  cfg.ModelName,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}, nil
}

// Generate produces free-form text for the given prompts.
func (p *Provider) Generate(ctx context.Context, systemPrompt, userPrompt string, maxTokens int32) (string, error) {
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
		Temperature:       genai.Ptr(defaultTemperature),
	}
	if maxTokens > 0 {
		cfg.MaxOutputTokens = maxTokens
	}

	return p.callWithRetry(ctx, userPrompt, cfg)
}

// GenerateJSON produces a JSON document and unmarshals it into out. The
// schema is conveyed by instruction rather than a typed response schema; the
// response MIME type constrains the model to emit bare JSON.
func (p *Provider) GenerateJSON(ctx context.Context, systemPrompt, userPrompt, schemaName string, out any) error {
	system := systemPrompt + fmt.Sprintf(
		"\n\nRespond ONLY with a valid JSON object for %q. No markdown fences, no extra text.", schemaName)

	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		Temperature:       genai.Ptr(defaultTemperature),
		ResponseMIMEType:  "application/json",
	}

	text, err := p.callWithRetry(ctx, userPrompt, cfg)
	if err != nil {
		return err
	}

	if err := json.Unmarshal([]byte(stripJSONFences(text)), out); err != nil {
		return fmt.Errorf("%w: failed to parse %s JSON: %v", generation.ErrInvalidResponse, schemaName, err)
	}

	return nil
}

// callWithRetry makes a Gemini API call with exponential backoff retry.
//
// Transient API failures are retried up to config.MaxRetries times with
// delay = baseDelay * 2^attempt scaled by a jitter factor in [0.5, 1.0).
// Empty, malformed, or safety-blocked responses are permanent errors and
// returned immediately: retrying will not change the verdict, and the
// callers' own task-level retry policy owns recovery beyond this layer.
func (p *Provider) callWithRetry(ctx context.Context, userPrompt string, cfg *genai.GenerateContentConfig) (string, error) {
	maxRetries := p.config.MaxRetries
	baseDelaySeconds := p.config.BaseRetryDelaySeconds
	if baseDelaySeconds <= 0 {
		baseDelaySeconds = 1
	}

	attempt := 0
	for {
		attemptNum := attempt + 1

		text, transient, err := p.callOnce(ctx, userPrompt, cfg)
		if err == nil {
			p.logger.DebugContext(ctx, "Gemini API call successful", "attempt", attemptNum)
			return text, nil
		}

		p.logger.ErrorContext(ctx, "Gemini API call failed",
			"attempt", attemptNum,
			"error", err)

		if !transient {
			return "", err
		}

		if attempt >= maxRetries {
			return "", fmt.Errorf("%w: exceeded maximum retry attempts (%d): %v",
				generation.ErrTransientFailure, maxRetries, err)
		}

		backoffSeconds := float64(baseDelaySeconds) * math.Pow(2, float64(attempt))
		jitterFactor := 0.5 + p.rng.Float64()*0.5
		delay := time.Duration(backoffSeconds * jitterFactor * float64(time.Second))

		p.logger.InfoContext(ctx, "retrying Gemini call after delay",
			"attempt", attemptNum,
			"delay", delay)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", fmt.Errorf("%w: %v", generation.ErrTransientFailure, ctx.Err())
		}

		attempt++
	}
}

// callOnce performs a single API call and classifies any failure as
// transient (retryable) or permanent.
func (p *Provider) callOnce(ctx context.Context, userPrompt string, cfg *genai.GenerateContentConfig) (text string, transient bool, err error) {
	resp, err := p.client.Models.GenerateContent(ctx, p.model, genai.Text(userPrompt), cfg)
	if err != nil {
		// Network and server-side errors are assumed transient.
		return "", true, fmt.Errorf("gemini API call: %w", err)
	}

	if resp == nil || len(resp.Candidates) == 0 {
		return "", false, fmt.Errorf("%w: no content generated", generation.ErrInvalidResponse)
	}

	if resp.Candidates[0].FinishReason == genai.FinishReasonSafety {
		return "", false, fmt.Errorf("%w: finish reason safety", generation.ErrContentBlocked)
	}

	text = resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", false, fmt.Errorf("%w: empty response text", generation.ErrInvalidResponse)
	}

	return text, false, nil
}

// stripJSONFences removes a surrounding markdown code fence if the model
// emitted one despite the JSON response MIME type.
func stripJSONFences(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
