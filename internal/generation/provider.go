package generation

import "context"

// AIProvider defines the interface for text generation against an external
// LLM service. This interface is the boundary between the skill layer and
// the concrete provider implementation in internal/platform/gemini.
type AIProvider interface {
	// Generate produces free-form text from a system prompt and a user
	// prompt. maxTokens bounds the output when positive; zero means the
	// provider default. Returns ErrInvalidResponse (possibly wrapped) when
	// the model produces empty output.
	Generate(ctx context.Context, systemPrompt, userPrompt string, maxTokens int32) (string, error)

	// GenerateJSON produces a JSON object matching the shape of out and
	// unmarshals into it. schemaName identifies the schema in prompts and
	// logs. Returns ErrInvalidResponse when the model output cannot be
	// parsed into out.
	GenerateJSON(ctx context.Context, systemPrompt, userPrompt, schemaName string, out any) error
}
