package imaging

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const generateTimeout = 120 * time.Second

// OpenRouterClient implements Generator against an OpenRouter-compatible
// chat completions API using an image-capable model.
type OpenRouterClient struct {
	logger     *slog.Logger
	httpClient *http.Client
	apiKey     string
	model      string
	baseURL    string
}

// NewOpenRouterClient creates an image generation client.
func NewOpenRouterClient(logger *slog.Logger, apiKey, model, baseURL string) *OpenRouterClient {
	if logger == nil {
		logger = slog.Default()
	}

	return &OpenRouterClient{
		logger:     logger.With("component", "image_generator", "model", model),
		httpClient: &http.Client{Timeout: generateTimeout},
		apiKey:     apiKey,
		model:      model,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
	}
}

type chatCompletionRequest struct {
	Model      string        `json:"model"`
	Messages   []chatMessage `json:"messages"`
	Modalities []string      `json:"modalities"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Images []struct {
				ImageURL struct {
					URL string `json:"url"`
				} `json:"image_url"`
			} `json:"images"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// GenerateImage asks the model for one image and returns its decoded bytes.
// The model delivers images as base64 data URLs in the message's images
// list.
func (c *OpenRouterClient) GenerateImage(ctx context.Context, prompt string) ([]byte, string, error) {
	body, err := json.Marshal(chatCompletionRequest{
		Model:      c.model,
		Messages:   []chatMessage{{Role: "user", Content: prompt}},
		Modalities: []string{"image", "text"},
	})
	if err != nil {
		return nil, "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("%w: read response: %v", ErrGenerationFailed, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("%w: status %d: %s", ErrGenerationFailed, resp.StatusCode, truncate(string(respBody), 200))
	}

	var parsed chatCompletionResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, "", fmt.Errorf("%w: parse response: %v", ErrGenerationFailed, err)
	}

	if parsed.Error != nil {
		return nil, "", fmt.Errorf("%w: %s", ErrGenerationFailed, parsed.Error.Message)
	}

	if len(parsed.Choices) == 0 || len(parsed.Choices[0].Message.Images) == 0 {
		return nil, "", ErrNoImageInOutput
	}

	data, mimeType, err := decodeDataURL(parsed.Choices[0].Message.Images[0].ImageURL.URL)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrNoImageInOutput, err)
	}

	c.logger.DebugContext(ctx, "image generated", "bytes", len(data), "mime_type", mimeType)
	return data, mimeType, nil
}

// decodeDataURL parses a "data:<mime>;base64,<payload>" URL.
func decodeDataURL(url string) (data []byte, mimeType string, err error) {
	if !strings.HasPrefix(url, "data:") {
		return nil, "", fmt.Errorf("not a data URL")
	}

	meta, payload, found := strings.Cut(strings.TrimPrefix(url, "data:"), ",")
	if !found {
		return nil, "", fmt.Errorf("malformed data URL")
	}

	mimeType = strings.TrimSuffix(meta, ";base64")
	if !strings.HasSuffix(meta, ";base64") {
		return nil, "", fmt.Errorf("data URL is not base64 encoded")
	}

	data, err = base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("decode base64 payload: %w", err)
	}

	return data, mimeType, nil
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
