package imaging

import (
	"context"
	"errors"
)

// Sentinel errors for image generation and hosting.
var (
	ErrGenerationFailed = errors.New("image generation failed")
	ErrNoImageInOutput  = errors.New("model output contained no image")
	ErrUploadFailed     = errors.New("image upload failed")
)

// Generator produces a cover image for the given prompt and returns its
// raw bytes with the reported MIME type.
type Generator interface {
	GenerateImage(ctx context.Context, prompt string) (data []byte, mimeType string, err error)
}

// Uploader stores image bytes on a public host and returns a direct URL.
type Uploader interface {
	Upload(ctx context.Context, filename string, data []byte) (string, error)
}
