package imaging

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

const uploadTimeout = 60 * time.Second

// FileHostUploader implements Uploader against a tmpfiles-style upload API:
// a multipart POST returning a JSON body with the hosted page URL.
type FileHostUploader struct {
	logger     *slog.Logger
	httpClient *http.Client
	uploadURL  string
}

// NewFileHostUploader creates an uploader posting to the given endpoint.
func NewFileHostUploader(logger *slog.Logger, uploadURL string) *FileHostUploader {
	if logger == nil {
		logger = slog.Default()
	}

	return &FileHostUploader{
		logger:     logger.With("component", "image_uploader"),
		httpClient: &http.Client{Timeout: uploadTimeout},
		uploadURL:  uploadURL,
	}
}

type uploadResponse struct {
	Status string `json:"status"`
	Data   struct {
		URL string `json:"url"`
	} `json:"data"`
}

// Upload posts the file and returns a direct-download URL.
func (u *FileHostUploader) Upload(ctx context.Context, filename string, data []byte) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("build multipart body: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("build multipart body: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("build multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.uploadURL, &body)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := u.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read response: %v", ErrUploadFailed, err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d", ErrUploadFailed, resp.StatusCode)
	}

	var parsed uploadResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("%w: parse response: %v", ErrUploadFailed, err)
	}

	if parsed.Status != "success" || parsed.Data.URL == "" {
		return "", fmt.Errorf("%w: unexpected response status %q", ErrUploadFailed, parsed.Status)
	}

	url := DirectDownloadURL(parsed.Data.URL)
	u.logger.DebugContext(ctx, "image uploaded", "url", url)
	return url, nil
}

// DirectDownloadURL rewrites a tmpfiles page URL into its direct-download
// form: the host serves the raw file under a /dl/ path prefix, and only
// over HTTPS.
func DirectDownloadURL(pageURL string) string {
	url := strings.Replace(pageURL, "http://", "https://", 1)

	const marker = "tmpfiles.org/"
	idx := strings.Index(url, marker)
	if idx == -1 {
		return url
	}

	prefix := url[:idx+len(marker)]
	rest := url[idx+len(marker):]
	if strings.HasPrefix(rest, "dl/") {
		return url
	}
	return prefix + "dl/" + rest
}
