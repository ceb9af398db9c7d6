package imaging_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkpress/inkpress-api/internal/imaging"
)

func TestOpenRouterClient_GenerateImage(t *testing.T) {
	t.Parallel()

	pngBytes := []byte{0x89, 0x50, 0x4E, 0x47}
	dataURL := "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes)

	var gotAuth string
	var gotModel string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		gotModel, _ = req["model"].(string)

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"choices":[{"message":{"images":[{"image_url":{"url":%q}}]}}]}`, dataURL)
	}))
	defer server.Close()

	client := imaging.NewOpenRouterClient(nil, "sk-test", "google/gemini-2.5-flash-image", server.URL)
	data, mimeType, err := client.GenerateImage(context.Background(), "abstract cover for a database article")

	require.NoError(t, err)
	assert.Equal(t, pngBytes, data)
	assert.Equal(t, "image/png", mimeType)
	assert.Equal(t, "Bearer sk-test", gotAuth)
	assert.Equal(t, "google/gemini-2.5-flash-image", gotModel)
}

func TestOpenRouterClient_GenerateImageNoImage(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{}}]}`))
	}))
	defer server.Close()

	client := imaging.NewOpenRouterClient(nil, "sk-test", "model", server.URL)
	_, _, err := client.GenerateImage(context.Background(), "prompt")

	assert.ErrorIs(t, err, imaging.ErrNoImageInOutput)
}

func TestOpenRouterClient_GenerateImageAPIError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"error":{"message":"upstream unavailable"}}`))
	}))
	defer server.Close()

	client := imaging.NewOpenRouterClient(nil, "sk-test", "model", server.URL)
	_, _, err := client.GenerateImage(context.Background(), "prompt")

	assert.ErrorIs(t, err, imaging.ErrGenerationFailed)
}
