package imaging_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkpress/inkpress-api/internal/imaging"
)

func TestDirectDownloadURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "page URL gets dl prefix",
			input: "https://tmpfiles.org/12345/cover.png",
			want:  "https://tmpfiles.org/dl/12345/cover.png",
		},
		{
			name:  "http upgraded to https",
			input: "http://tmpfiles.org/12345/cover.png",
			want:  "https://tmpfiles.org/dl/12345/cover.png",
		},
		{
			name:  "already direct URL unchanged",
			input: "https://tmpfiles.org/dl/12345/cover.png",
			want:  "https://tmpfiles.org/dl/12345/cover.png",
		},
		{
			name:  "foreign host unchanged",
			input: "https://example.com/cover.png",
			want:  "https://example.com/cover.png",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tc.want, imaging.DirectDownloadURL(tc.input))
		})
	}
}

func TestFileHostUploader_Upload(t *testing.T) {
	t.Parallel()

	var gotFilename string
	var gotBytes []byte

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer func() { _ = file.Close() }()

		gotFilename = header.Filename
		gotBytes, err = io.ReadAll(file)
		require.NoError(t, err)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"success","data":{"url":"http://tmpfiles.org/777/cover.png"}}`))
	}))
	defer server.Close()

	uploader := imaging.NewFileHostUploader(nil, server.URL)
	url, err := uploader.Upload(context.Background(), "cover.png", []byte{0x89, 0x50})

	require.NoError(t, err)
	assert.Equal(t, "https://tmpfiles.org/dl/777/cover.png", url)
	assert.Equal(t, "cover.png", gotFilename)
	assert.Equal(t, []byte{0x89, 0x50}, gotBytes)
}

func TestFileHostUploader_UploadRejectsFailureStatus(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"error"}`))
	}))
	defer server.Close()

	uploader := imaging.NewFileHostUploader(nil, server.URL)
	_, err := uploader.Upload(context.Background(), "cover.png", []byte{1})

	assert.ErrorIs(t, err, imaging.ErrUploadFailed)
}

func TestFileHostUploader_UploadRejectsHTTPError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	uploader := imaging.NewFileHostUploader(nil, server.URL)
	_, err := uploader.Upload(context.Background(), "cover.png", []byte{1})

	assert.ErrorIs(t, err, imaging.ErrUploadFailed)
}
