package renderer

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/isdelr/codeshot-be/internal/apperrors"
	"github.com/isdelr/codeshot-be/internal/config"
	"github.com/isdelr/codeshot-be/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 0xC4, G: 0xF2, B: 0xFD, A: 0xFF})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func newTestClient(t *testing.T) (*Client, string) {
	t.Helper()
	cfg := config.Defaults()
	cfg.RendererTimeout = 2 * time.Second
	cfg.RendererMaxBytes = 1 << 20
	dir := t.TempDir()
	store, err := storage.NewFSStore(dir)
	require.NoError(t, err)
	return NewClient(cfg, store), dir
}

func TestFetchImage_Success(t *testing.T) {
	want := pngBytes(t)
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "image/png")
		w.Write(want)
	}))
	defer srv.Close()

	client, dir := newTestClient(t)
	img, err := client.FetchImage(context.Background(), srv.URL+"/?code=x&l=Python&t=Sethi", "one.png")
	require.NoError(t, err)

	assert.Equal(t, "code=x&l=Python&t=Sethi", gotQuery)
	assert.Equal(t, "one.png", img.Key)
	assert.Equal(t, "image/png", img.ContentType)
	assert.Equal(t, want, img.Data)

	assert.Equal(t, "one.png", img.Location)
	stored, err := os.ReadFile(filepath.Join(dir, img.Location))
	require.NoError(t, err)
	assert.Equal(t, want, stored)
}

func TestFetchImage_Failures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		detail  string
	}{
		{
			name:    "server error",
			handler: func(w http.ResponseWriter, r *http.Request) { http.Error(w, "boom", http.StatusInternalServerError) },
			detail:  "Image rendering failed: renderer responded with status 500",
		},
		{
			name:    "not found",
			handler: func(w http.ResponseWriter, r *http.Request) { http.NotFound(w, r) },
			detail:  "Image rendering failed: renderer responded with status 404",
		},
		{
			name:    "html instead of image",
			handler: func(w http.ResponseWriter, r *http.Request) { w.Write([]byte("<!doctype html><html></html>")) },
			detail:  "Image rendering failed: renderer returned text/html; charset=utf-8 instead of a PNG image",
		},
		{
			name: "gif instead of png",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "image/png")
				w.Write([]byte("GIF89a\x01\x00\x01\x00\x00\x00\x00;"))
			},
			detail: "Image rendering failed: renderer returned image/gif instead of a PNG image",
		},
		{
			name:    "empty body",
			handler: func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) },
			detail:  "Image rendering failed: renderer returned an empty body",
		},
		{
			name: "too large",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write(bytes.Repeat([]byte{0}, 2<<20))
			},
			detail: "Image rendering failed: rendered image exceeds 1048576 bytes",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			client, dir := newTestClient(t)
			_, err := client.FetchImage(context.Background(), srv.URL, "x.png")
			require.Error(t, err)
			assert.True(t, errors.Is(err, apperrors.ErrRender))
			detail, ok := apperrors.Detail(err)
			require.True(t, ok)
			assert.Equal(t, tt.detail, detail)

			// nothing is written on failure
			entries, err := os.ReadDir(dir)
			require.NoError(t, err)
			assert.Empty(t, entries)
		})
	}
}

func TestFetchImage_SingleAttempt(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client, _ := newTestClient(t)
	_, err := client.FetchImage(context.Background(), srv.URL, "x.png")
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestFetchImage_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client, _ := newTestClient(t)
	_, err := client.FetchImage(context.Background(), url, "x.png")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrRender))
}
