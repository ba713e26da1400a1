// Package renderer talks to the external code-screenshot service.
package renderer

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/isdelr/codeshot-be/internal/apperrors"
	"github.com/isdelr/codeshot-be/internal/config"
	"github.com/isdelr/codeshot-be/internal/models"
	"github.com/isdelr/codeshot-be/internal/storage"
	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Client fetches rendered images and writes them to an ImageStore.
// Each call makes exactly one outbound request; there are no retries.
type Client struct {
	httpClient *http.Client
	store      storage.ImageStore
	maxBytes   int64
}

// NewClient creates a renderer Client using the timeout and size limit in cfg.
func NewClient(cfg *config.Config, store storage.ImageStore) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: cfg.RendererTimeout},
		store:      store,
		maxBytes:   cfg.RendererMaxBytes,
	}
}

// FetchImage downloads the image at url and stores it under key.
// Network failures, non-2xx responses and bodies that are not PNG images yield
// apperrors.ErrRender.
func (c *Client) FetchImage(ctx context.Context, url, key string) (models.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return models.Image{}, pkgerrors.Wrap(err, "build renderer request")
	}
	req.Header.Set("Accept", "image/png")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Warn().Err(err).Msg("Renderer request failed")
		return models.Image{}, renderError("renderer unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain a little so the connection can be reused.
		io.CopyN(io.Discard, resp.Body, 4<<10)
		return models.Image{}, renderError(fmt.Sprintf("renderer responded with status %d", resp.StatusCode), nil)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes+1))
	if err != nil {
		return models.Image{}, renderError("reading renderer response failed", err)
	}
	if int64(len(data)) > c.maxBytes {
		return models.Image{}, renderError(fmt.Sprintf("rendered image exceeds %d bytes", c.maxBytes), nil)
	}
	if len(data) == 0 {
		return models.Image{}, renderError("renderer returned an empty body", nil)
	}

	contentType := http.DetectContentType(data)
	if contentType != "image/png" {
		return models.Image{}, renderError(fmt.Sprintf("renderer returned %s instead of a PNG image", contentType), nil)
	}

	location, err := c.store.Put(ctx, key, contentType, data)
	if err != nil {
		return models.Image{}, pkgerrors.Wrap(err, "store rendered image")
	}

	return models.Image{Key: key, Location: location, ContentType: contentType, Data: data}, nil
}

func renderError(detail string, cause error) error {
	err := apperrors.New(apperrors.ErrRender, "Image rendering failed: "+detail)
	if cause != nil {
		return fmt.Errorf("%w: %v", err, cause)
	}
	return err
}
