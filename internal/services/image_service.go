package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/isdelr/codeshot-be/internal/apperrors"
	"github.com/isdelr/codeshot-be/internal/carbon"
	"github.com/isdelr/codeshot-be/internal/metrics"
	"github.com/isdelr/codeshot-be/internal/models"
	"github.com/rs/zerolog/log"
)

// ImageFetcher downloads a rendered image and stores it under key.
type ImageFetcher interface {
	FetchImage(ctx context.Context, url, key string) (models.Image, error)
}

// ImageServiceProvider defines the interface for image services.
type ImageServiceProvider interface {
	CreateImage(ctx context.Context, username, code string, params map[string]string) (models.Image, error)
}

// ImageService normalizes code snippets and hands them to the renderer.
type ImageService struct {
	fetcher     ImageFetcher
	rendererURL string
	events      EventServiceProvider
}

// NewImageService creates a new ImageService.
func NewImageService(fetcher ImageFetcher, rendererURL string, events EventServiceProvider) *ImageService {
	return &ImageService{fetcher: fetcher, rendererURL: rendererURL, events: events}
}

// CreateImage renders code with the given style parameters on behalf of username.
func (s *ImageService) CreateImage(ctx context.Context, username, code string, params map[string]string) (models.Image, error) {
	req, err := carbon.Validate(carbon.BuildImageRequest(code, params))
	if err != nil {
		metrics.Renders.WithLabelValues("invalid").Inc()
		return models.Image{}, err
	}

	url, err := carbon.BuildRequestURL(s.rendererURL, req)
	if err != nil {
		return models.Image{}, err
	}

	key := uuid.New().String() + ".png"
	start := time.Now()
	img, err := s.fetcher.FetchImage(ctx, url, key)
	metrics.RenderDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.Renders.WithLabelValues("failure").Inc()
		if errors.Is(err, apperrors.ErrRender) {
			recordEvent(ctx, s.events, models.EventRenderFailure, "error", err.Error(), &username)
		}
		return models.Image{}, err
	}

	metrics.Renders.WithLabelValues("success").Inc()
	recordEvent(ctx, s.events, models.EventRenderSuccess, "info", "Rendered "+img.Key, &username)
	log.Info().Str("username", username).Str("key", img.Key).Str("location", img.Location).
		Str("theme", req.Theme).Str("language", req.Language).Msg("Rendered code image")
	return img, nil
}
