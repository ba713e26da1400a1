package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/isdelr/codeshot-be/internal/apperrors"
	"github.com/isdelr/codeshot-be/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	urls []string
	keys []string
	err  error
}

func (f *fakeFetcher) FetchImage(_ context.Context, url, key string) (models.Image, error) {
	f.urls = append(f.urls, url)
	f.keys = append(f.keys, key)
	if f.err != nil {
		return models.Image{}, f.err
	}
	return models.Image{Key: key, Location: "/images/" + key, ContentType: "image/png", Data: []byte("png")}, nil
}

func TestCreateImage_Success(t *testing.T) {
	fetcher := &fakeFetcher{}
	events := &recordedEvents{}
	s := NewImageService(fetcher, "https://carbon.now.sh/", events)

	img, err := s.CreateImage(context.Background(), "bob", "print(1)\nprint(2)", map[string]string{"theme": "dracula"})
	require.NoError(t, err)

	require.Len(t, fetcher.urls, 1)
	url := fetcher.urls[0]
	assert.True(t, strings.HasPrefix(url, "https://carbon.now.sh/?"))
	assert.Contains(t, url, "%250A")
	assert.Contains(t, url, "t=dracula")
	assert.Contains(t, url, "l=Python")

	assert.True(t, strings.HasSuffix(fetcher.keys[0], ".png"))
	assert.Equal(t, fetcher.keys[0], img.Key)
	assert.Equal(t, "image/png", img.ContentType)
	assert.Equal(t, []string{models.EventRenderSuccess}, events.types())
}

func TestCreateImage_ValidationSkipsRenderer(t *testing.T) {
	fetcher := &fakeFetcher{}
	s := NewImageService(fetcher, "https://carbon.now.sh/", nil)

	for _, tc := range []struct {
		name   string
		code   string
		params map[string]string
	}{
		{"empty code", "", nil},
		{"unknown parameter", "x", map[string]string{"colour": "red"}},
		{"empty value", "x", map[string]string{"fontSize": ""}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := s.CreateImage(context.Background(), "bob", tc.code, tc.params)
			require.Error(t, err)
			assert.True(t, errors.Is(err, apperrors.ErrValidation))
		})
	}
	assert.Empty(t, fetcher.urls)
}

func TestCreateImage_RenderFailure(t *testing.T) {
	fetcher := &fakeFetcher{err: fmt.Errorf("%w: renderer responded with status 500", apperrors.ErrRender)}
	events := &recordedEvents{}
	s := NewImageService(fetcher, "https://carbon.now.sh/", events)

	_, err := s.CreateImage(context.Background(), "bob", "x", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrRender))
	assert.Equal(t, []string{models.EventRenderFailure}, events.types())
}
