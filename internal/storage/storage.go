// Package storage holds the output targets rendered images are written to.
package storage

import (
	"context"
	"path"
	"strings"
	"time"

	"github.com/isdelr/codeshot-be/internal/config"
	pkgerrors "github.com/pkg/errors"
)

// ImageStore persists rendered images and forgets old ones.
type ImageStore interface {
	// Put stores data under key and returns a location that is safe to show
	// to clients.
	Put(ctx context.Context, key, contentType string, data []byte) (string, error)
	// Prune deletes images last written before cutoff and reports how many went.
	Prune(ctx context.Context, cutoff time.Time) (int, error)
}

// New builds the ImageStore selected by cfg.ImageStore.
func New(ctx context.Context, cfg *config.Config) (ImageStore, error) {
	switch cfg.ImageStore {
	case config.StoreFS:
		return NewFSStore(cfg.ImageDir)
	case config.StoreS3:
		return NewS3Store(ctx, cfg)
	default:
		return nil, pkgerrors.Errorf("unknown image store %q", cfg.ImageStore)
	}
}

// validKey rejects keys that could escape the store's root.
func validKey(key string) error {
	if key == "" || strings.ContainsAny(key, `/\`) || key != path.Clean(key) || key == "." || key == ".." {
		return pkgerrors.Errorf("invalid image key %q", key)
	}
	return nil
}
