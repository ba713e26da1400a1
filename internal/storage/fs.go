package storage

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// FSStore writes images into a local directory.
type FSStore struct {
	dir string
}

// NewFSStore creates dir if needed and returns a store rooted there.
func NewFSStore(dir string) (*FSStore, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "resolve image dir %s", dir)
	}
	if err := os.MkdirAll(abs, 0755); err != nil {
		return nil, pkgerrors.Wrapf(err, "create image dir %s", abs)
	}
	return &FSStore{dir: abs}, nil
}

// Put writes data to a temporary file and renames it into place. The
// returned location is the key; the directory is not exposed.
func (s *FSStore) Put(_ context.Context, key, _ string, data []byte) (string, error) {
	if err := validKey(key); err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return "", pkgerrors.Wrap(err, "create temp file")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", pkgerrors.Wrap(err, "write image")
	}
	if err := tmp.Close(); err != nil {
		return "", pkgerrors.Wrap(err, "close image")
	}

	dst := filepath.Join(s.dir, key)
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return "", pkgerrors.Wrap(err, "move image into place")
	}
	log.Debug().Str("path", dst).Msg("Stored image")
	return key, nil
}

// Prune removes image files modified before cutoff.
func (s *FSStore) Prune(ctx context.Context, cutoff time.Time) (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, pkgerrors.Wrap(err, "list image dir")
	}

	removed := 0
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		if !entry.Type().IsRegular() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return removed, pkgerrors.Wrapf(err, "stat %s", entry.Name())
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, entry.Name())); err != nil && !os.IsNotExist(err) {
			log.Warn().Err(err).Str("file", entry.Name()).Msg("Could not remove expired image")
			continue
		}
		removed++
	}
	return removed, nil
}
