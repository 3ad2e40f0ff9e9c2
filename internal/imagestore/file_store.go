package imagestore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// fileStore implements Store by writing under a local directory that the
// HTTP server exposes at baseURL.
type fileStore struct {
	dir     string
	baseURL string
	logger  zerolog.Logger
}

// NewFileStore creates a new file-based image store.
func NewFileStore(dir, baseURL string, logger zerolog.Logger) Store {
	return &fileStore{
		dir:     dir,
		baseURL: baseURL,
		logger:  logger.With().Str("component", "file-image-store").Logger(),
	}
}

// Put writes data to dir/key atomically. Directory components in key are dropped.
func (s *fileStore) Put(ctx context.Context, key, contentType string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	name := filepath.Base(filepath.Clean("/" + key))
	if name == "/" || name == "." {
		return "", fmt.Errorf("invalid image key %q", key)
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		s.logger.Error().Err(err).Str("dir", s.dir).Msg("failed to create image directory")
		return "", fmt.Errorf("failed to create image directory %s: %w", s.dir, err)
	}

	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to set image permissions: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to write image: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to write image: %w", err)
	}

	path := filepath.Join(s.dir, name)
	if err := os.Rename(tmp.Name(), path); err != nil {
		s.logger.Error().Err(err).Str("file", path).Msg("failed to store image")
		return "", fmt.Errorf("failed to store image %s: %w", path, err)
	}

	s.logger.Info().Str("file", path).Int("bytes", len(data)).Msg("image stored")
	return joinURL(s.baseURL, name), nil
}
