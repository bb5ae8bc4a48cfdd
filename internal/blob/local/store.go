// Package localblob writes run artifacts under a directory on disk. It is
// the default store when no bucket is configured.
package localblob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/dawg2324/moneypuck-mirror/internal/domain"
)

// Store implements domain.BlobWriter and domain.BlobReader over a root
// directory. Paths use forward slashes and are resolved below root.
type Store struct {
	root string
}

var (
	_ domain.BlobWriter = (*Store)(nil)
	_ domain.BlobReader = (*Store)(nil)
)

// New returns a Store rooted at dir. The directory is created on first Put.
func New(dir string) *Store {
	return &Store{root: dir}
}

// Root returns the base directory.
func (s *Store) Root() string {
	return s.root
}

func (s *Store) resolve(path string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(strings.TrimPrefix(path, "/")))
	if clean == "." || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("localblob: path %q escapes root", path)
	}
	return filepath.Join(s.root, clean), nil
}

// Put writes data to path atomically: the body goes to a temp file in the
// target directory which is then renamed over the destination.
func (s *Store) Put(ctx context.Context, path string, data io.Reader, _ string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dst, err := s.resolve(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("localblob: mkdir for %s: %w", path, err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(dst), ".tmp-*")
	if err != nil {
		return fmt.Errorf("localblob: create temp for %s: %w", path, err)
	}
	if _, err := io.Copy(tmp, data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("localblob: write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("localblob: close %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("localblob: rename %s: %w", path, err)
	}
	return nil
}

// Get opens the file at path. A missing file yields domain.ErrNotFound.
func (s *Store) Get(ctx context.Context, path string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := s.resolve(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("localblob: get %s: %w", path, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("localblob: get %s: %w", path, err)
	}
	return f, nil
}

// Exists reports whether a regular file is stored at path.
func (s *Store) Exists(_ context.Context, path string) (bool, error) {
	p, err := s.resolve(path)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(p)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("localblob: stat %s: %w", path, err)
	}
	return info.Mode().IsRegular(), nil
}
