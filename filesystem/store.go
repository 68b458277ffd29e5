// Package filesystem provides a local directory backend for r2gate.ObjectStore.
// Writes are atomic using temp files and renames. The content type supplied on
// upload is kept in a sidecar tree so downloads return it unchanged.
package filesystem

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"mime"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/sagarc03/r2gate"
)

// metaDir holds temp files and content type sidecars. It is never listed.
const metaDir = ".r2gate"

var (
	tmpDir   = path.Join(metaDir, "tmp")
	typesDir = path.Join(metaDir, "types")
)

// Store provides file system storage operations.
type Store struct {
	root *os.Root
}

// NewFileStorage creates a new Store with the given root directory.
// The root provides sandboxed file operations preventing path traversal.
func NewFileStorage(root *os.Root) *Store {
	return &Store{root: root}
}

// Get opens the object at key. Returns r2gate.ErrNotFound if it does not exist.
func (s *Store) Get(ctx context.Context, key string) (r2gate.Object, error) {
	if err := ctx.Err(); err != nil {
		return r2gate.Object{}, err
	}
	if err := validateKey(key); err != nil {
		return r2gate.Object{}, err
	}

	f, err := s.root.Open(filepath.FromSlash(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return r2gate.Object{}, r2gate.ErrNotFound
		}
		return r2gate.Object{}, fmt.Errorf("failed to open file: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return r2gate.Object{}, fmt.Errorf("failed to stat file: %w", err)
	}
	if info.IsDir() {
		_ = f.Close()
		return r2gate.Object{}, r2gate.ErrNotFound
	}

	return r2gate.Object{
		Body:        f,
		ContentType: s.contentType(key),
		Size:        info.Size(),
	}, nil
}

// Put atomically writes data to key, creating intermediate directories, and
// records contentType for later downloads.
func (s *Store) Put(ctx context.Context, key string, data []byte, contentType string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateKey(key); err != nil {
		return err
	}

	if err := s.writeAtomic(key, data); err != nil {
		return err
	}

	if err := s.writeAtomic(path.Join(typesDir, key), []byte(contentType)); err != nil {
		return fmt.Errorf("could not record content type: %w", err)
	}
	return nil
}

func (s *Store) writeAtomic(key string, data []byte) error {
	if err := s.root.MkdirAll(filepath.FromSlash(tmpDir), 0o755); err != nil {
		return fmt.Errorf("could not create temp directory: %w", err)
	}

	tmpFile := filepath.FromSlash(path.Join(tmpDir, tmpFileName()))
	t, createErr := s.root.Create(tmpFile)
	if createErr != nil {
		return fmt.Errorf("could not open temp file: %w", createErr)
	}

	success := false
	defer func() {
		if closeErr := t.Close(); closeErr != nil {
			slog.Warn("failed to close tmp file", "err", closeErr)
		}
		if !success {
			if rmErr := s.root.Remove(tmpFile); rmErr != nil {
				slog.Warn("failed to remove tmp file", "err", rmErr)
			}
		}
	}()

	if _, err := io.Copy(t, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("could not copy file contents: %w", err)
	}

	if err := t.Sync(); err != nil {
		return fmt.Errorf("could not sync written file: %w", err)
	}

	dest := filepath.FromSlash(key)
	if destDir := filepath.Dir(dest); destDir != "." {
		if err := s.root.MkdirAll(destDir, 0o755); err != nil {
			return fmt.Errorf("could not create intermediate directories: %w", err)
		}
	}

	if renameErr := s.root.Rename(tmpFile, dest); renameErr != nil {
		return fmt.Errorf("failed to rename file: %w", renameErr)
	}

	success = true
	return nil
}

// Delete removes the object at key. A missing key is not an error, matching
// S3 DeleteObject.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateKey(key); err != nil {
		return err
	}

	err := s.root.Remove(filepath.FromSlash(key))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("could not delete file: %w", err)
	}

	err = s.root.Remove(filepath.FromSlash(path.Join(typesDir, key)))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to remove content type", "key", key, "err", err)
	}
	return nil
}

// List walks the directory containing prefix and returns every file whose key
// starts with prefix, in lexical key order. A positive limit caps the result.
func (s *Store) List(ctx context.Context, prefix string, limit int) ([]r2gate.ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := "."
	if i := strings.LastIndex(prefix, "/"); i > 0 {
		start = prefix[:i]
	}

	entries := []r2gate.ObjectInfo{}

	err := fs.WalkDir(s.root.FS(), start, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == start && errors.Is(err, fs.ErrNotExist) {
				return fs.SkipAll
			}
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		if d.IsDir() {
			if p == metaDir {
				return fs.SkipDir
			}
			return nil
		}

		if !strings.HasPrefix(p, prefix) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return fmt.Errorf("walk dir: %w", err)
		}

		entries = append(entries, r2gate.ObjectInfo{
			Key:          p,
			Size:         info.Size(),
			LastModified: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}

	slices.SortFunc(entries, func(a, b r2gate.ObjectInfo) int {
		return strings.Compare(a.Key, b.Key)
	})

	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}

	return entries, nil
}

func (s *Store) contentType(key string) string {
	data, err := fs.ReadFile(s.root.FS(), path.Join(typesDir, key))
	if err == nil && len(data) > 0 {
		return string(data)
	}
	return detectContentType(key)
}

// validateKey accepts only clean, relative, slash-separated keys outside the
// metadata directory. The root confines paths to itself but still resolves
// "..", so traversal has to be rejected here.
func validateKey(key string) error {
	if key == "" || key == "." {
		return fmt.Errorf("empty key: %w", r2gate.ErrInvalidInput)
	}
	if !fs.ValidPath(key) {
		return fmt.Errorf("invalid key %q: %w", key, r2gate.ErrInvalidInput)
	}
	if key == metaDir || strings.HasPrefix(key, metaDir+"/") {
		return fmt.Errorf("reserved key %q: %w", key, r2gate.ErrInvalidInput)
	}
	return nil
}

func detectContentType(key string) string {
	return mime.TypeByExtension(path.Ext(key))
}

func tmpFileName() string {
	return fmt.Sprintf(".t%s", uuid.New().String())
}
