package r2gate

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// StorageService proxies file operations to an ObjectStore, confining every
// key to a Namespace.
type StorageService struct {
	store ObjectStore
	ns    Namespace
}

// NewStorageService creates a StorageService over store rooted at ns.
func NewStorageService(store ObjectStore, ns Namespace) (*StorageService, error) {
	if store == nil {
		return nil, errors.New("new storage service: object store cannot be nil")
	}
	return &StorageService{store: store, ns: ns}, nil
}

// Namespace returns the namespace the service writes under.
func (s *StorageService) Namespace() Namespace {
	return s.ns
}

// List returns the files under the namespace matching the optional sub-prefix.
// A single page is fetched; Limit truncates rather than paginates.
func (s *StorageService) List(ctx context.Context, q ListQuery) ([]FileInfo, error) {
	if q.Limit < 0 {
		return nil, fmt.Errorf("list: negative limit: %w", ErrInvalidInput)
	}

	objects, err := s.store.List(ctx, s.ns.ListPrefix(q.Prefix), q.Limit)
	if err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}

	if q.Limit > 0 && len(objects) > q.Limit {
		objects = objects[:q.Limit]
	}

	files := make([]FileInfo, 0, len(objects))
	for _, obj := range objects {
		files = append(files, FileInfo{
			Name:         s.ns.Strip(obj.Key),
			Size:         obj.Size,
			LastModified: formatLastModified(obj.LastModified),
		})
	}

	return files, nil
}

// Upload stores data under filename, replacing any existing object.
func (s *StorageService) Upload(ctx context.Context, filename string, data []byte, contentType string) error {
	if filename == "" {
		return fmt.Errorf("upload: empty filename: %w", ErrInvalidInput)
	}
	if contentType == "" {
		contentType = DefaultContentType
	}

	if err := s.store.Put(ctx, s.ns.FullPath(filename), data, contentType); err != nil {
		return fmt.Errorf("upload %s: %w", filename, err)
	}
	return nil
}

// Download opens filename. The caller must close the returned Body.
func (s *StorageService) Download(ctx context.Context, filename string) (Object, error) {
	if filename == "" {
		return Object{}, fmt.Errorf("download: empty filename: %w", ErrInvalidInput)
	}

	obj, err := s.store.Get(ctx, s.ns.FullPath(filename))
	if err != nil {
		return Object{}, fmt.Errorf("download %s: %w", filename, err)
	}
	if obj.ContentType == "" {
		obj.ContentType = DefaultContentType
	}

	return obj, nil
}

// Delete removes filename. No existence check is made beforehand.
func (s *StorageService) Delete(ctx context.Context, filename string) error {
	if filename == "" {
		return fmt.Errorf("delete: empty filename: %w", ErrInvalidInput)
	}

	if err := s.store.Delete(ctx, s.ns.FullPath(filename)); err != nil {
		return fmt.Errorf("delete %s: %w", filename, err)
	}
	return nil
}

func formatLastModified(t time.Time) string {
	if t.IsZero() {
		return UnknownLastModified
	}
	return t.UTC().Format(time.RFC3339)
}
