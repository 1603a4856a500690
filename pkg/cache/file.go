package cache

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/matzehuels/themecheck/pkg/errors"
)

// DefaultFile is the default snapshot path, relative to the working directory.
const DefaultFile = "cache.json"

// FileBackend keeps the snapshot as a single JSON object mapping URL to body.
type FileBackend struct {
	path string
}

// NewFileBackend creates a backend that reads and writes path.
// An empty path selects [DefaultFile].
func NewFileBackend(path string) *FileBackend {
	if path == "" {
		path = DefaultFile
	}
	return &FileBackend{path: path}
}

// Location returns the snapshot path.
func (b *FileBackend) Location() string { return b.path }

// Load reads the snapshot. A missing file is reported as not found.
// Unreadable or malformed files are CACHE_CORRUPT errors.
func (b *FileBackend) Load(ctx context.Context) (map[string]string, bool, error) {
	data, err := os.ReadFile(b.path)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(errors.ErrCodeCacheCorrupt, err, "read %s", b.path)
	}
	entries, err := decodeSnapshot(b.path, data)
	if err != nil {
		return nil, false, err
	}
	return entries, true, nil
}

// Save replaces the snapshot atomically: the data is written to a temporary
// file in the same directory and renamed over the target.
func (b *FileBackend) Save(ctx context.Context, entries map[string]string) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode cache")
	}

	dir := filepath.Dir(b.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".themecheck-cache-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), b.path)
}

// Clear deletes the snapshot file if present.
func (b *FileBackend) Clear(ctx context.Context) (bool, error) {
	err := os.Remove(b.path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func decodeSnapshot(location string, data []byte) (map[string]string, error) {
	if len(data) == 0 {
		return nil, errors.New(errors.ErrCodeCacheCorrupt, "%s: empty snapshot", location)
	}
	var entries map[string]string
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, errors.Wrap(errors.ErrCodeCacheCorrupt, err, "decode %s", location)
	}
	if entries == nil {
		return nil, errors.New(errors.ErrCodeCacheCorrupt, "%s: snapshot is not an object", location)
	}
	return entries, nil
}

// Ensure FileBackend implements Backend.
var _ Backend = (*FileBackend)(nil)
