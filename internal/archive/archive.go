package archive

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/quantfold/stocketl/internal/model"
)

// Store persists one archived object per key.
type Store interface {
	Put(ctx context.Context, key string, data []byte) error
}

// ObjectKey returns the date-partitioned key for a run's merged snapshot.
func ObjectKey(runDate model.Date) string {
	return fmt.Sprintf("stock_data/%s/merged_stock_data.csv", runDate)
}

// FileStore writes archived objects under a root directory, one file
// per key.
type FileStore struct {
	root   string
	logger *slog.Logger
}

// NewFileStore creates a file-backed archive store.
func NewFileStore(root string, logger *slog.Logger) *FileStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileStore{root: root, logger: logger}
}

// Put implements Store. Parent directories are created as needed and
// an existing object under the same key is overwritten.
func (s *FileStore) Put(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path := filepath.Join(s.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create archive directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write archive object %s: %w", key, err)
	}

	s.logger.Info("archived snapshot", "key", key, "bytes", len(data))
	return nil
}
