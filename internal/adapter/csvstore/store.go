package csvstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/couchcryptid/radar-rain-etl/internal/domain"
)

// Uploader mirrors a persisted snapshot to remote storage.
type Uploader interface {
	Upload(ctx context.Context, data []byte) error
}

// FileStore persists the history table to a CSV file, replacing it
// atomically on every save.
type FileStore struct {
	path   string
	mirror Uploader
	logger *slog.Logger
}

// NewFileStore creates a store writing to path. mirror may be nil.
func NewFileStore(path string, mirror Uploader, logger *slog.Logger) *FileStore {
	return &FileStore{path: path, mirror: mirror, logger: logger}
}

// Path returns the local file location.
func (s *FileStore) Path() string { return s.path }

// Save overwrites the file with t and, when configured, uploads the same
// bytes to the mirror. The local file is written even if the upload fails.
func (s *FileStore) Save(ctx context.Context, t *domain.HistoryTable) error {
	var buf bytes.Buffer
	if err := WriteHistory(&buf, t); err != nil {
		return fmt.Errorf("encode history: %w", err)
	}

	if err := writeFileAtomic(s.path, buf.Bytes()); err != nil {
		return fmt.Errorf("write %s: %w", s.path, err)
	}
	s.logger.Debug("history saved", "path", s.path, "rows", t.Len(), "columns", len(t.Columns()))

	if s.mirror != nil {
		if err := s.mirror.Upload(ctx, buf.Bytes()); err != nil {
			return fmt.Errorf("mirror history: %w", err)
		}
	}
	return nil
}

// Load reads the file back. A missing file yields an empty table.
func (s *FileStore) Load() (*domain.HistoryTable, error) {
	f, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return domain.NewHistoryTable(), nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	t, err := ReadHistory(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	return t, nil
}

// writeFileAtomic writes to a temp file in the target directory, then
// renames it over path so readers never see a partial file.
func writeFileAtomic(path string, data []byte) (err error) {
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}

	tmp, err := os.CreateTemp(dir, base+".tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if err = tmp.Chmod(0o644); err != nil {
		_ = tmp.Close()
		return err
	}
	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
