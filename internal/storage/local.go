package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

type LocalStorageProvider struct {
	baseDir string
}

func NewLocalStorage(baseDir string) (*LocalStorageProvider, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	return &LocalStorageProvider{baseDir: baseDir}, nil
}

// boundedFile reads at most N bytes from the underlying file and closes it
// together with the reader.
type boundedFile struct {
	io.Reader
	file *os.File
}

func (b *boundedFile) Close() error {
	return b.file.Close()
}

func (l *LocalStorageProvider) OpenRange(ctx context.Context, name string, offset, length int64) (io.ReadCloser, error) {
	fullPath := filepath.Join(l.baseDir, name)
	file, err := os.Open(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	if offset > 0 {
		if _, err := file.Seek(offset, io.SeekStart); err != nil {
			_ = file.Close()
			return nil, fmt.Errorf("failed to seek to offset %d: %w", offset, err)
		}
	}

	if length < 0 {
		return file, nil
	}
	return &boundedFile{Reader: io.LimitReader(file, length), file: file}, nil
}

func (l *LocalStorageProvider) Exists(ctx context.Context, name string) (bool, error) {
	fullPath := filepath.Join(l.baseDir, name)
	_, err := os.Stat(fullPath)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, fmt.Errorf("error checking file existence: %w", err)
}

func (l *LocalStorageProvider) Close() error {
	return nil
}
