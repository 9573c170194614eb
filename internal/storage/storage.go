package storage

import (
	"context"
	"fmt"
	"io"
)

// Provider abstracts where file bytes live. This service only ever reads;
// ingest and byte deletion belong to the file store that owns the objects.
// The streamer asks for a bounded window, so implementations can serve ranges
// without buffering whole objects.
type Provider interface {
	// OpenRange returns a reader over length bytes starting at offset.
	// A negative length means "until the end of the object". The caller
	// must close the reader on every exit path.
	OpenRange(ctx context.Context, name string, offset, length int64) (io.ReadCloser, error)

	// Exists checks if a file exists in storage
	Exists(ctx context.Context, name string) (bool, error)

	// Close cleans up any resources
	Close() error
}

// Config holds configuration for storage providers
type Config struct {
	// Provider type ("local" or "gcs")
	Provider string `json:"provider"`

	// Local storage config
	LocalPath string `json:"local_path,omitempty"`

	// GCS config
	ProjectID  string `json:"project_id,omitempty"`
	BucketName string `json:"bucket_name,omitempty"`
}

// NewProvider creates a storage provider based on configuration
func NewProvider(cfg Config) (Provider, error) {
	switch cfg.Provider {
	case "local":
		return NewLocalStorage(cfg.LocalPath)
	case "gcs":
		return NewGCSStorage(cfg.ProjectID, cfg.BucketName)
	default:
		return nil, fmt.Errorf("unsupported storage provider: %s", cfg.Provider)
	}
}
