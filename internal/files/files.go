// Package files exposes the file-metadata store this service consumes. File
// and folder CRUD live in another service; we only look records up by id and
// generate storage names for fixtures.
package files

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"

	"vaultlink-go/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var ErrNotFound = errors.New("file not found")

// Store is the lookup capability over the external file table.
type Store interface {
	GetByID(ctx context.Context, id int64) (*models.File, error)
	Create(ctx context.Context, file *models.File) error
}

// NewStorageName returns a collision-free name for a file's bytes inside the
// storage provider, preserving the original extension.
func NewStorageName(originalName string) string {
	return uuid.NewString() + filepath.Ext(originalName)
}

type postgresStore struct {
	db *sqlx.DB
}

func NewPostgresStore(db *sqlx.DB) Store {
	return &postgresStore{db: db}
}

func (s *postgresStore) GetByID(ctx context.Context, id int64) (*models.File, error) {
	var file models.File
	err := s.db.GetContext(ctx, &file, `SELECT * FROM files WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("getting file by id: %w", err)
	}
	return &file, nil
}

func (s *postgresStore) Create(ctx context.Context, file *models.File) error {
	query := `
        INSERT INTO files (storage_name, original_name, mime_type, file_size, owner_id)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, created_at`

	err := s.db.QueryRowxContext(ctx, query,
		file.StorageName,
		file.OriginalName,
		file.MimeType,
		file.FileSize,
		file.OwnerID,
	).Scan(&file.ID, &file.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating file record: %w", err)
	}
	return nil
}
