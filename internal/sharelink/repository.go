package sharelink

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"vaultlink-go/internal/models"

	"github.com/jmoiron/sqlx"
)

// Repository is the link registry. It stores records and owns the one
// serialization point in the system: the conditional access-count increment.
// It never enforces access policy beyond that; the gate does.
type Repository interface {
	Create(ctx context.Context, link *models.SharedLink) error
	GetByToken(ctx context.Context, token string) (*models.SharedLink, error)
	// GetActiveByFileID returns the most recently created link for the file
	// that is neither revoked nor expired.
	GetActiveByFileID(ctx context.Context, fileID int64) (*models.SharedLink, error)
	TokenExists(ctx context.Context, token string) (bool, error)
	// IncrementAccess consumes one use atomically: of N concurrent callers
	// racing the last remaining use, exactly one succeeds. The count never
	// exceeds the access bound; revoking spent links is the gate's job.
	// Returns the new access count.
	IncrementAccess(ctx context.Context, token string) (int, error)
	// Revoke and Delete are idempotent; missing or already-revoked links
	// are a no-op success.
	Revoke(ctx context.Context, token string) error
	Delete(ctx context.Context, token string) error
	// DeleteByFileID removes every link for a file, for cascade cleanup
	// when the underlying file is deleted. Returns the number removed.
	DeleteByFileID(ctx context.Context, fileID int64) (int64, error)
	// PurgeExpired deletes links whose expiry passed before the cutoff.
	PurgeExpired(ctx context.Context, cutoff time.Time) (int64, error)
}

type postgresRepository struct {
	db *sqlx.DB
}

func NewPostgresRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) Create(ctx context.Context, link *models.SharedLink) error {
	query := `
        INSERT INTO shared_links (file_id, user_id, token, password_hash, expires_at, max_access_count)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id, access_count, revoked, created_at`

	err := r.db.QueryRowxContext(ctx, query,
		link.FileID,
		link.UserID,
		link.Token,
		link.PasswordHash,
		link.ExpiresAt,
		link.MaxAccessCount,
	).Scan(&link.ID, &link.AccessCount, &link.Revoked, &link.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting shared link: %w", err)
	}
	return nil
}

func (r *postgresRepository) GetByToken(ctx context.Context, token string) (*models.SharedLink, error) {
	var link models.SharedLink
	err := r.db.GetContext(ctx, &link, `SELECT * FROM shared_links WHERE token = $1`, token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("getting link by token: %w", err)
	}
	return &link, nil
}

func (r *postgresRepository) GetActiveByFileID(ctx context.Context, fileID int64) (*models.SharedLink, error) {
	query := `
        SELECT * FROM shared_links
        WHERE file_id = $1
          AND revoked = FALSE
          AND (expires_at IS NULL OR expires_at > NOW())
        ORDER BY created_at DESC
        LIMIT 1`

	var link models.SharedLink
	err := r.db.GetContext(ctx, &link, query, fileID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("getting active link for file: %w", err)
	}
	return &link, nil
}

func (r *postgresRepository) TokenExists(ctx context.Context, token string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM shared_links WHERE token = $1)`, token)
	if err != nil {
		return false, fmt.Errorf("checking token existence: %w", err)
	}
	return exists, nil
}

// IncrementAccess is a single conditional update, so the count comparison and
// the write happen inside one statement. Two requests racing a link with one
// remaining use serialize on the row lock; the loser matches no row and gets
// ErrExhausted. Crossing the bound never flips the revoked flag here; the gate
// marks exhausted links revoked on its next check, after reporting exhaustion
// once.
func (r *postgresRepository) IncrementAccess(ctx context.Context, token string) (int, error) {
	query := `
        UPDATE shared_links
        SET access_count = access_count + 1,
            last_accessed = NOW()
        WHERE token = $1
          AND revoked = FALSE
          AND (max_access_count IS NULL OR access_count < max_access_count)
        RETURNING access_count`

	var count int
	err := r.db.QueryRowxContext(ctx, query, token).Scan(&count)
	if err == nil {
		return count, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("incrementing access count: %w", err)
	}

	// No row matched: either the token is unknown or the link can't take
	// another use.
	if _, lookupErr := r.GetByToken(ctx, token); lookupErr != nil {
		return 0, lookupErr
	}
	return 0, ErrExhausted
}

func (r *postgresRepository) Revoke(ctx context.Context, token string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE shared_links SET revoked = TRUE WHERE token = $1`, token)
	if err != nil {
		return fmt.Errorf("revoking link: %w", err)
	}
	return nil
}

func (r *postgresRepository) Delete(ctx context.Context, token string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM shared_links WHERE token = $1`, token)
	if err != nil {
		return fmt.Errorf("deleting link: %w", err)
	}
	return nil
}

func (r *postgresRepository) DeleteByFileID(ctx context.Context, fileID int64) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM shared_links WHERE file_id = $1`, fileID)
	if err != nil {
		return 0, fmt.Errorf("deleting links for file: %w", err)
	}
	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("getting rows affected: %w", err)
	}
	return removed, nil
}

func (r *postgresRepository) PurgeExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM shared_links WHERE expires_at IS NOT NULL AND expires_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purging expired links: %w", err)
	}
	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("getting rows affected: %w", err)
	}
	return removed, nil
}
