package sharelink

import (
	"context"
	"sync"
	"time"

	"vaultlink-go/internal/models"
)

// MemoryRepository is a mutex-guarded in-memory registry. Tests and
// single-process setups use it in place of postgres; the increment holds the
// same atomicity contract, serialized by the lock instead of a row lock.
type MemoryRepository struct {
	mu      sync.Mutex
	nextID  int64
	byToken map[string]*models.SharedLink
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{byToken: make(map[string]*models.SharedLink)}
}

func (r *MemoryRepository) Create(_ context.Context, link *models.SharedLink) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	link.ID = r.nextID
	if link.CreatedAt.IsZero() {
		link.CreatedAt = time.Now()
	}

	stored := *link
	r.byToken[link.Token] = &stored
	return nil
}

func (r *MemoryRepository) GetByToken(_ context.Context, token string) (*models.SharedLink, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	link, ok := r.byToken[token]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *link
	return &copied, nil
}

func (r *MemoryRepository) GetActiveByFileID(_ context.Context, fileID int64) (*models.SharedLink, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	var newest *models.SharedLink
	for _, link := range r.byToken {
		if link.FileID != fileID || link.Revoked || link.IsExpired(now) {
			continue
		}
		if newest == nil || link.CreatedAt.After(newest.CreatedAt) {
			newest = link
		}
	}
	if newest == nil {
		return nil, ErrNotFound
	}
	copied := *newest
	return &copied, nil
}

func (r *MemoryRepository) TokenExists(_ context.Context, token string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.byToken[token]
	return ok, nil
}

func (r *MemoryRepository) IncrementAccess(_ context.Context, token string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	link, ok := r.byToken[token]
	if !ok {
		return 0, ErrNotFound
	}
	if link.Revoked || link.IsExhausted() {
		return 0, ErrExhausted
	}

	link.AccessCount++
	now := time.Now()
	link.LastAccessed = &now
	return link.AccessCount, nil
}

func (r *MemoryRepository) Revoke(_ context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if link, ok := r.byToken[token]; ok {
		link.Revoked = true
	}
	return nil
}

func (r *MemoryRepository) Delete(_ context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byToken, token)
	return nil
}

func (r *MemoryRepository) DeleteByFileID(_ context.Context, fileID int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var removed int64
	for token, link := range r.byToken {
		if link.FileID == fileID {
			delete(r.byToken, token)
			removed++
		}
	}
	return removed, nil
}

func (r *MemoryRepository) PurgeExpired(_ context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var removed int64
	for token, link := range r.byToken {
		if link.ExpiresAt != nil && link.ExpiresAt.Before(cutoff) {
			delete(r.byToken, token)
			removed++
		}
	}
	return removed, nil
}
