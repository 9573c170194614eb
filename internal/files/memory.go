package files

import (
	"context"
	"sync"
	"time"

	"vaultlink-go/internal/models"
)

// MemoryStore is an in-memory Store used by tests and by service-level
// scenarios that don't need a database.
type MemoryStore struct {
	mu     sync.RWMutex
	nextID int64
	byID   map[int64]models.File
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byID: make(map[int64]models.File)}
}

func (s *MemoryStore) GetByID(_ context.Context, id int64) (*models.File, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	file, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &file, nil
}

func (s *MemoryStore) Create(_ context.Context, file *models.File) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	file.ID = s.nextID
	if file.CreatedAt.IsZero() {
		file.CreatedAt = time.Now()
	}
	s.byID[file.ID] = *file
	return nil
}

// Delete removes a record; tests use it to simulate the underlying file
// disappearing while a link still points at it.
func (s *MemoryStore) Delete(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byID, id)
}
