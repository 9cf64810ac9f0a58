package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore implements DocumentStore in memory. Used by tests and as a
// development fallback when no database is configured.
type MemoryStore struct {
	mu   sync.Mutex
	rows map[string]map[uuid.UUID]map[string]interface{}
}

// NewMemoryStore creates an empty in-memory document store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rows: make(map[string]map[uuid.UUID]map[string]interface{}),
	}
}

// Create inserts a new row and returns its generated id.
func (s *MemoryStore) Create(ctx context.Context, collection string, fields map[string]interface{}) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.rows[collection] == nil {
		s.rows[collection] = make(map[uuid.UUID]map[string]interface{})
	}
	id := uuid.New()
	s.rows[collection][id] = fields
	return id, nil
}

// Update replaces the fields of an existing row.
func (s *MemoryStore) Update(ctx context.Context, collection string, id uuid.UUID, fields map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rows[collection][id]; !ok {
		return fmt.Errorf("no row with id %s in %s", id, collection)
	}
	s.rows[collection][id] = fields
	return nil
}

// DeleteChildren removes every row in collection linked to recordID.
func (s *MemoryStore) DeleteChildren(ctx context.Context, collection string, recordID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, fields := range s.rows[collection] {
		if fields["record_id"] == recordID.String() {
			delete(s.rows[collection], id)
		}
	}
	return nil
}

// Get returns a copy-by-reference of one row, for inspection.
func (s *MemoryStore) Get(collection string, id uuid.UUID) (map[string]interface{}, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fields, ok := s.rows[collection][id]
	return fields, ok
}

// List returns every row of a collection, for inspection.
func (s *MemoryStore) List(collection string) []map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]map[string]interface{}, 0, len(s.rows[collection]))
	for _, fields := range s.rows[collection] {
		out = append(out, fields)
	}
	return out
}
