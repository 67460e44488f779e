package index

import (
	"context"
	"sync"
	"time"

	"github.com/nowen/nowen/internal/domain"
)

// HealthIndex keeps the last probe of each bookmark in memory
// It acts as a fallback when Redis is unavailable
type HealthIndex struct {
	mu       sync.RWMutex
	records  map[string]domain.HealthRecord // BookmarkID -> last record
	lastSave time.Time                      // Timestamp of last Save
}

// NewHealthIndex creates a new health index
func NewHealthIndex() *HealthIndex {
	return &HealthIndex{
		records: make(map[string]domain.HealthRecord),
	}
}

// Save stores records, replacing older ones for the same bookmark
func (idx *HealthIndex) Save(_ context.Context, records []domain.HealthRecord) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	for _, r := range records {
		idx.records[r.BookmarkID] = r
	}
	idx.lastSave = time.Now()
	return nil
}

// Get returns the records of ids that have one, in the order of ids
func (idx *HealthIndex) Get(_ context.Context, ids []string) ([]domain.HealthRecord, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	out := make([]domain.HealthRecord, 0, len(ids))
	for _, id := range ids {
		if r, ok := idx.records[id]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}

// Delete forgets the record of a bookmark
func (idx *HealthIndex) Delete(id string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	delete(idx.records, id)
}

// Count returns the number of records in the index
func (idx *HealthIndex) Count() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return len(idx.records)
}

// LastSave returns the timestamp of the last Save
func (idx *HealthIndex) LastSave() time.Time {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return idx.lastSave
}
