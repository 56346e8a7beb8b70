package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/quentinrf/easyplant/internal/domain"
)

// StateRepository keeps raw sensor states in memory
// This is perfect for development - no database setup needed
type StateRepository struct {
	mu     sync.RWMutex
	states map[string][]domain.StateRecord
}

// NewStateRepository creates an empty in-memory repository
func NewStateRepository() *StateRepository {
	return &StateRepository{
		states: make(map[string][]domain.StateRecord),
	}
}

// SaveState stores one raw sensor state
func (r *StateRepository) SaveState(ctx context.Context, entityID, state string, ts time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.states[entityID] = append(r.states[entityID], domain.StateRecord{
		State:     state,
		Timestamp: ts,
	})
	return nil
}

// StatesSince returns the stored states of an entity from since on,
// oldest first
func (r *StateRepository) StatesSince(ctx context.Context, entityID string, since time.Time) ([]domain.StateRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var results []domain.StateRecord
	for _, rec := range r.states[entityID] {
		if !rec.Timestamp.Before(since) {
			results = append(results, rec)
		}
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Timestamp.Before(results[j].Timestamp)
	})

	return results, nil
}
