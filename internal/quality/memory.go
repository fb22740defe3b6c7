package quality

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/phrazzld/coursegen/internal/store"
)

// DefaultMemoryCapacity is the number of records a MemoryStore keeps when
// created with a non-positive capacity.
const DefaultMemoryCapacity = 1000

// MemoryStore is an OutcomeStore held in process memory. It keeps the newest
// records up to its capacity; Summary counts every record ever saved.
type MemoryStore struct {
	mu       sync.RWMutex
	capacity int
	records  []*store.OutcomeRecord // oldest first
	ids      map[uuid.UUID]struct{}
	summary  store.OutcomeSummary
}

var _ store.OutcomeStore = (*MemoryStore)(nil)

// NewMemoryStore creates a MemoryStore holding at most capacity records.
func NewMemoryStore(capacity int) *MemoryStore {
	if capacity <= 0 {
		capacity = DefaultMemoryCapacity
	}
	return &MemoryStore{
		capacity: capacity,
		ids:      make(map[uuid.UUID]struct{}),
	}
}

// Save implements store.OutcomeStore.
func (m *MemoryStore) Save(_ context.Context, record *store.OutcomeRecord) error {
	if err := record.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.ids[record.ID]; exists {
		return store.ErrDuplicate
	}

	cp := *record
	m.records = append(m.records, &cp)
	m.ids[cp.ID] = struct{}{}
	m.summary.Add(cp.Source)

	if over := len(m.records) - m.capacity; over > 0 {
		for _, r := range m.records[:over] {
			delete(m.ids, r.ID)
		}
		m.records = slices.Delete(m.records, 0, over)
	}
	return nil
}

// Get implements store.OutcomeStore.
func (m *MemoryStore) Get(_ context.Context, id uuid.UUID) (*store.OutcomeRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, r := range m.records {
		if r.ID == id {
			cp := *r
			return &cp, nil
		}
	}
	return nil, store.ErrOutcomeNotFound
}

// List implements store.OutcomeStore.
func (m *MemoryStore) List(_ context.Context, filter store.OutcomeFilter) ([]*store.OutcomeRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	limit := filter.EffectiveLimit()
	out := make([]*store.OutcomeRecord, 0, min(limit, len(m.records)))
	for i := len(m.records) - 1; i >= 0 && len(out) < limit; i-- {
		if filter.Matches(m.records[i]) {
			cp := *m.records[i]
			out = append(out, &cp)
		}
	}
	return out, nil
}

// Summary implements store.OutcomeStore.
func (m *MemoryStore) Summary(context.Context) (store.OutcomeSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.summary, nil
}
