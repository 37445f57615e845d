package wisdom

import (
	"slices"
	"sync"

	"github.com/RyanBlaney/sonido-static/algorithms/spectral"
)

// Store is a plan cache that can also enumerate and close
type Store interface {
	spectral.PlanCache
	List() ([]spectral.Plan, error)
	Close() error
}

// MemoryStore keeps plans for the life of the process
type MemoryStore struct {
	mu    sync.RWMutex
	plans map[int]spectral.Plan
}

// NewMemoryStore creates an empty in-memory plan cache
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{plans: make(map[int]spectral.Plan)}
}

func (m *MemoryStore) Lookup(size int) (spectral.Plan, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	plan, ok := m.plans[size]
	return plan, ok, nil
}

func (m *MemoryStore) Store(plan spectral.Plan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.plans[plan.Size] = plan
	return nil
}

func (m *MemoryStore) List() ([]spectral.Plan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	plans := make([]spectral.Plan, 0, len(m.plans))
	for _, plan := range m.plans {
		plans = append(plans, plan)
	}
	slices.SortFunc(plans, func(a, b spectral.Plan) int {
		return a.Size - b.Size
	})
	return plans, nil
}

func (m *MemoryStore) Close() error {
	return nil
}

// Open returns a SQLite store for path, or a memory store when path is empty
func Open(path string) (Store, error) {
	if path == "" {
		return NewMemoryStore(), nil
	}
	return NewSQLiteStore(path)
}
