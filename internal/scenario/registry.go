package scenario

import (
	"sort"
	"sync"

	"github.com/ksred/klear-datagen/internal/types"
)

// Registry holds generated datasets by scenario id. It is safe for
// concurrent use; putting an existing id replaces the dataset.
type Registry struct {
	mu       sync.RWMutex
	datasets map[string]*types.Dataset
}

func NewRegistry() *Registry {
	return &Registry{datasets: make(map[string]*types.Dataset)}
}

func (r *Registry) Put(d *types.Dataset) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.datasets[d.ScenarioID] = d
}

// Get returns a *NotFoundError listing the known ids when id is missing
func (r *Registry) Get(id string) (*types.Dataset, error) {
	r.mu.RLock()
	d, ok := r.datasets[id]
	r.mu.RUnlock()
	if !ok {
		return nil, &NotFoundError{ScenarioID: id, Known: r.IDs()}
	}
	return d, nil
}

func (r *Registry) Has(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.datasets[id]
	return ok
}

// IDs returns the registered scenario ids, sorted
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.datasets))
	for id := range r.datasets {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// All returns every dataset ordered by scenario id
func (r *Registry) All() []*types.Dataset {
	ids := r.IDs()
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*types.Dataset, 0, len(ids))
	for _, id := range ids {
		if d, ok := r.datasets[id]; ok {
			out = append(out, d)
		}
	}
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.datasets)
}
