package reporting

import (
	"context"
	"sync"
	"time"

	"sqipit/internal/queue"
)

// MemoryRepo is a windowed view over seeded entries, for tests and
// local development.
type MemoryRepo struct {
	mu sync.RWMutex

	// entries maps queue_id to its entries; orgs maps queue_id to the
	// owning organization.
	entries map[string][]queue.QueueCustomer
	orgs    map[string]string
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		entries: make(map[string][]queue.QueueCustomer),
		orgs:    make(map[string]string),
	}
}

func (r *MemoryRepo) Put(organizationID string, e queue.QueueCustomer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orgs[e.QueueID] = organizationID
	r.entries[e.QueueID] = append(r.entries[e.QueueID], e)
}

func (r *MemoryRepo) ListEntries(_ context.Context, organizationID string, from, to time.Time, queueID string) ([]queue.QueueCustomer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []queue.QueueCustomer
	for qid, list := range r.entries {
		if r.orgs[qid] != organizationID {
			continue
		}
		if queueID != "" && qid != queueID {
			continue
		}
		for _, e := range list {
			if e.JoinedAt.Before(from) || !e.JoinedAt.Before(to) {
				continue
			}
			out = append(out, e)
		}
	}
	return out, nil
}
