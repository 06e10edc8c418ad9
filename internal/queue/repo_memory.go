package queue

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"sqipit/internal/errs"
)

// MemoryRepo is an in-memory repository for tests and early development.
// Everything runs under one mutex, so the same invariants hold as under
// the Postgres row locks.
type MemoryRepo struct {
	mu        sync.Mutex
	queues    map[string]Queue
	customers map[string]QueueCustomer
	users     map[string]Contact
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		queues:    make(map[string]Queue),
		customers: make(map[string]QueueCustomer),
		users:     make(map[string]Contact),
	}
}

// PutUser registers a user profile for contact fallback in tests.
func (r *MemoryRepo) PutUser(userID string, c Contact) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[userID] = c
}

func (r *MemoryRepo) CreateQueue(_ context.Context, q Queue) (Queue, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queues[q.QueueID] = q
	return q, nil
}

func (r *MemoryRepo) GetQueue(_ context.Context, queueID string) (Queue, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.getQueueLocked(queueID)
}

func (r *MemoryRepo) getQueueLocked(queueID string) (Queue, error) {
	q, ok := r.queues[queueID]
	if !ok {
		return Queue{}, errs.NotFound("queue %s not found", queueID)
	}
	return q, nil
}

func (r *MemoryRepo) UpdateQueue(_ context.Context, q Queue) (Queue, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.queues[q.QueueID]; !ok {
		return Queue{}, errs.NotFound("queue %s not found", q.QueueID)
	}
	r.queues[q.QueueID] = q
	return q, nil
}

func (r *MemoryRepo) DeactivateQueue(_ context.Context, queueID string, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	q, err := r.getQueueLocked(queueID)
	if err != nil {
		return false, err
	}
	for _, c := range r.customers {
		if c.QueueID == queueID && c.Status == CustomerWaiting {
			return false, nil
		}
	}
	q.IsActive = false
	q.UpdatedAt = at
	r.queues[queueID] = q
	return true, nil
}

func (r *MemoryRepo) listQueues(match func(Queue) bool) []Queue {
	out := make([]Queue, 0)
	for _, q := range r.queues {
		if q.IsActive && match(q) {
			out = append(out, q)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (r *MemoryRepo) ListQueuesByLocation(_ context.Context, locationID string) ([]Queue, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.listQueues(func(q Queue) bool { return q.LocationID == locationID }), nil
}

func (r *MemoryRepo) ListQueuesByService(_ context.Context, serviceID string) ([]Queue, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.listQueues(func(q Queue) bool { return q.ServiceID == serviceID }), nil
}

func (r *MemoryRepo) ListActiveQueues(_ context.Context, organizationID string) ([]Queue, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.listQueues(func(q Queue) bool {
		return q.OrganizationID == organizationID && q.Status == QueueActive
	}), nil
}

func (r *MemoryRepo) ListQueuesByEvent(_ context.Context, eventName string) ([]Queue, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.listQueues(func(q Queue) bool { return q.EventName == eventName }), nil
}

func (r *MemoryRepo) ListMobileQueues(_ context.Context) ([]Queue, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.listQueues(func(q Queue) bool { return q.IsMobileQueue }), nil
}

func (r *MemoryRepo) AddCustomer(_ context.Context, entry QueueCustomer) (QueueCustomer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	q, err := r.getQueueLocked(entry.QueueID)
	if err != nil {
		return QueueCustomer{}, err
	}
	if !q.AcceptsCustomers() {
		return QueueCustomer{}, errs.Conflict("queue is not accepting new customers")
	}
	if q.MaxCapacity > 0 {
		waiting := 0
		for _, c := range r.customers {
			if c.QueueID == entry.QueueID && c.Status == CustomerWaiting {
				waiting++
			}
		}
		if waiting >= q.MaxCapacity {
			return QueueCustomer{}, errs.Conflict("queue is at maximum capacity")
		}
	}

	r.customers[entry.QueueCustomerID] = entry
	return entry, nil
}

func (r *MemoryRepo) GetCustomer(_ context.Context, queueCustomerID string) (QueueCustomer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.customers[queueCustomerID]
	if !ok {
		return QueueCustomer{}, errs.NotFound("queue customer %s not found", queueCustomerID)
	}
	return c, nil
}

func earlier(a, b QueueCustomer) bool {
	if a.JoinedAt.Equal(b.JoinedAt) {
		return a.QueueCustomerID < b.QueueCustomerID
	}
	return a.JoinedAt.Before(b.JoinedAt)
}

func (r *MemoryRepo) ListCustomers(_ context.Context, queueID string, status CustomerStatus) ([]QueueCustomer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]QueueCustomer, 0)
	for _, c := range r.customers {
		if c.QueueID != queueID {
			continue
		}
		if status != "" && c.Status != status {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return earlier(out[i], out[j]) })
	return out, nil
}

func (r *MemoryRepo) CountAhead(_ context.Context, entry QueueCustomer) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.customers {
		if c.QueueID != entry.QueueID || c.Status != CustomerWaiting {
			continue
		}
		if c.QueueCustomerID != entry.QueueCustomerID && earlier(c, entry) {
			n++
		}
	}
	return n, nil
}

func (r *MemoryRepo) CountByStatus(_ context.Context, queueID string, status CustomerStatus) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.customers {
		if c.QueueID == queueID && c.Status == status {
			n++
		}
	}
	return n, nil
}

func (r *MemoryRepo) NextWaiting(_ context.Context, queueID string) (QueueCustomer, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var best QueueCustomer
	found := false
	for _, c := range r.customers {
		if c.QueueID != queueID || c.Status != CustomerWaiting {
			continue
		}
		if !found || earlier(c, best) {
			best = c
			found = true
		}
	}
	return best, found, nil
}

func (r *MemoryRepo) transition(queueCustomerID string, from []CustomerStatus, to CustomerStatus, at time.Time, setCalled bool) (QueueCustomer, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.customers[queueCustomerID]
	if !ok {
		return QueueCustomer{}, false, errs.NotFound("queue customer %s not found", queueCustomerID)
	}
	eligible := false
	for _, f := range from {
		if c.Status == f {
			eligible = true
			break
		}
	}
	if !eligible {
		return c, false, nil
	}
	c.Status = to
	if setCalled {
		c.CalledAt = &at
	} else {
		c.CompletedAt = &at
	}
	r.customers[queueCustomerID] = c
	return c, true, nil
}

func (r *MemoryRepo) MarkCalled(_ context.Context, queueCustomerID string, at time.Time) (QueueCustomer, bool, error) {
	return r.transition(queueCustomerID, []CustomerStatus{CustomerWaiting}, CustomerInService, at, true)
}

func (r *MemoryRepo) MarkCompleted(_ context.Context, queueCustomerID string, at time.Time) (QueueCustomer, bool, error) {
	return r.transition(queueCustomerID, []CustomerStatus{CustomerInService}, CustomerCompleted, at, false)
}

func (r *MemoryRepo) MarkCancelled(_ context.Context, queueCustomerID string, at time.Time) (QueueCustomer, bool, error) {
	return r.transition(queueCustomerID, []CustomerStatus{CustomerWaiting, CustomerInService}, CustomerCancelled, at, false)
}

func (r *MemoryRepo) MarkNoShow(_ context.Context, queueCustomerID string, at time.Time) (QueueCustomer, bool, error) {
	return r.transition(queueCustomerID, []CustomerStatus{CustomerWaiting, CustomerInService}, CustomerNoShow, at, false)
}

func (r *MemoryRepo) UserContact(_ context.Context, userID string) (Contact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.users[userID]
	if !ok {
		return Contact{}, errs.NotFound("user %s not found", userID)
	}
	return c, nil
}

func (r *MemoryRepo) CreateWizard(_ context.Context, in WizardInput) (WizardResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	res := WizardResult{}

	switch {
	case in.ExistingLocationID != "":
		res.LocationID = in.ExistingLocationID
		res.LocationName = "existing location"
	case in.NewLocation != nil:
		res.LocationID = uuid.NewString()
		res.LocationName = in.NewLocation.Name
		res.CreatedNewLocation = true
	default:
		return WizardResult{}, errs.Invalid("either an existing location id or a new location is required")
	}

	switch {
	case in.ExistingServiceID != "":
		res.ServiceID = in.ExistingServiceID
		res.ServiceName = "existing service"
	case in.NewService != nil:
		res.ServiceID = uuid.NewString()
		res.ServiceName = in.NewService.Name
		res.CreatedNewService = true
	default:
		return WizardResult{}, errs.Invalid("either an existing service id or a new service is required")
	}

	q := in.Queue
	q.LocationID = res.LocationID
	q.ServiceID = res.ServiceID
	r.queues[q.QueueID] = q
	res.Queue = q
	return res, nil
}
