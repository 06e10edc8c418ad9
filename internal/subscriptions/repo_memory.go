package subscriptions

import (
	"context"
	"sync"
	"time"

	"sqipit/internal/errs"
)

// MemoryOrganization is the slice of organization state the in-memory
// repository needs for activity tracking and janitor runs.
type MemoryOrganization struct {
	PlanType       string
	IsActive       bool
	LastActivityAt time.Time
	ActiveQueues   int
}

// MemoryRepo is an in-memory repository for tests and early development.
type MemoryRepo struct {
	mu    sync.Mutex
	subs  map[string]Subscription // by organization_id
	usage map[string]Usage        // by organization_id + "|" + month
	Orgs  map[string]*MemoryOrganization
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		subs:  make(map[string]Subscription),
		usage: make(map[string]Usage),
		Orgs:  make(map[string]*MemoryOrganization),
	}
}

func usageKey(organizationID, monthYear string) string {
	return organizationID + "|" + monthYear
}

func (r *MemoryRepo) GetSubscription(_ context.Context, organizationID string) (Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sub, ok := r.subs[organizationID]
	if !ok {
		return Subscription{}, errs.NotFound("subscription for organization %s not found", organizationID)
	}
	return sub, nil
}

func (r *MemoryRepo) CreateSubscription(_ context.Context, sub Subscription) (Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.subs[sub.OrganizationID]; ok {
		return Subscription{}, errs.Conflict("subscription for organization %s already exists", sub.OrganizationID)
	}
	r.subs[sub.OrganizationID] = sub
	return sub, nil
}

func (r *MemoryRepo) UpdateSubscription(_ context.Context, sub Subscription) (Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.subs[sub.OrganizationID]; !ok {
		return Subscription{}, errs.NotFound("subscription for organization %s not found", sub.OrganizationID)
	}
	r.subs[sub.OrganizationID] = sub
	return sub, nil
}

func (r *MemoryRepo) AddSMSCreditsUsed(_ context.Context, subscriptionID string, n int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for orgID, sub := range r.subs {
		if sub.SubscriptionID != subscriptionID {
			continue
		}
		if sub.SMSCreditsTotal-sub.SMSCreditsUsed < n {
			return false, nil
		}
		sub.SMSCreditsUsed += n
		r.subs[orgID] = sub
		return true, nil
	}
	return false, errs.NotFound("subscription %s not found", subscriptionID)
}

func (r *MemoryRepo) AddEmailSent(_ context.Context, subscriptionID string, n int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for orgID, sub := range r.subs {
		if sub.SubscriptionID != subscriptionID {
			continue
		}
		sub.EmailSentCount += n
		r.subs[orgID] = sub
		return nil
	}
	return errs.NotFound("subscription %s not found", subscriptionID)
}

func (r *MemoryRepo) GetUsage(_ context.Context, organizationID, monthYear string) (Usage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.usage[usageKey(organizationID, monthYear)]
	if !ok {
		return Usage{}, errs.NotFound("no usage for organization %s in %s", organizationID, monthYear)
	}
	return u, nil
}

func (r *MemoryRepo) IncrementUsage(_ context.Context, organizationID, monthYear string, queues, sms, emails int, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := usageKey(organizationID, monthYear)
	u, ok := r.usage[key]
	if !ok {
		u = Usage{
			TrackingID:     key,
			OrganizationID: organizationID,
			MonthYear:      monthYear,
			CreatedAt:      at,
		}
	}
	u.QueuesCreated += queues
	u.SMSSent += sms
	u.EmailsSent += emails
	u.LastActivityAt = at
	u.UpdatedAt = at
	r.usage[key] = u
	return nil
}

func (r *MemoryRepo) TouchOrganizationActivity(_ context.Context, organizationID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if org, ok := r.Orgs[organizationID]; ok {
		org.LastActivityAt = at
	}
	return nil
}

func (r *MemoryRepo) ResetExpiredCredits(_ context.Context, monthYear string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for orgID, sub := range r.subs {
		if sub.CreditsResetMonth == monthYear {
			continue
		}
		sub.SMSCreditsUsed = 0
		sub.EmailSentCount = 0
		sub.CreditsResetMonth = monthYear
		r.subs[orgID] = sub
		n++
	}
	return n, nil
}

func (r *MemoryRepo) DeactivateDormantQueues(_ context.Context, planType string, inactiveSince time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, org := range r.Orgs {
		if !org.IsActive || org.PlanType != planType {
			continue
		}
		if org.LastActivityAt.After(inactiveSince) {
			continue
		}
		n += int64(org.ActiveQueues)
		org.ActiveQueues = 0
	}
	return n, nil
}
