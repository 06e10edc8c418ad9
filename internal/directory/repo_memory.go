package directory

import (
	"context"
	"sync"

	"sqipit/internal/errs"
)

// MemoryRepo is an in-memory repository for tests and early development.
type MemoryRepo struct {
	mu        sync.RWMutex
	locations map[string]Location
	services  map[string]Service
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		locations: make(map[string]Location),
		services:  make(map[string]Service),
	}
}

func (r *MemoryRepo) CreateLocation(_ context.Context, loc Location) (Location, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.locations[loc.LocationID] = loc
	return loc, nil
}

func (r *MemoryRepo) GetLocation(_ context.Context, locationID string) (Location, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	loc, ok := r.locations[locationID]
	if !ok {
		return Location{}, errs.NotFound("location %s not found", locationID)
	}
	return loc, nil
}

func (r *MemoryRepo) UpdateLocation(_ context.Context, loc Location) (Location, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.locations[loc.LocationID]; !ok {
		return Location{}, errs.NotFound("location %s not found", loc.LocationID)
	}
	r.locations[loc.LocationID] = loc
	return loc, nil
}

func (r *MemoryRepo) ListLocations(_ context.Context, organizationID string, includeInactive bool) ([]Location, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Location, 0)
	for _, loc := range r.locations {
		if loc.OrganizationID != organizationID {
			continue
		}
		if !includeInactive && !loc.IsActive {
			continue
		}
		out = append(out, loc)
	}
	return out, nil
}

func (r *MemoryRepo) CreateService(_ context.Context, svc Service) (Service, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.services[svc.ServiceID] = svc
	return svc, nil
}

func (r *MemoryRepo) GetService(_ context.Context, serviceID string) (Service, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	svc, ok := r.services[serviceID]
	if !ok {
		return Service{}, errs.NotFound("service %s not found", serviceID)
	}
	return svc, nil
}

func (r *MemoryRepo) ListServices(_ context.Context, locationID string, includeInactive bool) ([]Service, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Service, 0)
	for _, svc := range r.services {
		if svc.LocationID != locationID {
			continue
		}
		if !includeInactive && !svc.IsActive {
			continue
		}
		out = append(out, svc)
	}
	return out, nil
}
