package directory

import "context"

// Repository persists locations and services.
//
// Contract:
// - Get* return errs.NotFound on missing rows.
// - List* return active rows only unless includeInactive is set.
type Repository interface {
	CreateLocation(ctx context.Context, loc Location) (Location, error)
	GetLocation(ctx context.Context, locationID string) (Location, error)
	UpdateLocation(ctx context.Context, loc Location) (Location, error)
	ListLocations(ctx context.Context, organizationID string, includeInactive bool) ([]Location, error)

	CreateService(ctx context.Context, svc Service) (Service, error)
	GetService(ctx context.Context, serviceID string) (Service, error)
	ListServices(ctx context.Context, locationID string, includeInactive bool) ([]Service, error)
}
