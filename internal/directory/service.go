package directory

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"sqipit/internal/errs"
	"sqipit/internal/rbac"
)

// DirectoryService manages the location/service catalog.
//
// Contract:
// - Mutations require staff or above within the owning organization.
// - Reads are organization-scoped but open to any caller; public queue
//   pages need location names.
type DirectoryService struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *DirectoryService {
	return &DirectoryService{repo: repo, clock: time.Now}
}

type CreateLocationInput struct {
	Name       string  `json:"name"`
	Address    string  `json:"address"`
	City       string  `json:"city"`
	PostalCode string  `json:"postal_code"`
	Country    string  `json:"country"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
}

func (s *DirectoryService) CreateLocation(ctx context.Context, p rbac.Principal, in CreateLocationInput) (Location, error) {
	if !rbac.CanManageQueues(p, p.OrganizationID) {
		return Location{}, errs.Forbidden("not allowed to manage locations")
	}
	if strings.TrimSpace(in.Name) == "" {
		return Location{}, errs.Invalid("location name is required")
	}

	now := s.clock().UTC()
	loc := Location{
		LocationID:     uuid.NewString(),
		OrganizationID: p.OrganizationID,
		Name:           strings.TrimSpace(in.Name),
		Address:        in.Address,
		City:           in.City,
		PostalCode:     in.PostalCode,
		Country:        in.Country,
		Latitude:       in.Latitude,
		Longitude:      in.Longitude,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	return s.repo.CreateLocation(ctx, loc)
}

func (s *DirectoryService) GetLocation(ctx context.Context, locationID string) (Location, error) {
	return s.repo.GetLocation(ctx, locationID)
}

func (s *DirectoryService) ListLocations(ctx context.Context, organizationID string) ([]Location, error) {
	return s.repo.ListLocations(ctx, organizationID, false)
}

// DeactivateLocation soft-deletes a location; queues pointing at it keep
// working but the location disappears from public listings.
func (s *DirectoryService) DeactivateLocation(ctx context.Context, p rbac.Principal, locationID string) (Location, error) {
	loc, err := s.repo.GetLocation(ctx, locationID)
	if err != nil {
		return Location{}, err
	}
	if !rbac.CanManageQueues(p, loc.OrganizationID) {
		return Location{}, errs.Forbidden("not allowed to manage locations")
	}
	loc.IsActive = false
	loc.UpdatedAt = s.clock().UTC()
	return s.repo.UpdateLocation(ctx, loc)
}

type CreateServiceInput struct {
	LocationID      string `json:"location_id"`
	Name            string `json:"name"`
	Description     string `json:"description"`
	Category        string `json:"category"`
	DurationMinutes int    `json:"duration_minutes"`
}

func (s *DirectoryService) CreateService(ctx context.Context, p rbac.Principal, in CreateServiceInput) (Service, error) {
	if strings.TrimSpace(in.Name) == "" {
		return Service{}, errs.Invalid("service name is required")
	}
	if in.DurationMinutes < 0 {
		return Service{}, errs.Invalid("duration_minutes must not be negative")
	}

	loc, err := s.repo.GetLocation(ctx, in.LocationID)
	if err != nil {
		return Service{}, err
	}
	if !rbac.CanManageQueues(p, loc.OrganizationID) {
		return Service{}, errs.Forbidden("not allowed to manage services")
	}

	now := s.clock().UTC()
	svc := Service{
		ServiceID:       uuid.NewString(),
		LocationID:      in.LocationID,
		Name:            strings.TrimSpace(in.Name),
		Description:     in.Description,
		Category:        in.Category,
		DurationMinutes: in.DurationMinutes,
		IsActive:        true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	return s.repo.CreateService(ctx, svc)
}

func (s *DirectoryService) GetService(ctx context.Context, serviceID string) (Service, error) {
	return s.repo.GetService(ctx, serviceID)
}

func (s *DirectoryService) ListServices(ctx context.Context, locationID string) ([]Service, error) {
	return s.repo.ListServices(ctx, locationID, false)
}
