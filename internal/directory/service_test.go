package directory

import (
	"context"
	"testing"
	"time"

	"sqipit/internal/errs"
	"sqipit/internal/rbac"
)

func fixedClock(s *DirectoryService) time.Time {
	at := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	s.clock = func() time.Time { return at }
	return at
}

func staffPrincipal(org string) rbac.Principal {
	return rbac.Principal{UserID: "u1", OrganizationID: org, Role: rbac.RoleStaff}
}

func TestCreateLocation(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	at := fixedClock(svc)

	loc, err := svc.CreateLocation(context.Background(), staffPrincipal("org-1"), CreateLocationInput{
		Name: "  Downtown Clinic ", City: "Amsterdam", Country: "NL",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loc.LocationID == "" {
		t.Fatalf("expected generated location id")
	}
	if loc.Name != "Downtown Clinic" {
		t.Fatalf("expected trimmed name, got %q", loc.Name)
	}
	if loc.OrganizationID != "org-1" || !loc.IsActive {
		t.Fatalf("unexpected location %+v", loc)
	}
	if !loc.CreatedAt.Equal(at) {
		t.Fatalf("expected clock timestamp, got %v", loc.CreatedAt)
	}
}

func TestCreateLocation_Forbidden(t *testing.T) {
	svc := NewService(NewMemoryRepo())

	p := rbac.Principal{UserID: "u1", OrganizationID: "org-1", Role: rbac.RoleCustomer}
	_, err := svc.CreateLocation(context.Background(), p, CreateLocationInput{Name: "X"})
	if !errs.IsKind(err, errs.KindForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestCreateLocation_NameRequired(t *testing.T) {
	svc := NewService(NewMemoryRepo())

	_, err := svc.CreateLocation(context.Background(), staffPrincipal("org-1"), CreateLocationInput{Name: "   "})
	if !errs.IsKind(err, errs.KindInvalid) {
		t.Fatalf("expected invalid, got %v", err)
	}
}

func TestCreateService_CrossOrgDenied(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	fixedClock(svc)

	loc, err := svc.CreateLocation(context.Background(), staffPrincipal("org-1"), CreateLocationInput{Name: "Site"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = svc.CreateService(context.Background(), staffPrincipal("org-2"), CreateServiceInput{
		LocationID: loc.LocationID, Name: "Walk-in", DurationMinutes: 10,
	})
	if !errs.IsKind(err, errs.KindForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestDeactivateLocation_HidesFromListing(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	fixedClock(svc)
	p := staffPrincipal("org-1")

	loc, err := svc.CreateLocation(context.Background(), p, CreateLocationInput{Name: "Site"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.DeactivateLocation(context.Background(), p, loc.LocationID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	list, err := svc.ListLocations(context.Background(), "org-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("expected deactivated location hidden, got %d rows", len(list))
	}

	// direct get still works for staff tooling
	got, err := svc.GetLocation(context.Background(), loc.LocationID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.IsActive {
		t.Fatalf("expected inactive location")
	}
}

func TestGetService_NotFound(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	_, err := svc.GetService(context.Background(), "missing")
	if !errs.IsKind(err, errs.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
