package reporting

import (
	"context"
	"testing"
	"time"

	"sqipit/internal/errs"
	"sqipit/internal/queue"
	"sqipit/internal/rbac"
)

type openGate struct{ allowed bool }

func (g openGate) HasFeatureAccess(context.Context, string, string) (bool, error) {
	return g.allowed, nil
}

func staffOf(org string) rbac.Principal {
	return rbac.Principal{UserID: "u1", OrganizationID: org, Role: rbac.RoleStaff}
}

func ts(h, m int) time.Time {
	return time.Date(2026, 8, 15, h, m, 0, 0, time.UTC)
}

func seedRepo() *MemoryRepo {
	repo := NewMemoryRepo()
	called1 := ts(9, 10)
	done1 := ts(9, 25)
	repo.Put("org-1", queue.QueueCustomer{
		QueueCustomerID: "e1", QueueID: "q1", Status: queue.CustomerCompleted,
		JoinedAt: ts(9, 0), CalledAt: &called1, CompletedAt: &done1,
	})
	called2 := ts(9, 20)
	repo.Put("org-1", queue.QueueCustomer{
		QueueCustomerID: "e2", QueueID: "q1", Status: queue.CustomerNoShow,
		JoinedAt: ts(9, 0), CalledAt: &called2,
	})
	repo.Put("org-1", queue.QueueCustomer{
		QueueCustomerID: "e3", QueueID: "q1", Status: queue.CustomerWaiting,
		JoinedAt: ts(9, 30),
	})
	// Outside the window.
	repo.Put("org-1", queue.QueueCustomer{
		QueueCustomerID: "e4", QueueID: "q1", Status: queue.CustomerCompleted,
		JoinedAt: ts(14, 0),
	})
	// Another organization.
	repo.Put("org-2", queue.QueueCustomer{
		QueueCustomerID: "e5", QueueID: "q9", Status: queue.CustomerCompleted,
		JoinedAt: ts(9, 0),
	})
	return repo
}

func TestQueueReport(t *testing.T) {
	svc := NewService(seedRepo(), openGate{allowed: true})

	rep, err := svc.QueueReport(context.Background(), staffOf("org-1"), QueueReportRequest{
		OrganizationID: "org-1",
		Range:          Range{From: ts(9, 0), To: ts(10, 0)},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rep.TotalJoined != 3 {
		t.Fatalf("expected 3 joined in window, got %d", rep.TotalJoined)
	}
	if rep.Completed != 1 || rep.NoShows != 1 || rep.StillWaiting != 1 {
		t.Fatalf("unexpected outcome counts: %+v", rep)
	}
	// Waits of 10 and 20 minutes average to 15.
	if rep.AverageWaitSeconds != 900 {
		t.Fatalf("expected 900s average wait, got %d", rep.AverageWaitSeconds)
	}
	if rep.AverageServiceSeconds != 900 {
		t.Fatalf("expected 900s average service time, got %d", rep.AverageServiceSeconds)
	}
}

func TestQueueReportGatedByPlan(t *testing.T) {
	svc := NewService(seedRepo(), openGate{allowed: false})

	_, err := svc.QueueReport(context.Background(), staffOf("org-1"), QueueReportRequest{
		OrganizationID: "org-1",
		Range:          Range{From: ts(9, 0), To: ts(10, 0)},
	})
	if !errs.IsKind(err, errs.KindForbidden) {
		t.Fatalf("expected forbidden without the analytics feature, got %v", err)
	}
}

func TestQueueReportAuthorization(t *testing.T) {
	svc := NewService(seedRepo(), openGate{allowed: true})

	_, err := svc.QueueReport(context.Background(), staffOf("org-2"), QueueReportRequest{
		OrganizationID: "org-1",
		Range:          Range{From: ts(9, 0), To: ts(10, 0)},
	})
	if !errs.IsKind(err, errs.KindForbidden) {
		t.Fatalf("expected forbidden for another organization, got %v", err)
	}

	_, err = svc.QueueReport(context.Background(), staffOf("org-1"), QueueReportRequest{
		OrganizationID: "org-1",
		Range:          Range{From: ts(10, 0), To: ts(9, 0)},
	})
	if !errs.IsKind(err, errs.KindInvalid) {
		t.Fatalf("expected invalid range, got %v", err)
	}
}
