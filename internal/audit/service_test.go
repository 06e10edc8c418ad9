package audit

import (
	"context"
	"testing"
)

func TestService_AppendRequiresOrganizationAndAction(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)

	if err := svc.Append(context.Background(), Event{Action: ActionCustomerCalled}); err == nil {
		t.Fatalf("expected error")
	}
	if err := svc.Append(context.Background(), Event{OrganizationID: "org-1"}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestService_AppendsImmutableEvents(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)

	err := svc.LogQueueAction(context.Background(), ActionCustomerCalled, "org-1", "u1", "staff", "q1", "qc1", "called next customer")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	evs := repo.Events()
	if len(evs) != 1 {
		t.Fatalf("expected 1 event")
	}
	if evs[0].Action != ActionCustomerCalled {
		t.Fatalf("expected customer.called")
	}
	if evs[0].QueueID != "q1" || evs[0].QueueCustomerID != "qc1" {
		t.Fatalf("expected target ids captured, got %+v", evs[0])
	}
	if evs[0].ID == "" || evs[0].CreatedAt.IsZero() {
		t.Fatalf("expected id and timestamp assigned")
	}
}
