package subscriptions

import (
	"context"
	"testing"
	"time"
)

func TestResetMonthlyUsage_Idempotent(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo, testConfig())
	july := time.Date(2026, 7, 10, 0, 0, 0, 0, time.UTC)
	svc.clock = func() time.Time { return july }
	ctx := context.Background()

	if _, err := svc.UpgradePlan(ctx, adminOf("org-1"), "org-1", PlanPro, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.UseSMSCredits(ctx, "org-1", 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	j := NewJanitor(repo, testConfig())
	j.clock = func() time.Time { return time.Date(2026, 8, 1, 0, 5, 0, 0, time.UTC) }

	n, err := j.ResetMonthlyUsage(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 subscription reset, got %d", n)
	}

	sub, err := repo.GetSubscription(ctx, "org-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sub.SMSCreditsUsed != 0 || sub.EmailSentCount != 0 {
		t.Fatalf("expected counters zeroed, got %+v", sub)
	}

	// second run in the same month touches nothing
	n, err = j.ResetMonthlyUsage(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected idempotent re-run, got %d resets", n)
	}
}

func TestDeactivateDormantOrganizations(t *testing.T) {
	repo := NewMemoryRepo()
	now := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)

	repo.Orgs["org-free-dormant"] = &MemoryOrganization{
		PlanType: PlanFree, IsActive: true,
		LastActivityAt: now.AddDate(0, 0, -45), ActiveQueues: 2,
	}
	repo.Orgs["org-free-fresh"] = &MemoryOrganization{
		PlanType: PlanFree, IsActive: true,
		LastActivityAt: now.AddDate(0, 0, -5), ActiveQueues: 1,
	}
	repo.Orgs["org-business-dormant"] = &MemoryOrganization{
		PlanType: PlanBusiness, IsActive: true,
		LastActivityAt: now.AddDate(0, 0, -400), ActiveQueues: 3,
	}

	j := NewJanitor(repo, testConfig())
	j.clock = func() time.Time { return now }

	n, err := j.DeactivateDormantOrganizations(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 queues deactivated, got %d", n)
	}
	if repo.Orgs["org-free-dormant"].ActiveQueues != 0 {
		t.Fatalf("expected dormant FREE org queues deactivated")
	}
	if repo.Orgs["org-free-fresh"].ActiveQueues != 1 {
		t.Fatalf("expected fresh org untouched")
	}
	if repo.Orgs["org-business-dormant"].ActiveQueues != 3 {
		t.Fatalf("expected BUSINESS org never deactivated")
	}
}
