package subscriptions

import (
	"context"
	"strings"
	"testing"
	"time"

	"sqipit/internal/config"
	"sqipit/internal/errs"
	"sqipit/internal/rbac"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Plans.Free = config.PlanLimits{QueueLimit: 1, SMSCredits: 0, DeactivationDays: 30}
	cfg.Plans.Pro = config.PlanLimits{QueueLimit: 5, SMSCredits: 100, DeactivationDays: 90}
	cfg.Plans.Business = config.PlanLimits{QueueLimit: 999, SMSCredits: 500, DeactivationDays: 0}
	return cfg
}

func newTestService(t *testing.T) (*Service, *MemoryRepo) {
	t.Helper()
	repo := NewMemoryRepo()
	svc := NewService(repo, testConfig())
	svc.clock = func() time.Time { return time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC) }
	return svc, repo
}

func adminOf(org string) rbac.Principal {
	return rbac.Principal{UserID: "u1", OrganizationID: org, Role: rbac.RoleAdmin}
}

func TestEnsureSubscription_DefaultsToFree(t *testing.T) {
	svc, _ := newTestService(t)

	status, err := svc.GetQuotaStatus(context.Background(), "org-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status.PlanType != PlanFree {
		t.Fatalf("expected FREE plan, got %s", status.PlanType)
	}
	if status.QueueLimit != 1 || status.SMSCreditsTotal != 0 {
		t.Fatalf("expected FREE entitlements, got %+v", status)
	}
	if status.CanSendSMS {
		t.Fatalf("FREE plan has no SMS credits")
	}
}

func TestCanCreateQueue_LimitEnforced(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if err := svc.CanCreateQueue(ctx, "org-1"); err != nil {
		t.Fatalf("expected first queue allowed, got %v", err)
	}
	if err := svc.RecordQueueCreated(ctx, "org-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err := svc.CanCreateQueue(ctx, "org-1")
	if !errs.IsKind(err, errs.KindForbidden) {
		t.Fatalf("expected forbidden after limit, got %v", err)
	}
	if !strings.Contains(err.Error(), "queue limit reached") {
		t.Fatalf("expected limit message, got %q", err.Error())
	}
}

func TestUseSMSCredits(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	// FREE has zero credits
	if err := svc.UseSMSCredits(ctx, "org-1", 1); !errs.IsKind(err, errs.KindForbidden) {
		t.Fatalf("expected forbidden on FREE plan, got %v", err)
	}

	if _, err := svc.UpgradePlan(ctx, adminOf("org-1"), "org-1", PlanPro, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.CanSendSMS(ctx, "org-1", 1); err != nil {
		t.Fatalf("expected PRO to send SMS, got %v", err)
	}
	if err := svc.UseSMSCredits(ctx, "org-1", 40); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.UseSMSCredits(ctx, "org-1", 61); !errs.IsKind(err, errs.KindForbidden) {
		t.Fatalf("expected forbidden past balance, got %v", err)
	}

	status, err := svc.GetQuotaStatus(ctx, "org-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status.SMSCreditsUsed != 40 || status.SMSRemaining != 60 {
		t.Fatalf("expected 40 used / 60 remaining, got %+v", status)
	}
}

func TestTrackEmailSent_Unmetered(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := svc.TrackEmailSent(ctx, "org-1", 1); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	status, err := svc.GetQuotaStatus(ctx, "org-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status.EmailsSent != 3 {
		t.Fatalf("expected 3 emails tracked, got %d", status.EmailsSent)
	}
}

func TestUpgradePlan_PaymentGate(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.UpgradePlan(ctx, adminOf("org-1"), "org-1", PlanPro, false)
	if !errs.IsKind(err, errs.KindForbidden) {
		t.Fatalf("expected payment gate, got %v", err)
	}

	sub, err := svc.UpgradePlan(ctx, adminOf("org-1"), "org-1", PlanPro, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sub.PlanType != PlanPro || sub.QueueLimit != 5 || sub.SMSCreditsTotal != 100 {
		t.Fatalf("expected PRO entitlements, got %+v", sub)
	}
	if sub.CurrentPeriodEnd == nil {
		t.Fatalf("expected paid plan to carry a period end")
	}
}

func TestUpgradePlan_Authorization(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	staff := rbac.Principal{UserID: "u2", OrganizationID: "org-1", Role: rbac.RoleStaff}
	if _, err := svc.UpgradePlan(ctx, staff, "org-1", PlanPro, true); !errs.IsKind(err, errs.KindForbidden) {
		t.Fatalf("expected staff to be denied, got %v", err)
	}

	otherAdmin := adminOf("org-2")
	if _, err := svc.UpgradePlan(ctx, otherAdmin, "org-1", PlanPro, true); !errs.IsKind(err, errs.KindForbidden) {
		t.Fatalf("expected cross-org admin to be denied, got %v", err)
	}

	super := rbac.Principal{UserID: "root", Role: rbac.RoleSuperAdmin}
	if _, err := svc.UpgradePlan(ctx, super, "org-1", PlanBusiness, true); err != nil {
		t.Fatalf("expected super_admin to upgrade any org, got %v", err)
	}
}

func TestCancelSubscription_RevertsToFree(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.UpgradePlan(ctx, adminOf("org-1"), "org-1", PlanBusiness, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sub, err := svc.CancelSubscription(ctx, adminOf("org-1"), "org-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sub.Status != SubscriptionCancelled || sub.PlanType != PlanFree || sub.QueueLimit != 1 {
		t.Fatalf("expected cancelled FREE subscription, got %+v", sub)
	}

	// cancelled subscription blocks new queues
	if err := svc.CanCreateQueue(ctx, "org-1"); !errs.IsKind(err, errs.KindForbidden) {
		t.Fatalf("expected forbidden after cancel, got %v", err)
	}
}

func TestHasFeatureAccess(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	ok, err := svc.HasFeatureAccess(ctx, "org-1", "advanced_analytics")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatalf("FREE plan must not have advanced analytics")
	}

	if _, err := svc.UpgradePlan(ctx, adminOf("org-1"), "org-1", PlanPro, true); err != nil {
		t.Fatalf("upgrade: %v", err)
	}
	if ok, _ := svc.HasFeatureAccess(ctx, "org-1", "advanced_analytics"); !ok {
		t.Fatalf("PRO plan should have advanced analytics")
	}
	if ok, _ := svc.HasFeatureAccess(ctx, "org-1", "api_access"); ok {
		t.Fatalf("api_access requires BUSINESS")
	}

	// Unknown features stay open.
	if ok, _ := svc.HasFeatureAccess(ctx, "org-1", "queue_joining"); !ok {
		t.Fatalf("unknown features must not be gated")
	}

	// A cancelled subscription loses gated features.
	if _, err := svc.CancelSubscription(ctx, adminOf("org-1"), "org-1"); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if ok, _ := svc.HasFeatureAccess(ctx, "org-1", "advanced_analytics"); ok {
		t.Fatalf("cancelled subscription must lose gated features")
	}
}
