package subscriptions

import (
	"context"
	"time"

	"github.com/google/uuid"

	"sqipit/internal/config"
	"sqipit/internal/errs"
	"sqipit/internal/rbac"
)

// Service is the quota ledger: it answers entitlement questions and
// records consumption. Queue creation is checked against the current
// month's usage; SMS credits draw down the subscription's balance.
type Service struct {
	repo  Repository
	cfg   *config.Config
	clock func() time.Time
}

func NewService(repo Repository, cfg *config.Config) *Service {
	return &Service{repo: repo, cfg: cfg, clock: time.Now}
}

func monthKey(t time.Time) string {
	return t.UTC().Format("2006-01")
}

// ensureSubscription returns the organization's subscription, creating a
// FREE one on first touch.
func (s *Service) ensureSubscription(ctx context.Context, organizationID string) (Subscription, error) {
	sub, err := s.repo.GetSubscription(ctx, organizationID)
	if err == nil {
		return sub, nil
	}
	if !errs.IsKind(err, errs.KindNotFound) {
		return Subscription{}, err
	}

	limits := s.cfg.LimitsForPlan(PlanFree)
	now := s.clock().UTC()
	sub = Subscription{
		SubscriptionID:     uuid.NewString(),
		OrganizationID:     organizationID,
		PlanType:           PlanFree,
		Status:             SubscriptionActive,
		CurrentPeriodStart: now,
		QueueLimit:         limits.QueueLimit,
		SMSCreditsTotal:    limits.SMSCredits,
		CreditsResetMonth:  monthKey(now),
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	return s.repo.CreateSubscription(ctx, sub)
}

// CanCreateQueue returns nil when the organization may create another
// queue this month, or a forbidden error naming the limit.
func (s *Service) CanCreateQueue(ctx context.Context, organizationID string) error {
	sub, err := s.ensureSubscription(ctx, organizationID)
	if err != nil {
		return err
	}
	if sub.Status != SubscriptionActive {
		return errs.Forbidden("no active subscription")
	}

	created := 0
	usage, err := s.repo.GetUsage(ctx, organizationID, monthKey(s.clock()))
	if err == nil {
		created = usage.QueuesCreated
	} else if !errs.IsKind(err, errs.KindNotFound) {
		return err
	}

	if created >= sub.QueueLimit {
		return errs.Forbidden("queue limit reached (%d queues for %s plan)", sub.QueueLimit, sub.PlanType)
	}
	return nil
}

// RecordQueueCreated counts a successful queue creation against the
// current month and refreshes organization activity.
func (s *Service) RecordQueueCreated(ctx context.Context, organizationID string) error {
	if _, err := s.ensureSubscription(ctx, organizationID); err != nil {
		return err
	}
	now := s.clock().UTC()
	if err := s.repo.IncrementUsage(ctx, organizationID, monthKey(now), 1, 0, 0, now); err != nil {
		return err
	}
	return s.repo.TouchOrganizationActivity(ctx, organizationID, now)
}

// CanSendSMS returns nil when at least count credits remain.
func (s *Service) CanSendSMS(ctx context.Context, organizationID string, count int) error {
	sub, err := s.ensureSubscription(ctx, organizationID)
	if err != nil {
		return err
	}
	if sub.Status != SubscriptionActive {
		return errs.Forbidden("no active subscription")
	}
	remaining := sub.SMSCreditsTotal - sub.SMSCreditsUsed
	if remaining < count {
		return errs.Forbidden("insufficient SMS credits (need %d, have %d)", count, remaining)
	}
	return nil
}

// UseSMSCredits atomically consumes count credits. The repository-level
// conditional update is what guarantees the balance never goes negative
// under concurrent sends.
func (s *Service) UseSMSCredits(ctx context.Context, organizationID string, count int) error {
	sub, err := s.ensureSubscription(ctx, organizationID)
	if err != nil {
		return err
	}
	if sub.Status != SubscriptionActive {
		return errs.Forbidden("no active subscription")
	}

	ok, err := s.repo.AddSMSCreditsUsed(ctx, sub.SubscriptionID, count)
	if err != nil {
		return err
	}
	if !ok {
		return errs.Forbidden("insufficient SMS credits (need %d, have %d)", count, sub.SMSCreditsTotal-sub.SMSCreditsUsed)
	}

	now := s.clock().UTC()
	if err := s.repo.IncrementUsage(ctx, organizationID, monthKey(now), 0, count, 0, now); err != nil {
		return err
	}
	return s.repo.TouchOrganizationActivity(ctx, organizationID, now)
}

// TrackEmailSent records email volume. Email is unmetered on every plan,
// so this never rejects.
func (s *Service) TrackEmailSent(ctx context.Context, organizationID string, count int) error {
	sub, err := s.ensureSubscription(ctx, organizationID)
	if err != nil {
		return err
	}
	if err := s.repo.AddEmailSent(ctx, sub.SubscriptionID, count); err != nil {
		return err
	}
	now := s.clock().UTC()
	if err := s.repo.IncrementUsage(ctx, organizationID, monthKey(now), 0, 0, count, now); err != nil {
		return err
	}
	return s.repo.TouchOrganizationActivity(ctx, organizationID, now)
}

// GetQuotaStatus assembles the dashboard read model.
func (s *Service) GetQuotaStatus(ctx context.Context, organizationID string) (QuotaStatus, error) {
	sub, err := s.ensureSubscription(ctx, organizationID)
	if err != nil {
		return QuotaStatus{}, err
	}

	month := monthKey(s.clock())
	created := 0
	emails := 0
	usage, err := s.repo.GetUsage(ctx, organizationID, month)
	if err == nil {
		created = usage.QueuesCreated
		emails = usage.EmailsSent
	} else if !errs.IsKind(err, errs.KindNotFound) {
		return QuotaStatus{}, err
	}

	smsRemaining := sub.SMSCreditsTotal - sub.SMSCreditsUsed
	if smsRemaining < 0 {
		smsRemaining = 0
	}
	queuesRemaining := sub.QueueLimit - created
	if queuesRemaining < 0 {
		queuesRemaining = 0
	}

	active := sub.Status == SubscriptionActive
	return QuotaStatus{
		OrganizationID:  organizationID,
		PlanType:        sub.PlanType,
		Month:           month,
		QueueLimit:      sub.QueueLimit,
		QueuesCreated:   created,
		QueuesRemaining: queuesRemaining,
		SMSCreditsTotal: sub.SMSCreditsTotal,
		SMSCreditsUsed:  sub.SMSCreditsUsed,
		SMSRemaining:    smsRemaining,
		EmailsSent:      emails,
		CanCreateQueue:  active && queuesRemaining > 0,
		CanSendSMS:      active && smsRemaining > 0,
	}, nil
}

// UpgradePlan moves an organization onto a new plan. Upgrades off FREE
// require payment verification, which is not integrated; callers must
// pass bypassPayment explicitly (admin tooling only).
func (s *Service) UpgradePlan(ctx context.Context, p rbac.Principal, organizationID, newPlan string, bypassPayment bool) (Subscription, error) {
	if !rbac.IsSuperAdmin(p.Role) && !(rbac.AtLeast(p.Role, rbac.RoleAdmin) && p.OrganizationID == organizationID) {
		return Subscription{}, errs.Forbidden("not allowed to change plans")
	}
	switch newPlan {
	case PlanFree, PlanPro, PlanBusiness:
	default:
		return Subscription{}, errs.Invalid("unknown plan %q", newPlan)
	}

	sub, err := s.ensureSubscription(ctx, organizationID)
	if err != nil {
		return Subscription{}, err
	}

	if !bypassPayment && sub.PlanType == PlanFree && newPlan != PlanFree {
		return Subscription{}, errs.Forbidden("payment verification required for plan upgrades")
	}

	limits := s.cfg.LimitsForPlan(newPlan)
	now := s.clock().UTC()

	sub.PlanType = newPlan
	sub.QueueLimit = limits.QueueLimit
	sub.SMSCreditsTotal = limits.SMSCredits
	sub.UpdatedAt = now
	if newPlan != PlanFree {
		end := now.AddDate(0, 0, 30)
		sub.CurrentPeriodEnd = &end
	} else {
		sub.CurrentPeriodEnd = nil
	}

	return s.repo.UpdateSubscription(ctx, sub)
}

// CancelSubscription drops the organization back to FREE entitlements.
func (s *Service) CancelSubscription(ctx context.Context, p rbac.Principal, organizationID string) (Subscription, error) {
	if !rbac.IsSuperAdmin(p.Role) && !(rbac.AtLeast(p.Role, rbac.RoleAdmin) && p.OrganizationID == organizationID) {
		return Subscription{}, errs.Forbidden("not allowed to change plans")
	}

	sub, err := s.ensureSubscription(ctx, organizationID)
	if err != nil {
		return Subscription{}, err
	}

	limits := s.cfg.LimitsForPlan(PlanFree)
	sub.Status = SubscriptionCancelled
	sub.PlanType = PlanFree
	sub.QueueLimit = limits.QueueLimit
	sub.SMSCreditsTotal = limits.SMSCredits
	sub.CurrentPeriodEnd = nil
	sub.UpdatedAt = s.clock().UTC()

	return s.repo.UpdateSubscription(ctx, sub)
}

// Feature gates mirror the plan matrix. Unknown features are open so
// new app surfaces are not accidentally locked behind billing.
func (s *Service) HasFeatureAccess(ctx context.Context, organizationID, feature string) (bool, error) {
	sub, err := s.ensureSubscription(ctx, organizationID)
	if err != nil {
		return false, err
	}
	if sub.Status != SubscriptionActive {
		return false, nil
	}
	switch feature {
	case "api_access", "white_label":
		return sub.PlanType == PlanBusiness, nil
	case "custom_branding", "advanced_analytics":
		return sub.PlanType == PlanPro || sub.PlanType == PlanBusiness, nil
	case "priority_support":
		return sub.PlanType == PlanBusiness, nil
	default:
		return true, nil
	}
}
