package subscriptions

import (
	"context"
	"time"
)

// Repository persists subscriptions and monthly usage.
//
// Contract:
// - GetSubscription returns errs.NotFound when the organization has no row.
// - AddSMSCreditsUsed is atomic: it consumes n credits only if at least n
//   remain, and reports whether it did. Concurrent callers must never
//   drive the counter past the total.
// - IncrementUsage upserts the (organization, month) row.
type Repository interface {
	GetSubscription(ctx context.Context, organizationID string) (Subscription, error)
	CreateSubscription(ctx context.Context, sub Subscription) (Subscription, error)
	UpdateSubscription(ctx context.Context, sub Subscription) (Subscription, error)

	AddSMSCreditsUsed(ctx context.Context, subscriptionID string, n int) (bool, error)
	AddEmailSent(ctx context.Context, subscriptionID string, n int) error

	GetUsage(ctx context.Context, organizationID, monthYear string) (Usage, error)
	IncrementUsage(ctx context.Context, organizationID, monthYear string, queues, sms, emails int, at time.Time) error

	TouchOrganizationActivity(ctx context.Context, organizationID string, at time.Time) error

	// Janitor support. Both are idempotent: re-running with the same
	// arguments affects zero additional rows.
	ResetExpiredCredits(ctx context.Context, monthYear string) (int64, error)
	DeactivateDormantQueues(ctx context.Context, planType string, inactiveSince time.Time) (int64, error)
}
