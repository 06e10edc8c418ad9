package subscriptions

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"sqipit/internal/errs"
)

// PostgresRepo persists quota state in the subscriptions and
// usage_tracking tables. Credit consumption uses a conditional UPDATE so
// concurrent senders cannot overdraw.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

const subscriptionColumns = `subscription_id, organization_id, plan_type, status,
current_period_start, current_period_end, queue_limit,
sms_credits_total, sms_credits_used, email_sent_count,
credits_reset_month, created_at, updated_at`

func scanSubscription(row interface{ Scan(...any) error }) (Subscription, error) {
	var sub Subscription
	err := row.Scan(
		&sub.SubscriptionID,
		&sub.OrganizationID,
		&sub.PlanType,
		&sub.Status,
		&sub.CurrentPeriodStart,
		&sub.CurrentPeriodEnd,
		&sub.QueueLimit,
		&sub.SMSCreditsTotal,
		&sub.SMSCreditsUsed,
		&sub.EmailSentCount,
		&sub.CreditsResetMonth,
		&sub.CreatedAt,
		&sub.UpdatedAt,
	)
	return sub, err
}

func (r *PostgresRepo) GetSubscription(ctx context.Context, organizationID string) (Subscription, error) {
	const q = `
SELECT ` + subscriptionColumns + `
FROM subscriptions
WHERE organization_id = $1
`
	sub, err := scanSubscription(r.db.QueryRowContext(ctx, q, organizationID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Subscription{}, errs.NotFound("subscription for organization %s not found", organizationID)
		}
		return Subscription{}, err
	}
	return sub, nil
}

func (r *PostgresRepo) CreateSubscription(ctx context.Context, sub Subscription) (Subscription, error) {
	const q = `
INSERT INTO subscriptions (` + subscriptionColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
ON CONFLICT (organization_id) DO NOTHING
`
	res, err := r.db.ExecContext(ctx, q,
		sub.SubscriptionID, sub.OrganizationID, sub.PlanType, sub.Status,
		sub.CurrentPeriodStart, sub.CurrentPeriodEnd, sub.QueueLimit,
		sub.SMSCreditsTotal, sub.SMSCreditsUsed, sub.EmailSentCount,
		sub.CreditsResetMonth, sub.CreatedAt, sub.UpdatedAt,
	)
	if err != nil {
		return Subscription{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// lost the race; return the row that won
		return r.GetSubscription(ctx, sub.OrganizationID)
	}
	return sub, nil
}

func (r *PostgresRepo) UpdateSubscription(ctx context.Context, sub Subscription) (Subscription, error) {
	const q = `
UPDATE subscriptions
SET plan_type = $2, status = $3, current_period_start = $4, current_period_end = $5,
    queue_limit = $6, sms_credits_total = $7, sms_credits_used = $8,
    email_sent_count = $9, credits_reset_month = $10, updated_at = $11
WHERE organization_id = $1
`
	res, err := r.db.ExecContext(ctx, q,
		sub.OrganizationID, sub.PlanType, sub.Status, sub.CurrentPeriodStart,
		sub.CurrentPeriodEnd, sub.QueueLimit, sub.SMSCreditsTotal,
		sub.SMSCreditsUsed, sub.EmailSentCount, sub.CreditsResetMonth, sub.UpdatedAt,
	)
	if err != nil {
		return Subscription{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return Subscription{}, errs.NotFound("subscription for organization %s not found", sub.OrganizationID)
	}
	return sub, nil
}

func (r *PostgresRepo) AddSMSCreditsUsed(ctx context.Context, subscriptionID string, n int) (bool, error) {
	const q = `
UPDATE subscriptions
SET sms_credits_used = sms_credits_used + $2, updated_at = now()
WHERE subscription_id = $1
  AND sms_credits_total - sms_credits_used >= $2
`
	res, err := r.db.ExecContext(ctx, q, subscriptionID, n)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

func (r *PostgresRepo) AddEmailSent(ctx context.Context, subscriptionID string, n int) error {
	const q = `
UPDATE subscriptions
SET email_sent_count = email_sent_count + $2, updated_at = now()
WHERE subscription_id = $1
`
	res, err := r.db.ExecContext(ctx, q, subscriptionID, n)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return errs.NotFound("subscription %s not found", subscriptionID)
	}
	return nil
}

func (r *PostgresRepo) GetUsage(ctx context.Context, organizationID, monthYear string) (Usage, error) {
	const q = `
SELECT tracking_id, organization_id, month_year, queues_created, sms_sent, emails_sent,
       last_activity_at, created_at, updated_at
FROM usage_tracking
WHERE organization_id = $1 AND month_year = $2
`
	var u Usage
	err := r.db.QueryRowContext(ctx, q, organizationID, monthYear).Scan(
		&u.TrackingID,
		&u.OrganizationID,
		&u.MonthYear,
		&u.QueuesCreated,
		&u.SMSSent,
		&u.EmailsSent,
		&u.LastActivityAt,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Usage{}, errs.NotFound("no usage for organization %s in %s", organizationID, monthYear)
		}
		return Usage{}, err
	}
	return u, nil
}

func (r *PostgresRepo) IncrementUsage(ctx context.Context, organizationID, monthYear string, queues, sms, emails int, at time.Time) error {
	const q = `
INSERT INTO usage_tracking (tracking_id, organization_id, month_year, queues_created, sms_sent, emails_sent,
                            last_activity_at, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $7, $7)
ON CONFLICT (organization_id, month_year) DO UPDATE
SET queues_created = usage_tracking.queues_created + EXCLUDED.queues_created,
    sms_sent = usage_tracking.sms_sent + EXCLUDED.sms_sent,
    emails_sent = usage_tracking.emails_sent + EXCLUDED.emails_sent,
    last_activity_at = EXCLUDED.last_activity_at,
    updated_at = EXCLUDED.updated_at
`
	_, err := r.db.ExecContext(ctx, q, uuid.NewString(), organizationID, monthYear, queues, sms, emails, at)
	return err
}

func (r *PostgresRepo) TouchOrganizationActivity(ctx context.Context, organizationID string, at time.Time) error {
	const q = `
UPDATE organizations
SET last_activity_at = $2, updated_at = $2
WHERE organization_id = $1
`
	_, err := r.db.ExecContext(ctx, q, organizationID, at)
	return err
}

func (r *PostgresRepo) ResetExpiredCredits(ctx context.Context, monthYear string) (int64, error) {
	const q = `
UPDATE subscriptions
SET sms_credits_used = 0, email_sent_count = 0, credits_reset_month = $1, updated_at = now()
WHERE credits_reset_month IS DISTINCT FROM $1
`
	res, err := r.db.ExecContext(ctx, q, monthYear)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *PostgresRepo) DeactivateDormantQueues(ctx context.Context, planType string, inactiveSince time.Time) (int64, error) {
	const q = `
UPDATE queues
SET is_active = FALSE, updated_at = now()
WHERE is_active
  AND organization_id IN (
        SELECT organization_id
        FROM organizations
        WHERE is_active AND plan_type = $1 AND last_activity_at <= $2
  )
`
	res, err := r.db.ExecContext(ctx, q, planType, inactiveSince)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
