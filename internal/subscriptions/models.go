package subscriptions

import "time"

// Plan type identifiers. Stored uppercase, matching billing exports.
const (
	PlanFree     = "FREE"
	PlanPro      = "PRO"
	PlanBusiness = "BUSINESS"
)

type SubscriptionStatus string

const (
	SubscriptionActive    SubscriptionStatus = "ACTIVE"
	SubscriptionCancelled SubscriptionStatus = "CANCELLED"
	SubscriptionExpired   SubscriptionStatus = "EXPIRED"
	SubscriptionPastDue   SubscriptionStatus = "PAST_DUE"
)

// Subscription is an organization's entitlement record. SMS credits are
// consumed against it within a billing month; CreditsResetMonth marks
// the last month the counters were zeroed so resets stay idempotent.
type Subscription struct {
	SubscriptionID     string             `json:"subscription_id"`
	OrganizationID     string             `json:"organization_id"`
	PlanType           string             `json:"plan_type"`
	Status             SubscriptionStatus `json:"status"`
	CurrentPeriodStart time.Time          `json:"current_period_start"`
	CurrentPeriodEnd   *time.Time         `json:"current_period_end,omitempty"`

	QueueLimit      int `json:"queue_limit"`
	SMSCreditsTotal int `json:"sms_credits_total"`
	SMSCreditsUsed  int `json:"sms_credits_used"`
	EmailSentCount  int `json:"email_sent_count"`

	CreditsResetMonth string `json:"credits_reset_month,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Usage is the per-organization, per-month consumption row. The month
// key uses the "2006-01" format, so a new month starts at zero without
// any reset job touching these rows.
type Usage struct {
	TrackingID     string    `json:"tracking_id"`
	OrganizationID string    `json:"organization_id"`
	MonthYear      string    `json:"month_year"`
	QueuesCreated  int       `json:"queues_created"`
	SMSSent        int       `json:"sms_sent"`
	EmailsSent     int       `json:"emails_sent"`
	LastActivityAt time.Time `json:"last_activity_at"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// QuotaStatus is the read model surfaced to dashboards.
type QuotaStatus struct {
	OrganizationID string `json:"organization_id"`
	PlanType       string `json:"plan_type"`
	Month          string `json:"month"`

	QueueLimit      int `json:"queue_limit"`
	QueuesCreated   int `json:"queues_created"`
	QueuesRemaining int `json:"queues_remaining"`

	SMSCreditsTotal int `json:"sms_credits_total"`
	SMSCreditsUsed  int `json:"sms_credits_used"`
	SMSRemaining    int `json:"sms_remaining"`

	EmailsSent int `json:"emails_sent"`

	CanCreateQueue bool `json:"can_create_queue"`
	CanSendSMS     bool `json:"can_send_sms"`
}
