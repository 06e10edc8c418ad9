package queue

import (
	"context"

	"sqipit/internal/audit"
	"sqipit/internal/notifications"
)

// Collaborator ports. The queue service consumes these; it never
// computes plan limits, renders templates, or talks to providers itself.

// QuotaLedger answers entitlement questions and records consumption.
// Can* return nil when allowed and a forbidden error naming the limit
// otherwise. Consumption must be atomic per organization.
type QuotaLedger interface {
	CanCreateQueue(ctx context.Context, organizationID string) error
	RecordQueueCreated(ctx context.Context, organizationID string) error
	CanSendSMS(ctx context.Context, organizationID string, count int) error
	UseSMSCredits(ctx context.Context, organizationID string, count int) error
	TrackEmailSent(ctx context.Context, organizationID string, count int) error
}

// NotificationGateway delivers customer-facing messages. A failed
// delivery comes back as a failed Result, not an error; errors mean the
// attempt itself could not be made.
type NotificationGateway interface {
	SendQueueJoinedSMS(ctx context.Context, to, customerName, queueName string, position int, estimatedWait string) (notifications.Result, error)
	SendNextInLineEmail(ctx context.Context, to, customerName, queueName, serviceLocation string) (notifications.Result, error)
	SendNextInLineSMS(ctx context.Context, to, customerName, queueName, serviceLocation string) (notifications.Result, error)
	SendAlmostYourTurnEmail(ctx context.Context, to, customerName, queueName string, position int, estimatedWait string) (notifications.Result, error)
	SendAlmostYourTurnSMS(ctx context.Context, to, customerName, queueName string, position int, estimatedWait string) (notifications.Result, error)
}

// LocationInfo and ServiceInfo are the directory slices the queue
// service needs for referential checks and notification copy.
type LocationInfo struct {
	LocationID     string
	OrganizationID string
	Name           string
}

type ServiceInfo struct {
	ServiceID       string
	Name            string
	DurationMinutes int
}

type DirectoryReader interface {
	Location(ctx context.Context, locationID string) (LocationInfo, error)
	Service(ctx context.Context, serviceID string) (ServiceInfo, error)
}

// AuditTrail records staff-initiated mutations. Best-effort: failures
// are logged, never surfaced to callers.
type AuditTrail interface {
	LogQueueAction(ctx context.Context, action audit.Action, organizationID, actorUserID, actorRole, queueID, queueCustomerID, message string) error
}

// EventPublisher fans lifecycle events out to subscribers (dashboards,
// display boards). Best-effort.
type EventPublisher interface {
	Publish(ctx context.Context, e Event) error
}
