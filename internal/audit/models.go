package audit

import "time"

// Event is an immutable, append-only audit log record.
//
// Invariants:
// - Events are never updated or deleted.
// - organization_id is required for tenancy isolation.
// - Audit capture is best-effort; do not block queue flows on audit failures.
//
// Storage recommendation (Postgres):
// - Table audit_events with an INSERT-only policy.
// - Optional: trigger to prevent UPDATE/DELETE.
// - Optional: partition by time for retention.

type Event struct {
	ID             string `json:"id" db:"id"`
	OrganizationID string `json:"organization_id" db:"organization_id"`

	// Action indicates the business operation being recorded.
	Action Action `json:"action" db:"action"`

	// ActorUserID is the authenticated user causing the event (if applicable).
	ActorUserID string `json:"actor_user_id,omitempty" db:"actor_user_id"`
	ActorRole   string `json:"actor_role,omitempty" db:"actor_role"`

	// IPAddress should capture the original client IP when available.
	IPAddress string `json:"ip_address,omitempty" db:"ip_address"`

	// Target identifiers (optional, depending on the action).
	QueueID         string `json:"queue_id,omitempty" db:"queue_id"`
	QueueCustomerID string `json:"queue_customer_id,omitempty" db:"queue_customer_id"`

	// Message is a short human-readable description for internal ops.
	Message string `json:"message,omitempty" db:"message"`

	// Metadata is optional JSON for full details.
	Metadata string `json:"metadata,omitempty" db:"metadata"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type Action string

const (
	ActionQueueCreated      Action = "queue.created"
	ActionQueueUpdated      Action = "queue.updated"
	ActionQueueDeactivated  Action = "queue.deactivated"
	ActionCustomerCalled    Action = "customer.called"
	ActionCustomerCompleted Action = "customer.completed"
	ActionCustomerCancelled Action = "customer.cancelled"
	ActionCustomerNoShow    Action = "customer.no_show"
	ActionPlanChanged       Action = "plan.changed"
)
