package queue

import "time"

// QueueStatus is the operational state of a waiting line. A paused or
// closed queue keeps serving already-waiting customers but accepts no
// new ones.
type QueueStatus string

const (
	QueueActive QueueStatus = "active"
	QueuePaused QueueStatus = "paused"
	QueueClosed QueueStatus = "closed"
)

func (s QueueStatus) Valid() bool {
	switch s {
	case QueueActive, QueuePaused, QueueClosed:
		return true
	}
	return false
}

// Queue is a named waiting line bound to a location and optionally a
// service. organization_id is denormalized from the location so tenant
// scoping never needs a join.
type Queue struct {
	QueueID        string      `json:"queue_id"`
	OrganizationID string      `json:"organization_id"`
	LocationID     string      `json:"location_id"`
	ServiceID      string      `json:"service_id,omitempty"`
	Name           string      `json:"name"`
	Description    string      `json:"description,omitempty"`
	Status         QueueStatus `json:"status"`

	// Event/mobile queue fields.
	EventName      string     `json:"event_name,omitempty"`
	EventStartDate *time.Time `json:"event_start_date,omitempty"`
	EventEndDate   *time.Time `json:"event_end_date,omitempty"`
	IsMobileQueue  bool       `json:"is_mobile_queue"`

	// MaxCapacity of 0 means unbounded. EstimatedServiceTime is minutes
	// per customer, 0 when unknown.
	MaxCapacity          int `json:"max_capacity,omitempty"`
	EstimatedServiceTime int `json:"estimated_service_time,omitempty"`

	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AcceptsCustomers reports whether new customers may join.
func (q Queue) AcceptsCustomers() bool {
	return q.IsActive && q.Status == QueueActive
}

// CustomerStatus is a queue entry's state. WAITING and IN_SERVICE are
// live; the rest are terminal.
type CustomerStatus string

const (
	CustomerWaiting   CustomerStatus = "waiting"
	CustomerInService CustomerStatus = "in_service"
	CustomerCompleted CustomerStatus = "completed"
	CustomerCancelled CustomerStatus = "cancelled"
	CustomerNoShow    CustomerStatus = "no_show"
)

func (s CustomerStatus) Valid() bool {
	switch s {
	case CustomerWaiting, CustomerInService, CustomerCompleted, CustomerCancelled, CustomerNoShow:
		return true
	}
	return false
}

func (s CustomerStatus) Terminal() bool {
	switch s {
	case CustomerCompleted, CustomerCancelled, CustomerNoShow:
		return true
	}
	return false
}

// CanTransition reports whether the edge from → to exists in the entry
// state machine. Transitions are monotonic: no edge moves backward and
// none skips straight from waiting to completed.
func CanTransition(from, to CustomerStatus) bool {
	switch from {
	case CustomerWaiting:
		return to == CustomerInService || to == CustomerCancelled || to == CustomerNoShow
	case CustomerInService:
		return to == CustomerCompleted || to == CustomerCancelled || to == CustomerNoShow
	}
	return false
}

// QueueCustomer is one customer's membership in a queue. Position is
// never stored: it is derived from join ordering at read time.
type QueueCustomer struct {
	QueueCustomerID string `json:"queue_customer_id"`
	QueueID         string `json:"queue_id"`

	// UserID links a registered user. Contact fields are denormalized
	// so anonymous walk-ins work without an account.
	UserID        string `json:"user_id,omitempty"`
	CustomerName  string `json:"customer_name,omitempty"`
	CustomerPhone string `json:"customer_phone,omitempty"`
	CustomerEmail string `json:"customer_email,omitempty"`

	Status CustomerStatus `json:"status"`

	JoinedAt    time.Time  `json:"joined_at"`
	CalledAt    *time.Time `json:"called_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	PartySize int    `json:"party_size"`
	Notes     string `json:"notes,omitempty"`
}

// HasContactInfo reports whether any notification channel exists for
// the entry itself (registered-user fallback is resolved separately).
func (c QueueCustomer) HasContactInfo() bool {
	return c.CustomerEmail != "" || c.CustomerPhone != ""
}
