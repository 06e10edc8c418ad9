package queue

import (
	"context"
	"time"
)

// Contact is the resolved notification target for an entry, after
// falling back to the registered user's profile where the denormalized
// fields are empty.
type Contact struct {
	Name  string
	Email string
	Phone string
}

// WizardInput creates a queue plus, optionally, a fresh location and
// service in a single transaction. Existing ids and new specs are
// mutually exclusive per section.
type WizardInput struct {
	OrganizationID string

	ExistingLocationID string
	NewLocation        *WizardLocation

	ExistingServiceID string
	NewService        *WizardService

	Queue Queue
}

type WizardLocation struct {
	Name       string
	Address    string
	City       string
	PostalCode string
	Country    string
	Latitude   float64
	Longitude  float64
}

type WizardService struct {
	Name            string
	Description     string
	Category        string
	DurationMinutes int
}

type WizardResult struct {
	Queue              Queue  `json:"queue"`
	LocationID         string `json:"location_id"`
	LocationName       string `json:"location_name"`
	ServiceID          string `json:"service_id"`
	ServiceName        string `json:"service_name"`
	CreatedNewLocation bool   `json:"created_new_location"`
	CreatedNewService  bool   `json:"created_new_service"`
}

// Repository persists queues and their customer entries.
//
// Contract:
// - Get* return errs.NotFound on missing rows; List* exclude soft-deleted
//   queues.
// - AddCustomer enforces the accepting-state and capacity invariants
//   atomically: the status check, waiting count and insert happen under
//   one queue-row lock so concurrent joins cannot exceed max capacity.
// - The Mark* transitions are conditional compare-and-swap updates on
//   status; the returned bool reports whether this caller won. Exactly
//   one caller wins per entry.
// - NextWaiting orders by joined_at, then queue_customer_id, ascending.
type Repository interface {
	CreateQueue(ctx context.Context, q Queue) (Queue, error)
	GetQueue(ctx context.Context, queueID string) (Queue, error)
	UpdateQueue(ctx context.Context, q Queue) (Queue, error)
	// DeactivateQueue soft-deletes iff no WAITING entries remain; the
	// bool reports whether the deactivation happened.
	DeactivateQueue(ctx context.Context, queueID string, at time.Time) (bool, error)

	ListQueuesByLocation(ctx context.Context, locationID string) ([]Queue, error)
	ListQueuesByService(ctx context.Context, serviceID string) ([]Queue, error)
	ListActiveQueues(ctx context.Context, organizationID string) ([]Queue, error)
	ListQueuesByEvent(ctx context.Context, eventName string) ([]Queue, error)
	ListMobileQueues(ctx context.Context) ([]Queue, error)

	AddCustomer(ctx context.Context, entry QueueCustomer) (QueueCustomer, error)
	GetCustomer(ctx context.Context, queueCustomerID string) (QueueCustomer, error)
	// ListCustomers filters by status when status is non-empty; ordered
	// by joined_at ascending.
	ListCustomers(ctx context.Context, queueID string, status CustomerStatus) ([]QueueCustomer, error)

	// CountAhead counts WAITING peers that joined strictly earlier
	// (ties broken by queue_customer_id).
	CountAhead(ctx context.Context, entry QueueCustomer) (int, error)
	CountByStatus(ctx context.Context, queueID string, status CustomerStatus) (int, error)
	NextWaiting(ctx context.Context, queueID string) (QueueCustomer, bool, error)

	MarkCalled(ctx context.Context, queueCustomerID string, at time.Time) (QueueCustomer, bool, error)
	MarkCompleted(ctx context.Context, queueCustomerID string, at time.Time) (QueueCustomer, bool, error)
	MarkCancelled(ctx context.Context, queueCustomerID string, at time.Time) (QueueCustomer, bool, error)
	MarkNoShow(ctx context.Context, queueCustomerID string, at time.Time) (QueueCustomer, bool, error)

	// UserContact resolves a registered user's profile for notification
	// fallback.
	UserContact(ctx context.Context, userID string) (Contact, error)

	// CreateWizard creates location, service and queue as one atomic
	// unit; any failure rolls back every write.
	CreateWizard(ctx context.Context, in WizardInput) (WizardResult, error)
}
