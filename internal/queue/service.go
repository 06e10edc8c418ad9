package queue

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"sqipit/internal/audit"
	"sqipit/internal/errs"
	"sqipit/internal/notifications"
	"sqipit/internal/rbac"
	"sqipit/pkg/logger"
)

// Service composes the queue registry, the customer ledger, the quota
// ledger and the notification gateway into the externally exposed
// operations. All role logic goes through rbac predicates; all plan
// arithmetic goes through the quota ledger.
type Service struct {
	repo     Repository
	dir      DirectoryReader
	quota    QuotaLedger
	notifier NotificationGateway
	auditor  AuditTrail
	events   EventPublisher
	clock    func() time.Time
}

// Deps wires the service's collaborators. Audit and Events are optional;
// the rest are required.
type Deps struct {
	Repo      Repository
	Directory DirectoryReader
	Quota     QuotaLedger
	Notifier  NotificationGateway
	Audit     AuditTrail
	Events    EventPublisher
}

func NewService(d Deps) *Service {
	return &Service{
		repo:     d.Repo,
		dir:      d.Directory,
		quota:    d.Quota,
		notifier: d.Notifier,
		auditor:  d.Audit,
		events:   d.Events,
		clock:    time.Now,
	}
}

func (s *Service) audit(ctx context.Context, action audit.Action, p rbac.Principal, orgID, queueID, entryID, message string) {
	if s.auditor == nil {
		return
	}
	if err := s.auditor.LogQueueAction(ctx, action, orgID, p.UserID, p.Role, queueID, entryID, message); err != nil {
		logger.From(ctx).Warn("audit append failed", slog.String("error", err.Error()))
	}
}

func (s *Service) publish(ctx context.Context, t EventType, orgID, queueID, entryID string) {
	if s.events == nil {
		return
	}
	e := Event{Type: t, OrganizationID: orgID, QueueID: queueID, QueueCustomerID: entryID, At: s.clock().UTC()}
	if err := s.events.Publish(ctx, e); err != nil {
		logger.From(ctx).Warn("event publish failed",
			slog.String("type", string(t)),
			slog.String("error", err.Error()))
	}
}

type CreateQueueInput struct {
	Name                 string     `json:"name"`
	Description          string     `json:"description"`
	LocationID           string     `json:"location_id"`
	ServiceID            string     `json:"service_id"`
	MaxCapacity          int        `json:"max_capacity"`
	EstimatedServiceTime int        `json:"estimated_service_time"`
	EventName            string     `json:"event_name"`
	EventStartDate       *time.Time `json:"event_start_date"`
	EventEndDate         *time.Time `json:"event_end_date"`
	IsMobileQueue        bool       `json:"is_mobile_queue"`
}

func (s *Service) CreateQueue(ctx context.Context, p rbac.Principal, in CreateQueueInput) (Queue, error) {
	if strings.TrimSpace(in.Name) == "" {
		return Queue{}, errs.Invalid("queue name is required")
	}
	if in.MaxCapacity < 0 {
		return Queue{}, errs.Invalid("max_capacity must not be negative")
	}
	if in.EstimatedServiceTime < 0 {
		return Queue{}, errs.Invalid("estimated_service_time must not be negative")
	}

	loc, err := s.dir.Location(ctx, in.LocationID)
	if err != nil {
		return Queue{}, err
	}
	if !rbac.CanManageQueues(p, loc.OrganizationID) {
		return Queue{}, errs.Forbidden("not allowed to manage queues for this organization")
	}
	if in.ServiceID != "" {
		if _, err := s.dir.Service(ctx, in.ServiceID); err != nil {
			return Queue{}, err
		}
	}

	if err := s.quota.CanCreateQueue(ctx, loc.OrganizationID); err != nil {
		return Queue{}, err
	}

	now := s.clock().UTC()
	q := Queue{
		QueueID:              uuid.NewString(),
		OrganizationID:       loc.OrganizationID,
		LocationID:           in.LocationID,
		ServiceID:            in.ServiceID,
		Name:                 strings.TrimSpace(in.Name),
		Description:          in.Description,
		Status:               QueueActive,
		EventName:            in.EventName,
		EventStartDate:       in.EventStartDate,
		EventEndDate:         in.EventEndDate,
		IsMobileQueue:        in.IsMobileQueue,
		MaxCapacity:          in.MaxCapacity,
		EstimatedServiceTime: in.EstimatedServiceTime,
		IsActive:             true,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	q, err = s.repo.CreateQueue(ctx, q)
	if err != nil {
		return Queue{}, err
	}

	if err := s.quota.RecordQueueCreated(ctx, q.OrganizationID); err != nil {
		logger.From(ctx).Warn("quota record failed", slog.String("error", err.Error()))
	}
	s.audit(ctx, audit.ActionQueueCreated, p, q.OrganizationID, q.QueueID, "", "created queue "+q.Name)
	s.publish(ctx, EventQueueCreated, q.OrganizationID, q.QueueID, "")
	return q, nil
}

// EventQueueInput creates a queue for a one-off event, defaulting the
// name and description from the event and service.
type EventQueueInput struct {
	LocationID           string    `json:"location_id"`
	ServiceID            string    `json:"service_id"`
	EventName            string    `json:"event_name"`
	EventStartDate       time.Time `json:"event_start_date"`
	EventEndDate         time.Time `json:"event_end_date"`
	Name                 string    `json:"name"`
	Description          string    `json:"description"`
	MaxCapacity          int       `json:"max_capacity"`
	EstimatedServiceTime int       `json:"estimated_service_time"`
}

func (s *Service) CreateEventQueue(ctx context.Context, p rbac.Principal, in EventQueueInput) (Queue, error) {
	if in.EventName == "" {
		return Queue{}, errs.Invalid("event_name is required")
	}
	if !in.EventEndDate.After(in.EventStartDate) {
		return Queue{}, errs.Invalid("event_end_date must be after event_start_date")
	}

	svc, err := s.dir.Service(ctx, in.ServiceID)
	if err != nil {
		return Queue{}, err
	}
	loc, err := s.dir.Location(ctx, in.LocationID)
	if err != nil {
		return Queue{}, err
	}

	name := in.Name
	if name == "" {
		name = in.EventName + " - " + svc.Name
	}
	description := in.Description
	if description == "" {
		description = "Queue for " + in.EventName + " at " + loc.Name
	}

	return s.CreateQueue(ctx, p, CreateQueueInput{
		Name:                 name,
		Description:          description,
		LocationID:           in.LocationID,
		ServiceID:            in.ServiceID,
		MaxCapacity:          in.MaxCapacity,
		EstimatedServiceTime: in.EstimatedServiceTime,
		EventName:            in.EventName,
		EventStartDate:       &in.EventStartDate,
		EventEndDate:         &in.EventEndDate,
		IsMobileQueue:        true,
	})
}

func (s *Service) GetQueue(ctx context.Context, queueID string) (Queue, error) {
	return s.repo.GetQueue(ctx, queueID)
}

// UpdateQueueInput applies only the fields explicitly present: a nil
// pointer means "leave unchanged", not "clear".
type UpdateQueueInput struct {
	Name                 *string      `json:"name"`
	Description          *string      `json:"description"`
	Status               *QueueStatus `json:"status"`
	ServiceID            *string      `json:"service_id"`
	EventName            *string      `json:"event_name"`
	MaxCapacity          *int         `json:"max_capacity"`
	EstimatedServiceTime *int         `json:"estimated_service_time"`
	IsMobileQueue        *bool        `json:"is_mobile_queue"`
}

func (s *Service) UpdateQueue(ctx context.Context, p rbac.Principal, queueID string, in UpdateQueueInput) (Queue, error) {
	q, err := s.repo.GetQueue(ctx, queueID)
	if err != nil {
		return Queue{}, err
	}
	if !rbac.CanManageQueues(p, q.OrganizationID) {
		return Queue{}, errs.Forbidden("not allowed to manage this queue")
	}

	if in.Name != nil {
		if strings.TrimSpace(*in.Name) == "" {
			return Queue{}, errs.Invalid("queue name must not be empty")
		}
		q.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		q.Description = *in.Description
	}
	if in.Status != nil {
		if !in.Status.Valid() {
			return Queue{}, errs.Invalid("unknown queue status %q", *in.Status)
		}
		q.Status = *in.Status
	}
	if in.ServiceID != nil {
		if *in.ServiceID != "" {
			if _, err := s.dir.Service(ctx, *in.ServiceID); err != nil {
				return Queue{}, err
			}
		}
		q.ServiceID = *in.ServiceID
	}
	if in.EventName != nil {
		q.EventName = *in.EventName
	}
	if in.MaxCapacity != nil {
		if *in.MaxCapacity < 0 {
			return Queue{}, errs.Invalid("max_capacity must not be negative")
		}
		q.MaxCapacity = *in.MaxCapacity
	}
	if in.EstimatedServiceTime != nil {
		if *in.EstimatedServiceTime < 0 {
			return Queue{}, errs.Invalid("estimated_service_time must not be negative")
		}
		q.EstimatedServiceTime = *in.EstimatedServiceTime
	}
	if in.IsMobileQueue != nil {
		q.IsMobileQueue = *in.IsMobileQueue
	}

	q.UpdatedAt = s.clock().UTC()
	q, err = s.repo.UpdateQueue(ctx, q)
	if err != nil {
		return Queue{}, err
	}
	s.audit(ctx, audit.ActionQueueUpdated, p, q.OrganizationID, q.QueueID, "", "updated queue "+q.Name)
	return q, nil
}

// DeactivateQueue soft-deletes a queue. Refused while any customer is
// still waiting: they must be called or cancelled first.
func (s *Service) DeactivateQueue(ctx context.Context, p rbac.Principal, queueID string) (Queue, error) {
	q, err := s.repo.GetQueue(ctx, queueID)
	if err != nil {
		return Queue{}, err
	}
	if !rbac.CanManageQueues(p, q.OrganizationID) {
		return Queue{}, errs.Forbidden("not allowed to manage this queue")
	}

	ok, err := s.repo.DeactivateQueue(ctx, queueID, s.clock().UTC())
	if err != nil {
		return Queue{}, err
	}
	if !ok {
		return Queue{}, errs.Conflict("cannot deactivate queue with waiting customers")
	}

	q, err = s.repo.GetQueue(ctx, queueID)
	if err != nil {
		return Queue{}, err
	}
	s.audit(ctx, audit.ActionQueueDeactivated, p, q.OrganizationID, q.QueueID, "", "deactivated queue "+q.Name)
	s.publish(ctx, EventQueueDeactivated, q.OrganizationID, q.QueueID, "")
	return q, nil
}

func (s *Service) ListQueuesByLocation(ctx context.Context, locationID string) ([]Queue, error) {
	return s.repo.ListQueuesByLocation(ctx, locationID)
}

func (s *Service) ListQueuesByService(ctx context.Context, serviceID string) ([]Queue, error) {
	return s.repo.ListQueuesByService(ctx, serviceID)
}

func (s *Service) ListActiveQueues(ctx context.Context, organizationID string) ([]Queue, error) {
	return s.repo.ListActiveQueues(ctx, organizationID)
}

func (s *Service) ListQueuesByEvent(ctx context.Context, eventName string) ([]Queue, error) {
	return s.repo.ListQueuesByEvent(ctx, eventName)
}

func (s *Service) ListMobileQueues(ctx context.Context) ([]Queue, error) {
	return s.repo.ListMobileQueues(ctx)
}

// StatusSummary is the public live snapshot of a queue.
type StatusSummary struct {
	QueueID              string      `json:"queue_id"`
	Name                 string      `json:"name"`
	Status               QueueStatus `json:"status"`
	CurrentSize          int         `json:"current_size"`
	WaitingCustomers     int         `json:"waiting_customers"`
	AverageWaitMinutes   *int        `json:"average_wait_minutes,omitempty"`
	IsAcceptingCustomers bool        `json:"is_accepting_customers"`
}

func (s *Service) QueueStatus(ctx context.Context, queueID string) (StatusSummary, error) {
	q, err := s.repo.GetQueue(ctx, queueID)
	if err != nil {
		return StatusSummary{}, err
	}

	waiting, err := s.repo.CountByStatus(ctx, queueID, CustomerWaiting)
	if err != nil {
		return StatusSummary{}, err
	}
	inService, err := s.repo.CountByStatus(ctx, queueID, CustomerInService)
	if err != nil {
		return StatusSummary{}, err
	}

	var avgWait *int
	if q.EstimatedServiceTime > 0 && waiting > 0 {
		w := q.EstimatedServiceTime * waiting
		avgWait = &w
	}

	return StatusSummary{
		QueueID:              q.QueueID,
		Name:                 q.Name,
		Status:               q.Status,
		CurrentSize:          waiting + inService,
		WaitingCustomers:     waiting,
		AverageWaitMinutes:   avgWait,
		IsAcceptingCustomers: q.AcceptsCustomers(),
	}, nil
}

type AddCustomerInput struct {
	UserID        string `json:"user_id"`
	CustomerName  string `json:"customer_name"`
	CustomerPhone string `json:"customer_phone"`
	CustomerEmail string `json:"customer_email"`
	PartySize     int    `json:"party_size"`
	Notes         string `json:"notes"`
}

// JoinResult is the created entry plus its derived position.
type JoinResult struct {
	Entry                QueueCustomer `json:"entry"`
	Position             int           `json:"position"`
	EstimatedWaitMinutes *int          `json:"estimated_wait_minutes,omitempty"`
}

// AddCustomer adds a customer to a queue. Open to anonymous callers.
// The "joined queue" SMS is best-effort: quota exhaustion or provider
// failure is logged and never rejects the join.
func (s *Service) AddCustomer(ctx context.Context, queueID string, in AddCustomerInput) (JoinResult, error) {
	q, err := s.repo.GetQueue(ctx, queueID)
	if err != nil {
		return JoinResult{}, err
	}
	if !q.AcceptsCustomers() {
		return JoinResult{}, errs.Conflict("queue is not accepting new customers")
	}

	if in.UserID == "" && strings.TrimSpace(in.CustomerName) == "" {
		return JoinResult{}, errs.Invalid("either user_id or customer_name must be provided")
	}
	if in.PartySize == 0 {
		in.PartySize = 1
	}
	if in.PartySize < 1 {
		return JoinResult{}, errs.Invalid("party_size must be at least 1")
	}

	entry := QueueCustomer{
		QueueCustomerID: uuid.NewString(),
		QueueID:         queueID,
		UserID:          in.UserID,
		CustomerName:    strings.TrimSpace(in.CustomerName),
		CustomerPhone:   in.CustomerPhone,
		CustomerEmail:   in.CustomerEmail,
		Status:          CustomerWaiting,
		JoinedAt:        s.clock().UTC(),
		PartySize:       in.PartySize,
		Notes:           in.Notes,
	}
	entry, err = s.repo.AddCustomer(ctx, entry)
	if err != nil {
		return JoinResult{}, err
	}

	ahead, err := s.repo.CountAhead(ctx, entry)
	if err != nil {
		return JoinResult{}, err
	}
	position := ahead + 1

	var estWait *int
	estimatedWait := "Unknown"
	if q.EstimatedServiceTime > 0 {
		w := q.EstimatedServiceTime * (position - 1)
		estWait = &w
		estimatedWait = formatMinutes(w)
	}

	if entry.CustomerPhone != "" {
		s.sendJoinedSMS(ctx, q, entry, position, estimatedWait)
	}
	s.publish(ctx, EventCustomerJoined, q.OrganizationID, q.QueueID, entry.QueueCustomerID)

	return JoinResult{Entry: entry, Position: position, EstimatedWaitMinutes: estWait}, nil
}

func (s *Service) sendJoinedSMS(ctx context.Context, q Queue, entry QueueCustomer, position int, estimatedWait string) {
	log := logger.From(ctx)
	if err := s.quota.CanSendSMS(ctx, q.OrganizationID, 1); err != nil {
		log.Warn("joined SMS skipped", slog.String("reason", err.Error()))
		return
	}
	res, err := s.notifier.SendQueueJoinedSMS(ctx, entry.CustomerPhone, nameOrDefault(entry.CustomerName), q.Name, position, estimatedWait)
	if err != nil {
		log.Warn("joined SMS failed", slog.String("error", err.Error()))
		return
	}
	if res.Status != notifications.StatusSent {
		log.Warn("joined SMS failed", slog.String("error", res.Error))
		return
	}
	if err := s.quota.UseSMSCredits(ctx, q.OrganizationID, 1); err != nil {
		log.Warn("sms credit consume failed", slog.String("error", err.Error()))
	}
}

// PositionInfo is the customer-facing answer to "where am I?".
type PositionInfo struct {
	QueueCustomerID      string         `json:"queue_customer_id"`
	QueueID              string         `json:"queue_id"`
	QueueName            string         `json:"queue_name"`
	Status               CustomerStatus `json:"status"`
	Position             *int           `json:"position,omitempty"`
	AheadInQueue         *int           `json:"ahead_in_queue,omitempty"`
	EstimatedWaitMinutes *int           `json:"estimated_wait_minutes,omitempty"`
	StatusMessage        string         `json:"status_message"`
	CustomerName         string         `json:"customer_name,omitempty"`
	CustomerEmail        string         `json:"customer_email,omitempty"`
	CustomerPhone        string         `json:"customer_phone,omitempty"`
	PartySize            int            `json:"party_size"`
}

func (s *Service) GetPosition(ctx context.Context, queueCustomerID string) (PositionInfo, error) {
	entry, err := s.repo.GetCustomer(ctx, queueCustomerID)
	if err != nil {
		return PositionInfo{}, err
	}
	q, err := s.repo.GetQueue(ctx, entry.QueueID)
	if err != nil {
		return PositionInfo{}, err
	}

	contact := s.resolveContact(ctx, entry)
	info := PositionInfo{
		QueueCustomerID: entry.QueueCustomerID,
		QueueID:         q.QueueID,
		QueueName:       q.Name,
		Status:          entry.Status,
		CustomerName:    contact.Name,
		CustomerEmail:   contact.Email,
		CustomerPhone:   contact.Phone,
		PartySize:       entry.PartySize,
	}

	switch entry.Status {
	case CustomerWaiting:
		ahead, err := s.repo.CountAhead(ctx, entry)
		if err != nil {
			return PositionInfo{}, err
		}
		position := ahead + 1
		info.Position = &position
		info.AheadInQueue = &ahead
		if q.EstimatedServiceTime > 0 {
			w := q.EstimatedServiceTime * ahead
			info.EstimatedWaitMinutes = &w
		}
		info.StatusMessage = "You are #" + strconv.Itoa(position) + " in line. " + strconv.Itoa(ahead) + " people ahead of you."
	case CustomerInService:
		zero := 0
		info.EstimatedWaitMinutes = &zero
		info.StatusMessage = "You have been called! It's your turn - please proceed to the service area."
	case CustomerCompleted:
		info.StatusMessage = "Your service has been completed. Thank you!"
	case CustomerCancelled:
		info.StatusMessage = "Your queue entry has been cancelled."
	case CustomerNoShow:
		info.StatusMessage = "You were called but did not respond. Your queue entry has been marked as no-show."
	default:
		info.StatusMessage = "Your current status: " + string(entry.Status)
	}
	return info, nil
}

// resolveContact merges the entry's denormalized contact fields with the
// registered user's profile, entry fields winning.
func (s *Service) resolveContact(ctx context.Context, entry QueueCustomer) Contact {
	c := Contact{Name: entry.CustomerName, Email: entry.CustomerEmail, Phone: entry.CustomerPhone}
	if entry.UserID == "" || (c.Name != "" && c.Email != "" && c.Phone != "") {
		return c
	}
	profile, err := s.repo.UserContact(ctx, entry.UserID)
	if err != nil {
		return c
	}
	if c.Name == "" {
		c.Name = profile.Name
	}
	if c.Email == "" {
		c.Email = profile.Email
	}
	if c.Phone == "" {
		c.Phone = profile.Phone
	}
	return c
}

// CallNext advances the earliest-waiting customer to in-service. The
// bool reports whether any customer was waiting; an empty queue is not
// an error.
func (s *Service) CallNext(ctx context.Context, p rbac.Principal, queueID string) (QueueCustomer, bool, error) {
	q, err := s.repo.GetQueue(ctx, queueID)
	if err != nil {
		return QueueCustomer{}, false, err
	}
	if !rbac.CanOperateQueue(p, q.OrganizationID) {
		return QueueCustomer{}, false, errs.Forbidden("not allowed to operate this queue")
	}

	entry, found, err := s.repo.NextWaiting(ctx, queueID)
	if err != nil {
		return QueueCustomer{}, false, err
	}
	if !found {
		return QueueCustomer{}, false, nil
	}

	called, err := s.callEntry(ctx, p, q, entry)
	if err != nil {
		return QueueCustomer{}, true, err
	}
	return called, true, nil
}

// CallByID runs the call protocol against a specific waiting entry.
func (s *Service) CallByID(ctx context.Context, p rbac.Principal, queueCustomerID string) (QueueCustomer, error) {
	entry, err := s.repo.GetCustomer(ctx, queueCustomerID)
	if err != nil {
		return QueueCustomer{}, err
	}
	q, err := s.repo.GetQueue(ctx, entry.QueueID)
	if err != nil {
		return QueueCustomer{}, err
	}
	if !rbac.CanOperateQueue(p, q.OrganizationID) {
		return QueueCustomer{}, errs.Forbidden("not allowed to operate this queue")
	}
	if entry.Status != CustomerWaiting {
		return QueueCustomer{}, errs.Invalid("customer is not in waiting status")
	}
	return s.callEntry(ctx, p, q, entry)
}

// callEntry is the notify-before-transition protocol:
//
//  1. attempt every available channel (email unmetered, SMS gated by
//     credits) before touching status;
//  2. if any channel got through, or the customer has no contact info at
//     all, compare-and-swap waiting -> in_service;
//  3. if contact info exists but every attempt failed, leave the entry
//     WAITING and surface an internal error so the call can be retried.
func (s *Service) callEntry(ctx context.Context, p rbac.Principal, q Queue, entry QueueCustomer) (QueueCustomer, error) {
	log := logger.From(ctx)
	contact := s.resolveContact(ctx, entry)

	locationName := q.Name
	if loc, err := s.dir.Location(ctx, q.LocationID); err == nil {
		locationName = loc.Name
	}

	var emailSent, smsSent bool
	var channelErrors []string

	if contact.Email != "" {
		res, err := s.notifier.SendNextInLineEmail(ctx, contact.Email, nameOrDefault(contact.Name), q.Name, locationName)
		switch {
		case err != nil:
			channelErrors = append(channelErrors, "Email failed: "+err.Error())
		case res.Status != notifications.StatusSent:
			channelErrors = append(channelErrors, "Email failed: "+res.Error)
		default:
			emailSent = true
			if err := s.quota.TrackEmailSent(ctx, q.OrganizationID, 1); err != nil {
				log.Warn("email quota track failed", slog.String("error", err.Error()))
			}
		}
	}

	if contact.Phone != "" {
		if err := s.quota.CanSendSMS(ctx, q.OrganizationID, 1); err != nil {
			channelErrors = append(channelErrors, "Cannot send SMS: "+err.Error())
		} else {
			res, err := s.notifier.SendNextInLineSMS(ctx, contact.Phone, nameOrDefault(contact.Name), q.Name, locationName)
			switch {
			case err != nil:
				channelErrors = append(channelErrors, "SMS failed: "+err.Error())
			case res.Status != notifications.StatusSent:
				channelErrors = append(channelErrors, "SMS failed: "+res.Error)
			default:
				smsSent = true
				if err := s.quota.UseSMSCredits(ctx, q.OrganizationID, 1); err != nil {
					log.Warn("sms credit consume failed", slog.String("error", err.Error()))
				}
			}
		}
	}

	if !emailSent && !smsSent && (contact.Email != "" || contact.Phone != "") {
		// Status stays WAITING; the operation is safely retriable.
		return QueueCustomer{}, errs.Internal("failed to notify customer %s: %s",
			nameOrDefault(contact.Name), strings.Join(channelErrors, "; "))
	}

	called, won, err := s.repo.MarkCalled(ctx, entry.QueueCustomerID, s.clock().UTC())
	if err != nil {
		return QueueCustomer{}, err
	}
	if !won {
		return QueueCustomer{}, errs.Conflict("customer %s was already called", entry.QueueCustomerID)
	}

	log.Info("customer called",
		slog.String("queue_id", q.QueueID),
		slog.String("queue_customer_id", called.QueueCustomerID),
		slog.Bool("email_sent", emailSent),
		slog.Bool("sms_sent", smsSent))

	s.audit(ctx, audit.ActionCustomerCalled, p, q.OrganizationID, q.QueueID, called.QueueCustomerID, "called customer")
	s.publish(ctx, EventCustomerCalled, q.OrganizationID, q.QueueID, called.QueueCustomerID)
	s.notifyUpNext(ctx, q)
	return called, nil
}

// notifyUpNext gives the customer who just moved to the front of the
// line a heads-up that they are next. Best-effort: failures are logged
// and never affect the call that triggered them.
func (s *Service) notifyUpNext(ctx context.Context, q Queue) {
	log := logger.From(ctx)
	next, found, err := s.repo.NextWaiting(ctx, q.QueueID)
	if err != nil {
		log.Warn("up-next lookup failed", slog.String("error", err.Error()))
		return
	}
	if !found {
		return
	}
	contact := s.resolveContact(ctx, next)
	estimatedWait := formatMinutes(q.EstimatedServiceTime)

	if contact.Email != "" {
		res, err := s.notifier.SendAlmostYourTurnEmail(ctx, contact.Email, nameOrDefault(contact.Name), q.Name, 1, estimatedWait)
		switch {
		case err != nil:
			log.Warn("up-next email failed", slog.String("error", err.Error()))
		case res.Status != notifications.StatusSent:
			log.Warn("up-next email failed", slog.String("error", res.Error))
		default:
			if err := s.quota.TrackEmailSent(ctx, q.OrganizationID, 1); err != nil {
				log.Warn("email quota track failed", slog.String("error", err.Error()))
			}
		}
	}

	if contact.Phone == "" {
		return
	}
	if err := s.quota.CanSendSMS(ctx, q.OrganizationID, 1); err != nil {
		log.Warn("up-next SMS skipped", slog.String("reason", err.Error()))
		return
	}
	res, err := s.notifier.SendAlmostYourTurnSMS(ctx, contact.Phone, nameOrDefault(contact.Name), q.Name, 1, estimatedWait)
	if err != nil {
		log.Warn("up-next SMS failed", slog.String("error", err.Error()))
		return
	}
	if res.Status != notifications.StatusSent {
		log.Warn("up-next SMS failed", slog.String("error", res.Error))
		return
	}
	if err := s.quota.UseSMSCredits(ctx, q.OrganizationID, 1); err != nil {
		log.Warn("sms credit consume failed", slog.String("error", err.Error()))
	}
}

// Complete moves an in-service customer to completed. Repeat calls are
// rejected with a conflict, not swallowed.
func (s *Service) Complete(ctx context.Context, p rbac.Principal, queueCustomerID string) (QueueCustomer, error) {
	entry, err := s.repo.GetCustomer(ctx, queueCustomerID)
	if err != nil {
		return QueueCustomer{}, err
	}
	q, err := s.repo.GetQueue(ctx, entry.QueueID)
	if err != nil {
		return QueueCustomer{}, err
	}
	if !rbac.CanOperateQueue(p, q.OrganizationID) {
		return QueueCustomer{}, errs.Forbidden("not allowed to operate this queue")
	}

	done, won, err := s.repo.MarkCompleted(ctx, queueCustomerID, s.clock().UTC())
	if err != nil {
		return QueueCustomer{}, err
	}
	if !won {
		return QueueCustomer{}, errs.Conflict("customer %s is not in service", queueCustomerID)
	}

	s.audit(ctx, audit.ActionCustomerCompleted, p, q.OrganizationID, q.QueueID, done.QueueCustomerID, "completed customer")
	s.publish(ctx, EventCustomerCompleted, q.OrganizationID, q.QueueID, done.QueueCustomerID)
	return done, nil
}

// Cancel removes a live entry from the line. The owning registered user
// may cancel their own entry; staff may cancel anything in their
// organization; unowned entries stay anonymously cancellable so public
// cancel links keep working.
func (s *Service) Cancel(ctx context.Context, p rbac.Principal, queueCustomerID string) (QueueCustomer, error) {
	entry, err := s.repo.GetCustomer(ctx, queueCustomerID)
	if err != nil {
		return QueueCustomer{}, err
	}
	q, err := s.repo.GetQueue(ctx, entry.QueueID)
	if err != nil {
		return QueueCustomer{}, err
	}
	if !rbac.CanCancelEntry(p, q.OrganizationID, entry.UserID) {
		return QueueCustomer{}, errs.Forbidden("not allowed to cancel this entry")
	}

	cancelled, won, err := s.repo.MarkCancelled(ctx, queueCustomerID, s.clock().UTC())
	if err != nil {
		return QueueCustomer{}, err
	}
	if !won {
		return QueueCustomer{}, errs.Conflict("customer %s cannot be cancelled", queueCustomerID)
	}

	s.audit(ctx, audit.ActionCustomerCancelled, p, q.OrganizationID, q.QueueID, cancelled.QueueCustomerID, "cancelled entry")
	s.publish(ctx, EventCustomerCancelled, q.OrganizationID, q.QueueID, cancelled.QueueCustomerID)
	return cancelled, nil
}

// MarkNoShow flags a called (or still waiting) customer who never
// showed up.
func (s *Service) MarkNoShow(ctx context.Context, p rbac.Principal, queueCustomerID string) (QueueCustomer, error) {
	entry, err := s.repo.GetCustomer(ctx, queueCustomerID)
	if err != nil {
		return QueueCustomer{}, err
	}
	q, err := s.repo.GetQueue(ctx, entry.QueueID)
	if err != nil {
		return QueueCustomer{}, err
	}
	if !rbac.CanOperateQueue(p, q.OrganizationID) {
		return QueueCustomer{}, errs.Forbidden("not allowed to operate this queue")
	}

	noShow, won, err := s.repo.MarkNoShow(ctx, queueCustomerID, s.clock().UTC())
	if err != nil {
		return QueueCustomer{}, err
	}
	if !won {
		return QueueCustomer{}, errs.Conflict("customer %s cannot be marked no-show", queueCustomerID)
	}

	s.audit(ctx, audit.ActionCustomerNoShow, p, q.OrganizationID, q.QueueID, noShow.QueueCustomerID, "marked no-show")
	s.publish(ctx, EventCustomerNoShow, q.OrganizationID, q.QueueID, noShow.QueueCustomerID)
	return noShow, nil
}

// ListCustomers returns a queue's entries ordered by join time,
// optionally filtered by status.
func (s *Service) ListCustomers(ctx context.Context, queueID string, status CustomerStatus) ([]QueueCustomer, error) {
	if status != "" && !status.Valid() {
		return nil, errs.Invalid("unknown customer status %q", status)
	}
	if _, err := s.repo.GetQueue(ctx, queueID); err != nil {
		return nil, err
	}
	return s.repo.ListCustomers(ctx, queueID, status)
}

// WizardRequest creates a queue plus, optionally, a new location and
// service in one atomic operation.
type WizardRequest struct {
	Location struct {
		UseExisting        bool            `json:"use_existing"`
		ExistingLocationID string          `json:"existing_location_id"`
		NewLocation        *WizardLocation `json:"new_location"`
	} `json:"location"`
	Service struct {
		UseExisting       bool           `json:"use_existing"`
		ExistingServiceID string         `json:"existing_service_id"`
		NewService        *WizardService `json:"new_service"`
	} `json:"service"`
	Queue struct {
		Name                 string `json:"name"`
		Description          string `json:"description"`
		MaxCapacity          int    `json:"max_capacity"`
		EstimatedServiceTime int    `json:"estimated_service_time"`
	} `json:"queue"`
}

func (s *Service) CreateQueueWizard(ctx context.Context, p rbac.Principal, req WizardRequest) (WizardResult, error) {
	if p.OrganizationID == "" {
		return WizardResult{}, errs.Invalid("caller must belong to an organization to create queues")
	}
	if !rbac.CanManageQueues(p, p.OrganizationID) {
		return WizardResult{}, errs.Forbidden("not allowed to manage queues for this organization")
	}
	if strings.TrimSpace(req.Queue.Name) == "" {
		return WizardResult{}, errs.Invalid("queue name is required")
	}

	in := WizardInput{OrganizationID: p.OrganizationID}
	if req.Location.UseExisting {
		if req.Location.ExistingLocationID == "" {
			return WizardResult{}, errs.Invalid("existing location id is required when use_existing is true")
		}
		in.ExistingLocationID = req.Location.ExistingLocationID
	} else {
		if req.Location.NewLocation == nil {
			return WizardResult{}, errs.Invalid("new location data is required when use_existing is false")
		}
		in.NewLocation = req.Location.NewLocation
	}
	if req.Service.UseExisting {
		if req.Service.ExistingServiceID == "" {
			return WizardResult{}, errs.Invalid("existing service id is required when use_existing is true")
		}
		in.ExistingServiceID = req.Service.ExistingServiceID
	} else {
		if req.Service.NewService == nil {
			return WizardResult{}, errs.Invalid("new service data is required when use_existing is false")
		}
		in.NewService = req.Service.NewService
	}

	if err := s.quota.CanCreateQueue(ctx, p.OrganizationID); err != nil {
		return WizardResult{}, err
	}

	now := s.clock().UTC()
	in.Queue = Queue{
		QueueID:              uuid.NewString(),
		OrganizationID:       p.OrganizationID,
		Name:                 strings.TrimSpace(req.Queue.Name),
		Description:          req.Queue.Description,
		Status:               QueueActive,
		MaxCapacity:          req.Queue.MaxCapacity,
		EstimatedServiceTime: req.Queue.EstimatedServiceTime,
		IsActive:             true,
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	res, err := s.repo.CreateWizard(ctx, in)
	if err != nil {
		return WizardResult{}, err
	}

	if err := s.quota.RecordQueueCreated(ctx, p.OrganizationID); err != nil {
		logger.From(ctx).Warn("quota record failed", slog.String("error", err.Error()))
	}
	s.audit(ctx, audit.ActionQueueCreated, p, p.OrganizationID, res.Queue.QueueID, "", "created queue via wizard")
	s.publish(ctx, EventQueueCreated, p.OrganizationID, res.Queue.QueueID, "")
	return res, nil
}

func nameOrDefault(name string) string {
	if name == "" {
		return "Customer"
	}
	return name
}

func formatMinutes(m int) string {
	return strconv.Itoa(m) + " minutes"
}
