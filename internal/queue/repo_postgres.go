package queue

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"sqipit/internal/errs"
	"sqipit/pkg/utils"
)

// PostgresRepo persists queues and entries.
//
// Concurrency notes:
// - AddCustomer locks the queue row FOR UPDATE, then counts and inserts,
//   so capacity can never be exceeded by concurrent joins.
// - Mark* use conditional UPDATE ... WHERE status = ... RETURNING; the
//   row version that commits decides the single winner.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

const queueColumns = `queue_id, organization_id, location_id, service_id, name, description, status,
event_name, event_start_date, event_end_date, is_mobile_queue,
max_capacity, estimated_service_time, is_active, created_at, updated_at`

func scanQueue(row interface{ Scan(...any) error }) (Queue, error) {
	var q Queue
	var serviceID sql.NullString
	err := row.Scan(
		&q.QueueID,
		&q.OrganizationID,
		&q.LocationID,
		&serviceID,
		&q.Name,
		&q.Description,
		&q.Status,
		&q.EventName,
		&q.EventStartDate,
		&q.EventEndDate,
		&q.IsMobileQueue,
		&q.MaxCapacity,
		&q.EstimatedServiceTime,
		&q.IsActive,
		&q.CreatedAt,
		&q.UpdatedAt,
	)
	q.ServiceID = serviceID.String
	return q, err
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func (r *PostgresRepo) CreateQueue(ctx context.Context, q Queue) (Queue, error) {
	const stmt = `
INSERT INTO queues (` + queueColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
`
	_, err := r.db.ExecContext(ctx, stmt,
		q.QueueID, q.OrganizationID, q.LocationID, nullString(q.ServiceID),
		q.Name, q.Description, q.Status,
		q.EventName, q.EventStartDate, q.EventEndDate, q.IsMobileQueue,
		q.MaxCapacity, q.EstimatedServiceTime, q.IsActive, q.CreatedAt, q.UpdatedAt,
	)
	if err != nil {
		return Queue{}, err
	}
	return q, nil
}

func (r *PostgresRepo) GetQueue(ctx context.Context, queueID string) (Queue, error) {
	const stmt = `
SELECT ` + queueColumns + `
FROM queues
WHERE queue_id = $1
`
	q, err := scanQueue(r.db.QueryRowContext(ctx, stmt, queueID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Queue{}, errs.NotFound("queue %s not found", queueID)
		}
		return Queue{}, err
	}
	return q, nil
}

func (r *PostgresRepo) UpdateQueue(ctx context.Context, q Queue) (Queue, error) {
	const stmt = `
UPDATE queues
SET name = $2, description = $3, status = $4, service_id = $5,
    event_name = $6, event_start_date = $7, event_end_date = $8, is_mobile_queue = $9,
    max_capacity = $10, estimated_service_time = $11, updated_at = $12
WHERE queue_id = $1
`
	res, err := r.db.ExecContext(ctx, stmt,
		q.QueueID, q.Name, q.Description, q.Status, nullString(q.ServiceID),
		q.EventName, q.EventStartDate, q.EventEndDate, q.IsMobileQueue,
		q.MaxCapacity, q.EstimatedServiceTime, q.UpdatedAt,
	)
	if err != nil {
		return Queue{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return Queue{}, errs.NotFound("queue %s not found", q.QueueID)
	}
	return q, nil
}

func (r *PostgresRepo) DeactivateQueue(ctx context.Context, queueID string, at time.Time) (bool, error) {
	const stmt = `
UPDATE queues
SET is_active = FALSE, updated_at = $2
WHERE queue_id = $1
  AND NOT EXISTS (
        SELECT 1 FROM queue_customers
        WHERE queue_id = $1 AND status = 'waiting'
  )
`
	res, err := r.db.ExecContext(ctx, stmt, queueID, at)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *PostgresRepo) listQueues(ctx context.Context, stmt string, args ...any) ([]Queue, error) {
	rows, err := r.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Queue, 0)
	for rows.Next() {
		q, err := scanQueue(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) ListQueuesByLocation(ctx context.Context, locationID string) ([]Queue, error) {
	return r.listQueues(ctx, `
SELECT `+queueColumns+`
FROM queues
WHERE location_id = $1 AND is_active
ORDER BY created_at
`, locationID)
}

func (r *PostgresRepo) ListQueuesByService(ctx context.Context, serviceID string) ([]Queue, error) {
	return r.listQueues(ctx, `
SELECT `+queueColumns+`
FROM queues
WHERE service_id = $1 AND is_active
ORDER BY created_at
`, serviceID)
}

func (r *PostgresRepo) ListActiveQueues(ctx context.Context, organizationID string) ([]Queue, error) {
	return r.listQueues(ctx, `
SELECT `+queueColumns+`
FROM queues
WHERE organization_id = $1 AND is_active AND status = 'active'
ORDER BY created_at
`, organizationID)
}

func (r *PostgresRepo) ListQueuesByEvent(ctx context.Context, eventName string) ([]Queue, error) {
	return r.listQueues(ctx, `
SELECT `+queueColumns+`
FROM queues
WHERE event_name = $1 AND is_active
ORDER BY created_at
`, eventName)
}

func (r *PostgresRepo) ListMobileQueues(ctx context.Context) ([]Queue, error) {
	return r.listQueues(ctx, `
SELECT `+queueColumns+`
FROM queues
WHERE is_mobile_queue AND is_active
ORDER BY created_at
`)
}

const customerColumns = `queue_customer_id, queue_id, user_id, customer_name, customer_phone, customer_email,
status, joined_at, called_at, completed_at, party_size, notes`

func scanCustomer(row interface{ Scan(...any) error }) (QueueCustomer, error) {
	var c QueueCustomer
	var userID sql.NullString
	err := row.Scan(
		&c.QueueCustomerID,
		&c.QueueID,
		&userID,
		&c.CustomerName,
		&c.CustomerPhone,
		&c.CustomerEmail,
		&c.Status,
		&c.JoinedAt,
		&c.CalledAt,
		&c.CompletedAt,
		&c.PartySize,
		&c.Notes,
	)
	c.UserID = userID.String
	return c, err
}

func (r *PostgresRepo) AddCustomer(ctx context.Context, entry QueueCustomer) (QueueCustomer, error) {
	err := utils.WithTx(ctx, r.db, nil, func(ctx context.Context, tx *sql.Tx) error {
		// Lock the queue row to serialize concurrent joins per queue.
		const lockStmt = `
SELECT status, is_active, max_capacity
FROM queues
WHERE queue_id = $1
FOR UPDATE
`
		var status QueueStatus
		var isActive bool
		var maxCapacity int
		if err := tx.QueryRowContext(ctx, lockStmt, entry.QueueID).Scan(&status, &isActive, &maxCapacity); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return errs.NotFound("queue %s not found", entry.QueueID)
			}
			return err
		}
		if !isActive || status != QueueActive {
			return errs.Conflict("queue is not accepting new customers")
		}

		if maxCapacity > 0 {
			const countStmt = `
SELECT count(*) FROM queue_customers
WHERE queue_id = $1 AND status = 'waiting'
`
			var waiting int
			if err := tx.QueryRowContext(ctx, countStmt, entry.QueueID).Scan(&waiting); err != nil {
				return err
			}
			if waiting >= maxCapacity {
				return errs.Conflict("queue is at maximum capacity")
			}
		}

		const insertStmt = `
INSERT INTO queue_customers (` + customerColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
`
		_, err := tx.ExecContext(ctx, insertStmt,
			entry.QueueCustomerID, entry.QueueID, nullString(entry.UserID),
			entry.CustomerName, entry.CustomerPhone, entry.CustomerEmail,
			entry.Status, entry.JoinedAt, entry.CalledAt, entry.CompletedAt,
			entry.PartySize, entry.Notes,
		)
		return err
	})
	if err != nil {
		return QueueCustomer{}, err
	}
	return entry, nil
}

func (r *PostgresRepo) GetCustomer(ctx context.Context, queueCustomerID string) (QueueCustomer, error) {
	const stmt = `
SELECT ` + customerColumns + `
FROM queue_customers
WHERE queue_customer_id = $1
`
	c, err := scanCustomer(r.db.QueryRowContext(ctx, stmt, queueCustomerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return QueueCustomer{}, errs.NotFound("queue customer %s not found", queueCustomerID)
		}
		return QueueCustomer{}, err
	}
	return c, nil
}

func (r *PostgresRepo) ListCustomers(ctx context.Context, queueID string, status CustomerStatus) ([]QueueCustomer, error) {
	const stmt = `
SELECT ` + customerColumns + `
FROM queue_customers
WHERE queue_id = $1 AND ($2 = '' OR status = $2)
ORDER BY joined_at, queue_customer_id
`
	rows, err := r.db.QueryContext(ctx, stmt, queueID, string(status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]QueueCustomer, 0)
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) CountAhead(ctx context.Context, entry QueueCustomer) (int, error) {
	const stmt = `
SELECT count(*) FROM queue_customers
WHERE queue_id = $1 AND status = 'waiting'
  AND (joined_at < $2 OR (joined_at = $2 AND queue_customer_id < $3))
`
	var n int
	err := r.db.QueryRowContext(ctx, stmt, entry.QueueID, entry.JoinedAt, entry.QueueCustomerID).Scan(&n)
	return n, err
}

func (r *PostgresRepo) CountByStatus(ctx context.Context, queueID string, status CustomerStatus) (int, error) {
	const stmt = `
SELECT count(*) FROM queue_customers
WHERE queue_id = $1 AND status = $2
`
	var n int
	err := r.db.QueryRowContext(ctx, stmt, queueID, status).Scan(&n)
	return n, err
}

func (r *PostgresRepo) NextWaiting(ctx context.Context, queueID string) (QueueCustomer, bool, error) {
	const stmt = `
SELECT ` + customerColumns + `
FROM queue_customers
WHERE queue_id = $1 AND status = 'waiting'
ORDER BY joined_at, queue_customer_id
LIMIT 1
`
	c, err := scanCustomer(r.db.QueryRowContext(ctx, stmt, queueID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return QueueCustomer{}, false, nil
		}
		return QueueCustomer{}, false, err
	}
	return c, true, nil
}

func (r *PostgresRepo) mark(ctx context.Context, queueCustomerID, fromPredicate string, to CustomerStatus, timestampColumn string, at time.Time) (QueueCustomer, bool, error) {
	stmt := `
UPDATE queue_customers
SET status = $2, ` + timestampColumn + ` = $3
WHERE queue_customer_id = $1 AND ` + fromPredicate + `
RETURNING ` + customerColumns + `
`
	c, err := scanCustomer(r.db.QueryRowContext(ctx, stmt, queueCustomerID, to, at))
	if err == nil {
		return c, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return QueueCustomer{}, false, err
	}

	// CAS lost or unknown id; report which via a plain read.
	c, err = r.GetCustomer(ctx, queueCustomerID)
	if err != nil {
		return QueueCustomer{}, false, err
	}
	return c, false, nil
}

func (r *PostgresRepo) MarkCalled(ctx context.Context, queueCustomerID string, at time.Time) (QueueCustomer, bool, error) {
	return r.mark(ctx, queueCustomerID, `status = 'waiting'`, CustomerInService, "called_at", at)
}

func (r *PostgresRepo) MarkCompleted(ctx context.Context, queueCustomerID string, at time.Time) (QueueCustomer, bool, error) {
	return r.mark(ctx, queueCustomerID, `status = 'in_service'`, CustomerCompleted, "completed_at", at)
}

func (r *PostgresRepo) MarkCancelled(ctx context.Context, queueCustomerID string, at time.Time) (QueueCustomer, bool, error) {
	return r.mark(ctx, queueCustomerID, `status IN ('waiting', 'in_service')`, CustomerCancelled, "completed_at", at)
}

func (r *PostgresRepo) MarkNoShow(ctx context.Context, queueCustomerID string, at time.Time) (QueueCustomer, bool, error) {
	return r.mark(ctx, queueCustomerID, `status IN ('waiting', 'in_service')`, CustomerNoShow, "completed_at", at)
}

func (r *PostgresRepo) UserContact(ctx context.Context, userID string) (Contact, error) {
	const stmt = `
SELECT name, email, phone_number
FROM users
WHERE user_id = $1
`
	var c Contact
	err := r.db.QueryRowContext(ctx, stmt, userID).Scan(&c.Name, &c.Email, &c.Phone)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Contact{}, errs.NotFound("user %s not found", userID)
		}
		return Contact{}, err
	}
	return c, nil
}

func (r *PostgresRepo) CreateWizard(ctx context.Context, in WizardInput) (WizardResult, error) {
	var res WizardResult

	err := utils.WithTx(ctx, r.db, nil, func(ctx context.Context, tx *sql.Tx) error {
		now := in.Queue.CreatedAt

		switch {
		case in.ExistingLocationID != "":
			const stmt = `
SELECT location_id, name FROM locations
WHERE location_id = $1 AND organization_id = $2
`
			err := tx.QueryRowContext(ctx, stmt, in.ExistingLocationID, in.OrganizationID).
				Scan(&res.LocationID, &res.LocationName)
			if errors.Is(err, sql.ErrNoRows) {
				return errs.NotFound("location %s not found", in.ExistingLocationID)
			}
			if err != nil {
				return err
			}
		case in.NewLocation != nil:
			res.LocationID = uuid.NewString()
			res.LocationName = in.NewLocation.Name
			res.CreatedNewLocation = true
			const stmt = `
INSERT INTO locations (location_id, organization_id, name, address, city, postal_code, country,
                       latitude, longitude, is_active, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, TRUE, $10, $10)
`
			if _, err := tx.ExecContext(ctx, stmt,
				res.LocationID, in.OrganizationID, in.NewLocation.Name,
				in.NewLocation.Address, in.NewLocation.City, in.NewLocation.PostalCode,
				in.NewLocation.Country, in.NewLocation.Latitude, in.NewLocation.Longitude, now,
			); err != nil {
				return err
			}
		default:
			return errs.Invalid("either an existing location id or a new location is required")
		}

		switch {
		case in.ExistingServiceID != "":
			const stmt = `
SELECT service_id, name FROM services
WHERE service_id = $1
`
			err := tx.QueryRowContext(ctx, stmt, in.ExistingServiceID).
				Scan(&res.ServiceID, &res.ServiceName)
			if errors.Is(err, sql.ErrNoRows) {
				return errs.NotFound("service %s not found", in.ExistingServiceID)
			}
			if err != nil {
				return err
			}
		case in.NewService != nil:
			res.ServiceID = uuid.NewString()
			res.ServiceName = in.NewService.Name
			res.CreatedNewService = true
			const stmt = `
INSERT INTO services (service_id, location_id, name, description, category, duration_minutes,
                      is_active, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, TRUE, $7, $7)
`
			if _, err := tx.ExecContext(ctx, stmt,
				res.ServiceID, res.LocationID, in.NewService.Name, in.NewService.Description,
				in.NewService.Category, in.NewService.DurationMinutes, now,
			); err != nil {
				return err
			}
		default:
			return errs.Invalid("either an existing service id or a new service is required")
		}

		q := in.Queue
		q.LocationID = res.LocationID
		q.ServiceID = res.ServiceID

		const stmt = `
INSERT INTO queues (` + queueColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
`
		if _, err := tx.ExecContext(ctx, stmt,
			q.QueueID, q.OrganizationID, q.LocationID, nullString(q.ServiceID),
			q.Name, q.Description, q.Status,
			q.EventName, q.EventStartDate, q.EventEndDate, q.IsMobileQueue,
			q.MaxCapacity, q.EstimatedServiceTime, q.IsActive, q.CreatedAt, q.UpdatedAt,
		); err != nil {
			return err
		}
		res.Queue = q
		return nil
	})
	if err != nil {
		return WizardResult{}, err
	}
	return res, nil
}
