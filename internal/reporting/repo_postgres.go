package reporting

import (
	"context"
	"database/sql"
	"time"

	"sqipit/internal/queue"
)

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) ListEntries(ctx context.Context, organizationID string, from, to time.Time, queueID string) ([]queue.QueueCustomer, error) {
	const q = `
SELECT c.queue_customer_id, c.queue_id, COALESCE(c.user_id, ''), c.customer_name,
       c.customer_phone, c.customer_email, c.status, c.joined_at, c.called_at,
       c.completed_at, c.party_size, c.notes
FROM queue_customers c
JOIN queues q ON q.queue_id = c.queue_id
WHERE q.organization_id = $1
  AND c.joined_at >= $2 AND c.joined_at < $3
  AND ($4 = '' OR c.queue_id = $4)
ORDER BY c.joined_at
`
	rows, err := r.db.QueryContext(ctx, q, organizationID, from, to, queueID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []queue.QueueCustomer
	for rows.Next() {
		var e queue.QueueCustomer
		if err := rows.Scan(
			&e.QueueCustomerID, &e.QueueID, &e.UserID, &e.CustomerName,
			&e.CustomerPhone, &e.CustomerEmail, &e.Status, &e.JoinedAt,
			&e.CalledAt, &e.CompletedAt, &e.PartySize, &e.Notes,
		); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
