package audit

import (
	"context"
	"database/sql"
)

// PostgresRepo appends audit events to the audit_events table. No read
// path exists here; audit queries go through ops tooling.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) Append(ctx context.Context, e Event) error {
	const q = `
INSERT INTO audit_events (id, organization_id, action, actor_user_id, actor_role,
                          ip_address, queue_id, queue_customer_id, message, metadata, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
`
	_, err := r.db.ExecContext(ctx, q,
		e.ID, e.OrganizationID, e.Action, e.ActorUserID, e.ActorRole,
		e.IPAddress, e.QueueID, e.QueueCustomerID, e.Message, e.Metadata, e.CreatedAt,
	)
	return err
}
