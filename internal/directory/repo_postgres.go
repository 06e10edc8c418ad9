package directory

import (
	"context"
	"database/sql"
	"errors"

	"sqipit/internal/errs"
)

// PostgresRepo persists the directory in the locations and services tables.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

const locationColumns = `location_id, organization_id, name, address, city, postal_code, country, latitude, longitude, is_active, created_at, updated_at`

func scanLocation(row interface{ Scan(...any) error }) (Location, error) {
	var loc Location
	err := row.Scan(
		&loc.LocationID,
		&loc.OrganizationID,
		&loc.Name,
		&loc.Address,
		&loc.City,
		&loc.PostalCode,
		&loc.Country,
		&loc.Latitude,
		&loc.Longitude,
		&loc.IsActive,
		&loc.CreatedAt,
		&loc.UpdatedAt,
	)
	return loc, err
}

func (r *PostgresRepo) CreateLocation(ctx context.Context, loc Location) (Location, error) {
	const q = `
INSERT INTO locations (` + locationColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
`
	_, err := r.db.ExecContext(ctx, q,
		loc.LocationID, loc.OrganizationID, loc.Name, loc.Address, loc.City,
		loc.PostalCode, loc.Country, loc.Latitude, loc.Longitude,
		loc.IsActive, loc.CreatedAt, loc.UpdatedAt,
	)
	if err != nil {
		return Location{}, err
	}
	return loc, nil
}

func (r *PostgresRepo) GetLocation(ctx context.Context, locationID string) (Location, error) {
	const q = `
SELECT ` + locationColumns + `
FROM locations
WHERE location_id = $1
`
	loc, err := scanLocation(r.db.QueryRowContext(ctx, q, locationID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Location{}, errs.NotFound("location %s not found", locationID)
		}
		return Location{}, err
	}
	return loc, nil
}

func (r *PostgresRepo) UpdateLocation(ctx context.Context, loc Location) (Location, error) {
	const q = `
UPDATE locations
SET name = $2, address = $3, city = $4, postal_code = $5, country = $6,
    latitude = $7, longitude = $8, is_active = $9, updated_at = $10
WHERE location_id = $1
`
	res, err := r.db.ExecContext(ctx, q,
		loc.LocationID, loc.Name, loc.Address, loc.City, loc.PostalCode,
		loc.Country, loc.Latitude, loc.Longitude, loc.IsActive, loc.UpdatedAt,
	)
	if err != nil {
		return Location{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return Location{}, errs.NotFound("location %s not found", loc.LocationID)
	}
	return loc, nil
}

func (r *PostgresRepo) ListLocations(ctx context.Context, organizationID string, includeInactive bool) ([]Location, error) {
	const q = `
SELECT ` + locationColumns + `
FROM locations
WHERE organization_id = $1 AND (is_active OR $2)
ORDER BY created_at
`
	rows, err := r.db.QueryContext(ctx, q, organizationID, includeInactive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Location, 0)
	for rows.Next() {
		loc, err := scanLocation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, loc)
	}
	return out, rows.Err()
}

const serviceColumns = `service_id, location_id, name, description, category, duration_minutes, is_active, created_at, updated_at`

func scanService(row interface{ Scan(...any) error }) (Service, error) {
	var svc Service
	err := row.Scan(
		&svc.ServiceID,
		&svc.LocationID,
		&svc.Name,
		&svc.Description,
		&svc.Category,
		&svc.DurationMinutes,
		&svc.IsActive,
		&svc.CreatedAt,
		&svc.UpdatedAt,
	)
	return svc, err
}

func (r *PostgresRepo) CreateService(ctx context.Context, svc Service) (Service, error) {
	const q = `
INSERT INTO services (` + serviceColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
`
	_, err := r.db.ExecContext(ctx, q,
		svc.ServiceID, svc.LocationID, svc.Name, svc.Description,
		svc.Category, svc.DurationMinutes, svc.IsActive, svc.CreatedAt, svc.UpdatedAt,
	)
	if err != nil {
		return Service{}, err
	}
	return svc, nil
}

func (r *PostgresRepo) GetService(ctx context.Context, serviceID string) (Service, error) {
	const q = `
SELECT ` + serviceColumns + `
FROM services
WHERE service_id = $1
`
	svc, err := scanService(r.db.QueryRowContext(ctx, q, serviceID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Service{}, errs.NotFound("service %s not found", serviceID)
		}
		return Service{}, err
	}
	return svc, nil
}

func (r *PostgresRepo) ListServices(ctx context.Context, locationID string, includeInactive bool) ([]Service, error) {
	const q = `
SELECT ` + serviceColumns + `
FROM services
WHERE location_id = $1 AND (is_active OR $2)
ORDER BY created_at
`
	rows, err := r.db.QueryContext(ctx, q, locationID, includeInactive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Service, 0)
	for rows.Next() {
		svc, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, svc)
	}
	return out, rows.Err()
}
