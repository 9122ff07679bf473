package clinic

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

const tenantColumns = `id, name, slug, email, phone, address, city, timezone,
	appointment_duration_minutes, active, created_at, updated_at`

const professionalColumns = `id, tenant_id, first_name, last_name, specialty, license_number,
	email, phone, active, created_at, updated_at`

func scanTenant(row pgx.Row) (*Tenant, error) {
	var t Tenant
	err := row.Scan(
		&t.ID,
		&t.Name,
		&t.Slug,
		&t.Email,
		&t.Phone,
		&t.Address,
		&t.City,
		&t.Timezone,
		&t.AppointmentDurationMinutes,
		&t.Active,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTenantNotFound
		}
		return nil, err
	}
	return &t, nil
}

func scanProfessional(row pgx.Row) (*Professional, error) {
	var p Professional
	err := row.Scan(
		&p.ID,
		&p.TenantID,
		&p.FirstName,
		&p.LastName,
		&p.Specialty,
		&p.LicenseNumber,
		&p.Email,
		&p.Phone,
		&p.Active,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProfessionalNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *PgRepository) GetTenant(ctx context.Context, id uuid.UUID) (*Tenant, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+tenantColumns+`
		FROM tenants
		WHERE id = $1
	`, id)
	return scanTenant(row)
}

func (r *PgRepository) FindTenantBySlug(ctx context.Context, slug string) (*Tenant, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+tenantColumns+`
		FROM tenants
		WHERE slug = $1 AND active
	`, slug)
	return scanTenant(row)
}

func (r *PgRepository) FindProfessional(ctx context.Context, tenantID, id uuid.UUID) (*Professional, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+professionalColumns+`
		FROM professionals
		WHERE id = $1 AND tenant_id = $2 AND active
	`, id, tenantID)
	return scanProfessional(row)
}

func (r *PgRepository) ListProfessionals(ctx context.Context, tenantID uuid.UUID) ([]Professional, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+professionalColumns+`
		FROM professionals
		WHERE tenant_id = $1 AND active
		ORDER BY last_name, first_name
	`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list professionals: %w", err)
	}
	return collectProfessionals(rows)
}

func (r *PgRepository) GetProfessional(ctx context.Context, tenantID, id uuid.UUID) (*Professional, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+professionalColumns+`
		FROM professionals
		WHERE id = $1 AND tenant_id = $2
	`, id, tenantID)
	return scanProfessional(row)
}

func (r *PgRepository) ListAllProfessionals(ctx context.Context, tenantID uuid.UUID) ([]Professional, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+professionalColumns+`
		FROM professionals
		WHERE tenant_id = $1
		ORDER BY active DESC, last_name, first_name
	`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list all professionals: %w", err)
	}
	return collectProfessionals(rows)
}

func (r *PgRepository) MatchProfessionals(ctx context.Context, tenantID uuid.UUID, email, licenseNumber *string) ([]Professional, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+professionalColumns+`
		FROM professionals
		WHERE tenant_id = $1
		  AND (lower(email) = lower($2) OR license_number = $3)
		ORDER BY created_at
	`, tenantID, email, licenseNumber)
	if err != nil {
		return nil, fmt.Errorf("match professionals: %w", err)
	}
	return collectProfessionals(rows)
}

func (r *PgRepository) UpdateProfessional(ctx context.Context, p Professional) (*Professional, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE professionals
		SET first_name = $3, last_name = $4, specialty = $5, license_number = $6,
			email = $7, phone = $8, active = $9, updated_at = now()
		WHERE id = $1 AND tenant_id = $2
		RETURNING `+professionalColumns,
		p.ID, p.TenantID, p.FirstName, p.LastName, p.Specialty, p.LicenseNumber,
		p.Email, p.Phone, p.Active)
	return scanProfessional(row)
}

func collectProfessionals(rows pgx.Rows) ([]Professional, error) {
	defer rows.Close()

	var result []Professional
	for rows.Next() {
		p, err := scanProfessional(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}
	return result, rows.Err()
}

// CreateTenant backs the seed command; tenants have no HTTP surface.
func (r *PgRepository) CreateTenant(ctx context.Context, t Tenant) (*Tenant, error) {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.Timezone == "" {
		t.Timezone = DefaultTimezone
	}
	if t.AppointmentDurationMinutes <= 0 {
		t.AppointmentDurationMinutes = DefaultAppointmentDurationMinutes
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO tenants (id, name, slug, email, phone, address, city, timezone,
			appointment_duration_minutes, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now(), now())
		RETURNING `+tenantColumns,
		t.ID, t.Name, t.Slug, t.Email, t.Phone, t.Address, t.City, t.Timezone,
		t.AppointmentDurationMinutes, t.Active)
	return scanTenant(row)
}

func (r *PgRepository) CreateProfessional(ctx context.Context, p Professional) (*Professional, error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO professionals (id, tenant_id, first_name, last_name, specialty, license_number,
			email, phone, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now(), now())
		RETURNING `+professionalColumns,
		p.ID, p.TenantID, p.FirstName, p.LastName, p.Specialty, p.LicenseNumber,
		p.Email, p.Phone, p.Active)
	return scanProfessional(row)
}
