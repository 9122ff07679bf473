package appointment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

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

const patientColumns = `id, tenant_id, dni, first_name, last_name, email, phone,
	insurance_name, insurance_number, created_at, updated_at`

const appointmentColumns = `id, tenant_id, professional_id, patient_id, start_time, end_time,
	status, notes, created_at, updated_at`

// Helpers

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient

	err := row.Scan(
		&p.ID,
		&p.TenantID,
		&p.DNI,
		&p.FirstName,
		&p.LastName,
		&p.Email,
		&p.Phone,
		&p.InsuranceName,
		&p.InsuranceNumber,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}

	return &p, nil
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment

	err := row.Scan(
		&a.ID,
		&a.TenantID,
		&a.ProfessionalID,
		&a.PatientID,
		&a.StartTime,
		&a.EndTime,
		&a.Status,
		&a.Notes,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	return &a, nil
}

func scanDetail(row pgx.Row) (*AppointmentDetail, error) {
	var d AppointmentDetail
	var firstName, lastName string

	err := row.Scan(
		&d.ID,
		&d.TenantID,
		&d.ProfessionalID,
		&d.PatientID,
		&d.StartTime,
		&d.EndTime,
		&d.Status,
		&d.Notes,
		&d.CreatedAt,
		&d.UpdatedAt,
		&d.Patient.ID,
		&d.Patient.TenantID,
		&d.Patient.DNI,
		&d.Patient.FirstName,
		&d.Patient.LastName,
		&d.Patient.Email,
		&d.Patient.Phone,
		&d.Patient.InsuranceName,
		&d.Patient.InsuranceNumber,
		&d.Patient.CreatedAt,
		&d.Patient.UpdatedAt,
		&firstName,
		&lastName,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	d.ProfessionalName = firstName + " " + lastName
	return &d, nil
}

const detailSelect = `
	SELECT a.id, a.tenant_id, a.professional_id, a.patient_id, a.start_time, a.end_time,
	       a.status, a.notes, a.created_at, a.updated_at,
	       p.id, p.tenant_id, p.dni, p.first_name, p.last_name, p.email, p.phone,
	       p.insurance_name, p.insurance_number, p.created_at, p.updated_at,
	       pr.first_name, pr.last_name
	FROM appointments a
	JOIN patients p ON p.id = a.patient_id
	JOIN professionals pr ON pr.id = a.professional_id`

// Interface methods

func (r *PgRepository) FindPatientByDNI(ctx context.Context, tenantID uuid.UUID, dni string) (*Patient, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+patientColumns+`
		FROM patients
		WHERE tenant_id = $1 AND dni = $2
	`, tenantID, dni)
	return scanPatient(row)
}

func (r *PgRepository) CreatePatient(ctx context.Context, p Patient) (*Patient, error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}

	// a concurrent booking may have created the same patient first
	row := r.pool.QueryRow(ctx, `
		INSERT INTO patients (id, tenant_id, dni, first_name, last_name, email, phone,
			insurance_name, insurance_number, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now(), now())
		ON CONFLICT (tenant_id, dni) DO UPDATE SET updated_at = patients.updated_at
		RETURNING `+patientColumns,
		p.ID, p.TenantID, p.DNI, p.FirstName, p.LastName, p.Email, p.Phone,
		p.InsuranceName, p.InsuranceNumber)
	return scanPatient(row)
}

func (r *PgRepository) GetPatient(ctx context.Context, tenantID, id uuid.UUID) (*Patient, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+patientColumns+`
		FROM patients
		WHERE id = $1 AND tenant_id = $2
	`, id, tenantID)
	return scanPatient(row)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (r *PgRepository) ListPatients(ctx context.Context, tenantID uuid.UUID, filter PatientFilter) ([]Patient, error) {
	conds := []string{"tenant_id = $1"}
	args := []any{tenantID}

	if search := strings.TrimSpace(filter.Search); search != "" {
		args = append(args, "%"+likeEscaper.Replace(search)+"%")
		n := len(args)
		conds = append(conds, fmt.Sprintf(
			"(lower(first_name || ' ' || last_name) LIKE lower($%d) OR lower(last_name || ' ' || first_name) LIKE lower($%d) OR dni LIKE $%d)",
			n, n, n))
	}

	args = append(args, filter.Limit, filter.Offset)
	query := fmt.Sprintf(`
		SELECT `+patientColumns+`
		FROM patients
		WHERE %s
		ORDER BY lower(last_name), lower(first_name)
		LIMIT $%d OFFSET $%d`, strings.Join(conds, " AND "), len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list patients: %w", err)
	}
	defer rows.Close()

	var result []Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}
	return result, rows.Err()
}

func (r *PgRepository) UpdatePatient(ctx context.Context, p Patient) (*Patient, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE patients
		SET dni = $3, first_name = $4, last_name = $5, email = $6, phone = $7,
			insurance_name = $8, insurance_number = $9, updated_at = now()
		WHERE id = $1 AND tenant_id = $2
		RETURNING `+patientColumns,
		p.ID, p.TenantID, p.DNI, p.FirstName, p.LastName, p.Email, p.Phone,
		p.InsuranceName, p.InsuranceNumber)
	return scanPatient(row)
}

func (r *PgRepository) ExistsLiveBooking(ctx context.Context, professionalID uuid.UUID, start time.Time) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM appointments
			WHERE professional_id = $1 AND start_time = $2 AND status <> 'CANCELLED'
		)
	`, professionalID, start).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

func (r *PgRepository) BookedStarts(ctx context.Context, professionalID uuid.UUID, from, to time.Time) ([]time.Time, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT start_time
		FROM appointments
		WHERE professional_id = $1
		  AND start_time >= $2
		  AND start_time < $3
		  AND status <> 'CANCELLED'
	`, professionalID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []time.Time
	for rows.Next() {
		var t time.Time
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	return result, rows.Err()
}

func (r *PgRepository) CreateAppointment(ctx context.Context, a Appointment) (*Appointment, error) {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO appointments (id, tenant_id, professional_id, patient_id, start_time, end_time,
			status, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())
		RETURNING `+appointmentColumns,
		a.ID, a.TenantID, a.ProfessionalID, a.PatientID, a.StartTime, a.EndTime, a.Status, a.Notes)

	return scanAppointment(row)
}

func (r *PgRepository) UpdateAppointmentStatus(ctx context.Context, tenantID, id uuid.UUID, to Status) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET status = $3,
		    updated_at = now()
		WHERE id = $1
		  AND tenant_id = $2
		RETURNING `+appointmentColumns,
		id, tenantID, to)

	return scanAppointment(row)
}

func (r *PgRepository) GetAppointment(ctx context.Context, tenantID, id uuid.UUID) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1 AND tenant_id = $2
	`, id, tenantID)
	return scanAppointment(row)
}

func (r *PgRepository) GetAppointmentDetail(ctx context.Context, tenantID, id uuid.UUID) (*AppointmentDetail, error) {
	row := r.pool.QueryRow(ctx, detailSelect+`
		WHERE a.id = $1 AND a.tenant_id = $2
	`, id, tenantID)
	return scanDetail(row)
}

func (r *PgRepository) ListAppointments(ctx context.Context, tenantID uuid.UUID, filter ListFilter) ([]AppointmentDetail, error) {
	conds := []string{"a.tenant_id = $1"}
	args := []any{tenantID}

	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if filter.ProfessionalID != nil {
		add("a.professional_id = $%d", *filter.ProfessionalID)
	}
	if filter.PatientID != nil {
		add("a.patient_id = $%d", *filter.PatientID)
	}
	if filter.Status != nil {
		add("a.status = $%d", *filter.Status)
	}
	if filter.From != nil {
		add("a.start_time >= $%d", *filter.From)
	}
	if filter.To != nil {
		add("a.start_time < $%d", *filter.To)
	}

	args = append(args, filter.Limit, filter.Offset)
	query := fmt.Sprintf("%s\n\tWHERE %s\n\tORDER BY a.start_time\n\tLIMIT $%d OFFSET $%d",
		detailSelect, strings.Join(conds, " AND "), len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []AppointmentDetail
	for rows.Next() {
		d, err := scanDetail(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *d)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) InsertEvent(ctx context.Context, ev EventLog) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO event_logs (event_type, appointment_id, payload, created_at)
		VALUES ($1, $2, $3, COALESCE($4, now()))
	`, ev.EventType, ev.AppointmentID, ev.Payload, nullableTime(ev.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert event log: %w", err)
	}

	return nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
