package appointment

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-scheduling/internal/apperr"
	"github.com/hackgods/clinic-scheduling/internal/clinic"
)

var (
	ErrPatientNotFound     = apperr.NotFound("patient not found")
	ErrAppointmentNotFound = apperr.NotFound("appointment not found")
)

// Repository contains all DB interactions needed by the service. Reads by id
// are tenant scoped so an appointment of another clinic is simply not found.
type Repository interface {
	FindPatientByDNI(ctx context.Context, tenantID uuid.UUID, dni string) (*Patient, error)
	CreatePatient(ctx context.Context, p Patient) (*Patient, error)
	GetPatient(ctx context.Context, tenantID, id uuid.UUID) (*Patient, error)
	ListPatients(ctx context.Context, tenantID uuid.UUID, filter PatientFilter) ([]Patient, error)
	UpdatePatient(ctx context.Context, p Patient) (*Patient, error)

	// For the double booking check
	ExistsLiveBooking(ctx context.Context, professionalID uuid.UUID, start time.Time) (bool, error)
	BookedStarts(ctx context.Context, professionalID uuid.UUID, from, to time.Time) ([]time.Time, error)

	CreateAppointment(ctx context.Context, a Appointment) (*Appointment, error)
	UpdateAppointmentStatus(ctx context.Context, tenantID, id uuid.UUID, to Status) (*Appointment, error)

	GetAppointment(ctx context.Context, tenantID, id uuid.UUID) (*Appointment, error)
	GetAppointmentDetail(ctx context.Context, tenantID, id uuid.UUID) (*AppointmentDetail, error)
	ListAppointments(ctx context.Context, tenantID uuid.UUID, filter ListFilter) ([]AppointmentDetail, error)

	// Event logging
	InsertEvent(ctx context.Context, ev EventLog) error
}

// Directory is the part of the clinic directory bookings need.
type Directory interface {
	GetTenant(ctx context.Context, id uuid.UUID) (*clinic.Tenant, error)
	FindProfessional(ctx context.Context, tenantID, id uuid.UUID) (*clinic.Professional, error)
}
