package appointment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hackgods/clinic-scheduling/internal/apperr"
	"github.com/hackgods/clinic-scheduling/internal/auth"
	"github.com/hackgods/clinic-scheduling/internal/availability"
	"github.com/hackgods/clinic-scheduling/internal/events"
	redisclient "github.com/hackgods/clinic-scheduling/internal/redis"
)

var (
	ErrTimeInPast      = apperr.Business("time in the past")
	ErrSlotUnavailable = apperr.Business("slot unavailable")
	ErrSlotBeingBooked = apperr.Conflict(nil, "slot is currently being booked, please retry")
	ErrForbidden       = apperr.Forbidden("not allowed to manage appointments")
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

type Service struct {
	repo      Repository
	dir       Directory
	locker    redisclient.Locker
	publisher events.Publisher
	log       zerolog.Logger
	now       func() time.Time
}

func NewService(repo Repository, dir Directory, locker redisclient.Locker, publisher events.Publisher, log zerolog.Logger) *Service {
	if locker == nil {
		locker = redisclient.NoopLocker{}
	}
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Service{
		repo:      repo,
		dir:       dir,
		locker:    locker,
		publisher: publisher,
		log:       log.With().Str("component", "appointment").Logger(),
		now:       time.Now,
	}
}

// CreateBooking reserves req.Start with req.ProfessionalID for the clinic's
// default appointment length. A start that already holds a booking which is
// not cancelled is rejected. The start time is not checked against the
// professional's availability.
func (s *Service) CreateBooking(ctx context.Context, tenantID uuid.UUID, req BookingRequest) (*Appointment, error) {
	if strings.TrimSpace(req.Patient.DNI) == "" {
		return nil, apperr.Validation("patient.dni", "is required")
	}

	tenant, err := s.dir.GetTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if _, err := s.dir.FindProfessional(ctx, tenantID, req.ProfessionalID); err != nil {
		return nil, err
	}

	if req.Start.Before(s.now()) {
		return nil, ErrTimeInPast
	}
	end := req.Start.Add(tenant.AppointmentDuration())

	var created *Appointment

	err = s.locker.WithLock(ctx, redisclient.BookingKey(req.ProfessionalID, req.Start), func(lockCtx context.Context) error {
		taken, err := s.repo.ExistsLiveBooking(lockCtx, req.ProfessionalID, req.Start)
		if err != nil {
			return fmt.Errorf("check existing booking: %w", err)
		}
		if taken {
			return ErrSlotUnavailable
		}

		patient, err := s.findOrCreatePatient(lockCtx, tenantID, req.Patient)
		if err != nil {
			return err
		}

		appt, err := s.repo.CreateAppointment(lockCtx, Appointment{
			ID:             uuid.New(),
			TenantID:       tenantID,
			ProfessionalID: req.ProfessionalID,
			PatientID:      patient.ID,
			StartTime:      req.Start,
			EndTime:        end,
			Status:         StatusConfirmed,
			Notes:          req.Notes,
		})
		if err != nil {
			return fmt.Errorf("create appointment: %w", err)
		}
		created = appt
		return nil
	})
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrSlotBeingBooked
		}
		return nil, err
	}

	s.record(ctx, created, events.AppointmentCreated, map[string]any{
		"professional_id": created.ProfessionalID.String(),
		"patient_id":      created.PatientID.String(),
		"start_time":      created.StartTime,
		"end_time":        created.EndTime,
	})

	return created, nil
}

func (s *Service) findOrCreatePatient(ctx context.Context, tenantID uuid.UUID, in PatientInput) (*Patient, error) {
	dni := strings.TrimSpace(in.DNI)

	p, err := s.repo.FindPatientByDNI(ctx, tenantID, dni)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, ErrPatientNotFound) {
		return nil, fmt.Errorf("load patient: %w", err)
	}

	p, err = s.repo.CreatePatient(ctx, Patient{
		ID:              uuid.New(),
		TenantID:        tenantID,
		DNI:             dni,
		FirstName:       in.FirstName,
		LastName:        in.LastName,
		Email:           in.Email,
		Phone:           in.Phone,
		InsuranceName:   in.InsuranceName,
		InsuranceNumber: in.InsuranceNumber,
	})
	if err != nil {
		return nil, fmt.Errorf("create patient: %w", err)
	}
	return p, nil
}

// UpdateStatus sets any of the known statuses. Transitions are not
// restricted, a completed appointment may be confirmed again.
func (s *Service) UpdateStatus(ctx context.Context, caller auth.Identity, id uuid.UUID, token string) (*Appointment, error) {
	status, err := ParseStatus(token)
	if err != nil {
		return nil, err
	}
	if !caller.CanManageAppointments() {
		return nil, ErrForbidden
	}

	current, err := s.repo.GetAppointment(ctx, caller.TenantID, id)
	if err != nil {
		return nil, err
	}

	updated, err := s.repo.UpdateAppointmentStatus(ctx, caller.TenantID, id, status)
	if err != nil {
		return nil, err
	}

	eventType := events.AppointmentStatusChanged
	if status == StatusCancelled {
		eventType = events.AppointmentCancelled
	}
	s.record(ctx, updated, eventType, map[string]any{
		"from":       string(current.Status),
		"to":         string(updated.Status),
		"changed_by": caller.UserID.String(),
	})

	return updated, nil
}

// Cancel marks the appointment cancelled. The row is kept.
func (s *Service) Cancel(ctx context.Context, caller auth.Identity, id uuid.UUID) (*Appointment, error) {
	return s.UpdateStatus(ctx, caller, id, string(StatusCancelled))
}

func (s *Service) Get(ctx context.Context, caller auth.Identity, id uuid.UUID) (*AppointmentDetail, error) {
	own, restricted := caller.OwnProfessional()
	if !restricted && !caller.CanManageAppointments() {
		return nil, ErrForbidden
	}

	detail, err := s.repo.GetAppointmentDetail(ctx, caller.TenantID, id)
	if err != nil {
		return nil, err
	}
	if restricted && detail.ProfessionalID != own {
		return nil, ErrAppointmentNotFound
	}
	return detail, nil
}

// List returns the clinic's appointments. Callers who are only professionals
// see their own.
func (s *Service) List(ctx context.Context, caller auth.Identity, filter ListFilter) ([]AppointmentDetail, error) {
	if own, ok := caller.OwnProfessional(); ok {
		filter.ProfessionalID = &own
	} else if !caller.CanManageAppointments() {
		return nil, ErrForbidden
	}

	if filter.Limit <= 0 {
		filter.Limit = defaultListLimit
	}
	if filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	list, err := s.repo.ListAppointments(ctx, caller.TenantID, filter)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	return list, nil
}

// Occupied lists the confirmed appointments of a professional on date, in the
// clinic's time zone.
func (s *Service) Occupied(ctx context.Context, tenantID, professionalID uuid.UUID, date availability.Date) ([]AppointmentDetail, error) {
	tenant, err := s.dir.GetTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if _, err := s.dir.FindProfessional(ctx, tenantID, professionalID); err != nil {
		return nil, err
	}

	from := date.In(tenant.Location())
	to := from.AddDate(0, 0, 1)
	confirmed := StatusConfirmed

	list, err := s.repo.ListAppointments(ctx, tenantID, ListFilter{
		ProfessionalID: &professionalID,
		Status:         &confirmed,
		From:           &from,
		To:             &to,
		Limit:          maxListLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("list occupied: %w", err)
	}
	return list, nil
}

// BookedStarts returns the start times in [from, to) held by bookings that
// are not cancelled.
func (s *Service) BookedStarts(ctx context.Context, professionalID uuid.UUID, from, to time.Time) ([]time.Time, error) {
	return s.repo.BookedStarts(ctx, professionalID, from, to)
}

// record writes the audit log entry and publishes the event. Neither failure
// fails the request.
func (s *Service) record(ctx context.Context, appt *Appointment, eventType string, payload map[string]any) {
	now := s.now()

	data, err := json.Marshal(payload)
	if err != nil {
		s.log.Error().Err(err).Str("event", eventType).Msg("marshal event payload")
		data = nil
	}

	apptID := appt.ID
	if err := s.repo.InsertEvent(ctx, EventLog{
		EventType:     eventType,
		AppointmentID: &apptID,
		Payload:       data,
		CreatedAt:     now,
	}); err != nil {
		s.log.Error().Err(err).Str("event", eventType).Str("appointment_id", appt.ID.String()).Msg("insert event log")
	}

	if err := s.publisher.Publish(ctx, events.Event{
		ID:             uuid.New(),
		Type:           eventType,
		TenantID:       appt.TenantID,
		ProfessionalID: appt.ProfessionalID,
		AppointmentID:  appt.ID,
		OccurredAt:     now,
		Payload:        payload,
	}); err != nil {
		s.log.Warn().Err(err).Str("event", eventType).Str("appointment_id", appt.ID.String()).Msg("publish event")
	}

	s.log.Info().
		Str("event", eventType).
		Str("appointment_id", appt.ID.String()).
		Str("professional_id", appt.ProfessionalID.String()).
		Str("status", string(appt.Status)).
		Msg("appointment event")
}
