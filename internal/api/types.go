package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-scheduling/internal/appointment"
	"github.com/hackgods/clinic-scheduling/internal/clinic"
)

type RuleRequest struct {
	Weekday             *string `json:"weekday"`
	SpecificDate        *string `json:"specificDate"`
	StartTime           string  `json:"startTime" validate:"required_unless=Closed true"`
	EndTime             string  `json:"endTime" validate:"required_unless=Closed true"`
	SlotDurationMinutes int     `json:"slotDurationMinutes" validate:"required_unless=Closed true"`
	Active              *bool   `json:"active"`
	Closed              bool    `json:"closed"`
}

type PatientRequest struct {
	DNI             string  `json:"dni" validate:"required,max=20"`
	FirstName       string  `json:"firstName" validate:"required,max=100"`
	LastName        string  `json:"lastName" validate:"required,max=100"`
	Email           *string `json:"email" validate:"omitempty,email"`
	Phone           *string `json:"phone" validate:"omitempty,max=30"`
	InsuranceName   *string `json:"insuranceName" validate:"omitempty,max=100"`
	InsuranceNumber *string `json:"insuranceNumber" validate:"omitempty,max=50"`
}

type CreateBookingRequest struct {
	ProfessionalID string         `json:"professionalId" validate:"required,uuid"`
	StartDateTime  string         `json:"startDateTime" validate:"required"`
	Notes          *string        `json:"notes" validate:"omitempty,max=500"`
	Patient        PatientRequest `json:"patient"`
}

type ProfessionalRequest struct {
	FirstName     string  `json:"firstName" validate:"required,max=100"`
	LastName      string  `json:"lastName" validate:"required,max=100"`
	Specialty     *string `json:"specialty" validate:"omitempty,max=100"`
	LicenseNumber *string `json:"licenseNumber" validate:"omitempty,max=50"`
	Email         *string `json:"email" validate:"omitempty,email"`
	Phone         *string `json:"phone" validate:"omitempty,max=30"`
	Active        *bool   `json:"active"`
}

func (req ProfessionalRequest) toProfessional() clinic.Professional {
	return clinic.Professional{
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		Specialty:     req.Specialty,
		LicenseNumber: req.LicenseNumber,
		Email:         req.Email,
		Phone:         req.Phone,
	}
}

// PatientUpdateRequest is a partial update; omitted or blank fields keep
// their stored value.
type PatientUpdateRequest struct {
	DNI             string  `json:"dni" validate:"omitempty,max=20"`
	FirstName       string  `json:"firstName" validate:"omitempty,max=100"`
	LastName        string  `json:"lastName" validate:"omitempty,max=100"`
	Email           *string `json:"email" validate:"omitempty,email"`
	Phone           *string `json:"phone" validate:"omitempty,max=30"`
	InsuranceName   *string `json:"insuranceName" validate:"omitempty,max=100"`
	InsuranceNumber *string `json:"insuranceNumber" validate:"omitempty,max=50"`
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}

type AppointmentResponse struct {
	ID             uuid.UUID          `json:"id"`
	ProfessionalID uuid.UUID          `json:"professionalId"`
	PatientID      uuid.UUID          `json:"patientId"`
	StartTime      time.Time          `json:"startTime"`
	EndTime        time.Time          `json:"endTime"`
	Status         appointment.Status `json:"status"`
	Notes          *string            `json:"notes,omitempty"`
	CreatedAt      time.Time          `json:"createdAt"`
	UpdatedAt      time.Time          `json:"updatedAt"`
}

func toAppointmentResponse(a *appointment.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:             a.ID,
		ProfessionalID: a.ProfessionalID,
		PatientID:      a.PatientID,
		StartTime:      a.StartTime,
		EndTime:        a.EndTime,
		Status:         a.Status,
		Notes:          a.Notes,
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
	}
}

type BookingConfirmation struct {
	AppointmentID    uuid.UUID          `json:"appointmentId"`
	ConfirmationCode string             `json:"confirmationCode"`
	ProfessionalName string             `json:"professionalName"`
	StartTime        time.Time          `json:"startTime"`
	EndTime          time.Time          `json:"endTime"`
	Status           appointment.Status `json:"status"`
}

type PublicTenantResponse struct {
	Name                       string  `json:"name"`
	Slug                       string  `json:"slug"`
	Email                      *string `json:"email,omitempty"`
	Phone                      *string `json:"phone,omitempty"`
	Address                    *string `json:"address,omitempty"`
	City                       *string `json:"city,omitempty"`
	Timezone                   string  `json:"timezone"`
	AppointmentDurationMinutes int     `json:"appointmentDurationMinutes"`
}

func toPublicTenant(t *clinic.Tenant) PublicTenantResponse {
	return PublicTenantResponse{
		Name:                       t.Name,
		Slug:                       t.Slug,
		Email:                      t.Email,
		Phone:                      t.Phone,
		Address:                    t.Address,
		City:                       t.City,
		Timezone:                   t.Timezone,
		AppointmentDurationMinutes: t.AppointmentDurationMinutes,
	}
}

type PublicProfessionalResponse struct {
	ID        uuid.UUID `json:"id"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	FullName  string    `json:"fullName"`
	Specialty *string   `json:"specialty,omitempty"`
}

// OccupiedResponse exposes a taken time range without patient data.
type OccupiedResponse struct {
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
}

type ErrorResponse struct {
	Error   string            `json:"error"`
	Details string            `json:"details,omitempty"`
	Field   string            `json:"field,omitempty"`
	Context map[string]string `json:"context,omitempty"`
}
