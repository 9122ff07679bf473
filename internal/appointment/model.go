package appointment

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-scheduling/internal/apperr"
)

type Status string

const (
	StatusConfirmed Status = "CONFIRMED"
	StatusCancelled Status = "CANCELLED"
	StatusCompleted Status = "COMPLETED"
)

var validStatuses = []Status{StatusConfirmed, StatusCancelled, StatusCompleted}

// ParseStatus accepts a status token in any letter case.
func ParseStatus(s string) (Status, error) {
	want := Status(strings.ToUpper(strings.TrimSpace(s)))
	for _, st := range validStatuses {
		if st == want {
			return st, nil
		}
	}
	names := make([]string, len(validStatuses))
	for i, st := range validStatuses {
		names[i] = string(st)
	}
	return "", apperr.Validation("status", "invalid status %q, valid values: %s", s, strings.Join(names, ", "))
}

type Patient struct {
	ID              uuid.UUID `json:"id"`
	TenantID        uuid.UUID `json:"tenantId"`
	DNI             string    `json:"dni"`
	FirstName       string    `json:"firstName"`
	LastName        string    `json:"lastName"`
	Email           *string   `json:"email,omitempty"`
	Phone           *string   `json:"phone,omitempty"`
	InsuranceName   *string   `json:"insuranceName,omitempty"`
	InsuranceNumber *string   `json:"insuranceNumber,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

type Appointment struct {
	ID             uuid.UUID `json:"id"`
	TenantID       uuid.UUID `json:"tenantId"`
	ProfessionalID uuid.UUID `json:"professionalId"`
	PatientID      uuid.UUID `json:"patientId"`
	StartTime      time.Time `json:"startTime"`
	EndTime        time.Time `json:"endTime"`
	Status         Status    `json:"status"`
	Notes          *string   `json:"notes,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// ConfirmationCode is the short reference handed to patients who book online.
func (a Appointment) ConfirmationCode() string {
	return "CONF-" + strings.ToUpper(a.ID.String()[:8])
}

type EventLog struct {
	ID            int64
	EventType     string
	AppointmentID *uuid.UUID
	Payload       []byte
	CreatedAt     time.Time
}

type AppointmentDetail struct {
	Appointment
	Patient          Patient `json:"patient"`
	ProfessionalName string  `json:"professionalName"`
}

// PatientInput identifies the patient of a booking. Patients are matched by
// DNI within the clinic and created on their first booking.
type PatientInput struct {
	DNI             string
	FirstName       string
	LastName        string
	Email           *string
	Phone           *string
	InsuranceName   *string
	InsuranceNumber *string
}

type BookingRequest struct {
	ProfessionalID uuid.UUID
	Start          time.Time
	Patient        PatientInput
	Notes          *string
}

type ListFilter struct {
	ProfessionalID *uuid.UUID
	PatientID      *uuid.UUID
	Status         *Status
	From           *time.Time
	To             *time.Time
	Limit          int
	Offset         int
}

// PatientFilter narrows the patient directory. Search matches the full name
// case-insensitively or any part of the DNI.
type PatientFilter struct {
	Search string
	Limit  int
	Offset int
}
