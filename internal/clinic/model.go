package clinic

import (
	"time"

	"github.com/google/uuid"
)

const (
	DefaultTimezone                   = "America/Argentina/Buenos_Aires"
	DefaultAppointmentDurationMinutes = 30
)

type Tenant struct {
	ID                         uuid.UUID `json:"id"`
	Name                       string    `json:"name"`
	Slug                       string    `json:"slug"`
	Email                      *string   `json:"email,omitempty"`
	Phone                      *string   `json:"phone,omitempty"`
	Address                    *string   `json:"address,omitempty"`
	City                       *string   `json:"city,omitempty"`
	Timezone                   string    `json:"timezone"`
	AppointmentDurationMinutes int       `json:"appointmentDurationMinutes"`
	Active                     bool      `json:"active"`
	CreatedAt                  time.Time `json:"createdAt"`
	UpdatedAt                  time.Time `json:"updatedAt"`
}

// Location is the tenant's wall-clock zone. Booking times and calendar dates
// are interpreted in it.
func (t Tenant) Location() *time.Location {
	name := t.Timezone
	if name == "" {
		name = DefaultTimezone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (t Tenant) AppointmentDuration() time.Duration {
	minutes := t.AppointmentDurationMinutes
	if minutes <= 0 {
		minutes = DefaultAppointmentDurationMinutes
	}
	return time.Duration(minutes) * time.Minute
}

type Professional struct {
	ID            uuid.UUID `json:"id"`
	TenantID      uuid.UUID `json:"tenantId"`
	FirstName     string    `json:"firstName"`
	LastName      string    `json:"lastName"`
	Specialty     *string   `json:"specialty,omitempty"`
	LicenseNumber *string   `json:"licenseNumber,omitempty"`
	Email         *string   `json:"email,omitempty"`
	Phone         *string   `json:"phone,omitempty"`
	Active        bool      `json:"active"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func (p Professional) FullName() string {
	return p.FirstName + " " + p.LastName
}
