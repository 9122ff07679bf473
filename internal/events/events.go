package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	AppointmentCreated       = "APPOINTMENT_CREATED"
	AppointmentStatusChanged = "APPOINTMENT_STATUS_CHANGED"
	AppointmentCancelled     = "APPOINTMENT_CANCELLED"
)

// Event is a booking lifecycle notification for downstream consumers such as
// reminder or billing workers.
type Event struct {
	ID             uuid.UUID      `json:"id"`
	Type           string         `json:"type"`
	TenantID       uuid.UUID      `json:"tenantId"`
	ProfessionalID uuid.UUID      `json:"professionalId"`
	AppointmentID  uuid.UUID      `json:"appointmentId"`
	OccurredAt     time.Time      `json:"occurredAt"`
	Payload        map[string]any `json:"payload,omitempty"`
}

type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
