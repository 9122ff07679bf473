package events

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoutingKey(t *testing.T) {
	tests := map[string]string{
		AppointmentCreated:       "appointment.created",
		AppointmentStatusChanged: "appointment.status_changed",
		AppointmentCancelled:     "appointment.cancelled",
	}
	for in, want := range tests {
		assert.Equal(t, want, RoutingKey(in), "RoutingKey(%q)", in)
	}
}

func TestNopPublisher(t *testing.T) {
	var p Publisher = NopPublisher{}
	assert.NoError(t, p.Publish(context.Background(), Event{Type: AppointmentCreated}))
}
