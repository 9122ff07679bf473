package clinic

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTenant_Location(t *testing.T) {
	tenant := Tenant{Timezone: "UTC"}
	assert.Equal(t, time.UTC, tenant.Location())

	bad := Tenant{Timezone: "Not/AZone"}
	assert.Equal(t, time.UTC, bad.Location(), "unknown zone should fall back to UTC")
}

func TestTenant_AppointmentDuration(t *testing.T) {
	tests := []struct {
		minutes int
		want    time.Duration
	}{
		{minutes: 45, want: 45 * time.Minute},
		{minutes: 0, want: 30 * time.Minute},
		{minutes: -5, want: 30 * time.Minute},
	}
	for _, tt := range tests {
		got := Tenant{AppointmentDurationMinutes: tt.minutes}.AppointmentDuration()
		assert.Equal(t, tt.want, got, "AppointmentDuration(%d)", tt.minutes)
	}
}

func TestProfessional_FullName(t *testing.T) {
	p := Professional{FirstName: "Ana", LastName: "Gómez"}
	assert.Equal(t, "Ana Gómez", p.FullName())
}
