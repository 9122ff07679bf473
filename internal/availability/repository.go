package availability

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-scheduling/internal/apperr"
	"github.com/hackgods/clinic-scheduling/internal/clinic"
)

var ErrRuleNotFound = apperr.NotFound("availability rule not found")

// Repository contains all rule persistence needed by the service.
type Repository interface {
	Insert(ctx context.Context, rule Rule) (*Rule, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Rule, error)
	Delete(ctx context.Context, id uuid.UUID) error

	// ReplaceAll removes every rule of the professional and stores rules in
	// their place. Either all of it happens or none of it does.
	ReplaceAll(ctx context.Context, professionalID uuid.UUID, rules []Rule) ([]Rule, error)

	ListActive(ctx context.Context, professionalID uuid.UUID) ([]Rule, error)
	ListActiveByKey(ctx context.Context, professionalID uuid.UUID, key Key) ([]Rule, error)
}

// Directory is the part of the clinic directory the availability service needs.
type Directory interface {
	GetTenant(ctx context.Context, id uuid.UUID) (*clinic.Tenant, error)
	FindProfessional(ctx context.Context, tenantID, id uuid.UUID) (*clinic.Professional, error)
}

// Occupancy reports start times that already hold a live booking.
type Occupancy interface {
	BookedStarts(ctx context.Context, professionalID uuid.UUID, from, to time.Time) ([]time.Time, error)
}
