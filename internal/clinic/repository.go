package clinic

import (
	"context"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-scheduling/internal/apperr"
)

var (
	ErrTenantNotFound       = apperr.NotFound("clinic not found")
	ErrProfessionalNotFound = apperr.NotFound("professional not found")
)

// Directory resolves tenants and professionals. Lookups are always scoped to
// a tenant; a professional of another tenant or a deactivated one is reported
// as not found.
type Directory interface {
	GetTenant(ctx context.Context, id uuid.UUID) (*Tenant, error)
	FindTenantBySlug(ctx context.Context, slug string) (*Tenant, error)
	FindProfessional(ctx context.Context, tenantID, id uuid.UUID) (*Professional, error)
	ListProfessionals(ctx context.Context, tenantID uuid.UUID) ([]Professional, error)
}

// ProfessionalRepository backs professional management. Unlike Directory it
// also returns deactivated professionals.
type ProfessionalRepository interface {
	GetProfessional(ctx context.Context, tenantID, id uuid.UUID) (*Professional, error)
	ListAllProfessionals(ctx context.Context, tenantID uuid.UUID) ([]Professional, error)
	// MatchProfessionals returns the tenant's professionals sharing the email
	// (case-insensitively) or the license number. Nil arguments match nothing.
	MatchProfessionals(ctx context.Context, tenantID uuid.UUID, email, licenseNumber *string) ([]Professional, error)
	CreateProfessional(ctx context.Context, p Professional) (*Professional, error)
	UpdateProfessional(ctx context.Context, p Professional) (*Professional, error)
}
