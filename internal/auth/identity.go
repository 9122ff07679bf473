package auth

import (
	"context"

	"github.com/google/uuid"
)

type Role string

const (
	RoleAdmin        Role = "ADMIN"
	RoleOwner        Role = "OWNER"
	RoleStaff        Role = "STAFF"
	RoleProfessional Role = "PROFESSIONAL"
)

// Identity is the authenticated caller. It is passed explicitly to every
// operation that needs tenant scoping or role checks.
type Identity struct {
	UserID   uuid.UUID
	TenantID uuid.UUID
	Roles    []Role
	// ProfessionalID links a PROFESSIONAL user to their professional record.
	ProfessionalID *uuid.UUID
}

// HasRole reports whether the caller holds any of roles. ADMIN holds all of them.
func (i Identity) HasRole(roles ...Role) bool {
	for _, has := range i.Roles {
		if has == RoleAdmin {
			return true
		}
		for _, want := range roles {
			if has == want {
				return true
			}
		}
	}
	return false
}

func (i Identity) IsProfessional(id uuid.UUID) bool {
	return i.HasRole(RoleProfessional) && i.ProfessionalID != nil && *i.ProfessionalID == id
}

// CanManageAvailability allows clinic managers, and professionals acting on
// their own schedule.
func (i Identity) CanManageAvailability(professionalID uuid.UUID) bool {
	return i.HasRole(RoleOwner) || i.IsProfessional(professionalID)
}

func (i Identity) CanViewAvailability(professionalID uuid.UUID) bool {
	return i.HasRole(RoleOwner, RoleStaff) || i.IsProfessional(professionalID)
}

func (i Identity) CanManageAppointments() bool {
	return i.HasRole(RoleOwner, RoleStaff)
}

// CanManageProfessionals covers creating, editing and deactivating the
// clinic's professionals.
func (i Identity) CanManageProfessionals() bool {
	return i.HasRole(RoleOwner)
}

// OwnProfessional returns the professional a caller is restricted to, when
// the caller sees only their own appointments.
func (i Identity) OwnProfessional() (uuid.UUID, bool) {
	if i.CanManageAppointments() || i.ProfessionalID == nil || !i.HasRole(RoleProfessional) {
		return uuid.Nil, false
	}
	return *i.ProfessionalID, true
}

type contextKey string

const identityKey contextKey = "identity"

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}
