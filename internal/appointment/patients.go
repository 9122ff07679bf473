package appointment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-scheduling/internal/apperr"
	"github.com/hackgods/clinic-scheduling/internal/auth"
)

var ErrViewPatients = apperr.Forbidden("not allowed to view patients")

const defaultPatientLimit = 20

func canViewPatients(caller auth.Identity) bool {
	return caller.HasRole(auth.RoleOwner, auth.RoleStaff, auth.RoleProfessional)
}

// ListPatients searches the clinic's patient directory by name or DNI.
func (s *Service) ListPatients(ctx context.Context, caller auth.Identity, filter PatientFilter) ([]Patient, error) {
	if !canViewPatients(caller) {
		return nil, ErrViewPatients
	}

	if filter.Limit <= 0 {
		filter.Limit = defaultPatientLimit
	}
	if filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	list, err := s.repo.ListPatients(ctx, caller.TenantID, filter)
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (s *Service) GetPatient(ctx context.Context, caller auth.Identity, id uuid.UUID) (*Patient, error) {
	if !canViewPatients(caller) {
		return nil, ErrViewPatients
	}
	return s.repo.GetPatient(ctx, caller.TenantID, id)
}

func (s *Service) FindPatientByDNI(ctx context.Context, caller auth.Identity, dni string) (*Patient, error) {
	if !canViewPatients(caller) {
		return nil, ErrViewPatients
	}
	dni = strings.TrimSpace(dni)
	if dni == "" {
		return nil, apperr.Validation("dni", "is required")
	}
	return s.repo.FindPatientByDNI(ctx, caller.TenantID, dni)
}

// UpdatePatient applies the non-empty fields of in to the patient. Moving a
// patient to a DNI already on file in the clinic is a conflict.
func (s *Service) UpdatePatient(ctx context.Context, caller auth.Identity, id uuid.UUID, in PatientInput) (*Patient, error) {
	if !caller.CanManageAppointments() {
		return nil, ErrForbidden
	}

	p, err := s.repo.GetPatient(ctx, caller.TenantID, id)
	if err != nil {
		return nil, err
	}

	if dni := strings.TrimSpace(in.DNI); dni != "" && dni != p.DNI {
		other, err := s.repo.FindPatientByDNI(ctx, caller.TenantID, dni)
		switch {
		case err == nil && other.ID != id:
			return nil, apperr.Conflict(map[string]string{
				"dni":        dni,
				"patient_id": other.ID.String(),
			}, "another patient already has DNI %s", dni)
		case err != nil && !errors.Is(err, ErrPatientNotFound):
			return nil, fmt.Errorf("check patient dni: %w", err)
		}
		p.DNI = dni
	}

	setText(&p.FirstName, in.FirstName)
	setText(&p.LastName, in.LastName)
	setOptional(&p.Email, in.Email)
	setOptional(&p.Phone, in.Phone)
	setOptional(&p.InsuranceName, in.InsuranceName)
	setOptional(&p.InsuranceNumber, in.InsuranceNumber)

	updated, err := s.repo.UpdatePatient(ctx, *p)
	if err != nil {
		return nil, fmt.Errorf("update patient: %w", err)
	}

	s.log.Info().
		Str("tenant_id", caller.TenantID.String()).
		Str("patient_id", id.String()).
		Str("updated_by", caller.UserID.String()).
		Msg("patient updated")

	return updated, nil
}

func setText(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}

func setOptional(dst **string, v *string) {
	if v == nil {
		return
	}
	if t := strings.TrimSpace(*v); t != "" {
		*dst = &t
	}
}
