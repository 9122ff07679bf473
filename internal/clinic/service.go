package clinic

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hackgods/clinic-scheduling/internal/apperr"
	"github.com/hackgods/clinic-scheduling/internal/auth"
)

var (
	ErrForbidden        = apperr.Forbidden("not allowed to manage professionals")
	ErrViewProfessional = apperr.Forbidden("not allowed to view professionals")
)

// Service manages a clinic's professionals. Professionals are never removed;
// deactivating one hides it from booking and from the public directory while
// its rules and appointments stay in place.
type Service struct {
	repo ProfessionalRepository
	log  zerolog.Logger
}

func NewService(repo ProfessionalRepository, log zerolog.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log.With().Str("component", "clinic").Logger(),
	}
}

// ListProfessionals returns the caller's clinic staff ordered by name.
// Deactivated professionals are only listed to managers who ask for them.
func (s *Service) ListProfessionals(ctx context.Context, caller auth.Identity, includeInactive bool) ([]Professional, error) {
	if !canView(caller) {
		return nil, ErrViewProfessional
	}

	all, err := s.repo.ListAllProfessionals(ctx, caller.TenantID)
	if err != nil {
		return nil, err
	}

	showInactive := includeInactive && caller.CanManageProfessionals()
	result := make([]Professional, 0, len(all))
	for _, p := range all {
		if p.Active || showInactive {
			result = append(result, p)
		}
	}
	return result, nil
}

func (s *Service) GetProfessional(ctx context.Context, caller auth.Identity, id uuid.UUID) (*Professional, error) {
	if !canView(caller) {
		return nil, ErrViewProfessional
	}

	p, err := s.repo.GetProfessional(ctx, caller.TenantID, id)
	if err != nil {
		return nil, err
	}
	if !p.Active && !caller.CanManageProfessionals() {
		return nil, ErrProfessionalNotFound
	}
	return p, nil
}

// CreateProfessional adds a professional to the caller's clinic. When the
// email or license number belongs to a deactivated professional, that record
// is reactivated with the new data instead.
func (s *Service) CreateProfessional(ctx context.Context, caller auth.Identity, p Professional) (*Professional, error) {
	if !caller.CanManageProfessionals() {
		return nil, ErrForbidden
	}
	normalize(&p)
	if err := validateProfessional(p); err != nil {
		return nil, err
	}

	matches, err := s.repo.MatchProfessionals(ctx, caller.TenantID, p.Email, p.LicenseNumber)
	if err != nil {
		return nil, err
	}

	var previous *Professional
	for i := range matches {
		m := matches[i]
		if m.Active {
			return nil, duplicateOf(m, p)
		}
		if previous != nil && previous.ID != m.ID {
			return nil, apperr.Conflict(map[string]string{
				"email":          deref(p.Email),
				"license_number": deref(p.LicenseNumber),
			}, "email and license number belong to different professionals")
		}
		previous = &m
	}

	p.TenantID = caller.TenantID
	p.Active = true

	if previous != nil {
		p.ID = previous.ID
		revived, err := s.repo.UpdateProfessional(ctx, p)
		if err != nil {
			return nil, fmt.Errorf("reactivate professional: %w", err)
		}
		s.log.Info().
			Str("tenant_id", caller.TenantID.String()).
			Str("professional_id", revived.ID.String()).
			Msg("professional reactivated")
		return revived, nil
	}

	p.ID = uuid.Nil
	created, err := s.repo.CreateProfessional(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("create professional: %w", err)
	}

	s.log.Info().
		Str("tenant_id", caller.TenantID.String()).
		Str("professional_id", created.ID.String()).
		Str("name", created.FullName()).
		Msg("professional created")

	return created, nil
}

// UpdateProfessional overwrites the editable fields of a professional. A nil
// active keeps the current state.
func (s *Service) UpdateProfessional(ctx context.Context, caller auth.Identity, id uuid.UUID, p Professional, active *bool) (*Professional, error) {
	if !caller.CanManageProfessionals() {
		return nil, ErrForbidden
	}

	current, err := s.repo.GetProfessional(ctx, caller.TenantID, id)
	if err != nil {
		return nil, err
	}

	normalize(&p)
	if err := validateProfessional(p); err != nil {
		return nil, err
	}

	matches, err := s.repo.MatchProfessionals(ctx, caller.TenantID, p.Email, p.LicenseNumber)
	if err != nil {
		return nil, err
	}
	for _, m := range matches {
		if m.ID == id {
			continue
		}
		if !m.Active {
			return nil, apperr.Conflict(map[string]string{"professional_id": m.ID.String()},
				"email or license number belongs to a deactivated professional")
		}
		return nil, duplicateOf(m, p)
	}

	p.ID = id
	p.TenantID = caller.TenantID
	p.Active = current.Active
	if active != nil {
		p.Active = *active
	}

	updated, err := s.repo.UpdateProfessional(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("update professional: %w", err)
	}

	s.log.Info().
		Str("tenant_id", caller.TenantID.String()).
		Str("professional_id", id.String()).
		Bool("active", updated.Active).
		Msg("professional updated")

	return updated, nil
}

// DeactivateProfessional is the soft delete. Deactivating twice is a no-op.
func (s *Service) DeactivateProfessional(ctx context.Context, caller auth.Identity, id uuid.UUID) error {
	if !caller.CanManageProfessionals() {
		return ErrForbidden
	}

	p, err := s.repo.GetProfessional(ctx, caller.TenantID, id)
	if err != nil {
		return err
	}
	if !p.Active {
		return nil
	}

	p.Active = false
	if _, err := s.repo.UpdateProfessional(ctx, *p); err != nil {
		return fmt.Errorf("deactivate professional: %w", err)
	}

	s.log.Info().
		Str("tenant_id", caller.TenantID.String()).
		Str("professional_id", id.String()).
		Msg("professional deactivated")

	return nil
}

func canView(caller auth.Identity) bool {
	return caller.HasRole(auth.RoleOwner, auth.RoleStaff, auth.RoleProfessional)
}

func normalize(p *Professional) {
	p.FirstName = strings.TrimSpace(p.FirstName)
	p.LastName = strings.TrimSpace(p.LastName)
	for _, field := range []**string{&p.Specialty, &p.LicenseNumber, &p.Email, &p.Phone} {
		if *field == nil {
			continue
		}
		v := strings.TrimSpace(**field)
		if v == "" {
			*field = nil
			continue
		}
		*field = &v
	}
}

func validateProfessional(p Professional) error {
	if p.FirstName == "" {
		return apperr.Validation("firstName", "is required")
	}
	if p.LastName == "" {
		return apperr.Validation("lastName", "is required")
	}
	return nil
}

func duplicateOf(existing, p Professional) *apperr.Error {
	details := map[string]string{"professional_id": existing.ID.String()}
	if p.Email != nil && existing.Email != nil && strings.EqualFold(*p.Email, *existing.Email) {
		return apperr.Conflict(details, "a professional with email %s already exists", *p.Email)
	}
	return apperr.Conflict(details, "a professional with license number %s already exists", deref(p.LicenseNumber))
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
