package clinic

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/clinic-scheduling/internal/apperr"
	"github.com/hackgods/clinic-scheduling/internal/auth"
)

type mockProfessionalRepo struct {
	professionals map[uuid.UUID]*Professional
	updates       int
}

func newMockProfessionalRepo() *mockProfessionalRepo {
	return &mockProfessionalRepo{professionals: make(map[uuid.UUID]*Professional)}
}

func (m *mockProfessionalRepo) GetProfessional(_ context.Context, tenantID, id uuid.UUID) (*Professional, error) {
	p, ok := m.professionals[id]
	if !ok || p.TenantID != tenantID {
		return nil, ErrProfessionalNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *mockProfessionalRepo) ListAllProfessionals(_ context.Context, tenantID uuid.UUID) ([]Professional, error) {
	var out []Professional
	for _, p := range m.professionals {
		if p.TenantID == tenantID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *mockProfessionalRepo) MatchProfessionals(_ context.Context, tenantID uuid.UUID, email, license *string) ([]Professional, error) {
	var out []Professional
	for _, p := range m.professionals {
		if p.TenantID != tenantID {
			continue
		}
		byEmail := email != nil && p.Email != nil && strings.EqualFold(*email, *p.Email)
		byLicense := license != nil && p.LicenseNumber != nil && *license == *p.LicenseNumber
		if byEmail || byLicense {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *mockProfessionalRepo) CreateProfessional(_ context.Context, p Professional) (*Professional, error) {
	p.ID = uuid.New()
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	m.professionals[p.ID] = &p
	cp := p
	return &cp, nil
}

func (m *mockProfessionalRepo) UpdateProfessional(_ context.Context, p Professional) (*Professional, error) {
	current, ok := m.professionals[p.ID]
	if !ok || current.TenantID != p.TenantID {
		return nil, ErrProfessionalNotFound
	}
	m.updates++
	p.CreatedAt = current.CreatedAt
	p.UpdatedAt = time.Now()
	m.professionals[p.ID] = &p
	cp := p
	return &cp, nil
}

func (m *mockProfessionalRepo) add(p Professional) *Professional {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	m.professionals[p.ID] = &p
	return &p
}

func strPtr(s string) *string { return &s }

type staffFixture struct {
	svc    *Service
	repo   *mockProfessionalRepo
	tenant uuid.UUID
	owner  auth.Identity
	staff  auth.Identity
}

func newStaffFixture() *staffFixture {
	repo := newMockProfessionalRepo()
	tenant := uuid.New()
	return &staffFixture{
		svc:    NewService(repo, zerolog.Nop()),
		repo:   repo,
		tenant: tenant,
		owner:  auth.Identity{UserID: uuid.New(), TenantID: tenant, Roles: []auth.Role{auth.RoleOwner}},
		staff:  auth.Identity{UserID: uuid.New(), TenantID: tenant, Roles: []auth.Role{auth.RoleStaff}},
	}
}

func TestCreateProfessional(t *testing.T) {
	f := newStaffFixture()
	ctx := context.Background()

	created, err := f.svc.CreateProfessional(ctx, f.owner, Professional{
		FirstName:     "  Ana ",
		LastName:      "Gómez",
		Email:         strPtr("ana@centro.test"),
		LicenseNumber: strPtr("MN-1001"),
		Phone:         strPtr("   "),
		Active:        false,
	})
	require.NoError(t, err)
	assert.Equal(t, "Ana", created.FirstName)
	assert.Equal(t, f.tenant, created.TenantID)
	assert.True(t, created.Active, "new professionals start active")
	assert.Nil(t, created.Phone, "blank optional fields are dropped")

	_, err = f.svc.CreateProfessional(ctx, f.owner, Professional{FirstName: "Otra", LastName: "Ana", Email: strPtr("ANA@centro.test")})
	require.True(t, apperr.Is(err, apperr.KindConflict), "duplicate email: got %v", err)
	assert.Contains(t, err.Error(), "email")

	_, err = f.svc.CreateProfessional(ctx, f.owner, Professional{FirstName: "Luis", LastName: "Paz", LicenseNumber: strPtr("MN-1001")})
	require.True(t, apperr.Is(err, apperr.KindConflict), "duplicate license: got %v", err)
	assert.Contains(t, err.Error(), "license number")

	_, err = f.svc.CreateProfessional(ctx, f.owner, Professional{FirstName: "Luis"})
	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "lastName", appErr.Field)

	assert.Len(t, f.repo.professionals, 1)
}

func TestCreateProfessional_OtherTenantDoesNotCollide(t *testing.T) {
	f := newStaffFixture()
	f.repo.add(Professional{TenantID: uuid.New(), FirstName: "Ana", LastName: "Gómez", Email: strPtr("ana@centro.test"), Active: true})

	_, err := f.svc.CreateProfessional(context.Background(), f.owner, Professional{
		FirstName: "Ana", LastName: "Gómez", Email: strPtr("ana@centro.test"),
	})
	assert.NoError(t, err)
}

func TestCreateProfessional_ReactivatesDeactivated(t *testing.T) {
	f := newStaffFixture()
	ctx := context.Background()
	old := f.repo.add(Professional{
		TenantID:      f.tenant,
		FirstName:     "Ana",
		LastName:      "Gómez",
		Email:         strPtr("ana@centro.test"),
		LicenseNumber: strPtr("MN-1001"),
		Active:        false,
	})

	revived, err := f.svc.CreateProfessional(ctx, f.owner, Professional{
		FirstName: "Ana María",
		LastName:  "Gómez",
		Email:     strPtr("ana@centro.test"),
	})
	require.NoError(t, err)
	assert.Equal(t, old.ID, revived.ID, "the deactivated record is reused")
	assert.True(t, revived.Active)
	assert.Equal(t, "Ana María", revived.FirstName)
	assert.Len(t, f.repo.professionals, 1)
}

func TestCreateProfessional_EmailAndLicenseOfDifferentRecords(t *testing.T) {
	f := newStaffFixture()
	f.repo.add(Professional{TenantID: f.tenant, FirstName: "A", LastName: "A", Email: strPtr("a@centro.test")})
	f.repo.add(Professional{TenantID: f.tenant, FirstName: "B", LastName: "B", LicenseNumber: strPtr("MN-2")})

	_, err := f.svc.CreateProfessional(context.Background(), f.owner, Professional{
		FirstName: "C", LastName: "C", Email: strPtr("a@centro.test"), LicenseNumber: strPtr("MN-2"),
	})
	require.True(t, apperr.Is(err, apperr.KindConflict), "got %v", err)
	assert.Contains(t, err.Error(), "different professionals")
	assert.Zero(t, f.repo.updates)
}

func TestProfessionalWrites_RequireOwner(t *testing.T) {
	f := newStaffFixture()
	ctx := context.Background()
	p := f.repo.add(Professional{TenantID: f.tenant, FirstName: "Ana", LastName: "Gómez", Active: true})

	pid := p.ID
	self := auth.Identity{TenantID: f.tenant, Roles: []auth.Role{auth.RoleProfessional}, ProfessionalID: &pid}
	for name, caller := range map[string]auth.Identity{"staff": f.staff, "professional": self} {
		t.Run(name, func(t *testing.T) {
			_, err := f.svc.CreateProfessional(ctx, caller, Professional{FirstName: "X", LastName: "Y"})
			assert.ErrorIs(t, err, ErrForbidden)
			_, err = f.svc.UpdateProfessional(ctx, caller, pid, Professional{FirstName: "X", LastName: "Y"}, nil)
			assert.ErrorIs(t, err, ErrForbidden)
			assert.ErrorIs(t, f.svc.DeactivateProfessional(ctx, caller, pid), ErrForbidden)
		})
	}

	admin := auth.Identity{TenantID: f.tenant, Roles: []auth.Role{auth.RoleAdmin}}
	_, err := f.svc.CreateProfessional(ctx, admin, Professional{FirstName: "X", LastName: "Y"})
	assert.NoError(t, err, "admin")
}

func TestUpdateProfessional(t *testing.T) {
	f := newStaffFixture()
	ctx := context.Background()
	p := f.repo.add(Professional{TenantID: f.tenant, FirstName: "Ana", LastName: "Gómez", Email: strPtr("ana@centro.test"), Active: true})
	f.repo.add(Professional{TenantID: f.tenant, FirstName: "Luis", LastName: "Paz", Email: strPtr("luis@centro.test"), Active: true})
	f.repo.add(Professional{TenantID: f.tenant, FirstName: "Eva", LastName: "Sosa", LicenseNumber: strPtr("MN-9"), Active: false})

	updated, err := f.svc.UpdateProfessional(ctx, f.owner, p.ID, Professional{
		FirstName: "Ana", LastName: "Gómez Ruiz", Email: strPtr("ana@centro.test"), Specialty: strPtr("Cardiology"),
	}, nil)
	require.NoError(t, err, "keeping its own email is not a duplicate")
	assert.Equal(t, "Gómez Ruiz", updated.LastName)
	assert.Equal(t, "Cardiology", *updated.Specialty)
	assert.True(t, updated.Active, "nil active keeps the current state")

	_, err = f.svc.UpdateProfessional(ctx, f.owner, p.ID, Professional{FirstName: "Ana", LastName: "Gómez", Email: strPtr("luis@centro.test")}, nil)
	assert.True(t, apperr.Is(err, apperr.KindConflict), "email of an active colleague: got %v", err)

	_, err = f.svc.UpdateProfessional(ctx, f.owner, p.ID, Professional{FirstName: "Ana", LastName: "Gómez", LicenseNumber: strPtr("MN-9")}, nil)
	require.True(t, apperr.Is(err, apperr.KindConflict), "license of a deactivated colleague: got %v", err)
	assert.Contains(t, err.Error(), "deactivated")

	inactive := false
	updated, err = f.svc.UpdateProfessional(ctx, f.owner, p.ID, Professional{FirstName: "Ana", LastName: "Gómez"}, &inactive)
	require.NoError(t, err)
	assert.False(t, updated.Active)

	_, err = f.svc.UpdateProfessional(ctx, f.owner, uuid.New(), Professional{FirstName: "Ana", LastName: "Gómez"}, nil)
	assert.ErrorIs(t, err, ErrProfessionalNotFound)
}

func TestDeactivateProfessional(t *testing.T) {
	f := newStaffFixture()
	ctx := context.Background()
	p := f.repo.add(Professional{TenantID: f.tenant, FirstName: "Ana", LastName: "Gómez", Active: true})

	require.NoError(t, f.svc.DeactivateProfessional(ctx, f.owner, p.ID))
	assert.False(t, f.repo.professionals[p.ID].Active, "soft delete keeps the record")
	assert.Equal(t, 1, f.repo.updates)

	require.NoError(t, f.svc.DeactivateProfessional(ctx, f.owner, p.ID), "second deactivation")
	assert.Equal(t, 1, f.repo.updates, "already inactive, nothing to write")

	foreignOwner := auth.Identity{TenantID: uuid.New(), Roles: []auth.Role{auth.RoleOwner}}
	assert.ErrorIs(t, f.svc.DeactivateProfessional(ctx, foreignOwner, p.ID), ErrProfessionalNotFound)
}

func TestListAndGetProfessionals_InactiveVisibility(t *testing.T) {
	f := newStaffFixture()
	ctx := context.Background()
	active := f.repo.add(Professional{TenantID: f.tenant, FirstName: "Ana", LastName: "Gómez", Active: true})
	gone := f.repo.add(Professional{TenantID: f.tenant, FirstName: "Luis", LastName: "Paz", Active: false})
	f.repo.add(Professional{TenantID: uuid.New(), FirstName: "Eva", LastName: "Sosa", Active: true})

	list, err := f.svc.ListProfessionals(ctx, f.owner, false)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, active.ID, list[0].ID)

	list, err = f.svc.ListProfessionals(ctx, f.owner, true)
	require.NoError(t, err)
	assert.Len(t, list, 2, "owners may include deactivated professionals")

	list, err = f.svc.ListProfessionals(ctx, f.staff, true)
	require.NoError(t, err)
	assert.Len(t, list, 1, "staff only ever see active professionals")

	got, err := f.svc.GetProfessional(ctx, f.owner, gone.ID)
	require.NoError(t, err)
	assert.False(t, got.Active)

	_, err = f.svc.GetProfessional(ctx, f.staff, gone.ID)
	assert.ErrorIs(t, err, ErrProfessionalNotFound)

	_, err = f.svc.ListProfessionals(ctx, auth.Identity{TenantID: f.tenant}, false)
	assert.ErrorIs(t, err, ErrViewProfessional)
}
