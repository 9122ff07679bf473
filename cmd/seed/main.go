package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"
	_ "time/tzdata"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hackgods/clinic-scheduling/internal/auth"
	"github.com/hackgods/clinic-scheduling/internal/availability"
	"github.com/hackgods/clinic-scheduling/internal/clinic"
	"github.com/hackgods/clinic-scheduling/internal/config"
	"github.com/hackgods/clinic-scheduling/internal/db"
	"github.com/hackgods/clinic-scheduling/internal/logger"
)

var specialties = []string{
	"Dermatology",
	"Cardiology",
	"General Practice",
	"Orthopedics",
	"Endocrinology",
	"Neurology",
	"Pediatrics",
	"Psychiatry",
	"Ophthalmology",
	"ENT",
}

func main() {
	tenants := flag.Int("tenants", 3, "number of clinics to create")
	perTenant := flag.Int("professionals", 5, "professionals per clinic")
	timezone := flag.String("timezone", clinic.DefaultTimezone, "clinic time zone")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		bootLog := zerolog.New(os.Stderr).With().Timestamp().Logger()
		bootLog.Fatal().Err(err).Msg("config load error")
	}
	log := logger.New(cfg.IsProduction(), cfg.LogLevel)
	log.Info().Int("tenants", *tenants).Int("professionals", *perTenant).Msg("seed starting")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	pool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN, log)
	cancel()
	if err != nil {
		log.Fatal().Err(err).Msg("connect postgres")
	}
	defer pool.Close()

	if err := db.NewMigrator(pool, log).Up(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("migrate")
	}

	s := &seeder{
		faker:     gofakeit.New(0),
		directory: clinic.NewPgRepository(pool),
		log:       log,
		verifier:  auth.NewVerifier(cfg.JWTSecret, cfg.JWTIssuer),
	}
	s.rules = availability.NewService(availability.NewPgRepository(pool), s.directory, nil, log)

	for i := 0; i < *tenants; i++ {
		slug := "demo"
		if i > 0 {
			slug = fmt.Sprintf("clinic-%d", i)
		}
		if err := s.seedTenant(context.Background(), slug, *timezone, *perTenant); err != nil {
			log.Fatal().Err(err).Str("slug", slug).Msg("seed tenant")
		}
	}

	log.Info().Msg("seed complete")
}

type seeder struct {
	faker     *gofakeit.Faker
	directory *clinic.PgRepository
	rules     *availability.Service
	verifier  *auth.Verifier
	log       zerolog.Logger
}

func (s *seeder) seedTenant(ctx context.Context, slug, timezone string, professionals int) error {
	email := s.faker.Email()
	phone := s.faker.Phone()
	street := s.faker.Street()
	city := s.faker.City()

	tenant, err := s.directory.CreateTenant(ctx, clinic.Tenant{
		Name:                       s.faker.Company() + " Medical Center",
		Slug:                       slug,
		Email:                      &email,
		Phone:                      &phone,
		Address:                    &street,
		City:                       &city,
		Timezone:                   timezone,
		AppointmentDurationMinutes: clinic.DefaultAppointmentDurationMinutes,
		Active:                     true,
	})
	if err != nil {
		return fmt.Errorf("create tenant: %w", err)
	}

	owner := auth.Identity{UserID: uuid.New(), TenantID: tenant.ID, Roles: []auth.Role{auth.RoleOwner}}
	token, err := s.verifier.Issue(owner, 30*24*time.Hour)
	if err != nil {
		return fmt.Errorf("issue owner token: %w", err)
	}
	s.log.Info().
		Str("tenant_id", tenant.ID.String()).
		Str("slug", tenant.Slug).
		Str("owner_token", token).
		Msg("tenant seeded")

	for i := 0; i < professionals; i++ {
		if err := s.seedProfessional(ctx, owner, tenant); err != nil {
			return err
		}
	}
	return nil
}

func (s *seeder) seedProfessional(ctx context.Context, owner auth.Identity, tenant *clinic.Tenant) error {
	specialty := specialties[s.faker.Number(0, len(specialties)-1)]
	license := fmt.Sprintf("MN-%06d", s.faker.Number(1, 999999))
	email := s.faker.Email()

	p, err := s.directory.CreateProfessional(ctx, clinic.Professional{
		TenantID:      tenant.ID,
		FirstName:     s.faker.FirstName(),
		LastName:      s.faker.LastName(),
		Specialty:     &specialty,
		LicenseNumber: &license,
		Email:         &email,
		Active:        true,
	})
	if err != nil {
		return fmt.Errorf("create professional: %w", err)
	}

	rules, err := s.rules.ReplaceAllRules(ctx, owner, p.ID, s.weeklyRules())
	if err != nil {
		return fmt.Errorf("rules for %s: %w", p.FullName(), err)
	}

	s.log.Info().
		Str("professional_id", p.ID.String()).
		Str("name", p.FullName()).
		Int("rules", len(rules)).
		Msg("professional seeded")
	return nil
}

// weeklyRules gives every weekday a morning and an afternoon block, and
// Saturday mornings to some professionals.
func (s *seeder) weeklyRules() []availability.Rule {
	slot := []int{15, 20, 30}[s.faker.Number(0, 2)]
	block := func(wd time.Weekday, fromH, toH int) availability.Rule {
		w := availability.Weekday(wd)
		return availability.Rule{
			Weekday:             &w,
			StartTime:           availability.NewTimeOfDay(fromH, 0),
			EndTime:             availability.NewTimeOfDay(toH, 0),
			SlotDurationMinutes: slot,
			Active:              true,
		}
	}

	var rules []availability.Rule
	for wd := time.Monday; wd <= time.Friday; wd++ {
		rules = append(rules, block(wd, 9, 13), block(wd, 14, 18))
	}
	if s.faker.Bool() {
		rules = append(rules, block(time.Saturday, 9, 12))
	}
	return rules
}
