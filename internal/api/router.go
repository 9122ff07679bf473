package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hackgods/clinic-scheduling/internal/appointment"
	"github.com/hackgods/clinic-scheduling/internal/auth"
	"github.com/hackgods/clinic-scheduling/internal/availability"
	"github.com/hackgods/clinic-scheduling/internal/clinic"
)

type AvailabilityService interface {
	AddRule(ctx context.Context, caller auth.Identity, professionalID uuid.UUID, rule availability.Rule) (*availability.Rule, error)
	ReplaceAllRules(ctx context.Context, caller auth.Identity, professionalID uuid.UUID, rules []availability.Rule) ([]availability.Rule, error)
	ResolveForDate(ctx context.Context, tenantID, professionalID uuid.UUID, date availability.Date) ([]availability.Rule, error)
	ListRules(ctx context.Context, tenantID, professionalID uuid.UUID) ([]availability.Rule, error)
	DeleteRule(ctx context.Context, caller auth.Identity, professionalID, ruleID uuid.UUID) error
	Slots(ctx context.Context, tenantID, professionalID uuid.UUID, date availability.Date) ([]availability.Slot, error)
}

type AppointmentService interface {
	CreateBooking(ctx context.Context, tenantID uuid.UUID, req appointment.BookingRequest) (*appointment.Appointment, error)
	UpdateStatus(ctx context.Context, caller auth.Identity, id uuid.UUID, token string) (*appointment.Appointment, error)
	Cancel(ctx context.Context, caller auth.Identity, id uuid.UUID) (*appointment.Appointment, error)
	Get(ctx context.Context, caller auth.Identity, id uuid.UUID) (*appointment.AppointmentDetail, error)
	List(ctx context.Context, caller auth.Identity, filter appointment.ListFilter) ([]appointment.AppointmentDetail, error)
	Occupied(ctx context.Context, tenantID, professionalID uuid.UUID, date availability.Date) ([]appointment.AppointmentDetail, error)
}

type ProfessionalService interface {
	ListProfessionals(ctx context.Context, caller auth.Identity, includeInactive bool) ([]clinic.Professional, error)
	GetProfessional(ctx context.Context, caller auth.Identity, id uuid.UUID) (*clinic.Professional, error)
	CreateProfessional(ctx context.Context, caller auth.Identity, p clinic.Professional) (*clinic.Professional, error)
	UpdateProfessional(ctx context.Context, caller auth.Identity, id uuid.UUID, p clinic.Professional, active *bool) (*clinic.Professional, error)
	DeactivateProfessional(ctx context.Context, caller auth.Identity, id uuid.UUID) error
}

type PatientService interface {
	ListPatients(ctx context.Context, caller auth.Identity, filter appointment.PatientFilter) ([]appointment.Patient, error)
	GetPatient(ctx context.Context, caller auth.Identity, id uuid.UUID) (*appointment.Patient, error)
	FindPatientByDNI(ctx context.Context, caller auth.Identity, dni string) (*appointment.Patient, error)
	UpdatePatient(ctx context.Context, caller auth.Identity, id uuid.UUID, in appointment.PatientInput) (*appointment.Patient, error)
}

type Directory = clinic.Directory

type RouterConfig struct {
	Availability  AvailabilityService
	Appointments  AppointmentService
	Professionals ProfessionalService
	Patients      PatientService
	Directory     Directory
	Verifier      *auth.Verifier
	Postgres      Pinger
	Redis         Pinger
	Logger        zerolog.Logger
	CORSOrigins   []string
	// PublicRateLimit is requests per minute per client IP on /t routes.
	PublicRateLimit int
	Env             string
	Version         string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Apply middleware
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))
	r.Use(RecoveryMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health endpoints
	health := NewHealthHandler(cfg.Postgres, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	// Public booking pages
	r.Route("/t/{slug}", func(r chi.Router) {
		if cfg.PublicRateLimit > 0 {
			r.Use(httprate.LimitByIP(cfg.PublicRateLimit, time.Minute))
		}
		r.Use(resolveTenant(cfg.Directory))

		r.Get("/", publicTenantHandler())
		r.Get("/professionals", publicProfessionalsHandler(cfg.Directory))
		r.Get("/professionals/{id}/availability", publicRulesHandler(cfg.Availability))
		r.Get("/professionals/{id}/slots", publicSlotsHandler(cfg.Availability))
		r.Get("/appointments", publicOccupiedHandler(cfg.Appointments))
		r.Post("/appointments", publicBookingHandler(cfg.Appointments, cfg.Directory))
	})

	// Staff endpoints
	r.Group(func(r chi.Router) {
		r.Use(auth.Authenticate(cfg.Verifier))

		r.Route("/professionals", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(auth.RequireRole(auth.RoleOwner, auth.RoleStaff, auth.RoleProfessional))
				r.Get("/", listProfessionalsHandler(cfg.Professionals))
				r.Get("/{id}", getProfessionalHandler(cfg.Professionals))
				r.Get("/{id}/availability", listRulesHandler(cfg.Availability))
				r.Get("/{id}/availability/date/{date}", resolveForDateHandler(cfg.Availability))
				r.Get("/{id}/slots", slotsHandler(cfg.Availability))
			})
			r.Group(func(r chi.Router) {
				r.Use(auth.RequireRole(auth.RoleOwner))
				r.Post("/", createProfessionalHandler(cfg.Professionals))
				r.Put("/{id}", updateProfessionalHandler(cfg.Professionals))
				r.Delete("/{id}", deactivateProfessionalHandler(cfg.Professionals))
			})
			r.Group(func(r chi.Router) {
				r.Use(auth.RequireRole(auth.RoleOwner, auth.RoleProfessional))
				r.Post("/{id}/availability", addRuleHandler(cfg.Availability))
				r.Put("/{id}/availability", replaceRulesHandler(cfg.Availability))
				r.Delete("/{id}/availability/{ruleId}", deleteRuleHandler(cfg.Availability))
			})
		})

		r.Route("/patients", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(auth.RequireRole(auth.RoleOwner, auth.RoleStaff, auth.RoleProfessional))
				r.Get("/", listPatientsHandler(cfg.Patients))
				r.Get("/search", searchPatientsHandler(cfg.Patients))
				r.Get("/by-dni/{dni}", patientByDNIHandler(cfg.Patients))
				r.Get("/{id}", getPatientHandler(cfg.Patients))
			})
			r.Group(func(r chi.Router) {
				r.Use(auth.RequireRole(auth.RoleOwner, auth.RoleStaff))
				r.Put("/{id}", updatePatientHandler(cfg.Patients))
			})
		})

		r.Route("/appointments", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(auth.RequireRole(auth.RoleOwner, auth.RoleStaff, auth.RoleProfessional))
				r.Get("/", listAppointmentsHandler(cfg.Appointments))
				r.Get("/{id}", getAppointmentHandler(cfg.Appointments))
			})
			r.Group(func(r chi.Router) {
				r.Use(auth.RequireRole(auth.RoleOwner, auth.RoleStaff))
				r.Post("/", createAppointmentHandler(cfg.Appointments, cfg.Directory))
				r.Put("/{id}/status", updateStatusHandler(cfg.Appointments))
				r.Delete("/{id}", cancelAppointmentHandler(cfg.Appointments))
			})
		})
	})

	return r
}
