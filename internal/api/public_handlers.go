package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hackgods/clinic-scheduling/internal/apperr"
	"github.com/hackgods/clinic-scheduling/internal/clinic"
)

type tenantKey struct{}

// resolveTenant loads the clinic named by {slug} for the public routes.
// Inactive clinics are not found.
func resolveTenant(dir Directory) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tenant, err := dir.FindTenantBySlug(r.Context(), chi.URLParam(r, "slug"))
			if err != nil {
				handleError(w, r, err)
				return
			}
			if !tenant.Active {
				handleError(w, r, clinic.ErrTenantNotFound)
				return
			}
			ctx := context.WithValue(r.Context(), tenantKey{}, tenant)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func tenantFrom(r *http.Request) *clinic.Tenant {
	t, _ := r.Context().Value(tenantKey{}).(*clinic.Tenant)
	return t
}

func publicTenantHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, toPublicTenant(tenantFrom(r)))
	}
}

func publicProfessionalsHandler(dir Directory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenant := tenantFrom(r)

		list, err := dir.ListProfessionals(r.Context(), tenant.ID)
		if err != nil {
			handleError(w, r, err)
			return
		}

		resp := make([]PublicProfessionalResponse, 0, len(list))
		for _, p := range list {
			if !p.Active {
				continue
			}
			resp = append(resp, PublicProfessionalResponse{
				ID:        p.ID,
				FirstName: p.FirstName,
				LastName:  p.LastName,
				FullName:  p.FullName(),
				Specialty: p.Specialty,
			})
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// publicRulesHandler lists the active rules, or with ?date= the rules in
// effect on that date.
func publicRulesHandler(svc AvailabilityService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenant := tenantFrom(r)
		pid, err := uuidParam(r, "id")
		if err != nil {
			handleError(w, r, err)
			return
		}

		if r.URL.Query().Get("date") != "" {
			date, err := dateQuery(r, "date")
			if err != nil {
				handleError(w, r, err)
				return
			}
			rules, err := svc.ResolveForDate(r.Context(), tenant.ID, pid, date)
			if err != nil {
				handleError(w, r, err)
				return
			}
			writeJSON(w, http.StatusOK, nonNil(rules))
			return
		}

		rules, err := svc.ListRules(r.Context(), tenant.ID, pid)
		if err != nil {
			handleError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, nonNil(rules))
	}
}

func publicSlotsHandler(svc AvailabilityService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenant := tenantFrom(r)
		pid, err := uuidParam(r, "id")
		if err != nil {
			handleError(w, r, err)
			return
		}
		date, err := dateQuery(r, "date")
		if err != nil {
			handleError(w, r, err)
			return
		}

		slots, err := svc.Slots(r.Context(), tenant.ID, pid, date)
		if err != nil {
			handleError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, nonNil(slots))
	}
}

func publicOccupiedHandler(svc AppointmentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenant := tenantFrom(r)
		pid, err := uuid.Parse(r.URL.Query().Get("professionalId"))
		if err != nil {
			handleError(w, r, apperr.Validation("professionalId", "must be a valid UUID"))
			return
		}
		date, err := dateQuery(r, "date")
		if err != nil {
			handleError(w, r, err)
			return
		}

		list, err := svc.Occupied(r.Context(), tenant.ID, pid, date)
		if err != nil {
			handleError(w, r, err)
			return
		}

		resp := make([]OccupiedResponse, 0, len(list))
		for _, a := range list {
			resp = append(resp, OccupiedResponse{StartTime: a.StartTime, EndTime: a.EndTime})
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func publicBookingHandler(svc AppointmentService, dir Directory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenant := tenantFrom(r)

		var req CreateBookingRequest
		if err := decodeJSON(r, &req); err != nil {
			handleError(w, r, err)
			return
		}
		booking, err := req.toBooking(tenant.Location())
		if err != nil {
			handleError(w, r, err)
			return
		}

		appt, err := svc.CreateBooking(r.Context(), tenant.ID, booking)
		if err != nil {
			handleError(w, r, err)
			return
		}

		resp := BookingConfirmation{
			AppointmentID:    appt.ID,
			ConfirmationCode: appt.ConfirmationCode(),
			StartTime:        appt.StartTime,
			EndTime:          appt.EndTime,
			Status:           appt.Status,
		}
		if p, err := dir.FindProfessional(r.Context(), tenant.ID, appt.ProfessionalID); err == nil {
			resp.ProfessionalName = p.FullName()
		}
		writeJSON(w, http.StatusCreated, resp)
	}
}
