package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-scheduling/internal/apperr"
	"github.com/hackgods/clinic-scheduling/internal/appointment"
	"github.com/hackgods/clinic-scheduling/internal/availability"
)

func (req CreateBookingRequest) toBooking(loc *time.Location) (appointment.BookingRequest, error) {
	pid, err := uuid.Parse(req.ProfessionalID)
	if err != nil {
		return appointment.BookingRequest{}, apperr.Validation("professionalId", "must be a valid UUID")
	}
	start, err := parseStartTime(req.StartDateTime, loc)
	if err != nil {
		return appointment.BookingRequest{}, err
	}

	return appointment.BookingRequest{
		ProfessionalID: pid,
		Start:          start,
		Notes:          req.Notes,
		Patient: appointment.PatientInput{
			DNI:             req.Patient.DNI,
			FirstName:       req.Patient.FirstName,
			LastName:        req.Patient.LastName,
			Email:           req.Patient.Email,
			Phone:           req.Patient.Phone,
			InsuranceName:   req.Patient.InsuranceName,
			InsuranceNumber: req.Patient.InsuranceNumber,
		},
	}, nil
}

// createAppointmentHandler books on behalf of a patient at the front desk.
func createAppointmentHandler(svc AppointmentService, dir Directory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, err := identity(r)
		if err != nil {
			handleError(w, r, err)
			return
		}
		if !caller.CanManageAppointments() {
			handleError(w, r, appointment.ErrForbidden)
			return
		}

		var req CreateBookingRequest
		if err := decodeJSON(r, &req); err != nil {
			handleError(w, r, err)
			return
		}

		tenant, err := dir.GetTenant(r.Context(), caller.TenantID)
		if err != nil {
			handleError(w, r, err)
			return
		}
		booking, err := req.toBooking(tenant.Location())
		if err != nil {
			handleError(w, r, err)
			return
		}

		appt, err := svc.CreateBooking(r.Context(), caller.TenantID, booking)
		if err != nil {
			handleError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, toAppointmentResponse(appt))
	}
}

func listAppointmentsHandler(svc AppointmentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, err := identity(r)
		if err != nil {
			handleError(w, r, err)
			return
		}
		filter, err := parseListFilter(r)
		if err != nil {
			handleError(w, r, err)
			return
		}

		list, err := svc.List(r.Context(), caller, filter)
		if err != nil {
			handleError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, nonNil(list))
	}
}

func getAppointmentHandler(svc AppointmentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, err := identity(r)
		if err != nil {
			handleError(w, r, err)
			return
		}
		id, err := uuidParam(r, "id")
		if err != nil {
			handleError(w, r, err)
			return
		}

		detail, err := svc.Get(r.Context(), caller, id)
		if err != nil {
			handleError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, detail)
	}
}

// updateStatusHandler reads the status from ?status= or a {"status"} body.
func updateStatusHandler(svc AppointmentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, err := identity(r)
		if err != nil {
			handleError(w, r, err)
			return
		}
		id, err := uuidParam(r, "id")
		if err != nil {
			handleError(w, r, err)
			return
		}

		token := r.URL.Query().Get("status")
		if token == "" && r.Body != nil {
			var req UpdateStatusRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err == nil {
				token = req.Status
			}
		}
		if token == "" {
			handleError(w, r, apperr.Validation("status", "is required"))
			return
		}

		appt, err := svc.UpdateStatus(r.Context(), caller, id, token)
		if err != nil {
			handleError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func cancelAppointmentHandler(svc AppointmentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, err := identity(r)
		if err != nil {
			handleError(w, r, err)
			return
		}
		id, err := uuidParam(r, "id")
		if err != nil {
			handleError(w, r, err)
			return
		}

		appt, err := svc.Cancel(r.Context(), caller, id)
		if err != nil {
			handleError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func parseListFilter(r *http.Request) (appointment.ListFilter, error) {
	q := r.URL.Query()
	var f appointment.ListFilter

	for _, p := range []struct {
		name string
		dst  **uuid.UUID
	}{
		{"professionalId", &f.ProfessionalID},
		{"patientId", &f.PatientID},
	} {
		raw := q.Get(p.name)
		if raw == "" {
			continue
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			return f, apperr.Validation(p.name, "must be a valid UUID")
		}
		*p.dst = &id
	}

	if raw := q.Get("status"); raw != "" {
		st, err := appointment.ParseStatus(raw)
		if err != nil {
			return f, err
		}
		f.Status = &st
	}

	for _, p := range []struct {
		name string
		dst  **time.Time
	}{
		{"from", &f.From},
		{"to", &f.To},
	} {
		raw := q.Get(p.name)
		if raw == "" {
			continue
		}
		t, err := parseBound(raw)
		if err != nil {
			return f, apperr.Validation(p.name, "must be a date or an RFC 3339 date-time")
		}
		*p.dst = &t
	}

	var err error
	if f.Limit, err = intQuery(r, "limit"); err != nil {
		return f, err
	}
	if f.Offset, err = intQuery(r, "offset"); err != nil {
		return f, err
	}

	return f, nil
}

func parseBound(raw string) (time.Time, error) {
	if d, err := availability.ParseDate(raw); err == nil {
		return d.In(time.UTC), nil
	}
	return time.Parse(time.RFC3339, raw)
}
