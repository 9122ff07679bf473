package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hackgods/clinic-scheduling/internal/apperr"
	"github.com/hackgods/clinic-scheduling/internal/appointment"
)

const quickSearchLimit = 10

// Professionals

func listProfessionalsHandler(svc ProfessionalService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, err := identity(r)
		if err != nil {
			handleError(w, r, err)
			return
		}
		includeInactive, err := boolQuery(r, "includeInactive")
		if err != nil {
			handleError(w, r, err)
			return
		}

		list, err := svc.ListProfessionals(r.Context(), caller, includeInactive)
		if err != nil {
			handleError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, nonNil(list))
	}
}

func getProfessionalHandler(svc ProfessionalService) http.HandlerFunc {
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

		p, err := svc.GetProfessional(r.Context(), caller, id)
		if err != nil {
			handleError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

func createProfessionalHandler(svc ProfessionalService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, err := identity(r)
		if err != nil {
			handleError(w, r, err)
			return
		}
		var req ProfessionalRequest
		if err := decodeJSON(r, &req); err != nil {
			handleError(w, r, err)
			return
		}

		p, err := svc.CreateProfessional(r.Context(), caller, req.toProfessional())
		if err != nil {
			handleError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, p)
	}
}

func updateProfessionalHandler(svc ProfessionalService) http.HandlerFunc {
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
		var req ProfessionalRequest
		if err := decodeJSON(r, &req); err != nil {
			handleError(w, r, err)
			return
		}

		p, err := svc.UpdateProfessional(r.Context(), caller, id, req.toProfessional(), req.Active)
		if err != nil {
			handleError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

// deactivateProfessionalHandler is the soft delete behind DELETE.
func deactivateProfessionalHandler(svc ProfessionalService) http.HandlerFunc {
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

		if err := svc.DeactivateProfessional(r.Context(), caller, id); err != nil {
			handleError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// Patients

func listPatientsHandler(svc PatientService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, err := identity(r)
		if err != nil {
			handleError(w, r, err)
			return
		}
		filter := appointment.PatientFilter{Search: r.URL.Query().Get("search")}
		if filter.Limit, err = intQuery(r, "limit"); err != nil {
			handleError(w, r, err)
			return
		}
		if filter.Offset, err = intQuery(r, "offset"); err != nil {
			handleError(w, r, err)
			return
		}

		list, err := svc.ListPatients(r.Context(), caller, filter)
		if err != nil {
			handleError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, nonNil(list))
	}
}

// searchPatientsHandler is the short type-ahead lookup used while booking.
func searchPatientsHandler(svc PatientService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, err := identity(r)
		if err != nil {
			handleError(w, r, err)
			return
		}
		q := r.URL.Query().Get("q")
		if q == "" {
			handleError(w, r, apperr.Validation("q", "is required"))
			return
		}

		list, err := svc.ListPatients(r.Context(), caller, appointment.PatientFilter{Search: q, Limit: quickSearchLimit})
		if err != nil {
			handleError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, nonNil(list))
	}
}

func getPatientHandler(svc PatientService) http.HandlerFunc {
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

		p, err := svc.GetPatient(r.Context(), caller, id)
		if err != nil {
			handleError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

func patientByDNIHandler(svc PatientService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, err := identity(r)
		if err != nil {
			handleError(w, r, err)
			return
		}

		p, err := svc.FindPatientByDNI(r.Context(), caller, chi.URLParam(r, "dni"))
		if err != nil {
			handleError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

func updatePatientHandler(svc PatientService) http.HandlerFunc {
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
		var req PatientUpdateRequest
		if err := decodeJSON(r, &req); err != nil {
			handleError(w, r, err)
			return
		}

		p, err := svc.UpdatePatient(r.Context(), caller, id, appointment.PatientInput{
			DNI:             req.DNI,
			FirstName:       req.FirstName,
			LastName:        req.LastName,
			Email:           req.Email,
			Phone:           req.Phone,
			InsuranceName:   req.InsuranceName,
			InsuranceNumber: req.InsuranceNumber,
		})
		if err != nil {
			handleError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

func boolQuery(r *http.Request, name string) (bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, apperr.Validation(name, "must be true or false")
	}
	return v, nil
}

func intQuery(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, apperr.Validation(name, "must be a non-negative integer")
	}
	return n, nil
}
