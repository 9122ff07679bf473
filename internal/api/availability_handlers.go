package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hackgods/clinic-scheduling/internal/apperr"
	"github.com/hackgods/clinic-scheduling/internal/auth"
	"github.com/hackgods/clinic-scheduling/internal/availability"
)

var errViewAvailability = apperr.Forbidden("not allowed to view this professional's availability")

// viewer resolves the caller and the professional path parameter for the
// read-only availability routes.
func viewer(r *http.Request) (auth.Identity, uuid.UUID, error) {
	caller, err := identity(r)
	if err != nil {
		return caller, uuid.Nil, err
	}
	pid, err := uuidParam(r, "id")
	if err != nil {
		return caller, uuid.Nil, err
	}
	if !caller.CanViewAvailability(pid) {
		return caller, uuid.Nil, errViewAvailability
	}
	return caller, pid, nil
}

func listRulesHandler(svc AvailabilityService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, pid, err := viewer(r)
		if err != nil {
			handleError(w, r, err)
			return
		}

		rules, err := svc.ListRules(r.Context(), caller.TenantID, pid)
		if err != nil {
			handleError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, nonNil(rules))
	}
}

func resolveForDateHandler(svc AvailabilityService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, pid, err := viewer(r)
		if err != nil {
			handleError(w, r, err)
			return
		}
		date, err := availability.ParseDate(chi.URLParam(r, "date"))
		if err != nil {
			handleError(w, r, apperr.Validation("date", "must be a date in YYYY-MM-DD format"))
			return
		}

		rules, err := svc.ResolveForDate(r.Context(), caller.TenantID, pid, date)
		if err != nil {
			handleError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, nonNil(rules))
	}
}

func slotsHandler(svc AvailabilityService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, pid, err := viewer(r)
		if err != nil {
			handleError(w, r, err)
			return
		}
		date, err := dateQuery(r, "date")
		if err != nil {
			handleError(w, r, err)
			return
		}

		slots, err := svc.Slots(r.Context(), caller.TenantID, pid, date)
		if err != nil {
			handleError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, nonNil(slots))
	}
}

func addRuleHandler(svc AvailabilityService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, err := identity(r)
		if err != nil {
			handleError(w, r, err)
			return
		}
		pid, err := uuidParam(r, "id")
		if err != nil {
			handleError(w, r, err)
			return
		}

		var req RuleRequest
		if err := decodeJSON(r, &req); err != nil {
			handleError(w, r, err)
			return
		}
		rule, err := req.toRule("")
		if err != nil {
			handleError(w, r, err)
			return
		}

		created, err := svc.AddRule(r.Context(), caller, pid, rule)
		if err != nil {
			handleError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

// replaceRulesHandler takes the full rule set as a JSON array.
func replaceRulesHandler(svc AvailabilityService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, err := identity(r)
		if err != nil {
			handleError(w, r, err)
			return
		}
		pid, err := uuidParam(r, "id")
		if err != nil {
			handleError(w, r, err)
			return
		}

		var reqs []RuleRequest
		if err := json.NewDecoder(r.Body).Decode(&reqs); err != nil {
			handleError(w, r, apperr.Validation("body", "expected a JSON array of rules"))
			return
		}

		rules := make([]availability.Rule, 0, len(reqs))
		for i, req := range reqs {
			prefix := fmt.Sprintf("rules[%d].", i)
			if err := validateStruct(req, prefix); err != nil {
				handleError(w, r, err)
				return
			}
			rule, err := req.toRule(prefix)
			if err != nil {
				handleError(w, r, err)
				return
			}
			rules = append(rules, rule)
		}

		saved, err := svc.ReplaceAllRules(r.Context(), caller, pid, rules)
		if err != nil {
			handleError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, nonNil(saved))
	}
}

func deleteRuleHandler(svc AvailabilityService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, err := identity(r)
		if err != nil {
			handleError(w, r, err)
			return
		}
		pid, err := uuidParam(r, "id")
		if err != nil {
			handleError(w, r, err)
			return
		}
		ruleID, err := uuidParam(r, "ruleId")
		if err != nil {
			handleError(w, r, err)
			return
		}

		if err := svc.DeleteRule(r.Context(), caller, pid, ruleID); err != nil {
			handleError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// nonNil keeps empty results rendering as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
