package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hackgods/clinic-scheduling/internal/apperr"
	"github.com/hackgods/clinic-scheduling/internal/auth"
	"github.com/hackgods/clinic-scheduling/internal/availability"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, details string) {
	writeJSON(w, status, ErrorResponse{Error: code, Details: details})
}

var kindStatus = map[apperr.Kind]struct {
	status int
	code   string
}{
	apperr.KindValidation:   {http.StatusBadRequest, "validation_error"},
	apperr.KindConflict:     {http.StatusConflict, "conflict"},
	apperr.KindBusiness:     {http.StatusUnprocessableEntity, "business_rule_violation"},
	apperr.KindNotFound:     {http.StatusNotFound, "not_found"},
	apperr.KindUnauthorized: {http.StatusUnauthorized, "unauthorized"},
	apperr.KindForbidden:    {http.StatusForbidden, "forbidden"},
}

// handleError renders err by its kind. Errors without a kind are logged and
// reported as a bare 500.
func handleError(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		if m, ok := kindStatus[appErr.Kind]; ok {
			writeJSON(w, m.status, ErrorResponse{
				Error:   m.code,
				Details: appErr.Message,
				Field:   appErr.Field,
				Context: appErr.Details,
			})
			return
		}
	}

	zerolog.Ctx(r.Context()).Error().Err(err).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Msg("request failed")
	writeError(w, http.StatusInternalServerError, "internal_error", "an unexpected error occurred")
}

// decodeJSON parses the body into dst and runs the struct validation tags.
func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperr.Validation("body", "could not parse JSON")
	}
	return validateStruct(dst, "")
}

func validateStruct(v any, prefix string) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apperr.Validation("body", "invalid request")
	}

	fe := verrs[0]
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}
	return apperr.Validation(prefix+field, "failed on %s", validationMessage(fe))
}

func validationMessage(fe validator.FieldError) string {
	if fe.Param() != "" {
		return fmt.Sprintf("%s=%s", fe.Tag(), fe.Param())
	}
	return fe.Tag()
}

func uuidParam(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, apperr.Validation(name, "must be a valid UUID")
	}
	return id, nil
}

func dateQuery(r *http.Request, name string) (availability.Date, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return availability.Date{}, apperr.Validation(name, "is required")
	}
	d, err := availability.ParseDate(raw)
	if err != nil {
		return availability.Date{}, apperr.Validation(name, "must be a date in YYYY-MM-DD format")
	}
	return d, nil
}

func identity(r *http.Request) (auth.Identity, error) {
	id, ok := auth.FromContext(r.Context())
	if !ok {
		return auth.Identity{}, apperr.Unauthorized("missing identity")
	}
	return id, nil
}

var localLayouts = []string{"2006-01-02T15:04:05", "2006-01-02T15:04"}

// parseStartTime accepts RFC 3339 or a wall-clock time without offset, which
// is read in the clinic's time zone.
func parseStartTime(s string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, apperr.Validation("startDateTime", "must be an ISO-8601 date-time")
}

func (req RuleRequest) toRule(prefix string) (availability.Rule, error) {
	rule := availability.Rule{
		SlotDurationMinutes: req.SlotDurationMinutes,
		Active:              true,
		Closed:              req.Closed,
	}
	if req.Active != nil {
		rule.Active = *req.Active
	}

	if req.Weekday != nil {
		wd, err := availability.ParseWeekday(*req.Weekday)
		if err != nil {
			return rule, apperr.Validation(prefix+"weekday", "must be a day name such as MONDAY")
		}
		rule.Weekday = &wd
	}
	if req.SpecificDate != nil {
		d, err := availability.ParseDate(*req.SpecificDate)
		if err != nil {
			return rule, apperr.Validation(prefix+"specificDate", "must be a date in YYYY-MM-DD format")
		}
		rule.SpecificDate = &d
	}

	if req.Closed {
		return rule, nil
	}

	start, err := availability.ParseTimeOfDay(req.StartTime)
	if err != nil {
		return rule, apperr.Validation(prefix+"startTime", "must be a time in HH:MM format")
	}
	end, err := availability.ParseTimeOfDay(req.EndTime)
	if err != nil {
		return rule, apperr.Validation(prefix+"endTime", "must be a time in HH:MM format")
	}
	rule.StartTime, rule.EndTime = start, end
	return rule, nil
}
