package availability

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hackgods/clinic-scheduling/internal/apperr"
	"github.com/hackgods/clinic-scheduling/internal/auth"
	"github.com/hackgods/clinic-scheduling/internal/clinic"
)

var ErrForbidden = apperr.Forbidden("not allowed to manage this professional's availability")

type Service struct {
	repo      Repository
	dir       Directory
	occupancy Occupancy
	log       zerolog.Logger
	now       func() time.Time
}

func NewService(repo Repository, dir Directory, occupancy Occupancy, log zerolog.Logger) *Service {
	return &Service{
		repo:      repo,
		dir:       dir,
		occupancy: occupancy,
		log:       log.With().Str("component", "availability").Logger(),
		now:       time.Now,
	}
}

// AddRule stores one rule after checking it against the professional's
// active rules of the same weekday or date. The new rule is checked even when
// it is itself inactive.
func (s *Service) AddRule(ctx context.Context, caller auth.Identity, professionalID uuid.UUID, rule Rule) (*Rule, error) {
	if err := s.authorizeWrite(ctx, caller, professionalID); err != nil {
		return nil, err
	}

	rule.ProfessionalID = professionalID
	if err := validateRule(&rule, ""); err != nil {
		return nil, err
	}

	existing, err := s.repo.ListActiveByKey(ctx, professionalID, rule.Key())
	if err != nil {
		return nil, fmt.Errorf("load rules for %s: %w", rule.Key(), err)
	}
	for _, other := range existing {
		if Conflicts(rule, other) {
			return nil, conflictWithExisting(other)
		}
	}

	created, err := s.repo.Insert(ctx, rule)
	if err != nil {
		return nil, fmt.Errorf("insert rule: %w", err)
	}

	s.log.Info().
		Str("professional_id", professionalID.String()).
		Str("rule_id", created.ID.String()).
		Str("recurrence", created.Key().String()).
		Str("window", created.Window()).
		Msg("availability rule added")

	return created, nil
}

// ReplaceAllRules swaps the professional's whole schedule for rules. Every
// rule is validated, and the batch checked against itself regardless of the
// active flag, before anything is written.
func (s *Service) ReplaceAllRules(ctx context.Context, caller auth.Identity, professionalID uuid.UUID, rules []Rule) ([]Rule, error) {
	if err := s.authorizeWrite(ctx, caller, professionalID); err != nil {
		return nil, err
	}

	for i := range rules {
		rules[i].ProfessionalID = professionalID
		if err := validateRule(&rules[i], fmt.Sprintf("rules[%d].", i)); err != nil {
			return nil, err
		}
	}

	for i := 0; i < len(rules); i++ {
		for j := i + 1; j < len(rules); j++ {
			if Conflicts(rules[i], rules[j]) {
				return nil, conflictInBatch(rules[i], rules[j])
			}
		}
	}

	stored, err := s.repo.ReplaceAll(ctx, professionalID, rules)
	if err != nil {
		return nil, fmt.Errorf("replace rules: %w", err)
	}

	s.log.Info().
		Str("professional_id", professionalID.String()).
		Int("rules", len(stored)).
		Msg("availability rules replaced")

	return stored, nil
}

// ResolveForDate returns the rules in effect on date. Active rules for that
// exact date win; only when there are none do the weekday rules apply.
func (s *Service) ResolveForDate(ctx context.Context, tenantID, professionalID uuid.UUID, date Date) ([]Rule, error) {
	if _, err := s.dir.FindProfessional(ctx, tenantID, professionalID); err != nil {
		return nil, err
	}
	return s.resolve(ctx, professionalID, date)
}

func (s *Service) resolve(ctx context.Context, professionalID uuid.UUID, date Date) ([]Rule, error) {
	specific, err := s.repo.ListActiveByKey(ctx, professionalID, DateKey(date))
	if err != nil {
		return nil, fmt.Errorf("load rules for %s: %w", date, err)
	}
	if len(specific) > 0 {
		return sortByStart(specific), nil
	}

	recurring, err := s.repo.ListActiveByKey(ctx, professionalID, WeekdayKey(date.Weekday()))
	if err != nil {
		return nil, fmt.Errorf("load rules for %s: %w", date.Weekday(), err)
	}
	return sortByStart(recurring), nil
}

func (s *Service) ListRules(ctx context.Context, tenantID, professionalID uuid.UUID) ([]Rule, error) {
	if _, err := s.dir.FindProfessional(ctx, tenantID, professionalID); err != nil {
		return nil, err
	}
	rules, err := s.repo.ListActive(ctx, professionalID)
	if err != nil {
		return nil, fmt.Errorf("list rules: %w", err)
	}
	return rules, nil
}

// DeleteRule hard-deletes a rule. A rule that belongs to a different
// professional of the same clinic is a conflict; one from another clinic
// does not exist as far as the caller is concerned.
func (s *Service) DeleteRule(ctx context.Context, caller auth.Identity, professionalID, ruleID uuid.UUID) error {
	if err := s.authorizeWrite(ctx, caller, professionalID); err != nil {
		return err
	}

	rule, err := s.repo.GetByID(ctx, ruleID)
	if err != nil {
		return err
	}

	if rule.ProfessionalID != professionalID {
		if _, err := s.dir.FindProfessional(ctx, caller.TenantID, rule.ProfessionalID); err != nil {
			if errors.Is(err, clinic.ErrProfessionalNotFound) {
				return ErrRuleNotFound
			}
			return err
		}
		return apperr.Conflict(map[string]string{
			"rule_id":         ruleID.String(),
			"professional_id": professionalID.String(),
		}, "rule does not belong to this professional")
	}

	if err := s.repo.Delete(ctx, ruleID); err != nil {
		return err
	}

	s.log.Info().
		Str("professional_id", professionalID.String()).
		Str("rule_id", ruleID.String()).
		Msg("availability rule deleted")

	return nil
}

// Slots splits the windows in effect on date into bookable start times in
// the clinic's time zone. Past starts and starts already booked are left out.
func (s *Service) Slots(ctx context.Context, tenantID, professionalID uuid.UUID, date Date) ([]Slot, error) {
	tenant, err := s.dir.GetTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	rules, err := s.ResolveForDate(ctx, tenantID, professionalID, date)
	if err != nil {
		return nil, err
	}

	loc := tenant.Location()
	dayStart := date.In(loc)
	dayEnd := dayStart.AddDate(0, 0, 1)

	booked := map[int64]bool{}
	if s.occupancy != nil {
		starts, err := s.occupancy.BookedStarts(ctx, professionalID, dayStart, dayEnd)
		if err != nil {
			return nil, fmt.Errorf("load booked starts: %w", err)
		}
		for _, st := range starts {
			booked[st.Unix()] = true
		}
	}

	now := s.now()
	slots := []Slot{}
	for _, r := range rules {
		if r.Closed || r.SlotDurationMinutes <= 0 {
			continue
		}
		step := TimeOfDay(r.SlotDurationMinutes * 60)
		for at := r.StartTime; at+step <= r.EndTime; at += step {
			start := time.Date(date.Year, date.Month, date.Day, 0, 0, int(at), 0, loc)
			if start.Before(now) || booked[start.Unix()] {
				continue
			}
			slots = append(slots, Slot{
				Start:  start,
				End:    start.Add(step.Duration()),
				RuleID: r.ID,
			})
		}
	}

	sort.Slice(slots, func(i, j int) bool { return slots[i].Start.Before(slots[j].Start) })
	return slots, nil
}

func (s *Service) authorizeWrite(ctx context.Context, caller auth.Identity, professionalID uuid.UUID) error {
	if !caller.CanManageAvailability(professionalID) {
		return ErrForbidden
	}
	if _, err := s.dir.FindProfessional(ctx, caller.TenantID, professionalID); err != nil {
		return err
	}
	return nil
}

func validateRule(r *Rule, prefix string) error {
	switch {
	case r.Weekday != nil && r.SpecificDate != nil:
		return apperr.Validation(prefix+"specificDate", "weekday and specificDate are mutually exclusive")
	case r.Weekday == nil && r.SpecificDate == nil:
		return apperr.Validation(prefix+"weekday", "either weekday or specificDate is required")
	}

	if r.Closed {
		if r.SpecificDate == nil {
			return apperr.Validation(prefix+"closed", "only specific-date rules can be closed")
		}
		r.StartTime, r.EndTime, r.SlotDurationMinutes = 0, 0, 0
		return nil
	}

	if r.StartTime < 0 || r.EndTime > NewTimeOfDay(24, 0) {
		return apperr.Validation(prefix+"startTime", "times must fall within the day")
	}
	if r.StartTime >= r.EndTime {
		return apperr.Validation(prefix+"endTime", "startTime must be before endTime")
	}
	if r.SlotDurationMinutes < MinSlotDurationMinutes || r.SlotDurationMinutes > MaxSlotDurationMinutes {
		return apperr.Validation(prefix+"slotDurationMinutes", "must be between %d and %d minutes",
			MinSlotDurationMinutes, MaxSlotDurationMinutes)
	}
	return nil
}

func conflictWithExisting(existing Rule) *apperr.Error {
	key := existing.Key().String()
	return apperr.Conflict(windowDetails(existing),
		"overlaps with existing configuration for %s (%s)", key, existing.Window())
}

func conflictInBatch(a, b Rule) *apperr.Error {
	key := a.Key().String()
	return apperr.Conflict(windowDetails(b),
		"rules overlap for %s: (%s) with (%s)", key, a.Window(), b.Window())
}

func windowDetails(r Rule) map[string]string {
	return map[string]string{
		"recurrence": r.Key().String(),
		"start_time": r.StartTime.String(),
		"end_time":   r.EndTime.String(),
	}
}

func sortByStart(rules []Rule) []Rule {
	sort.SliceStable(rules, func(i, j int) bool { return rules[i].StartTime < rules[j].StartTime })
	return rules
}
