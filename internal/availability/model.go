package availability

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	MinSlotDurationMinutes = 5
	MaxSlotDurationMinutes = 120
)

// TimeOfDay is a wall-clock time expressed as seconds since midnight.
type TimeOfDay int

func NewTimeOfDay(hour, minute int) TimeOfDay {
	return TimeOfDay(hour*3600 + minute*60)
}

// ParseTimeOfDay accepts "15:04" or "15:04:05".
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	layout := "15:04"
	if strings.Count(s, ":") == 2 {
		layout = "15:04:05"
	}
	t, err := time.Parse(layout, s)
	if err != nil {
		return 0, fmt.Errorf("invalid time of day %q", s)
	}
	return TimeOfDay(t.Hour()*3600 + t.Minute()*60 + t.Second()), nil
}

func (t TimeOfDay) Hour() int   { return int(t) / 3600 }
func (t TimeOfDay) Minute() int { return int(t) % 3600 / 60 }
func (t TimeOfDay) Second() int { return int(t) % 60 }

func (t TimeOfDay) Duration() time.Duration {
	return time.Duration(t) * time.Second
}

func (t TimeOfDay) String() string {
	if t.Second() != 0 {
		return fmt.Sprintf("%02d:%02d:%02d", t.Hour(), t.Minute(), t.Second())
	}
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *TimeOfDay) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseTimeOfDay(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Date is a calendar date without a time zone.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

const dateLayout = "2006-01-02"

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return DateOf(t), nil
}

func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// In returns midnight of the date in loc.
func (d Date) In(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

func (d Date) Weekday() Weekday {
	return Weekday(d.In(time.UTC).Weekday())
}

func (d Date) IsZero() bool {
	return d == Date{}
}

func (d Date) String() string {
	return d.In(time.UTC).Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Weekday serializes as "MONDAY" and displays as "Monday".
type Weekday time.Weekday

func ParseWeekday(s string) (Weekday, error) {
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.EqualFold(s, d.String()) {
			return Weekday(d), nil
		}
	}
	return 0, fmt.Errorf("invalid weekday %q", s)
}

func (w Weekday) String() string {
	return time.Weekday(w).String()
}

func (w Weekday) MarshalJSON() ([]byte, error) {
	return json.Marshal(strings.ToUpper(w.String()))
}

func (w *Weekday) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseWeekday(s)
	if err != nil {
		return err
	}
	*w = parsed
	return nil
}

// Rule is a window in which a professional accepts appointments. Exactly one
// of Weekday and SpecificDate is set. A Closed rule marks a specific date with
// no availability at all and carries no window.
type Rule struct {
	ID                  uuid.UUID `json:"id"`
	ProfessionalID      uuid.UUID `json:"professionalId"`
	Weekday             *Weekday  `json:"weekday,omitempty"`
	SpecificDate        *Date     `json:"specificDate,omitempty"`
	StartTime           TimeOfDay `json:"startTime"`
	EndTime             TimeOfDay `json:"endTime"`
	SlotDurationMinutes int       `json:"slotDurationMinutes"`
	Active              bool      `json:"active"`
	Closed              bool      `json:"closed"`
	CreatedAt           time.Time `json:"createdAt"`
}

// Key identifies the recurrence a rule belongs to. Rules only compete for
// time with rules of an equal key.
type Key struct {
	Recurring bool
	Weekday   Weekday
	Date      Date
}

func WeekdayKey(w Weekday) Key { return Key{Recurring: true, Weekday: w} }
func DateKey(d Date) Key       { return Key{Date: d} }

func (k Key) String() string {
	if k.Recurring {
		return k.Weekday.String()
	}
	return k.Date.String()
}

func (r Rule) Key() Key {
	if r.IsRecurring() {
		return WeekdayKey(*r.Weekday)
	}
	if r.SpecificDate != nil {
		return DateKey(*r.SpecificDate)
	}
	return Key{}
}

func (r Rule) IsRecurring() bool {
	return r.Weekday != nil
}

func (r Rule) Window() string {
	if r.Closed {
		return "closed"
	}
	return r.StartTime.String() + "–" + r.EndTime.String()
}

// Overlaps reports whether [aStart, aEnd) and [bStart, bEnd) intersect.
// Touching intervals do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd TimeOfDay) bool {
	return aStart < bEnd && bStart < aEnd
}

// Conflicts reports whether the windows of two rules collide. The active flag
// is not consulted; callers choose which rules to compare. A closed date
// conflicts with anything else on that date.
func Conflicts(a, b Rule) bool {
	if a.Key() != b.Key() {
		return false
	}
	if a.Closed || b.Closed {
		return true
	}
	return Overlaps(a.StartTime, a.EndTime, b.StartTime, b.EndTime)
}

// Slot is one bookable start time.
type Slot struct {
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
	RuleID uuid.UUID `json:"ruleId"`
}
