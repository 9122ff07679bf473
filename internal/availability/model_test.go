package availability

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name         string
		aStart, aEnd TimeOfDay
		bStart, bEnd TimeOfDay
		want         bool
	}{
		{"touching", NewTimeOfDay(9, 0), NewTimeOfDay(10, 0), NewTimeOfDay(10, 0), NewTimeOfDay(11, 0), false},
		{"one minute over", NewTimeOfDay(9, 0), NewTimeOfDay(10, 1), NewTimeOfDay(10, 0), NewTimeOfDay(11, 0), true},
		{"contained", NewTimeOfDay(9, 0), NewTimeOfDay(12, 0), NewTimeOfDay(10, 0), NewTimeOfDay(11, 0), true},
		{"identical", NewTimeOfDay(9, 0), NewTimeOfDay(12, 0), NewTimeOfDay(9, 0), NewTimeOfDay(12, 0), true},
		{"disjoint", NewTimeOfDay(8, 0), NewTimeOfDay(9, 0), NewTimeOfDay(14, 0), NewTimeOfDay(15, 0), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Overlaps(tt.aStart, tt.aEnd, tt.bStart, tt.bEnd), "Overlaps(a, b)")
			assert.Equal(t, tt.want, Overlaps(tt.bStart, tt.bEnd, tt.aStart, tt.aEnd), "Overlaps(b, a)")
		})
	}
}

func weekdayRule(w time.Weekday, start, end TimeOfDay) Rule {
	wd := Weekday(w)
	return Rule{Weekday: &wd, StartTime: start, EndTime: end, SlotDurationMinutes: 30, Active: true}
}

func dateRule(d Date, start, end TimeOfDay) Rule {
	return Rule{SpecificDate: &d, StartTime: start, EndTime: end, SlotDurationMinutes: 30, Active: true}
}

func TestConflicts(t *testing.T) {
	monday := weekdayRule(time.Monday, NewTimeOfDay(9, 0), NewTimeOfDay(12, 0))
	mondayLate := weekdayRule(time.Monday, NewTimeOfDay(11, 0), NewTimeOfDay(13, 0))
	tuesday := weekdayRule(time.Tuesday, NewTimeOfDay(11, 0), NewTimeOfDay(13, 0))
	// 2025-12-22 is a Monday
	specific := dateRule(Date{2025, time.December, 22}, NewTimeOfDay(9, 0), NewTimeOfDay(12, 0))
	closed := Rule{SpecificDate: &Date{2025, time.December, 22}, Closed: true, Active: true}

	inactive := mondayLate
	inactive.Active = false

	tests := []struct {
		name string
		a, b Rule
		want bool
	}{
		{"same weekday overlapping", monday, mondayLate, true},
		{"different weekday", monday, tuesday, false},
		{"recurring vs specific never conflict", monday, specific, false},
		{"inactive still collides", monday, inactive, true},
		{"closed conflicts with same date", specific, closed, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Conflicts(tt.a, tt.b))
		})
	}
}

func TestParseTimeOfDay(t *testing.T) {
	tests := []struct {
		in      string
		want    TimeOfDay
		wantErr bool
	}{
		{"09:00", NewTimeOfDay(9, 0), false},
		{"17:30", NewTimeOfDay(17, 30), false},
		{"08:15:30", NewTimeOfDay(8, 15) + 30, false},
		{"25:00", 0, true},
		{"nine", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseTimeOfDay(tt.in)
		if tt.wantErr {
			assert.Error(t, err, "ParseTimeOfDay(%q)", tt.in)
			continue
		}
		if assert.NoError(t, err, "ParseTimeOfDay(%q)", tt.in) {
			assert.Equal(t, tt.want, got, "ParseTimeOfDay(%q)", tt.in)
		}
	}

	assert.Equal(t, "08:15:30", (NewTimeOfDay(8, 15) + 30).String())
}

func TestDate_Weekday(t *testing.T) {
	d, err := ParseDate("2025-12-25")
	require.NoError(t, err)
	assert.Equal(t, Weekday(time.Thursday), d.Weekday())
	assert.Equal(t, "2025-12-25", d.String())

	_, err = ParseDate("25/12/2025")
	assert.Error(t, err, "non-ISO date")
}

func TestRule_JSON(t *testing.T) {
	in := `{"weekday":"monday","startTime":"09:00","endTime":"12:00","slotDurationMinutes":30,"active":true}`
	var r Rule
	require.NoError(t, json.Unmarshal([]byte(in), &r))
	require.NotNil(t, r.Weekday)
	assert.Equal(t, Weekday(time.Monday), *r.Weekday)
	assert.True(t, r.IsRecurring())
	assert.Equal(t, "Monday", r.Key().String())
	assert.Equal(t, "09:00–12:00", r.Window())

	out, err := json.Marshal(r.Weekday)
	require.NoError(t, err)
	assert.Equal(t, `"MONDAY"`, string(out))
}
