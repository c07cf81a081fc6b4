package schedule

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

// RuleKind discriminates the three rule types stored in schedule_rule.
type RuleKind string

const (
	KindWeeklyRecurring RuleKind = "weekly_recurring"
	KindSpecificDate    RuleKind = "specific_date"
	KindException       RuleKind = "exception"
)

var validKinds = map[RuleKind]bool{
	KindWeeklyRecurring: true,
	KindSpecificDate:    true,
	KindException:       true,
}

// TimeWindow is a wall-clock interval within a single day, "HH:MM" 24h format.
type TimeWindow struct {
	StartTime string  `json:"start_time"`
	EndTime   string  `json:"end_time"`
	Label     *string `json:"label,omitempty"`
}

// Minutes returns the window bounds as minutes since midnight.
func (w TimeWindow) Minutes() (int, int, error) {
	start, err := parseClock(w.StartTime)
	if err != nil {
		return 0, 0, err
	}
	end, err := parseClock(w.EndTime)
	if err != nil {
		return 0, 0, err
	}
	return start, end, nil
}

func parseClock(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, NewValidationError("invalid time %q, expected HH:MM", s)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// Rule maps to the schedule_rule table.
type Rule struct {
	ID              uuid.UUID    `db:"id" json:"id"`
	DoctorID        uuid.UUID    `db:"doctor_id" json:"doctor_id"`
	Kind            RuleKind     `db:"kind" json:"kind"`
	DayOfWeek       *int         `db:"day_of_week" json:"day_of_week,omitempty"`
	StartDate       *time.Time   `db:"start_date" json:"start_date,omitempty"`
	EndDate         *time.Time   `db:"end_date" json:"end_date,omitempty"`
	IsAvailable     bool         `db:"is_available" json:"is_available"`
	TimeSlots       []TimeWindow `db:"time_slots" json:"time_slots"`
	SlotDuration    int          `db:"slot_duration" json:"slot_duration"`
	BufferTime      int          `db:"buffer_time" json:"buffer_time"`
	MaxAppointments int          `db:"max_appointments" json:"max_appointments"`
	Reason          *string      `db:"reason" json:"reason,omitempty"`
	Notes           *string      `db:"notes" json:"notes,omitempty"`
	CreatedAt       time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time    `db:"updated_at" json:"updated_at"`
}

// Validate checks structural integrity of the rule: kind-specific date fields,
// well-formed non-overlapping time windows, and sane slot parameters.
func (r *Rule) Validate() error {
	if !validKinds[r.Kind] {
		return NewValidationError("invalid rule kind: %s", r.Kind)
	}
	if r.DoctorID == uuid.Nil {
		return NewValidationError("doctor_id is required")
	}

	switch r.Kind {
	case KindWeeklyRecurring:
		if r.DayOfWeek == nil || *r.DayOfWeek < 0 || *r.DayOfWeek > 6 {
			return NewValidationError("weekly rule requires day_of_week between 0 and 6")
		}
	case KindSpecificDate:
		if r.StartDate == nil {
			return NewValidationError("specific date rule requires start_date")
		}
	case KindException:
		if r.StartDate == nil {
			return NewValidationError("exception requires start_date")
		}
		if r.EndDate != nil && r.EndDate.Before(*r.StartDate) {
			return NewValidationError("exception end_date precedes start_date")
		}
	}

	if r.IsAvailable {
		if len(r.TimeSlots) == 0 {
			return NewValidationError("availability rule requires at least one time window")
		}
		if r.SlotDuration <= 0 {
			return NewValidationError("slot_duration must be positive")
		}
		if r.BufferTime < 0 {
			return NewValidationError("buffer_time must not be negative")
		}
	}

	return validateWindows(r.TimeSlots)
}

// validateWindows rejects malformed, inverted or mutually overlapping windows.
func validateWindows(windows []TimeWindow) error {
	type span struct{ start, end int }
	spans := make([]span, 0, len(windows))
	for _, w := range windows {
		start, end, err := w.Minutes()
		if err != nil {
			return err
		}
		if start >= end {
			return NewValidationError("time window %s-%s is empty or inverted", w.StartTime, w.EndTime)
		}
		spans = append(spans, span{start, end})
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].start < spans[j].start })
	for i := 1; i < len(spans); i++ {
		if spans[i].start < spans[i-1].end {
			return NewValidationError("time windows overlap")
		}
	}
	return nil
}

// AppliesTo reports whether the rule covers the given calendar date.
func (r *Rule) AppliesTo(date time.Time) bool {
	switch r.Kind {
	case KindWeeklyRecurring:
		return r.DayOfWeek != nil && *r.DayOfWeek == int(date.Weekday())
	case KindSpecificDate:
		return r.StartDate != nil && sameDate(*r.StartDate, date)
	case KindException:
		if r.StartDate == nil {
			return false
		}
		end := *r.StartDate
		if r.EndDate != nil {
			end = *r.EndDate
		}
		d := dateOnly(date)
		return !d.Before(dateOnly(*r.StartDate)) && !d.After(dateOnly(end))
	}
	return false
}

func sameDate(a, b time.Time) bool {
	return dateOnly(a).Equal(dateOnly(b))
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a calendar date in YYYY-MM-DD form.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, NewValidationError("invalid date %q, expected YYYY-MM-DD", s)
	}
	return t, nil
}

// ValidationError reports input that fails domain validation.
type ValidationError struct {
	Msg string
}

func NewValidationError(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

func (e *ValidationError) Error() string { return e.Msg }
