package schedule

import "time"

// Resolution is the outcome of rule resolution for one doctor and date.
// Rule is the availability rule slots are generated from, nil when the day
// has no availability. Blocked carries windows from a partial-day exception
// that must be removed from the generated slots.
type Resolution struct {
	Rule    *Rule
	Blocked []TimeWindow
}

// ResolveForDate picks the rule governing the given date.
// Precedence: exception > specific date > weekly recurring > none.
// When several rules of the same kind cover the date, the most recently
// created wins. An exception without time windows voids the whole day; an
// exception with windows blocks only those windows and resolution falls
// through to the next kind.
func ResolveForDate(rules []*Rule, date time.Time) Resolution {
	var exception, specific, weekly *Rule
	for _, r := range rules {
		if !r.AppliesTo(date) {
			continue
		}
		switch r.Kind {
		case KindException:
			exception = newer(exception, r)
		case KindSpecificDate:
			specific = newer(specific, r)
		case KindWeeklyRecurring:
			weekly = newer(weekly, r)
		}
	}

	var blocked []TimeWindow
	if exception != nil {
		if len(exception.TimeSlots) == 0 {
			return Resolution{}
		}
		blocked = exception.TimeSlots
	}

	base := specific
	if base == nil {
		base = weekly
	}
	if base == nil || !base.IsAvailable {
		return Resolution{Blocked: blocked}
	}
	return Resolution{Rule: base, Blocked: blocked}
}

// newer returns the rule with the later created_at, falling back to the
// lexically greater id so the choice stays deterministic.
func newer(a, b *Rule) *Rule {
	if a == nil {
		return b
	}
	if b.CreatedAt.After(a.CreatedAt) {
		return b
	}
	if b.CreatedAt.Equal(a.CreatedAt) && b.ID.String() > a.ID.String() {
		return b
	}
	return a
}
