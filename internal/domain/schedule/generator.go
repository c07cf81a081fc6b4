package schedule

import "time"

// SlotTime is a bookable interval produced by the generator, anchored to a
// concrete date.
type SlotTime struct {
	Start time.Time `json:"start_time"`
	End   time.Time `json:"end_time"`
	Label *string   `json:"label,omitempty"`
}

// GenerateSlots expands the rule's time windows into discrete slots on the
// given date. Consecutive slot starts are slot_duration + buffer_time apart
// and a slot is emitted only when it fits entirely inside its window.
// max_appointments caps the total across all windows; a non-positive cap
// yields no slots. A nil or unavailable rule yields no slots.
func GenerateSlots(r *Rule, date time.Time) ([]SlotTime, error) {
	slots := []SlotTime{}
	if r == nil || !r.IsAvailable {
		return slots, nil
	}
	if r.SlotDuration <= 0 {
		return nil, NewValidationError("slot_duration must be positive")
	}
	if r.BufferTime < 0 {
		return nil, NewValidationError("buffer_time must not be negative")
	}
	if r.MaxAppointments <= 0 {
		return slots, nil
	}

	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	step := r.SlotDuration + r.BufferTime

	for _, w := range r.TimeSlots {
		start, end, err := w.Minutes()
		if err != nil {
			return nil, err
		}
		for t := start; t+r.SlotDuration <= end; t += step {
			if len(slots) == r.MaxAppointments {
				return slots, nil
			}
			slots = append(slots, SlotTime{
				Start: day.Add(time.Duration(t) * time.Minute),
				End:   day.Add(time.Duration(t+r.SlotDuration) * time.Minute),
				Label: w.Label,
			})
		}
	}
	return slots, nil
}

// SubtractWindows removes slots that overlap any of the blocked wall-clock
// windows on the given date. Malformed windows are skipped; they cannot be
// stored through validation anyway.
func SubtractWindows(slots []SlotTime, blocked []TimeWindow, date time.Time) []SlotTime {
	if len(blocked) == 0 {
		return slots
	}
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())

	kept := make([]SlotTime, 0, len(slots))
	for _, s := range slots {
		overlaps := false
		for _, w := range blocked {
			start, end, err := w.Minutes()
			if err != nil {
				continue
			}
			bs := day.Add(time.Duration(start) * time.Minute)
			be := day.Add(time.Duration(end) * time.Minute)
			if s.Start.Before(be) && bs.Before(s.End) {
				overlaps = true
				break
			}
		}
		if !overlaps {
			kept = append(kept, s)
		}
	}
	return kept
}
