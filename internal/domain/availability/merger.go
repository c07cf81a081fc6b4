package availability

import (
	"github.com/clinicdesk/clinicdesk/internal/domain/appointment"
	"github.com/clinicdesk/clinicdesk/internal/domain/schedule"
)

// MergeOccupancy overlays appointments onto generated slots. A slot is
// occupied when any non-cancelled appointment overlaps it as a half-open
// interval; the first overlapping appointment wins if data anomalies ever
// produce more than one.
func MergeOccupancy(slots []schedule.SlotTime, appts []*appointment.Appointment) []Slot {
	out := make([]Slot, 0, len(slots))
	for _, st := range slots {
		s := Slot{
			StartTime:   st.Start,
			EndTime:     st.End,
			IsAvailable: true,
			Label:       st.Label,
		}
		for _, a := range appts {
			if !a.Active() {
				continue
			}
			if a.StartTime.Before(st.End) && st.Start.Before(a.EndTime()) {
				id := a.ID
				status := a.Status
				s.IsAvailable = false
				s.IsOccupied = true
				s.AppointmentID = &id
				s.AppointmentStatus = &status
				break
			}
		}
		out = append(out, s)
	}
	return out
}
