package appointment

import (
	"context"

	"github.com/google/uuid"

	"github.com/clinicdesk/clinicdesk/internal/platform/events"
)

// Invalidator drops the cached availability of one doctor-day after an
// appointment changes occupancy.
type Invalidator interface {
	InvalidateDay(doctorID uuid.UUID, date string)
}

// Service covers the patient-facing appointment surface: listing and
// cancellation. Booking itself goes through the availability service.
type Service struct {
	repo  Repository
	cache Invalidator
	bus   events.Publisher
}

func NewService(repo Repository, cache Invalidator, bus events.Publisher) *Service {
	return &Service{repo: repo, cache: cache, bus: bus}
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	return s.repo.ListByPatient(ctx, patientID, limit, offset)
}

// Cancel transitions the appointment to cancelled, freeing its slot.
// When actorPatientID is non-nil the appointment must belong to that patient;
// staff callers pass uuid.Nil. Cancelling twice is a no-op.
func (s *Service) Cancel(ctx context.Context, id, actorPatientID uuid.UUID) (*Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if actorPatientID != uuid.Nil && a.PatientID != actorPatientID {
		return nil, ErrNotOwner
	}
	if a.Status == StatusCancelled {
		return a, nil
	}
	if err := s.repo.UpdateStatus(ctx, id, StatusCancelled); err != nil {
		return nil, err
	}
	a.Status = StatusCancelled

	date := a.StartTime.Format("2006-01-02")
	if s.cache != nil {
		s.cache.InvalidateDay(a.DoctorID, date)
	}
	if s.bus != nil {
		s.bus.Publish(events.Event{
			Type:     events.TypeBookingCancelled,
			DoctorID: a.DoctorID,
			Date:     date,
			Details:  map[string]string{"appointment_id": a.ID.String()},
		})
	}
	return a, nil
}
