package availability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinicdesk/clinicdesk/internal/domain/appointment"
	"github.com/clinicdesk/clinicdesk/internal/domain/schedule"
	"github.com/clinicdesk/clinicdesk/internal/platform/cache"
	"github.com/clinicdesk/clinicdesk/internal/platform/events"
)

// storeReadAttempts bounds retries of schedule store reads. Bookings never
// retry; a failed write attempt must surface immediately.
const storeReadAttempts = 3

// TxRunner executes fn inside one database transaction shared by repository
// calls made with fn's context.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Service computes day availability and performs slot booking.
type Service struct {
	rules        schedule.RuleRepository
	appointments appointment.Repository
	cache        *cache.DayCache[*Day]
	tx           TxRunner
	bus          events.Publisher
	log          zerolog.Logger
}

func NewService(
	rules schedule.RuleRepository,
	appointments appointment.Repository,
	dayCache *cache.DayCache[*Day],
	tx TxRunner,
	bus events.Publisher,
	log zerolog.Logger,
) *Service {
	return &Service{
		rules:        rules,
		appointments: appointments,
		cache:        dayCache,
		tx:           tx,
		bus:          bus,
		log:          log,
	}
}

// GetAvailability returns the doctor's slots for one date, serving from the
// day cache when fresh. A doctor without rules gets an empty slot list, not
// an error.
func (s *Service) GetAvailability(ctx context.Context, doctorID uuid.UUID, date time.Time) (*Day, error) {
	key := date.Format("2006-01-02")
	if s.cache != nil {
		if day, ok := s.cache.Get(doctorID, key); ok {
			return day, nil
		}
	}

	day, err := s.computeDay(ctx, doctorID, date, true)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Add(doctorID, key, day)
	}
	return day, nil
}

// RequestBooking validates the request, then re-checks availability and
// inserts the appointment inside one transaction. The partial unique index on
// (doctor_id, start_time) breaks ties between concurrent requests: the loser
// gets ErrSlotConflict. Booking is never silently retried.
func (s *Service) RequestBooking(ctx context.Context, req BookingRequest) (*appointment.Appointment, error) {
	if req.DoctorID == uuid.Nil {
		return nil, schedule.NewValidationError("doctor_id is required")
	}
	if req.PatientID == uuid.Nil {
		return nil, schedule.NewValidationError("patient_id is required")
	}
	if req.StartTime.IsZero() {
		return nil, schedule.NewValidationError("start_time is required")
	}
	if req.DurationMinutes <= 0 {
		return nil, schedule.NewValidationError("duration_minutes must be positive")
	}

	end := req.StartTime.Add(time.Duration(req.DurationMinutes) * time.Minute)
	var appt *appointment.Appointment

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		day, err := s.computeDay(txCtx, req.DoctorID, req.StartTime, false)
		if err != nil {
			return err
		}

		var match *Slot
		for i := range day.Slots {
			if day.Slots[i].StartTime.Equal(req.StartTime) && day.Slots[i].EndTime.Equal(end) {
				match = &day.Slots[i]
				break
			}
		}
		if match == nil || !match.IsAvailable {
			return ErrSlotConflict
		}

		appt = &appointment.Appointment{
			DoctorID:        req.DoctorID,
			PatientID:       req.PatientID,
			StartTime:       req.StartTime,
			DurationMinutes: req.DurationMinutes,
			Status:          appointment.StatusPending,
			Reason:          req.Reason,
			Notes:           req.Notes,
		}
		if err := s.appointments.Create(txCtx, appt); err != nil {
			if errors.Is(err, appointment.ErrDuplicateSlot) {
				return ErrSlotConflict
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	date := req.StartTime.Format("2006-01-02")
	if s.cache != nil {
		s.cache.InvalidateDay(req.DoctorID, date)
	}
	if s.bus != nil {
		s.bus.Publish(events.Event{
			Type:     events.TypeBookingCreated,
			DoctorID: req.DoctorID,
			Date:     date,
			Details:  map[string]string{"appointment_id": appt.ID.String()},
		})
	}
	s.log.Info().
		Str("appointment_id", appt.ID.String()).
		Str("doctor_id", req.DoctorID.String()).
		Time("start", req.StartTime).
		Msg("booking created")
	return appt, nil
}

// computeDay runs the resolution pipeline: rules -> resolve -> generate ->
// subtract blocked windows -> merge occupancy.
func (s *Service) computeDay(ctx context.Context, doctorID uuid.UUID, date time.Time, retry bool) (*Day, error) {
	var rules []*schedule.Rule
	var appts []*appointment.Appointment

	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	dayEnd := dayStart.Add(24 * time.Hour)

	load := func() error {
		var err error
		if rules, err = s.rules.ListForDate(ctx, doctorID, date); err != nil {
			return fmt.Errorf("list rules: %w", err)
		}
		if appts, err = s.appointments.ListByDoctorAndRange(ctx, doctorID, dayStart, dayEnd); err != nil {
			return fmt.Errorf("list appointments: %w", err)
		}
		return nil
	}

	var err error
	if retry {
		err = s.withRetry(ctx, load)
	} else {
		err = load()
	}
	if err != nil {
		return nil, err
	}

	res := schedule.ResolveForDate(rules, date)
	slots, err := schedule.GenerateSlots(res.Rule, date)
	if err != nil {
		return nil, err
	}
	slots = schedule.SubtractWindows(slots, res.Blocked, date)

	return &Day{
		DoctorID: doctorID,
		Date:     date.Format("2006-01-02"),
		Slots:    MergeOccupancy(slots, appts),
	}, nil
}

// withRetry runs fn up to storeReadAttempts times with a short growing pause,
// wrapping the last failure in ErrStoreUnavailable.
func (s *Service) withRetry(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 1; attempt <= storeReadAttempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if attempt == storeReadAttempts {
			break
		}
		s.log.Warn().Err(err).Int("attempt", attempt).Msg("schedule store read failed, retrying")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * 100 * time.Millisecond):
		}
	}
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}
