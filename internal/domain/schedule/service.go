package schedule

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/clinicdesk/clinicdesk/internal/platform/events"
)

// TxRunner executes fn inside a single database transaction. Repository
// calls made with the context passed to fn share that transaction.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Invalidator drops cached availability for a doctor after schedule changes.
type Invalidator interface {
	InvalidateDoctor(doctorID uuid.UUID)
}

// Service owns schedule rule lifecycle: validation, the replace semantics of
// weekly rules and the bulk working-days operation.
type Service struct {
	rules RuleRepository
	tx    TxRunner
	cache Invalidator
	bus   events.Publisher
}

func NewService(rules RuleRepository, tx TxRunner, cache Invalidator, bus events.Publisher) *Service {
	return &Service{rules: rules, tx: tx, cache: cache, bus: bus}
}

// CreateRule validates and stores a rule. A weekly rule replaces any prior
// weekly rule for the same weekday in one transaction. Exceptions are always
// stored as unavailable; their windows describe blocked time.
func (s *Service) CreateRule(ctx context.Context, r *Rule) error {
	if r.Kind == KindException {
		r.IsAvailable = false
		if r.EndDate == nil {
			r.EndDate = r.StartDate
		}
	}
	if r.Kind == KindSpecificDate && r.EndDate == nil {
		r.EndDate = r.StartDate
	}
	if err := r.Validate(); err != nil {
		return err
	}

	var err error
	if r.Kind == KindWeeklyRecurring {
		err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
			if err := s.rules.DeleteWeeklyByDay(txCtx, r.DoctorID, *r.DayOfWeek); err != nil {
				return fmt.Errorf("replace weekly rule: %w", err)
			}
			return s.rules.Create(txCtx, r)
		})
	} else {
		err = s.rules.Create(ctx, r)
	}
	if err != nil {
		return err
	}

	s.afterChange(r.DoctorID, eventTypeFor(r))
	return nil
}

func (s *Service) GetRule(ctx context.Context, id uuid.UUID) (*Rule, error) {
	return s.rules.GetByID(ctx, id)
}

// UpdateRule replaces the mutable fields of an existing rule. The rule kind
// and doctor are fixed at creation.
func (s *Service) UpdateRule(ctx context.Context, r *Rule) error {
	existing, err := s.rules.GetByID(ctx, r.ID)
	if err != nil {
		return err
	}
	r.DoctorID = existing.DoctorID
	r.Kind = existing.Kind
	if r.Kind == KindException {
		r.IsAvailable = false
		if r.EndDate == nil {
			r.EndDate = r.StartDate
		}
	}
	if err := r.Validate(); err != nil {
		return err
	}
	if err := s.rules.Update(ctx, r); err != nil {
		return err
	}
	s.afterChange(r.DoctorID, eventTypeFor(r))
	return nil
}

func (s *Service) DeleteRule(ctx context.Context, id uuid.UUID) error {
	existing, err := s.rules.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.rules.Delete(ctx, id); err != nil {
		return err
	}
	s.afterChange(existing.DoctorID, events.TypeScheduleUpdated)
	return nil
}

func (s *Service) ListRules(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*Rule, int, error) {
	return s.rules.ListByDoctor(ctx, doctorID, limit, offset)
}

// ListForDate exposes the resolver input set, mainly for diagnostics.
func (s *Service) ListForDate(ctx context.Context, doctorID uuid.UUID, date string) ([]*Rule, error) {
	d, err := ParseDate(date)
	if err != nil {
		return nil, err
	}
	return s.rules.ListForDate(ctx, doctorID, d)
}

// WorkingDaysRequest is the bulk weekly schedule: the selected weekdays share
// one set of windows and slot parameters, every other weekday becomes an
// explicit unavailable rule.
type WorkingDaysRequest struct {
	Days            []int        `json:"days"`
	TimeSlots       []TimeWindow `json:"time_slots"`
	SlotDuration    int          `json:"slot_duration"`
	BufferTime      int          `json:"buffer_time"`
	MaxAppointments int          `json:"max_appointments"`
}

// SetWorkingDays atomically replaces the doctor's whole weekly schedule:
// all weekly rules are deleted and re-inserted in one transaction, so a
// failure leaves the previous schedule intact.
func (s *Service) SetWorkingDays(ctx context.Context, doctorID uuid.UUID, req WorkingDaysRequest) ([]*Rule, error) {
	if doctorID == uuid.Nil {
		return nil, NewValidationError("doctor_id is required")
	}
	if len(req.Days) == 0 {
		return nil, NewValidationError("at least one working day is required")
	}
	selected := map[int]bool{}
	for _, d := range req.Days {
		if d < 0 || d > 6 {
			return nil, NewValidationError("day_of_week %d out of range", d)
		}
		selected[d] = true
	}

	rules := make([]*Rule, 0, 7)
	for day := 0; day < 7; day++ {
		day := day
		r := &Rule{
			DoctorID:  doctorID,
			Kind:      KindWeeklyRecurring,
			DayOfWeek: &day,
		}
		if selected[day] {
			r.IsAvailable = true
			r.TimeSlots = req.TimeSlots
			r.SlotDuration = req.SlotDuration
			r.BufferTime = req.BufferTime
			r.MaxAppointments = req.MaxAppointments
		}
		if err := r.Validate(); err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.rules.DeleteWeekly(txCtx, doctorID); err != nil {
			return fmt.Errorf("clear weekly schedule: %w", err)
		}
		for _, r := range rules {
			if err := s.rules.Create(txCtx, r); err != nil {
				return fmt.Errorf("insert weekly rule for day %d: %w", *r.DayOfWeek, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterChange(doctorID, events.TypeScheduleUpdated)
	return rules, nil
}

func (s *Service) afterChange(doctorID uuid.UUID, eventType string) {
	if s.cache != nil {
		s.cache.InvalidateDoctor(doctorID)
	}
	if s.bus != nil {
		s.bus.Publish(events.Event{Type: eventType, DoctorID: doctorID})
	}
}

func eventTypeFor(r *Rule) string {
	if r.Kind == KindException || !r.IsAvailable {
		return events.TypeScheduleBlocked
	}
	return events.TypeScheduleUpdated
}
