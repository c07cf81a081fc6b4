package schedule

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a schedule rule does not exist.
var ErrNotFound = errors.New("schedule rule not found")

// RuleRepository is the persistence port for schedule rules.
type RuleRepository interface {
	Create(ctx context.Context, r *Rule) error
	GetByID(ctx context.Context, id uuid.UUID) (*Rule, error)
	Update(ctx context.Context, r *Rule) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*Rule, int, error)
	// ListForDate returns every rule that can govern the given date: weekly
	// rules for its weekday, specific date rules for the exact date and
	// exceptions whose range covers it.
	ListForDate(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]*Rule, error)
	// DeleteWeeklyByDay removes the weekly rule for one weekday.
	DeleteWeeklyByDay(ctx context.Context, doctorID uuid.UUID, dayOfWeek int) error
	// DeleteWeekly removes all weekly rules of the doctor.
	DeleteWeekly(ctx context.Context, doctorID uuid.UUID) error
}
