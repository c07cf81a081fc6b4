package appointment

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository is the persistence port for appointments.
type Repository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	// ListByDoctorAndRange returns non-cancelled appointments overlapping
	// [from, to), ordered by start time.
	ListByDoctorAndRange(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]*Appointment, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
}
