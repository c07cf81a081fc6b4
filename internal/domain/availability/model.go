package availability

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrSlotConflict is returned when the requested slot is taken or not
	// offered. Exactly one of two concurrent bookings for the same slot
	// receives it.
	ErrSlotConflict = errors.New("slot is not available")
	// ErrStoreUnavailable is returned when the schedule store keeps failing
	// after bounded retries. Distinct from an empty schedule.
	ErrStoreUnavailable = errors.New("schedule store unavailable")
)

// Slot is one bookable or occupied interval in a doctor's day.
type Slot struct {
	StartTime         time.Time  `json:"start_time"`
	EndTime           time.Time  `json:"end_time"`
	IsAvailable       bool       `json:"is_available"`
	IsOccupied        bool       `json:"is_occupied"`
	AppointmentID     *uuid.UUID `json:"appointment_id,omitempty"`
	AppointmentStatus *string    `json:"appointment_status,omitempty"`
	Label             *string    `json:"label,omitempty"`
}

// Day is the resolved availability of one doctor on one date. An empty Slots
// list is a valid answer meaning no availability.
type Day struct {
	DoctorID uuid.UUID `json:"doctor_id"`
	Date     string    `json:"date"`
	Slots    []Slot    `json:"slots"`
}

// BookingRequest asks for one concrete slot.
type BookingRequest struct {
	DoctorID        uuid.UUID `json:"doctor_id"`
	PatientID       uuid.UUID `json:"patient_id"`
	StartTime       time.Time `json:"start_time"`
	DurationMinutes int       `json:"duration_minutes"`
	Reason          *string   `json:"reason,omitempty"`
	Notes           *string   `json:"notes,omitempty"`
}
