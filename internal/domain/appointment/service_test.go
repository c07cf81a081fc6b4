package appointment

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/clinicdesk/clinicdesk/internal/platform/events"
)

type mockRepo struct {
	mu            sync.Mutex
	appts         map[uuid.UUID]*Appointment
	statusUpdates int
}

func newMockRepo() *mockRepo {
	return &mockRepo{appts: make(map[uuid.UUID]*Appointment)}
}

func (m *mockRepo) Create(_ context.Context, a *Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	cp := *a
	m.appts[a.ID] = &cp
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appts[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *mockRepo) ListByDoctorAndRange(_ context.Context, doctorID uuid.UUID, from, to time.Time) ([]*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Appointment
	for _, a := range m.appts {
		if a.DoctorID == doctorID && a.Active() && a.StartTime.Before(to) && a.EndTime().After(from) {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *mockRepo) ListByPatient(_ context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Appointment
	for _, a := range m.appts {
		if a.PatientID == patientID {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, len(out), nil
}

func (m *mockRepo) UpdateStatus(_ context.Context, id uuid.UUID, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appts[id]
	if !ok {
		return ErrNotFound
	}
	a.Status = status
	m.statusUpdates++
	return nil
}

type recordingInvalidator struct {
	mu   sync.Mutex
	days []string
}

func (r *recordingInvalidator) InvalidateDay(doctorID uuid.UUID, date string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.days = append(r.days, doctorID.String()+"|"+date)
}

type recordingBus struct {
	mu     sync.Mutex
	events []events.Event
}

func (b *recordingBus) Publish(e events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, e)
}

func seedAppointment(repo *mockRepo, doctor, patient uuid.UUID) *Appointment {
	a := &Appointment{
		ID:              uuid.New(),
		DoctorID:        doctor,
		PatientID:       patient,
		StartTime:       time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
		DurationMinutes: 60,
		Status:          StatusConfirmed,
	}
	repo.Create(context.Background(), a)
	return a
}

func TestCancel_ByOwner(t *testing.T) {
	repo := newMockRepo()
	inv := &recordingInvalidator{}
	bus := &recordingBus{}
	svc := NewService(repo, inv, bus)

	doctor, patient := uuid.New(), uuid.New()
	a := seedAppointment(repo, doctor, patient)

	got, err := svc.Cancel(context.Background(), a.ID, patient)
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if got.Status != StatusCancelled {
		t.Errorf("status = %s, want cancelled", got.Status)
	}

	stored, _ := repo.GetByID(context.Background(), a.ID)
	if stored.Status != StatusCancelled {
		t.Error("cancellation not persisted")
	}
	if len(inv.days) != 1 || inv.days[0] != doctor.String()+"|2026-03-02" {
		t.Errorf("expected the doctor-day to be invalidated, got %v", inv.days)
	}
	if len(bus.events) != 1 || bus.events[0].Type != events.TypeBookingCancelled {
		t.Errorf("expected booking.cancelled event, got %v", bus.events)
	}
}

func TestCancel_OtherPatientForbidden(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, &recordingInvalidator{}, &recordingBus{})

	a := seedAppointment(repo, uuid.New(), uuid.New())
	if _, err := svc.Cancel(context.Background(), a.ID, uuid.New()); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}

	stored, _ := repo.GetByID(context.Background(), a.ID)
	if stored.Status != StatusConfirmed {
		t.Error("appointment must be untouched after a forbidden cancel")
	}
}

func TestCancel_StaffBypassesOwnership(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, &recordingInvalidator{}, &recordingBus{})

	a := seedAppointment(repo, uuid.New(), uuid.New())
	got, err := svc.Cancel(context.Background(), a.ID, uuid.Nil)
	if err != nil {
		t.Fatalf("Cancel as staff: %v", err)
	}
	if got.Status != StatusCancelled {
		t.Errorf("status = %s, want cancelled", got.Status)
	}
}

func TestCancel_Idempotent(t *testing.T) {
	repo := newMockRepo()
	bus := &recordingBus{}
	svc := NewService(repo, &recordingInvalidator{}, bus)

	a := seedAppointment(repo, uuid.New(), uuid.New())
	if _, err := svc.Cancel(context.Background(), a.ID, uuid.Nil); err != nil {
		t.Fatalf("first cancel: %v", err)
	}
	if _, err := svc.Cancel(context.Background(), a.ID, uuid.Nil); err != nil {
		t.Fatalf("second cancel: %v", err)
	}
	if repo.statusUpdates != 1 {
		t.Errorf("expected 1 status update, got %d", repo.statusUpdates)
	}
	if len(bus.events) != 1 {
		t.Errorf("second cancel must not publish a second event, got %d", len(bus.events))
	}
}

func TestCancel_NotFound(t *testing.T) {
	svc := NewService(newMockRepo(), &recordingInvalidator{}, &recordingBus{})
	if _, err := svc.Cancel(context.Background(), uuid.New(), uuid.Nil); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListByPatient(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, &recordingInvalidator{}, &recordingBus{})
	patient := uuid.New()

	seedAppointment(repo, uuid.New(), patient)
	seedAppointment(repo, uuid.New(), patient)
	seedAppointment(repo, uuid.New(), uuid.New())

	items, total, err := svc.ListByPatient(context.Background(), patient, 10, 0)
	if err != nil {
		t.Fatalf("ListByPatient: %v", err)
	}
	if total != 2 || len(items) != 2 {
		t.Errorf("total=%d len=%d, want 2", total, len(items))
	}
}
