// Package events publishes schedule and booking domain events to interested
// collaborators (notifications, sync). Delivery is fire-and-forget: the
// request path never waits on a sink.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	TypeBookingCreated   = "booking.created"
	TypeBookingCancelled = "booking.cancelled"
	TypeScheduleUpdated  = "schedule.updated"
	TypeScheduleBlocked  = "schedule.blocked"
)

// Event describes one schedule or booking change.
type Event struct {
	Type       string            `json:"type"`
	DoctorID   uuid.UUID         `json:"doctor_id"`
	Date       string            `json:"date,omitempty"`
	Details    map[string]string `json:"details,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
}

// Publisher is the producer-side interface services depend on.
type Publisher interface {
	Publish(e Event)
}

// Sink delivers events somewhere: a log, a broker.
type Sink interface {
	Deliver(ctx context.Context, e Event) error
	Close() error
}

// Bus fans events out to its sinks from a dispatcher goroutine. Publish never
// blocks; when the buffer is full the event is dropped and logged.
type Bus struct {
	ch    chan Event
	sinks []Sink
	log   zerolog.Logger
}

func NewBus(log zerolog.Logger, sinks ...Sink) *Bus {
	return &Bus{
		ch:    make(chan Event, 256),
		sinks: sinks,
		log:   log,
	}
}

func (b *Bus) Publish(e Event) {
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}
	select {
	case b.ch <- e:
	default:
		b.log.Warn().Str("type", e.Type).Msg("event buffer full, dropping event")
	}
}

// Start launches the dispatcher goroutine. It stops and closes the sinks when
// ctx is cancelled.
func (b *Bus) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case e := <-b.ch:
				for _, s := range b.sinks {
					if err := s.Deliver(ctx, e); err != nil {
						b.log.Error().Err(err).Str("type", e.Type).Msg("event delivery failed")
					}
				}
			case <-ctx.Done():
				for _, s := range b.sinks {
					if err := s.Close(); err != nil {
						b.log.Warn().Err(err).Msg("event sink close failed")
					}
				}
				return
			}
		}
	}()
}

// LogSink writes events to the structured log. Always installed so events are
// observable even without a broker.
type LogSink struct {
	log zerolog.Logger
}

func NewLogSink(log zerolog.Logger) *LogSink {
	return &LogSink{log: log}
}

func (s *LogSink) Deliver(_ context.Context, e Event) error {
	evt := s.log.Info().
		Str("type", e.Type).
		Str("doctor_id", e.DoctorID.String())
	if e.Date != "" {
		evt = evt.Str("date", e.Date)
	}
	for k, v := range e.Details {
		evt = evt.Str(k, v)
	}
	evt.Msg("domain event")
	return nil
}

func (s *LogSink) Close() error { return nil }
