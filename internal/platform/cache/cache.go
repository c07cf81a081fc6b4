// Package cache provides the bounded, TTL'd availability cache. Entries are
// keyed by doctor and date and dropped either by TTL, by LRU pressure or by
// explicit invalidation when bookings or schedule rules change.
package cache

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// DayCache maps (doctor, date) to a computed day value.
type DayCache[V any] struct {
	lru *expirable.LRU[string, V]
}

// NewDayCache creates a cache holding at most size doctor-days, each entry
// expiring after ttl. The TTL bounds how stale a served day can get even
// when an invalidation is missed.
func NewDayCache[V any](size int, ttl time.Duration) *DayCache[V] {
	return &DayCache[V]{lru: expirable.NewLRU[string, V](size, nil, ttl)}
}

func dayKey(doctorID uuid.UUID, date string) string {
	return doctorID.String() + "|" + date
}

func (c *DayCache[V]) Get(doctorID uuid.UUID, date string) (V, bool) {
	return c.lru.Get(dayKey(doctorID, date))
}

func (c *DayCache[V]) Add(doctorID uuid.UUID, date string, v V) {
	c.lru.Add(dayKey(doctorID, date), v)
}

// InvalidateDay drops one doctor-day, after a booking or cancellation.
func (c *DayCache[V]) InvalidateDay(doctorID uuid.UUID, date string) {
	c.lru.Remove(dayKey(doctorID, date))
}

// InvalidateDoctor drops every cached day of the doctor, after schedule rule
// changes whose affected dates are not known up front.
func (c *DayCache[V]) InvalidateDoctor(doctorID uuid.UUID) {
	prefix := doctorID.String() + "|"
	for _, k := range c.lru.Keys() {
		if strings.HasPrefix(k, prefix) {
			c.lru.Remove(k)
		}
	}
}

func (c *DayCache[V]) Len() int { return c.lru.Len() }
