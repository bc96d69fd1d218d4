package ui

import (
	"time"

	"github.com/cwarden/gridcal/internal/event"
	"github.com/cwarden/gridcal/internal/layout"
)

// dayKey identifies a laid out day. Loading events bumps the revision, so
// stale views are never returned even before the purge.
type dayKey struct {
	day      string
	revision uint64
	location string
}

func (m *Model) dayView(day time.Time) layout.DayView {
	day = event.StartOfDay(day.In(m.loc))
	key := dayKey{
		day:      day.Format("2006-01-02"),
		revision: m.revision,
		location: m.loc.String(),
	}
	if v, ok := m.dayCache.Get(key); ok {
		return v
	}
	v := layout.LayoutDay(m.events, day, m.loc)
	m.dayCache.Add(key, v)
	return v
}
