package layout

import (
	"time"

	"github.com/cwarden/gridcal/internal/event"
)

// IsAllDay reports whether ev belongs in the all-day lane when viewed in
// loc. Besides the explicit flag, an event that starts at 00:00 and ends at
// 23:59 (or at midnight of a later day) counts.
func IsAllDay(ev event.Event, loc *time.Location) bool {
	if ev.AllDay {
		return true
	}

	start := ev.Start.In(loc)
	end := ev.End.In(loc)
	if start.Hour() != 0 || start.Minute() != 0 {
		return false
	}
	if end.Hour() == 23 && end.Minute() == 59 {
		return !end.Before(start)
	}
	if end.Hour() == 0 && end.Minute() == 0 {
		return event.StartOfDay(end).After(event.StartOfDay(start))
	}
	return false
}

// Partition splits events into the all-day lane for day and the timed
// events that overlap day. Multi-day all-day events only appear on the day
// they start.
func Partition(events []event.Event, day time.Time, loc *time.Location) (allDay, timed []event.Event) {
	day = day.In(loc)
	for _, ev := range events {
		if IsAllDay(ev, loc) {
			if event.SameDay(day, ev.Start) {
				allDay = append(allDay, ev)
			}
			continue
		}
		if Overlaps(ev, day) {
			timed = append(timed, ev)
		}
	}
	return allDay, timed
}
