package layout

import (
	"time"

	"github.com/cwarden/gridcal/internal/event"
)

// Position says which slice of a multi-day event an interval is.
type Position string

const (
	PositionFull   Position = "full"
	PositionStart  Position = "start"
	PositionMiddle Position = "middle"
	PositionEnd    Position = "end"
)

// Interval is an event restricted to one day's window.
type Interval struct {
	Event    event.Event `json:"event" yaml:"event"`
	Start    time.Time   `json:"start" yaml:"start"`
	End      time.Time   `json:"end" yaml:"end"`
	Partial  bool        `json:"partial" yaml:"partial"`
	Position Position    `json:"position" yaml:"position"`
}

// Duration returns End - Start.
func (iv Interval) Duration() time.Duration {
	return iv.End.Sub(iv.Start)
}

// Overlaps reports whether ev touches the calendar day of day: it starts or
// ends on that day, or the day's midnight falls strictly inside it.
func Overlaps(ev event.Event, day time.Time) bool {
	dayStart := event.StartOfDay(day)
	if event.SameDay(dayStart, ev.Start) || event.SameDay(dayStart, ev.End) {
		return true
	}
	return ev.Start.Before(dayStart) && ev.End.After(dayStart)
}

// Clip restricts ev to day. The day is taken in day's location. ok is false
// when ev does not overlap day or its slice of the day is empty.
func Clip(ev event.Event, day time.Time) (iv Interval, ok bool) {
	if !Overlaps(ev, day) {
		return Interval{}, false
	}

	loc := day.Location()
	start := ev.Start.In(loc)
	end := ev.End.In(loc)
	dayStart := event.StartOfDay(day)
	dayEnd := event.EndOfDay(day)

	startsToday := event.SameDay(dayStart, start)
	endsToday := event.SameDay(dayStart, end)

	iv = Interval{Event: ev, Start: start, End: end, Position: PositionFull}
	switch {
	case startsToday && endsToday:
	case startsToday:
		iv.End = dayEnd
		iv.Partial = true
		iv.Position = PositionStart
	case endsToday:
		iv.Start = dayStart
		iv.Partial = true
		iv.Position = PositionEnd
	default:
		iv.Start = dayStart
		iv.End = dayEnd
		iv.Partial = true
		iv.Position = PositionMiddle
	}

	if iv.Start.Before(dayStart) {
		iv.Start = dayStart
	}
	if iv.End.After(dayEnd) {
		iv.End = dayEnd
	}
	if !iv.End.After(iv.Start) {
		return Interval{}, false
	}
	return iv, true
}

// ClipAll clips every event to day, dropping those that do not overlap.
func ClipAll(events []event.Event, day time.Time) []Interval {
	out := make([]Interval, 0, len(events))
	for _, ev := range events {
		if iv, ok := Clip(ev, day); ok {
			out = append(out, iv)
		}
	}
	return out
}
