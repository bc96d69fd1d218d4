// Package drag implements press-and-hold rescheduling of events on a time
// grid. The Machine holds no timers; the caller arms the long-press delay
// and reports it back with Elapsed.
package drag

import (
	"time"

	"github.com/cwarden/gridcal/internal/event"
)

const (
	DefaultLongPress = 300 * time.Millisecond
	DefaultSnap      = 15
)

type Phase int

const (
	Idle Phase = iota
	Pending
	Dragging
)

func (p Phase) String() string {
	switch p {
	case Pending:
		return "pending"
	case Dragging:
		return "dragging"
	default:
		return "idle"
	}
}

// Point is a pointer position in the caller's coordinate space.
type Point struct {
	X, Y float64
}

// Slot is a snapped drop target.
type Slot struct {
	Day    time.Time
	Hour   int
	Minute int
}

// Time returns the instant the slot starts at, in Day's location.
func (s Slot) Time() time.Time {
	y, m, d := s.Day.Date()
	return time.Date(y, m, d, s.Hour, s.Minute, 0, 0, s.Day.Location())
}

// Grid maps pointer positions to slots. ok is false outside every day
// column.
type Grid interface {
	SlotAt(p Point, snap int) (Slot, bool)
}

type OutcomeKind int

const (
	Cancelled OutcomeKind = iota
	Click
	Drop
)

// Outcome is what a release resolved to.
type Outcome struct {
	Kind     OutcomeKind
	Event    event.Event
	NewStart time.Time
	NewEnd   time.Time
}

// Machine tracks one gesture at a time.
type Machine struct {
	Grid      Grid
	LongPress time.Duration
	Snap      int

	phase    Phase
	event    event.Event
	anchor   Point
	duration time.Duration
	preview  *Slot
	token    uint64
}

// NewMachine returns a machine with the default delay and snap.
func NewMachine(grid Grid) *Machine {
	return &Machine{Grid: grid, LongPress: DefaultLongPress, Snap: DefaultSnap}
}

func (m *Machine) Phase() Phase { return m.phase }

// Event is the event under the current gesture.
func (m *Machine) Event() event.Event { return m.event }

// Anchor is where the gesture was pressed.
func (m *Machine) Anchor() Point { return m.anchor }

// Preview is the slot the event would land on, or nil.
func (m *Machine) Preview() *Slot { return m.preview }

// DurationMinutes is the length captured when dragging began.
func (m *Machine) DurationMinutes() int {
	return int(m.duration / time.Minute)
}

// Press starts a gesture on ev. The returned token must be handed to
// Elapsed once the returned delay has passed.
func (m *Machine) Press(ev event.Event, p Point) (token uint64, delay time.Duration) {
	m.reset()
	m.token++
	m.phase = Pending
	m.event = ev
	m.anchor = p

	delay = m.LongPress
	if delay <= 0 {
		delay = DefaultLongPress
	}
	return m.token, delay
}

// Elapsed promotes a pending press to a drag. Tokens from earlier presses
// are ignored. It reports whether dragging started.
func (m *Machine) Elapsed(token uint64) bool {
	if m.phase != Pending || token != m.token {
		return false
	}
	m.phase = Dragging
	m.duration = m.event.End.Sub(m.event.Start)
	if m.duration <= 0 {
		m.duration = event.DefaultDuration
	}
	m.preview = nil
	return true
}

// Move updates the preview while dragging.
func (m *Machine) Move(p Point) {
	if m.phase != Dragging {
		return
	}
	m.preview = nil
	if m.Grid == nil {
		return
	}
	if slot, ok := m.Grid.SlotAt(p, m.snap()); ok {
		m.preview = &slot
	}
}

// Release ends the gesture. A release before the long press fires is a
// click; a release over a slot while dragging is a drop keeping the
// event's duration; anything else is cancelled. The machine is idle
// afterwards.
func (m *Machine) Release(p Point) Outcome {
	defer m.reset()

	switch m.phase {
	case Pending:
		return Outcome{Kind: Click, Event: m.event}
	case Dragging:
		m.Move(p)
		if m.preview == nil {
			return Outcome{Kind: Cancelled, Event: m.event}
		}
		start := m.preview.Time()
		return Outcome{
			Kind:     Drop,
			Event:    m.event,
			NewStart: start,
			NewEnd:   start.Add(m.duration),
		}
	default:
		return Outcome{Kind: Cancelled}
	}
}

// Cancel abandons the gesture.
func (m *Machine) Cancel() {
	m.reset()
}

func (m *Machine) reset() {
	m.phase = Idle
	m.event = event.Event{}
	m.anchor = Point{}
	m.duration = 0
	m.preview = nil
}

func (m *Machine) snap() int {
	if m.Snap <= 0 {
		return DefaultSnap
	}
	return m.Snap
}

// Snap floors minute to a multiple of step.
func Snap(minute, step int) int {
	if step <= 1 {
		return minute
	}
	return minute - minute%step
}
