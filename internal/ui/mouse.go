package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/cwarden/gridcal/internal/drag"
)

// slotClickSnap places slot clicks on the hour or the half hour.
const slotClickSnap = 30

func (m *Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if m.mode != ViewWeek && m.mode != ViewDay {
		return m, nil
	}

	g := m.geometry()
	cols := m.columns(g)
	m.drag.Grid = cols
	p := drag.Point{X: float64(msg.X), Y: float64(msg.Y)}

	switch msg.Action {
	case tea.MouseActionPress:
		switch msg.Button {
		case tea.MouseButtonLeft:
			return m, m.press(g, cols, msg.X, msg.Y, p)
		case tea.MouseButtonWheelUp:
			m.topMinute -= m.timeIncrement
			m.clampScroll(g)
		case tea.MouseButtonWheelDown:
			m.topMinute += m.timeIncrement
			m.clampScroll(g)
		}

	case tea.MouseActionMotion:
		m.drag.Move(p)

	case tea.MouseActionRelease:
		return m, m.release(p)
	}

	return m, nil
}

func (m *Model) press(g geometry, cols drag.Columns, x, y int, p drag.Point) tea.Cmd {
	if b, ok := m.blockAt(g, x, y); ok {
		token, delay := m.drag.Press(b.layout.Event, p)
		return longPressCmd(token, delay)
	}

	if y < g.gridTop || y >= g.gridTop+g.gridRows {
		return nil
	}
	slot, ok := cols.SlotAt(p, slotClickSnap)
	if !ok {
		return nil
	}
	m.anchor = slot.Day
	m.selectedMinute = drag.Snap(slot.Hour*60+slot.Minute, m.timeIncrement)
	return m.callbacks.OnTimeSlotClick(slot.Time())
}

func (m *Model) release(p drag.Point) tea.Cmd {
	out := m.drag.Release(p)
	switch out.Kind {
	case drag.Click:
		return m.callbacks.OnEventClick(out.Event)
	case drag.Drop:
		return m.callbacks.OnEventDrop(out.Event, out.NewStart, out.NewEnd)
	}
	return nil
}
