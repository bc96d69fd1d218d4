package ui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/cwarden/gridcal/internal/drag"
	"github.com/cwarden/gridcal/internal/event"
	"github.com/cwarden/gridcal/internal/layout"
	"github.com/cwarden/gridcal/internal/source"
)

var arrowActions = map[string]string{
	"down":  "next_slot",
	"up":    "prev_slot",
	"right": "next_day",
	"left":  "prev_day",
}

var zoomSteps = map[int]int{60: 30, 30: 15, 15: 60}

func (m *Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.mode {
	case ViewQuickAdd, ViewGoto:
		return m.handleInputKeys(msg)
	case ViewHelp:
		m.leaveOverlay()
		return m, nil
	}

	key := msg.String()

	if m.pendingDelete != nil {
		ev := *m.pendingDelete
		m.pendingDelete = nil
		if key == "y" || key == "Y" {
			return m, m.callbacks.OnDeleteEvent(ev)
		}
		return m, m.showMessage("Delete cancelled")
	}

	if key == "esc" {
		if m.drag.Phase() != drag.Idle {
			m.drag.Cancel()
			return m, m.showMessage("Move cancelled")
		}
		m.selectedID = ""
		return m, nil
	}

	action, ok := m.config.KeyBindings[key]
	if !ok {
		action = arrowActions[key]
	}
	return m.handleAction(action)
}

func (m *Model) handleAction(action string) (tea.Model, tea.Cmd) {
	switch action {
	case "quit":
		return m, tea.Quit

	case "help":
		m.enterOverlay(ViewHelp)

	case "today":
		now := m.now().In(m.loc)
		m.selectedMinute = drag.Snap(event.MinuteOfDay(now), m.timeIncrement)
		m.ensureVisible(m.geometry())
		return m, m.moveAnchor(dayDiff(m.anchor, now, m.loc))

	case "refresh":
		return m, tea.Batch(m.loadEventsCmd(), m.showMessage("Refreshing..."))

	case "new_event":
		m.openQuickAdd(m.selectedTime())

	case "edit_event", "share_event", "bookmark_event", "delete_event":
		ev := m.selectedEvent()
		if ev == nil {
			return m, m.showMessage("No event selected")
		}
		return m, m.eventAction(action, *ev)

	case "open_event":
		ev := m.eventAtSelectedSlot()
		if ev == nil {
			return m, m.showMessage("No event at this time")
		}
		return m, m.callbacks.OnEventClick(*ev)

	case "next_event":
		m.selectNextEvent()

	case "next_day":
		return m, m.moveAnchor(1)
	case "prev_day":
		return m, m.moveAnchor(-1)
	case "next_week":
		return m, m.moveAnchor(7)
	case "prev_week":
		return m, m.moveAnchor(-7)

	case "next_slot":
		return m, m.moveSlot(m.timeIncrement)
	case "prev_slot":
		return m, m.moveSlot(-m.timeIncrement)

	case "day_view":
		m.mode = ViewDay
		m.clampScroll(m.geometry())
	case "week_view":
		m.mode = ViewWeek
		m.clampScroll(m.geometry())
		if m.needsReload() {
			return m, m.loadEventsCmd()
		}

	case "zoom":
		m.timeIncrement = zoomSteps[m.timeIncrement]
		if m.timeIncrement == 0 {
			m.timeIncrement = 30
		}
		m.selectedMinute = drag.Snap(m.selectedMinute, m.timeIncrement)
		m.ensureVisible(m.geometry())
		return m, m.showMessage(fmt.Sprintf("Zoom: %d minute slots", m.timeIncrement))

	case "goto_date":
		m.enterOverlay(ViewGoto)
	}

	return m, nil
}

func (m *Model) eventAction(action string, ev event.Event) tea.Cmd {
	switch action {
	case "edit_event":
		return m.callbacks.OnEditEvent(ev)
	case "share_event":
		return m.callbacks.OnShareEvent(ev)
	case "bookmark_event":
		return m.callbacks.OnBookmarkEvent(ev)
	case "delete_event":
		if m.config.ConfirmDelete {
			m.pendingDelete = &ev
			return m.showMessage(fmt.Sprintf("Delete %q? (y/n)", ev.Title))
		}
		return m.callbacks.OnDeleteEvent(ev)
	}
	return nil
}

// moveSlot shifts the selected slot, rolling over to the neighbouring day.
func (m *Model) moveSlot(delta int) tea.Cmd {
	var cmd tea.Cmd
	m.selectedMinute += delta
	switch {
	case m.selectedMinute >= layout.MinutesPerDay:
		m.selectedMinute = 0
		cmd = m.moveAnchor(1)
	case m.selectedMinute < 0:
		m.selectedMinute = layout.MinutesPerDay - m.timeIncrement
		cmd = m.moveAnchor(-1)
	}
	m.ensureVisible(m.geometry())
	return cmd
}

// eventAtSelectedSlot is the first timed event on the selected day that
// covers the selected slot.
func (m *Model) eventAtSelectedSlot() *event.Event {
	slotStart := m.selectedTime()
	slotEnd := slotStart.Add(timeMinutes(m.timeIncrement))
	for _, l := range m.dayView(m.anchor).Layouts {
		if l.Start.Before(slotEnd) && l.End.After(slotStart) {
			ev := l.Event
			return &ev
		}
	}
	return nil
}

// selectNextEvent cycles through the selected day's timed events in layout
// order.
func (m *Model) selectNextEvent() {
	layouts := m.dayView(m.anchor).Layouts
	if len(layouts) == 0 {
		return
	}
	next := 0
	for i, l := range layouts {
		if l.Event.ID == m.selectedID {
			next = (i + 1) % len(layouts)
			break
		}
	}
	l := layouts[next]
	m.selectedID = l.Event.ID
	m.selectedMinute = drag.Snap(event.MinuteOfDay(l.Start), m.timeIncrement)
	m.ensureVisible(m.geometry())
}

func (m *Model) openQuickAdd(at time.Time) {
	m.quickAddAt = at
	m.inputBuffer = ""
	m.cursorPos = 0
	m.enterOverlay(ViewQuickAdd)
}

func (m *Model) handleInputKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEscape:
		m.leaveOverlay()
		return m, nil

	case tea.KeyEnter:
		input := m.inputBuffer
		mode := m.mode
		m.leaveOverlay()
		if input == "" {
			return m, nil
		}
		if mode == ViewGoto {
			return m, m.gotoDate(input)
		}
		return m, m.addEvent(input)

	case tea.KeyBackspace:
		if m.cursorPos > 0 {
			m.inputBuffer = m.inputBuffer[:m.cursorPos-1] + m.inputBuffer[m.cursorPos:]
			m.cursorPos--
		}

	case tea.KeyLeft:
		if m.cursorPos > 0 {
			m.cursorPos--
		}

	case tea.KeyRight:
		if m.cursorPos < len(m.inputBuffer) {
			m.cursorPos++
		}

	case tea.KeySpace:
		m.insertInput(" ")

	case tea.KeyRunes:
		m.insertInput(string(msg.Runes))
	}

	return m, nil
}

func (m *Model) insertInput(s string) {
	m.inputBuffer = m.inputBuffer[:m.cursorPos] + s + m.inputBuffer[m.cursorPos:]
	m.cursorPos += len(s)
}

func (m *Model) addEvent(input string) tea.Cmd {
	m.parser.SetNow(m.now())
	draft, err := m.parser.Parse(input, m.quickAddAt)
	if err != nil {
		return m.showMessage(fmt.Sprintf("Parse error: %v", err))
	}

	writer, ok := m.source.(source.Writer)
	if !ok {
		return m.showMessage(fmt.Sprintf("Error: %v", source.ErrReadOnly))
	}
	ev := draft.Event("")
	return func() tea.Msg {
		added, err := writer.Add(ev)
		if err != nil {
			return errMsg{context: "Add failed", err: err}
		}
		return eventsChangedMsg{status: "Event added", selectID: added.ID}
	}
}

func (m *Model) gotoDate(input string) tea.Cmd {
	target, ok := event.ParseInstant(input, m.loc)
	if !ok {
		m.parser.SetNow(m.now())
		draft, err := m.parser.Parse(input, m.anchor)
		if err != nil {
			return m.showMessage(fmt.Sprintf("Invalid date: %s", input))
		}
		target = draft.Start
	}
	return m.moveAnchor(dayDiff(m.anchor, target, m.loc))
}

// dayDiff counts calendar days from a to b in loc.
func dayDiff(a, b time.Time, loc *time.Location) int {
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	da := time.Date(ay, am, ad, 12, 0, 0, 0, time.UTC)
	db := time.Date(by, bm, bd, 12, 0, 0, 0, time.UTC)
	return int(db.Sub(da).Hours() / 24)
}

func timeMinutes(n int) time.Duration {
	return time.Duration(n) * time.Minute
}
