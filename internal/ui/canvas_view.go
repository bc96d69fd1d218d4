package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss/v2"

	"github.com/cwarden/gridcal/internal/drag"
	"github.com/cwarden/gridcal/internal/event"
	"github.com/cwarden/gridcal/internal/layout"
	"github.com/cwarden/gridcal/internal/timecursor"
)

// Layer depths, bottom to top.
const (
	zGrid    = 0
	zSlot    = 1
	zCursor  = 5
	zBlocks  = 10
	zGhost   = 900
	zSidebar = 1000
	zStatus  = 2000
)

// renderCanvasView renders the entire screen using a lipgloss Canvas
func (m *Model) renderCanvasView() string {
	g := m.geometry()

	var layers []*lipgloss.Layer
	layers = append(layers, m.createHeaderLayers(g)...)
	layers = append(layers, m.createAllDayLayers(g)...)
	layers = append(layers, m.createTimeColumnLayers(g)...)
	layers = append(layers, m.createGridLayers(g)...)
	layers = append(layers, m.createEventBlockLayers(g)...)
	layers = append(layers, m.createCursorLayers(g)...)
	if ghost := m.createGhostLayer(g); ghost != nil {
		layers = append(layers, ghost)
	}
	if g.sidebarWidth > 0 {
		layers = append(layers, m.createSidebarLayer(g))
	}
	layers = append(layers, m.createStatusBarLayers()...)

	return lipgloss.NewCanvas(layers...).Render()
}

func (m *Model) createHeaderLayers(g geometry) []*lipgloss.Layer {
	var layers []*lipgloss.Layer

	anchor := m.anchor.In(m.loc)
	title := fmt.Sprintf("%s %d", m.labels.Month(anchor.Month()), anchor.Year())
	view := "week"
	if len(g.days) == 1 {
		view = "day"
	}
	layers = append(layers, lipgloss.NewLayer(
		m.styles.Header.Render(title)+" "+m.styles.Help.Render(view),
	).X(timeWidth).Y(0).Z(zGrid))

	now := m.now()
	for i, day := range g.days {
		label := fit(fmt.Sprintf("%s %d", m.labels.Weekday(day.Weekday()), day.Day()), g.dayWidth-1)

		style := m.styles.Normal
		switch {
		case event.SameDay(day, anchor):
			style = m.styles.Selected
		case timecursor.Visible(day, now, m.loc):
			style = m.styles.Today
		case day.Weekday() == time.Saturday || day.Weekday() == time.Sunday:
			style = m.styles.Weekend
		}

		layers = append(layers, lipgloss.NewLayer(style.Render(label)).
			X(timeWidth+i*g.dayWidth).
			Y(1).
			Z(zGrid))
	}
	return layers
}

// createAllDayLayers draws the all-day lane between the day names and the
// grid. Overflow collapses into a "+N" row.
func (m *Model) createAllDayLayers(g geometry) []*lipgloss.Layer {
	if g.laneRows == 0 {
		return nil
	}

	layers := []*lipgloss.Layer{
		lipgloss.NewLayer(m.styles.Help.Render(fit(m.labels.AllDay, timeWidth-1))).
			X(0).Y(headerRows).Z(zGrid),
	}

	width := g.dayWidth - 1
	for i, day := range g.days {
		all := m.dayView(day).AllDay
		for j := 0; j < len(all) && j < g.laneRows; j++ {
			x := timeWidth + i*g.dayWidth
			y := headerRows + j

			if j == g.laneRows-1 && len(all) > g.laneRows {
				more := fmt.Sprintf("+%d", len(all)-j)
				layers = append(layers, lipgloss.NewLayer(m.styles.Help.Render(fit(more, width))).X(x).Y(y).Z(zBlocks))
				break
			}

			ev := all[j]
			bg, _, fg := m.eventColors(ev)
			text := ev.Title
			if m.bookmarks[ev.ID] {
				text = "★ " + text
			}
			style := lipgloss.NewStyle().Background(bg).Foreground(fg).Width(width)
			if ev.ID == m.selectedID {
				style = style.Bold(true).Underline(true)
			}
			layers = append(layers, lipgloss.NewLayer(style.Render(fit(text, width))).X(x).Y(y).Z(zBlocks))
		}
	}
	return layers
}

func (m *Model) createTimeColumnLayers(g geometry) []*lipgloss.Layer {
	var layers []*lipgloss.Layer

	now := m.now()
	nowMinute := -1
	if m.showsToday(g) {
		nowMinute = timecursor.Offset(now, m.loc)
	}
	anchorVisible := m.showsDay(g, m.anchor)

	for r := 0; r < g.gridRows; r++ {
		minute := m.topMinute + r*m.timeIncrement
		if minute >= layout.MinutesPerDay {
			break
		}
		label := fmt.Sprintf("%02d:%02d", minute/60, minute%60)

		style := m.styles.Help
		if minute%60 == 0 {
			style = m.styles.Normal
		}
		if nowMinute >= minute && nowMinute < minute+m.timeIncrement {
			style = m.styles.Today
		}
		if anchorVisible && minute == m.selectedMinute {
			style = m.styles.Selected
		}

		layers = append(layers, lipgloss.NewLayer(style.Render(label)).X(0).Y(g.gridTop+r).Z(zGrid))
	}
	return layers
}

// createGridLayers draws the column separators and the selected slot.
func (m *Model) createGridLayers(g geometry) []*lipgloss.Layer {
	var layers []*lipgloss.Layer

	rows := g.gridRows
	if last := (layout.MinutesPerDay - m.topMinute) / m.timeIncrement; last < rows {
		rows = last
	}
	if rows <= 0 {
		return nil
	}
	separator := strings.TrimSuffix(strings.Repeat("│\n", rows), "\n")

	for i, day := range g.days {
		x := timeWidth + i*g.dayWidth
		layers = append(layers, lipgloss.NewLayer(m.styles.Grid.Render(separator)).
			X(x+g.dayWidth-1).Y(g.gridTop).Z(zGrid))

		if !event.SameDay(day, m.anchor.In(m.loc)) {
			continue
		}
		if r := m.rowOf(m.selectedMinute); r >= 0 && r < rows {
			layers = append(layers, lipgloss.NewLayer(m.styles.Slot.Render(strings.Repeat(" ", g.dayWidth-1))).
				X(x).Y(g.gridTop+r).Z(zSlot))
		}
	}
	return layers
}

func (m *Model) createEventBlockLayers(g geometry) []*lipgloss.Layer {
	var layers []*lipgloss.Layer

	dragging := m.drag.Phase() == drag.Dragging
	for i, b := range m.blocks(g) {
		ev := b.layout.Event
		bg, band, fg := m.eventColors(ev)

		lines := make([]string, b.h)
		title := m.blockTitle(b.layout)
		if b.cut {
			title = "↑ " + title
		}
		lines[0] = fit(title, b.w)
		if b.detailed {
			lines[1] = fit(m.timeRange(ev.Start, ev.End), b.w)
		}

		body := lipgloss.NewStyle().Background(bg).Foreground(fg).Width(b.w)
		head := lipgloss.NewStyle().Background(band).Foreground(fg).Width(b.w).Bold(true)
		if ev.ID == m.selectedID {
			head = head.Underline(true)
		}
		if dragging && ev.ID == m.drag.Event().ID {
			body = body.Faint(true)
			head = head.Faint(true)
		}

		rendered := make([]string, len(lines))
		rendered[0] = head.Render(lines[0])
		for j := 1; j < len(lines); j++ {
			rendered[j] = body.Render(lines[j])
		}

		layers = append(layers, lipgloss.NewLayer(strings.Join(rendered, "\n")).
			X(b.x).
			Y(b.y).
			Z(zBlocks+i))
	}
	return layers
}

// createCursorLayers draws the current time across today's column, under
// the event blocks.
func (m *Model) createCursorLayers(g geometry) []*lipgloss.Layer {
	now := m.now()
	row := m.rowOf(timecursor.Offset(now, m.loc))
	if row < 0 || row >= g.gridRows {
		return nil
	}

	var layers []*lipgloss.Layer
	for i, day := range g.days {
		if !timecursor.Visible(day, now, m.loc) {
			continue
		}
		line := "●" + strings.Repeat("─", g.dayWidth-2)
		layers = append(layers, lipgloss.NewLayer(m.styles.Cursor.Render(line)).
			X(timeWidth+i*g.dayWidth).
			Y(g.gridTop+row).
			Z(zCursor))
	}
	return layers
}

// createGhostLayer shows where a dragged event would land.
func (m *Model) createGhostLayer(g geometry) *lipgloss.Layer {
	if m.drag.Phase() != drag.Dragging || m.drag.Preview() == nil {
		return nil
	}
	slot := *m.drag.Preview()

	col := -1
	for i, day := range g.days {
		if event.SameDay(day, slot.Day) {
			col = i
			break
		}
	}
	if col < 0 {
		return nil
	}

	start := slot.Hour*60 + slot.Minute
	top := m.rowOf(start)
	bottom := top + ceilRows(float64(m.drag.DurationMinutes())*m.rowsPerMinute())
	if top < 0 {
		top = 0
	}
	if bottom > g.gridRows {
		bottom = g.gridRows
	}
	if bottom <= top {
		return nil
	}

	width := g.dayWidth - 1
	lines := make([]string, bottom-top)
	lines[0] = fit(fmt.Sprintf("→ %s %s", slot.Time().Format(m.config.TimeFormat), m.drag.Event().Title), width)
	for i := range lines {
		lines[i] = m.styles.Ghost.Width(width).Render(lines[i])
	}

	return lipgloss.NewLayer(strings.Join(lines, "\n")).
		X(timeWidth + col*g.dayWidth).
		Y(g.gridTop + top).
		Z(zGhost)
}

func (m *Model) createSidebarLayer(g geometry) *lipgloss.Layer {
	width := g.sidebarWidth - 1
	var lines []string

	lines = append(lines, m.styles.Header.Render("Calendar"))
	lines = append(lines, m.renderMiniCalendar())
	lines = append(lines, "")
	lines = append(lines, m.styles.Header.Render("Selected"))
	lines = append(lines, m.renderSelection(width))

	return lipgloss.NewLayer(strings.Join(lines, "\n")).
		X(g.sidebarX).
		Y(0).
		Z(zSidebar)
}

// createStatusBarLayers creates layers for the status bar at the bottom of the screen
func (m *Model) createStatusBarLayers() []*lipgloss.Layer {
	var layers []*lipgloss.Layer

	now := m.now().In(m.loc)
	status := fmt.Sprintf(" Now: %s | Events: %d", now.Format("Mon Jan 2 "+m.config.TimeFormat), len(m.events))
	if m.drag.Phase() == drag.Dragging {
		status += " | dragging (esc to cancel)"
	}
	layers = append(layers, lipgloss.NewLayer(m.styles.Help.Render(status)).
		X(0).
		Y(m.height-2).
		Z(zStatus))

	var line string
	switch {
	case m.mode == ViewQuickAdd:
		line = m.renderPrompt(fmt.Sprintf("New event at %s: ", m.quickAddAt.In(m.loc).Format("Mon Jan 2 "+m.config.TimeFormat)))
	case m.mode == ViewGoto:
		line = m.renderPrompt("Go to date: ")
	case m.message != "":
		line = m.styles.Message.Render(m.message)
	default:
		help := "j/k:slot  h/l:day  H/L:week  n:new  tab:next  enter:open  d/w:view  z:zoom  t:today  ?:help  q:quit"
		line = m.styles.Help.Width(m.width).Align(lipgloss.Right).Render(help)
	}
	layers = append(layers, lipgloss.NewLayer(line).
		X(0).
		Y(m.height-1).
		Z(zStatus))

	return layers
}

func (m *Model) renderPrompt(prompt string) string {
	input := m.inputBuffer
	if m.cursorPos < len(input) {
		input = input[:m.cursorPos] + "█" + input[m.cursorPos:]
	} else {
		input = input + "█"
	}
	return m.styles.Normal.Render(prompt) + m.styles.Selected.Render(input)
}

func (m *Model) showsToday(g geometry) bool {
	return m.showsDay(g, m.now())
}

func (m *Model) showsDay(g geometry, t time.Time) bool {
	for _, day := range g.days {
		if event.SameDay(day, t.In(m.loc)) {
			return true
		}
	}
	return false
}
