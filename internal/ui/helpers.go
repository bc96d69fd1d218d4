package ui

import (
	"fmt"
	"image/color"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss/v2"
	"github.com/muesli/reflow/truncate"
	"github.com/muesli/reflow/wordwrap"

	"github.com/cwarden/gridcal/internal/event"
	"github.com/cwarden/gridcal/internal/layout"
	"github.com/cwarden/gridcal/internal/timecursor"
)

// eventColors returns the block background, the darker title band and a
// readable text color for an event's color token.
func (m *Model) eventColors(ev event.Event) (bg, band, fg color.Color) {
	hex := m.config.Color(ev.Color)
	bg = lipgloss.Color(hex)
	band = lipgloss.Color(darker(hex, 0.25))
	fg = lipgloss.Color("#F5F5F5")
	if luminance(bg) > 0.6 {
		fg = lipgloss.Color("#1A1A1A")
	}
	return bg, band, fg
}

// darker scales each channel of a #RRGGBB color by 1-amount. Anything else
// is returned unchanged.
func darker(hex string, amount float64) string {
	var r, g, b uint8
	if _, err := fmt.Sscanf(hex, "#%02x%02x%02x", &r, &g, &b); err != nil {
		return hex
	}
	scale := func(v uint8) uint8 {
		return uint8(float64(v) * (1 - amount))
	}
	return fmt.Sprintf("#%02X%02X%02X", scale(r), scale(g), scale(b))
}

func luminance(c color.Color) float64 {
	r, g, b, _ := c.RGBA()
	return (0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)) / 0xffff
}

// blockTitle is the first line of a block: bookmark mark, title and the
// continuation suffix of a clipped slice.
func (m *Model) blockTitle(l layout.Layout) string {
	title := l.Event.Title
	if title == "" {
		title = "(untitled)"
	}
	if m.bookmarks[l.Event.ID] {
		title = "★ " + title
	}
	return title + m.labels.Suffix(l.Position)
}

func (m *Model) timeRange(start, end time.Time) string {
	return fmt.Sprintf("%s–%s", start.In(m.loc).Format(m.config.TimeFormat), end.In(m.loc).Format(m.config.TimeFormat))
}

func fit(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return truncate.StringWithTail(s, uint(width), "…")
}

// renderMiniCalendar renders a small calendar for navigation
func (m *Model) renderMiniCalendar() string {
	var lines []string

	anchor := m.anchor.In(m.loc)
	lines = append(lines, m.styles.Header.Render(fmt.Sprintf("%s %d", m.labels.Month(anchor.Month()), anchor.Year())))

	var names []string
	for i := 0; i < 7; i++ {
		wd := time.Weekday((int(m.config.WeekStartDay) + i) % 7)
		names = append(names, fmt.Sprintf("%-2s", truncate.String(m.labels.Weekday(wd), 2)))
	}
	lines = append(lines, strings.Join(names, " "))

	firstDay := time.Date(anchor.Year(), anchor.Month(), 1, 0, 0, 0, 0, m.loc)
	day := event.StartOfWeek(firstDay, m.config.WeekStartDay)
	now := m.now()

	for week := 0; week < 6; week++ {
		var cells []string
		for i := 0; i < 7; i++ {
			dayStr := fmt.Sprintf("%2d", day.Day())

			switch {
			case day.Month() != anchor.Month():
				dayStr = m.styles.Help.Render(dayStr)
			case event.SameDay(day, anchor):
				dayStr = m.styles.Selected.Render(dayStr)
			case timecursor.Visible(day, now, m.loc):
				dayStr = m.styles.Today.Render(dayStr)
			case day.Weekday() == time.Saturday || day.Weekday() == time.Sunday:
				dayStr = m.styles.Weekend.Render(dayStr)
			default:
				dayStr = m.styles.Normal.Render(dayStr)
			}
			cells = append(cells, dayStr)
			day = event.AddDays(day, 1)
		}
		lines = append(lines, strings.Join(cells, " "))

		if day.Month() != anchor.Month() && week >= 3 {
			break
		}
	}

	return m.styles.Border.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// renderSelection describes the selected event, or the events under the
// selected slot when nothing is selected.
func (m *Model) renderSelection(width int) string {
	if ev := m.selectedEvent(); ev != nil {
		return m.renderEventDetail(*ev, width)
	}

	var lines []string
	at := m.selectedTime()
	lines = append(lines, m.styles.Normal.Render(at.Format(m.config.DateFormat+" "+m.config.TimeFormat)))

	slotEnd := at.Add(timeMinutes(m.timeIncrement))
	found := false
	for _, l := range m.dayView(m.anchor).Layouts {
		if !l.Start.Before(slotEnd) || !l.End.After(at) {
			continue
		}
		found = true
		line := fmt.Sprintf("%s %s", m.timeRange(l.Event.Start, l.Event.End), l.Event.Title)
		lines = append(lines, m.styles.Normal.Render(fit(line, width)))
	}
	if !found {
		lines = append(lines, m.styles.Help.Render("(no events)"))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderEventDetail(ev event.Event, width int) string {
	var lines []string

	title := ev.Title
	if m.bookmarks[ev.ID] {
		title = "★ " + title
	}
	lines = append(lines, m.styles.Selected.Render(fit(title, width)))

	if layout.IsAllDay(ev, m.loc) {
		lines = append(lines, m.styles.Normal.Render(fmt.Sprintf("%s %s", ev.Start.In(m.loc).Format(m.config.DateFormat), m.labels.AllDay)))
	} else {
		lines = append(lines, m.styles.Normal.Render(ev.Start.In(m.loc).Format(m.config.DateFormat)))
		lines = append(lines, m.styles.Normal.Render(m.timeRange(ev.Start, ev.End)))
	}
	if ev.Location != "" {
		lines = append(lines, m.styles.Help.Render(wordwrap.String("@ "+ev.Location, width)))
	}
	if len(ev.Participants) > 0 {
		lines = append(lines, m.styles.Help.Render(wordwrap.String(strings.Join(ev.Participants, ", "), width)))
	}
	if ev.Recurrence != "" && ev.Recurrence != event.RecurrenceNone {
		lines = append(lines, m.styles.Help.Render(fmt.Sprintf("repeats %s", ev.Recurrence)))
	}
	if ev.Description != "" {
		lines = append(lines, "", m.styles.Normal.Render(wordwrap.String(ev.Description, width)))
	}

	lines = append(lines, "", m.styles.Help.Render(wordwrap.String(m.actionHints(), width)))
	return strings.Join(lines, "\n")
}

// actionHints lists the event actions with the keys bound to them.
func (m *Model) actionHints() string {
	actions := []struct {
		action string
		label  string
	}{
		{"edit_event", m.labels.Edit},
		{"share_event", m.labels.Share},
		{"bookmark_event", m.labels.Bookmark},
		{"delete_event", m.labels.Delete},
	}
	var hints []string
	for _, a := range actions {
		if key := m.keyFor(a.action); key != "" {
			hints = append(hints, fmt.Sprintf("%s:%s", key, a.label))
		}
	}
	return strings.Join(hints, "  ")
}

// keyFor returns the shortest key bound to action.
func (m *Model) keyFor(action string) string {
	best := ""
	for key, a := range m.config.KeyBindings {
		if a != action {
			continue
		}
		if best == "" || len(key) < len(best) || (len(key) == len(best) && key < best) {
			best = key
		}
	}
	return best
}
