package ui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss/v2"
)

var helpSections = []struct {
	title   string
	actions []string
}{
	{"Navigation:", []string{"next_slot", "prev_slot", "next_day", "prev_day", "next_week", "prev_week", "today", "goto_date"}},
	{"View:", []string{"day_view", "week_view", "zoom", "refresh"}},
	{"Events:", []string{"new_event", "next_event", "open_event", "edit_event", "share_event", "bookmark_event", "delete_event"}},
	{"General:", []string{"help", "quit"}},
}

var actionDescriptions = map[string]string{
	"next_slot":      "Next time slot",
	"prev_slot":      "Previous time slot",
	"next_day":       "Next day",
	"prev_day":       "Previous day",
	"next_week":      "Next week",
	"prev_week":      "Previous week",
	"today":          "Go to now",
	"goto_date":      "Go to date",
	"day_view":       "Day view",
	"week_view":      "Week view",
	"zoom":           "Zoom (60/30/15 minute slots)",
	"refresh":        "Reload events",
	"new_event":      "Quick-add at the selected slot",
	"next_event":     "Select next event of the day",
	"open_event":     "Select event at the slot",
	"edit_event":     "Edit selected event",
	"share_event":    "Export selected event as .ics",
	"bookmark_event": "Toggle bookmark",
	"delete_event":   "Delete selected event",
	"help":           "Toggle help",
	"quit":           "Quit",
}

func (m *Model) viewHelp() string {
	keys := make(map[string][]string)
	for key, action := range m.config.KeyBindings {
		keys[action] = append(keys[action], key)
	}

	help := []string{
		m.styles.Header.Render("gridcal Help"),
	}
	for _, section := range helpSections {
		help = append(help, "", m.styles.Normal.Render(section.title))
		for _, action := range section.actions {
			bound := keys[action]
			if len(bound) == 0 {
				continue
			}
			sort.Strings(bound)
			help = append(help, m.styles.Help.Render(fmt.Sprintf("  %-10s - %s", strings.Join(bound, "/"), actionDescriptions[action])))
		}
	}

	help = append(help,
		"",
		m.styles.Normal.Render("Mouse:"),
		m.styles.Help.Render("  click slot   - Quick-add at that time"),
		m.styles.Help.Render("  click event  - Select"),
		m.styles.Help.Render("  hold + drag  - Move event, release to drop"),
		m.styles.Help.Render("  wheel        - Scroll"),
		"",
		m.styles.Help.Render("Press any key to return..."),
	)

	return lipgloss.JoinVertical(lipgloss.Left, help...)
}
