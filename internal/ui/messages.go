package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/cwarden/gridcal/internal/event"
	"github.com/cwarden/gridcal/internal/source"
	"github.com/cwarden/gridcal/internal/timecursor"
)

type eventsLoadedMsg struct {
	events   []event.Event
	from, to time.Time
	err      error
}

// eventsChangedMsg follows a write; the model reloads.
type eventsChangedMsg struct {
	status   string
	selectID string
}

type fileChangedMsg struct {
	path string
}

type cursorTickMsg time.Time

type refreshTickMsg time.Time

type longPressMsg struct {
	token uint64
}

type openQuickAddMsg struct {
	at time.Time
}

type selectEventMsg struct {
	id string
}

type bookmarkMsg struct {
	id string
}

type statusMsg struct {
	text string
}

type errMsg struct {
	context string
	err     error
}

type messageTimeoutMsg struct {
	seq int
}

func waitForChange(ch <-chan source.FileChangeEvent) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return fileChangedMsg{path: ev.Path}
	}
}

func waitForCursor(t *timecursor.Ticker) tea.Cmd {
	if t == nil {
		return nil
	}
	return func() tea.Msg {
		return cursorTickMsg(<-t.C)
	}
}

func waitForRefresh(t *timecursor.Ticker) tea.Cmd {
	if t == nil {
		return nil
	}
	return func() tea.Msg {
		return refreshTickMsg(<-t.C)
	}
}

func longPressCmd(token uint64, delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(time.Time) tea.Msg {
		return longPressMsg{token: token}
	})
}
