package ui

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/cwarden/gridcal/internal/config"
	"github.com/cwarden/gridcal/internal/event"
	"github.com/cwarden/gridcal/internal/log"
	"github.com/cwarden/gridcal/internal/source"
)

// Callbacks are invoked for pointer and key interactions. Each returns a
// command for the program to run, or nil.
type Callbacks struct {
	OnTimeSlotClick func(at time.Time) tea.Cmd
	OnEventClick    func(ev event.Event) tea.Cmd
	OnEventDrop     func(ev event.Event, start, end time.Time) tea.Cmd
	OnEditEvent     func(ev event.Event) tea.Cmd
	OnDeleteEvent   func(ev event.Event) tea.Cmd
	OnShareEvent    func(ev event.Event) tea.Cmd
	OnBookmarkEvent func(ev event.Event) tea.Cmd
}

// DefaultCallbacks persists changes through src when it is a
// source.Writer. Slot clicks open quick-add and event clicks select.
func DefaultCallbacks(cfg *config.Config, src source.Source) Callbacks {
	writer, _ := src.(source.Writer)

	return Callbacks{
		OnTimeSlotClick: func(at time.Time) tea.Cmd {
			return func() tea.Msg { return openQuickAddMsg{at: at} }
		},
		OnEventClick: func(ev event.Event) tea.Cmd {
			return func() tea.Msg { return selectEventMsg{id: ev.ID} }
		},
		OnEventDrop: func(ev event.Event, start, end time.Time) tea.Cmd {
			return func() tea.Msg {
				if writer == nil {
					return errMsg{context: "Move failed", err: source.ErrReadOnly}
				}
				moved, err := writer.Reschedule(ev.ID, start, end)
				if err != nil {
					return errMsg{context: "Move failed", err: err}
				}
				log.Info("event rescheduled", "id", moved.ID, "start", moved.Start, "end", moved.End)
				return eventsChangedMsg{
					status:   fmt.Sprintf("Moved %s to %s", moved.Title, moved.Start.Format("Mon Jan 2 15:04")),
					selectID: moved.ID,
				}
			}
		},
		OnEditEvent: func(ev event.Event) tea.Cmd {
			return editCmd(cfg.Editor, ev)
		},
		OnDeleteEvent: func(ev event.Event) tea.Cmd {
			return func() tea.Msg {
				if writer == nil {
					return errMsg{context: "Delete failed", err: source.ErrReadOnly}
				}
				if err := writer.Delete(ev.ID); err != nil {
					return errMsg{context: "Delete failed", err: err}
				}
				log.Info("event deleted", "id", ev.ID)
				return eventsChangedMsg{status: fmt.Sprintf("Deleted %s", ev.Title)}
			}
		},
		OnShareEvent: func(ev event.Event) tea.Cmd {
			return shareCmd(cfg.ShareDir, ev)
		},
		OnBookmarkEvent: func(ev event.Event) tea.Cmd {
			return func() tea.Msg { return bookmarkMsg{id: ev.ID} }
		},
	}
}

func (c Callbacks) merge(o Callbacks) Callbacks {
	if o.OnTimeSlotClick != nil {
		c.OnTimeSlotClick = o.OnTimeSlotClick
	}
	if o.OnEventClick != nil {
		c.OnEventClick = o.OnEventClick
	}
	if o.OnEventDrop != nil {
		c.OnEventDrop = o.OnEventDrop
	}
	if o.OnEditEvent != nil {
		c.OnEditEvent = o.OnEditEvent
	}
	if o.OnDeleteEvent != nil {
		c.OnDeleteEvent = o.OnDeleteEvent
	}
	if o.OnShareEvent != nil {
		c.OnShareEvent = o.OnShareEvent
	}
	if o.OnBookmarkEvent != nil {
		c.OnBookmarkEvent = o.OnBookmarkEvent
	}
	return c
}

// editCmd suspends the program and opens the file the event came from.
func editCmd(editor string, ev event.Event) tea.Cmd {
	if ev.Source == "" {
		return func() tea.Msg {
			return errMsg{context: "Edit failed", err: errors.New("event has no source file")}
		}
	}
	args := strings.Fields(editor)
	if len(args) == 0 {
		args = []string{"vi"}
	}
	c := exec.Command(args[0], append(args[1:], ev.Source)...)
	return tea.ExecProcess(c, func(err error) tea.Msg {
		if err != nil {
			return errMsg{context: "Editor failed", err: err}
		}
		return eventsChangedMsg{selectID: ev.ID}
	})
}

// shareCmd writes the event as an .ics file into dir.
func shareCmd(dir string, ev event.Event) tea.Cmd {
	return func() tea.Msg {
		if dir == "" {
			dir = os.TempDir()
		}
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return errMsg{context: "Share failed", err: err}
		}
		path := filepath.Join(dir, shareName(ev)+".ics")
		if err := os.WriteFile(path, source.ExportICS(ev, time.Now()), 0o600); err != nil {
			return errMsg{context: "Share failed", err: err}
		}
		log.Info("event shared", "id", ev.ID, "file", path)
		return statusMsg{text: fmt.Sprintf("Shared to %s", path)}
	}
}

func shareName(ev event.Event) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '-'
	}, ev.ID)
	if name == "" {
		name = "event"
	}
	return name
}
