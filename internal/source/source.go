// Package source loads calendar events from files and writes changes made
// in the grid back to them.
package source

import (
	"errors"
	"time"

	"github.com/cwarden/gridcal/internal/event"
)

var (
	ErrNotFound = errors.New("event not found")
	ErrReadOnly = errors.New("source is read-only")
)

// Source provides events from a set of files.
type Source interface {
	// GetEvents returns events overlapping [start, end).
	GetEvents(start, end time.Time) ([]event.Event, error)
	SetFiles(files []string)
	// WatchFiles returns a channel that receives a value whenever one of
	// the files changes. It returns nil when watching is not supported.
	WatchFiles() (<-chan FileChangeEvent, error)
	StopWatching() error
}

// Writer is a Source that can persist edits.
type Writer interface {
	Reschedule(id string, start, end time.Time) (event.Event, error)
	Add(ev event.Event) (event.Event, error)
	Delete(id string) error
}

// FileChangeEvent represents a change to a source file
type FileChangeEvent struct {
	Path      string
	Timestamp time.Time
}

func overlapsRange(ev event.Event, start, end time.Time) bool {
	return ev.Start.Before(end) && ev.End.After(start)
}
