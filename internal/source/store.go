package source

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/cwarden/gridcal/internal/event"
	"github.com/cwarden/gridcal/internal/log"
)

type storeFile struct {
	Events []event.Raw `yaml:"events"`
}

// Store keeps events in YAML files:
//
//	events:
//	  - id: 6f1c...
//	    title: Planning
//	    start: 2025-03-10T09:00:00+01:00
//	    end: 2025-03-10T10:30:00+01:00
//	    color: bg-blue-500
//
// New events are added to the first file. Events without an ID are given
// one, and the file is rewritten so the ID sticks.
type Store struct {
	mu       sync.Mutex
	files    []string
	location *time.Location
	now      func() time.Time
	write    func(path string, doc *storeFile) error
	watch    fileWatch
}

func NewStore(loc *time.Location, files ...string) *Store {
	if loc == nil {
		loc = time.Local
	}
	return &Store{
		files:    files,
		location: loc,
		now:      time.Now,
		write:    save,
	}
}

// SetNow replaces the clock used to default malformed dates.
func (s *Store) SetNow(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *Store) SetFiles(files []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files = files
}

func (s *Store) GetEvents(start, end time.Time) ([]event.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var events []event.Event
	for _, path := range s.files {
		doc, err := s.load(path)
		if err != nil {
			return nil, err
		}
		for _, raw := range doc.Events {
			ev := event.FromRaw(raw, s.location, s.now())
			ev.Source = path
			if overlapsRange(ev, start, end) {
				events = append(events, ev)
			}
		}
	}
	return events, nil
}

// Reschedule moves the event with the given ID to [start, end).
func (s *Store) Reschedule(id string, start, end time.Time) (event.Event, error) {
	var updated event.Event
	err := s.update(id, func(doc *storeFile, i int) {
		ev := event.FromRaw(doc.Events[i], s.location, s.now())
		ev.Start = start
		ev.End = end
		updated = event.Normalize(ev)
		doc.Events[i] = event.ToRaw(updated)
	})
	return updated, err
}

// Delete removes the event with the given ID.
func (s *Store) Delete(id string) error {
	return s.update(id, func(doc *storeFile, i int) {
		doc.Events = append(doc.Events[:i], doc.Events[i+1:]...)
	})
}

// Add appends ev to the first file, giving it an ID if it has none.
func (s *Store) Add(ev event.Event) (event.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.files) == 0 {
		return event.Event{}, ErrReadOnly
	}
	path := s.files[0]

	doc, err := s.load(path)
	if err != nil {
		return event.Event{}, err
	}

	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	ev = event.Normalize(ev)
	doc.Events = append(doc.Events, event.ToRaw(ev))

	if err := s.write(path, doc); err != nil {
		return event.Event{}, err
	}
	ev.Source = path
	log.Info("event added", "id", ev.ID, "file", path)
	return ev, nil
}

func (s *Store) update(id string, fn func(doc *storeFile, i int)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, path := range s.files {
		doc, err := s.load(path)
		if err != nil {
			return err
		}
		for i := range doc.Events {
			if doc.Events[i].ID != id {
				continue
			}
			fn(doc, i)
			if err := s.write(path, doc); err != nil {
				return err
			}
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrNotFound, id)
}

// load reads one file. A missing file is an empty calendar.
func (s *Store) load(path string) (*storeFile, error) {
	doc := &storeFile{}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return doc, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	var missing []int
	for i := range doc.Events {
		if doc.Events[i].ID == "" {
			doc.Events[i].ID = uuid.NewString()
			missing = append(missing, i)
		}
	}
	if len(missing) == 0 {
		return doc, nil
	}

	if err := s.write(path, doc); err != nil {
		// IDs must not change between reads of an unwritable file.
		log.Error("failed to persist assigned ids", err, "file", path)
		seen := make(map[string]int)
		for _, i := range missing {
			raw := doc.Events[i]
			key := raw.Title + "\x00" + raw.Start + "\x00" + raw.End
			doc.Events[i].ID = derivedID(path, key, seen[key])
			seen[key]++
		}
		return doc, nil
	}
	log.Info("assigned event ids", "file", path, "count", len(missing))
	return doc, nil
}

// derivedID is a name-based UUID for the nth ID-less event with key in
// path.
func derivedID(path, key string, n int) string {
	name := fmt.Sprintf("%s\x00%s\x00%d", path, key, n)
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(name)).String()
}

func (s *Store) WatchFiles() (<-chan FileChangeEvent, error) {
	s.mu.Lock()
	files := append([]string(nil), s.files...)
	s.mu.Unlock()
	return s.watch.start(files)
}

func (s *Store) StopWatching() error {
	return s.watch.stop()
}

// save writes doc to a temp file in the same directory and renames it over
// path.
func save(path string, doc *storeFile) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(doc)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".gridcal-events-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
