package source

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cwarden/gridcal/internal/event"
)

const sampleYAML = `events:
  - id: plan
    title: Planning
    start: "2025-03-10T09:00:00Z"
    end: "2025-03-10T10:30:00Z"
    color: bg-blue-500
  - title: No id yet
    start: "2025-03-11T14:00:00Z"
    end: "2025-03-11T15:00:00Z"
  - id: broken
    title: Broken end
    start: "2025-03-12T08:00:00Z"
    end: "soon"
`

const sampleICS = `BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//test//EN
BEGIN:VEVENT
UID:standup@example.com
DTSTAMP:20250301T000000Z
DTSTART:20250310T083000Z
DTEND:20250310T084500Z
SUMMARY:Standup
LOCATION:Room 4
RRULE:FREQ=WEEKLY;BYDAY=MO
END:VEVENT
BEGIN:VEVENT
UID:holiday@example.com
DTSTAMP:20250301T000000Z
DTSTART;VALUE=DATE:20250314
DTEND;VALUE=DATE:20250315
SUMMARY:Holiday
END:VEVENT
BEGIN:VEVENT
DTSTAMP:20250301T000000Z
DTSTART:20250310T100000Z
SUMMARY:No UID
END:VEVENT
END:VCALENDAR
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

var (
	weekStart = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	weekEnd   = time.Date(2025, 3, 17, 0, 0, 0, 0, time.UTC)
)

func TestStoreGetEvents(t *testing.T) {
	path := writeFile(t, t.TempDir(), "events.yaml", sampleYAML)
	now := time.Date(2025, 3, 12, 8, 0, 0, 0, time.UTC)

	store := NewStore(time.UTC, path)
	store.SetNow(func() time.Time { return now })

	events, err := store.GetEvents(weekStart, weekEnd)
	if err != nil {
		t.Fatalf("GetEvents: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}

	if events[0].ID != "plan" || events[0].Color != "bg-blue-500" || events[0].Source != path {
		t.Errorf("first event mismatch: %+v", events[0])
	}
	if events[1].ID == "" {
		t.Error("event without id should have been assigned one")
	}
	if got := events[2].End; !got.Equal(now.Add(30 * time.Minute)) {
		t.Errorf("malformed end should default to now+30m, got %v", got)
	}

	// The assigned id is written back and stays stable.
	again, err := store.GetEvents(weekStart, weekEnd)
	if err != nil {
		t.Fatalf("GetEvents: %v", err)
	}
	if again[1].ID != events[1].ID {
		t.Errorf("assigned id changed between loads: %q then %q", events[1].ID, again[1].ID)
	}

	narrow, err := store.GetEvents(time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC), time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("GetEvents: %v", err)
	}
	if len(narrow) != 1 || narrow[0].Title != "No id yet" {
		t.Errorf("range filter mismatch: %+v", narrow)
	}
}

func TestStoreMissingFile(t *testing.T) {
	store := NewStore(time.UTC, filepath.Join(t.TempDir(), "absent.yaml"))
	events, err := store.GetEvents(weekStart, weekEnd)
	if err != nil {
		t.Fatalf("missing file should read as empty: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("expected no events, got %d", len(events))
	}
}

func TestStoreReschedule(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "events.yaml", sampleYAML)
	store := NewStore(time.UTC, path)

	newStart := time.Date(2025, 3, 12, 14, 30, 0, 0, time.UTC)
	newEnd := newStart.Add(90 * time.Minute)

	ev, err := store.Reschedule("plan", newStart, newEnd)
	if err != nil {
		t.Fatalf("Reschedule: %v", err)
	}
	if !ev.Start.Equal(newStart) || !ev.End.Equal(newEnd) || ev.Title != "Planning" {
		t.Errorf("rescheduled event mismatch: %+v", ev)
	}

	reloaded, err := NewStore(time.UTC, path).GetEvents(weekStart, weekEnd)
	if err != nil {
		t.Fatalf("GetEvents: %v", err)
	}
	var found bool
	for _, e := range reloaded {
		if e.ID == "plan" {
			found = true
			if !e.Start.Equal(newStart) || !e.End.Equal(newEnd) {
				t.Errorf("persisted range mismatch: %v-%v", e.Start, e.End)
			}
			if e.Color != "bg-blue-500" {
				t.Errorf("color lost on reschedule: %q", e.Color)
			}
		}
	}
	if !found {
		t.Fatal("rescheduled event missing after reload")
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("file mode mismatch: got %v, want 0600", info.Mode().Perm())
	}

	leftovers, _ := filepath.Glob(filepath.Join(dir, ".gridcal-events-*"))
	if len(leftovers) != 0 {
		t.Errorf("temp files left behind: %v", leftovers)
	}

	if _, err := store.Reschedule("nope", newStart, newEnd); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStoreAddAndDelete(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "events.yaml")
	store := NewStore(time.UTC, path)

	added, err := store.Add(event.Event{
		Title: "Dentist",
		Start: time.Date(2025, 3, 13, 16, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 3, 13, 16, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if added.ID == "" {
		t.Error("added event should get an id")
	}
	if added.Duration() != 30*time.Minute {
		t.Errorf("zero length event should be normalized, got %v", added.Duration())
	}

	events, _ := store.GetEvents(weekStart, weekEnd)
	if len(events) != 1 || events[0].ID != added.ID {
		t.Fatalf("added event not found: %+v", events)
	}

	if err := store.Delete(added.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	events, _ = store.GetEvents(weekStart, weekEnd)
	if len(events) != 0 {
		t.Errorf("expected no events after delete, got %d", len(events))
	}
}

func TestParseICS(t *testing.T) {
	events, err := ParseICS([]byte(sampleICS), time.UTC)
	if err != nil {
		t.Fatalf("ParseICS: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}

	standup := events[0]
	if standup.ID != "standup@example.com" || standup.Title != "Standup" || standup.Location != "Room 4" {
		t.Errorf("standup mismatch: %+v", standup)
	}
	if !standup.Start.Equal(time.Date(2025, 3, 10, 8, 30, 0, 0, time.UTC)) || standup.Duration() != 15*time.Minute {
		t.Errorf("standup range mismatch: %v-%v", standup.Start, standup.End)
	}
	if standup.Recurrence != event.RecurrenceWeekly {
		t.Errorf("recurrence mismatch: got %q", standup.Recurrence)
	}
	if standup.AllDay {
		t.Error("standup should be timed")
	}

	holiday := events[1]
	if !holiday.AllDay {
		t.Error("date-only event should be all-day")
	}
	if !holiday.Start.Equal(time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("holiday start mismatch: %v", holiday.Start)
	}

	if _, err := ParseICS([]byte("  "), time.UTC); err == nil {
		t.Error("expected an error for an empty body")
	}
}

func TestICSSource(t *testing.T) {
	path := writeFile(t, t.TempDir(), "cal.ics", sampleICS)
	src := NewICSSource(time.UTC, path)

	events, err := src.GetEvents(time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC), weekEnd)
	if err != nil {
		t.Fatalf("GetEvents: %v", err)
	}
	if len(events) != 1 || events[0].ID != "holiday@example.com" || events[0].Source != path {
		t.Errorf("range filter mismatch: %+v", events)
	}

	var _ Source = src
	if _, ok := interface{}(src).(Writer); ok {
		t.Error("ICS source must not be writable")
	}
}

func TestExportICS(t *testing.T) {
	ev := event.Event{
		ID:           "x1",
		Title:        "Review",
		Start:        time.Date(2025, 3, 12, 14, 30, 0, 0, time.UTC),
		End:          time.Date(2025, 3, 12, 16, 0, 0, 0, time.UTC),
		Location:     "Room 2",
		Participants: []string{"sam@example.com"},
	}

	data := ExportICS(ev, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))
	text := string(data)
	for _, want := range []string{"BEGIN:VEVENT", "UID:x1", "SUMMARY:Review", "DTSTART:20250312T143000Z", "sam@example.com"} {
		if !strings.Contains(text, want) {
			t.Errorf("export missing %q:\n%s", want, text)
		}
	}

	back, err := ParseICS(data, time.UTC)
	if err != nil {
		t.Fatalf("ParseICS of export: %v", err)
	}
	if len(back) != 1 || !back[0].End.Equal(ev.End) {
		t.Errorf("exported event did not parse back: %+v", back)
	}
}

func TestCompositeSource(t *testing.T) {
	dir := t.TempDir()
	yamlPath := writeFile(t, dir, "events.yaml", sampleYAML)
	icsPath := writeFile(t, dir, "cal.ics", sampleICS)

	store := NewStore(time.UTC, yamlPath)
	ics := NewICSSource(time.UTC, icsPath)
	dup := NewICSSource(time.UTC, icsPath)
	composite := NewCompositeSource(ics, store, dup)

	events, err := composite.GetEvents(weekStart, weekEnd)
	if err != nil {
		t.Fatalf("GetEvents: %v", err)
	}
	if len(events) != 5 {
		t.Fatalf("expected 5 unique events, got %d", len(events))
	}
	for i := 1; i < len(events); i++ {
		if events[i].Start.Before(events[i-1].Start) {
			t.Errorf("events not sorted by start at %d", i)
		}
	}

	newStart := time.Date(2025, 3, 13, 9, 0, 0, 0, time.UTC)
	if _, err := composite.Reschedule("plan", newStart, newStart.Add(time.Hour)); err != nil {
		t.Errorf("Reschedule through composite: %v", err)
	}
	if _, err := composite.Reschedule("standup@example.com", newStart, newStart.Add(time.Hour)); !errors.Is(err, ErrNotFound) {
		t.Errorf("ICS event should not be reschedulable, got %v", err)
	}

	readOnly := NewCompositeSource(ics)
	if err := readOnly.Delete("standup@example.com"); !errors.Is(err, ErrReadOnly) {
		t.Errorf("expected ErrReadOnly, got %v", err)
	}
	if _, err := readOnly.Add(event.Event{Title: "x"}); !errors.Is(err, ErrReadOnly) {
		t.Errorf("expected ErrReadOnly, got %v", err)
	}
}

func TestStoreWatchFiles(t *testing.T) {
	path := writeFile(t, t.TempDir(), "events.yaml", sampleYAML)
	store := NewStore(time.UTC, path)

	ch, err := store.WatchFiles()
	if err != nil {
		t.Fatalf("WatchFiles: %v", err)
	}
	defer store.StopWatching()

	// Rewrites go through rename, which must still be noticed.
	if _, err := store.Reschedule("plan", weekStart.Add(8*time.Hour), weekStart.Add(9*time.Hour)); err != nil {
		t.Fatalf("Reschedule: %v", err)
	}

	select {
	case ev := <-ch:
		if filepath.Base(ev.Path) != "events.yaml" {
			t.Errorf("change path mismatch: %s", ev.Path)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("no change notification")
	}
}

func TestStoreUnwritableKeepsIDs(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "events.yaml", sampleYAML)
	store := NewStore(time.UTC, path)
	readOnly := errors.New("read-only file system")
	store.write = func(string, *storeFile) error { return readOnly }

	idOf := func() string {
		t.Helper()
		events, err := store.GetEvents(weekStart, weekEnd)
		if err != nil {
			t.Fatalf("GetEvents: %v", err)
		}
		for _, ev := range events {
			if ev.Title == "No id yet" {
				return ev.ID
			}
		}
		t.Fatalf("event without id not loaded")
		return ""
	}

	first, second := idOf(), idOf()
	if first == "" || first != second {
		t.Errorf("id mismatch across loads: got %q then %q", first, second)
	}

	start := time.Date(2025, 3, 11, 16, 0, 0, 0, time.UTC)
	_, err := store.Reschedule(first, start, start.Add(time.Hour))
	if !errors.Is(err, readOnly) {
		t.Errorf("reschedule error mismatch: got %v, want %v", err, readOnly)
	}
}
