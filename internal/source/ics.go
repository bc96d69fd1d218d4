package source

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"sync"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/cwarden/gridcal/internal/event"
	"github.com/cwarden/gridcal/internal/log"
)

const productID = "-//gridcal//EN"

// ICSSource reads VEVENTs from iCalendar files. It is read-only and does
// not expand recurrence rules; each VEVENT is shown once at its own
// DTSTART.
type ICSSource struct {
	mu       sync.Mutex
	files    []string
	location *time.Location
	watch    fileWatch
}

func NewICSSource(loc *time.Location, files ...string) *ICSSource {
	if loc == nil {
		loc = time.Local
	}
	return &ICSSource{files: files, location: loc}
}

func (s *ICSSource) SetFiles(files []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files = files
}

func (s *ICSSource) GetEvents(start, end time.Time) ([]event.Event, error) {
	s.mu.Lock()
	files := append([]string(nil), s.files...)
	s.mu.Unlock()

	var events []event.Event
	for _, path := range files {
		data, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}

		parsed, err := ParseICS(data, s.location)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		for _, ev := range parsed {
			ev.Source = path
			if overlapsRange(ev, start, end) {
				events = append(events, ev)
			}
		}
	}
	return events, nil
}

func (s *ICSSource) WatchFiles() (<-chan FileChangeEvent, error) {
	s.mu.Lock()
	files := append([]string(nil), s.files...)
	s.mu.Unlock()
	return s.watch.start(files)
}

func (s *ICSSource) StopWatching() error {
	return s.watch.stop()
}

// ParseICS converts the VEVENTs of an iCalendar payload. Date-only values
// are read as all-day events in loc. Events without a UID are skipped.
func ParseICS(body []byte, loc *time.Location) ([]event.Event, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, errors.New("empty ICS body")
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	var events []event.Event
	for _, ve := range cal.Events() {
		ev, err := parseVEvent(ve, loc)
		if err != nil {
			log.Debug("skipping vevent", "err", err)
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}

func parseVEvent(ve *ical.VEvent, loc *time.Location) (event.Event, error) {
	var ev event.Event

	uid := ve.GetProperty(ical.ComponentPropertyUniqueId)
	if uid == nil || uid.Value == "" {
		return ev, errors.New("missing UID")
	}
	ev.ID = uid.Value

	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		ev.Title = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyDescription); p != nil {
		ev.Description = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyLocation); p != nil {
		ev.Location = p.Value
	}
	for _, p := range ve.GetProperties(ical.ComponentPropertyAttendee) {
		ev.Participants = append(ev.Participants, strings.TrimPrefix(strings.ToLower(p.Value), "mailto:"))
	}
	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		ev.Recurrence = recurrenceOf(p.Value)
		log.Debug("recurrence not expanded", "uid", ev.ID, "rrule", p.Value)
	}

	dtStart := ve.GetProperty(ical.ComponentPropertyDtStart)
	if dtStart == nil {
		return ev, errors.New("missing DTSTART")
	}

	if isDateValue(dtStart) {
		start, err := time.ParseInLocation("20060102", dtStart.Value, loc)
		if err != nil {
			return ev, fmt.Errorf("invalid DTSTART %q: %w", dtStart.Value, err)
		}
		end := event.AddDays(start, 1)
		if dtEnd := ve.GetProperty(ical.ComponentPropertyDtEnd); dtEnd != nil {
			if t, err := time.ParseInLocation("20060102", dtEnd.Value, loc); err == nil && t.After(start) {
				end = t
			}
		}
		ev.AllDay = true
		ev.Start = start
		ev.End = end
		return event.Normalize(ev), nil
	}

	start, err := ve.GetStartAt()
	if err != nil {
		return ev, fmt.Errorf("invalid DTSTART: %w", err)
	}
	ev.Start = start.In(loc)
	if end, err := ve.GetEndAt(); err == nil {
		ev.End = end.In(loc)
	}
	return event.Normalize(ev), nil
}

func isDateValue(p *ical.IANAProperty) bool {
	if vs, ok := p.ICalParameters["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
		return true
	}
	return !strings.Contains(p.Value, "T")
}

func recurrenceOf(rrule string) event.Recurrence {
	for _, part := range strings.Split(strings.ToUpper(rrule), ";") {
		switch part {
		case "FREQ=DAILY":
			return event.RecurrenceDaily
		case "FREQ=WEEKLY":
			return event.RecurrenceWeekly
		case "FREQ=MONTHLY":
			return event.RecurrenceMonthly
		case "FREQ=YEARLY":
			return event.RecurrenceYearly
		}
	}
	return event.RecurrenceNone
}

// ExportICS renders a single event as an iCalendar document.
func ExportICS(ev event.Event, stamp time.Time) []byte {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)

	ve := cal.AddEvent(ev.ID)
	ve.SetDtStampTime(stamp.UTC())
	if ev.AllDay {
		end := event.StartOfDay(ev.End)
		if end.Before(ev.End) {
			end = event.AddDays(end, 1)
		}
		ve.SetAllDayStartAt(ev.Start)
		ve.SetAllDayEndAt(end)
	} else {
		ve.SetStartAt(ev.Start.UTC())
		ve.SetEndAt(ev.End.UTC())
	}
	ve.SetSummary(ev.Title)
	if ev.Location != "" {
		ve.SetLocation(ev.Location)
	}
	if ev.Description != "" {
		ve.SetDescription(ev.Description)
	}
	for _, p := range ev.Participants {
		ve.AddAttendee("mailto:" + p)
	}

	return []byte(cal.Serialize())
}
