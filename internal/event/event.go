package event

import (
	"strconv"
	"strings"
	"time"
)

// DefaultDuration is used whenever an event has no usable end.
const DefaultDuration = 30 * time.Minute

type Recurrence string

const (
	RecurrenceNone    Recurrence = "none"
	RecurrenceDaily   Recurrence = "daily"
	RecurrenceWeekly  Recurrence = "weekly"
	RecurrenceMonthly Recurrence = "monthly"
	RecurrenceYearly  Recurrence = "yearly"
)

// Event is a calendar entry after coercion. Start and End are always set
// and End is always after Start once Normalize has run.
type Event struct {
	ID           string     `yaml:"id" json:"id"`
	Title        string     `yaml:"title" json:"title"`
	Start        time.Time  `yaml:"start" json:"start"`
	End          time.Time  `yaml:"end" json:"end"`
	AllDay       bool       `yaml:"all_day,omitempty" json:"allDay,omitempty"`
	Color        string     `yaml:"color,omitempty" json:"color,omitempty"`
	CalendarID   string     `yaml:"calendar,omitempty" json:"calendarId,omitempty"`
	Location     string     `yaml:"location,omitempty" json:"location,omitempty"`
	Participants []string   `yaml:"participants,omitempty" json:"participants,omitempty"`
	Description  string     `yaml:"description,omitempty" json:"description,omitempty"`
	Notification int        `yaml:"notification,omitempty" json:"notification,omitempty"`
	Recurrence   Recurrence `yaml:"recurrence,omitempty" json:"recurrence,omitempty"`
	Source       string     `yaml:"-" json:"-"`
}

// Duration returns End - Start.
func (e Event) Duration() time.Duration {
	return e.End.Sub(e.Start)
}

// Raw is an event as it arrives from a store, before its dates are parsed.
type Raw struct {
	ID           string     `yaml:"id"`
	Title        string     `yaml:"title"`
	Start        string     `yaml:"start"`
	End          string     `yaml:"end"`
	AllDay       bool       `yaml:"all_day,omitempty"`
	Color        string     `yaml:"color,omitempty"`
	CalendarID   string     `yaml:"calendar,omitempty"`
	Location     string     `yaml:"location,omitempty"`
	Participants []string   `yaml:"participants,omitempty"`
	Description  string     `yaml:"description,omitempty"`
	Notification int        `yaml:"notification,omitempty"`
	Recurrence   Recurrence `yaml:"recurrence,omitempty"`
}

// FromRaw parses the raw dates in loc. An unparsable start becomes now and
// an unparsable end becomes now plus DefaultDuration. The result is
// normalized.
func FromRaw(r Raw, loc *time.Location, now time.Time) Event {
	start, ok := ParseInstant(r.Start, loc)
	if !ok {
		start = now
	}
	end, ok := ParseInstant(r.End, loc)
	if !ok {
		end = now.Add(DefaultDuration)
	}

	return Normalize(Event{
		ID:           r.ID,
		Title:        r.Title,
		Start:        start,
		End:          end,
		AllDay:       r.AllDay,
		Color:        r.Color,
		CalendarID:   r.CalendarID,
		Location:     r.Location,
		Participants: r.Participants,
		Description:  r.Description,
		Notification: r.Notification,
		Recurrence:   r.Recurrence,
	})
}

// ToRaw is the inverse of FromRaw. Dates are written as RFC3339.
func ToRaw(e Event) Raw {
	return Raw{
		ID:           e.ID,
		Title:        e.Title,
		Start:        e.Start.Format(time.RFC3339),
		End:          e.End.Format(time.RFC3339),
		AllDay:       e.AllDay,
		Color:        e.Color,
		CalendarID:   e.CalendarID,
		Location:     e.Location,
		Participants: e.Participants,
		Description:  e.Description,
		Notification: e.Notification,
		Recurrence:   e.Recurrence,
	}
}

// Normalize repairs an inverted or empty range by giving the event the
// default duration. It never fails.
func Normalize(e Event) Event {
	if !e.End.After(e.Start) {
		e.End = e.Start.Add(DefaultDuration)
	}
	if e.Recurrence == "" {
		e.Recurrence = RecurrenceNone
	}
	return e
}

var instantLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseInstant accepts RFC3339 timestamps, local date-times, bare dates and
// epoch milliseconds. Forms without a zone are read in loc.
func ParseInstant(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "nan") {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.Local
	}

	if ms, err := strconv.ParseInt(s, 10, 64); err == nil && len(s) > 8 {
		return time.UnixMilli(ms).In(loc), true
	}

	for _, layout := range instantLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
