// Package parser turns a one-line quick-add entry such as
// "tomorrow 2pm-3:30pm Review #work" into a draft event.
package parser

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/cwarden/gridcal/internal/event"
)

var ErrEmpty = errors.New("empty input")

// Category is a named calendar with a color token.
type Category struct {
	ID    string
	Color string
}

// DefaultCategories are selectable with #work and #personal.
var DefaultCategories = map[string]Category{
	"work":     {ID: "work", Color: "bg-blue-500"},
	"personal": {ID: "personal", Color: "bg-green-500"},
}

var (
	weekdayRe   = regexp.MustCompile(`^(next|this)\s+(mon|monday|tue|tuesday|wed|wednesday|thu|thursday|fri|friday|sat|saturday|sun|sunday)\b`)
	inRe        = regexp.MustCompile(`^in\s+(\d+)\s+(day|days|week|weeks)\b`)
	isoDateRe   = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})\b`)
	shortDateRe = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})\b`)
	allDayRe    = regexp.MustCompile(`^all[\s-]?day\b`)
	rangeRe     = regexp.MustCompile(`^(?:at\s+)?(\d{1,2})(?::(\d{2}))?\s*(am|pm)?\s*-\s*(\d{1,2})(?::(\d{2}))?\s*(am|pm)?\b`)
	timeRe      = regexp.MustCompile(`^(?:at\s+)?(\d{1,2})(?::(\d{2}))?\s*(am|pm)\b|^(?:at\s+)?(\d{1,2}):(\d{2})\b`)
	forRe       = regexp.MustCompile(`\s+for\s+(\d+)\s*(m|min|mins|minutes|h|hr|hrs|hour|hours)$`)
	tagRe       = regexp.MustCompile(`(?:^|\s)#(\w+)`)
)

// Draft is a parsed quick-add entry.
type Draft struct {
	Title      string
	Start      time.Time
	End        time.Time
	AllDay     bool
	Color      string
	CalendarID string
}

// Event converts the draft into an event with the given ID.
func (d Draft) Event(id string) event.Event {
	return event.Normalize(event.Event{
		ID:         id,
		Title:      d.Title,
		Start:      d.Start,
		End:        d.End,
		AllDay:     d.AllDay,
		Color:      d.Color,
		CalendarID: d.CalendarID,
	})
}

type TimeParser struct {
	now        time.Time
	location   *time.Location
	categories map[string]Category
}

func NewTimeParser(loc *time.Location) *TimeParser {
	if loc == nil {
		loc = time.Local
	}
	return &TimeParser{
		now:        time.Now(),
		location:   loc,
		categories: DefaultCategories,
	}
}

func (p *TimeParser) SetNow(now time.Time) {
	p.now = now
}

// Parse reads input relative to anchor, the slot the entry was started
// from. Without a date the anchor's day is used; without a time the
// anchor's time is used. Timed drafts last 30 minutes unless a range or a
// trailing "for 90m" says otherwise.
func (p *TimeParser) Parse(input string, anchor time.Time) (Draft, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return Draft{}, ErrEmpty
	}
	if anchor.IsZero() {
		anchor = p.now
	}
	anchor = anchor.In(p.location)

	var d Draft
	remaining := p.takeTags(input, &d)

	var duration time.Duration
	if m := forRe.FindStringSubmatch(strings.ToLower(remaining)); m != nil {
		n, _ := strconv.Atoi(m[1])
		unit := time.Minute
		if strings.HasPrefix(m[2], "h") {
			unit = time.Hour
		}
		duration = time.Duration(n) * unit
		remaining = remaining[:len(remaining)-len(m[0])]
	}

	day := event.StartOfDay(anchor)
	if date, rest, ok := p.parseDate(remaining); ok {
		day = date
		remaining = rest
	}

	lower := strings.ToLower(remaining)
	switch {
	case allDayRe.MatchString(lower):
		loc := allDayRe.FindStringIndex(lower)
		remaining = remaining[loc[1]:]
		d.AllDay = true
		d.Start = day
		d.End = event.EndOfDay(day)

	default:
		start, end, rest, ok := p.parseTime(remaining, day)
		if !ok {
			start = at(day, anchor.Hour(), anchor.Minute())
			end = time.Time{}
		}
		remaining = rest
		d.Start = start
		d.End = end
		if duration > 0 {
			d.End = start.Add(duration)
		}
		if !d.End.After(d.Start) {
			d.End = d.Start.Add(event.DefaultDuration)
		}
	}

	d.Title = strings.Join(strings.Fields(remaining), " ")
	if d.Title == "" {
		d.Title = "(untitled)"
	}
	return d, nil
}

func (p *TimeParser) takeTags(input string, d *Draft) string {
	for _, m := range tagRe.FindAllStringSubmatch(input, -1) {
		if cat, ok := p.categories[strings.ToLower(m[1])]; ok {
			d.Color = cat.Color
			d.CalendarID = cat.ID
		}
	}
	return strings.TrimSpace(tagRe.ReplaceAllString(input, ""))
}

func (p *TimeParser) parseDate(input string) (time.Time, string, bool) {
	lower := strings.ToLower(input)
	today := p.today()

	switch {
	case strings.HasPrefix(lower, "today"):
		return today, strings.TrimSpace(input[5:]), true
	case strings.HasPrefix(lower, "tomorrow"):
		return event.AddDays(today, 1), strings.TrimSpace(input[8:]), true
	case strings.HasPrefix(lower, "tmrw"):
		return event.AddDays(today, 1), strings.TrimSpace(input[4:]), true
	}

	if m := weekdayRe.FindStringSubmatch(lower); m != nil {
		target := parseWeekday(m[2])
		days := int(target - today.Weekday())
		if days <= 0 || m[1] == "next" {
			days += 7
		}
		return event.AddDays(today, days), strings.TrimSpace(input[len(m[0]):]), true
	}

	if m := inRe.FindStringSubmatch(lower); m != nil {
		n, _ := strconv.Atoi(m[1])
		if strings.HasPrefix(m[2], "week") {
			n *= 7
		}
		return event.AddDays(today, n), strings.TrimSpace(input[len(m[0]):]), true
	}

	if m := isoDateRe.FindStringSubmatch(input); m != nil {
		y, _ := strconv.Atoi(m[1])
		mo, _ := strconv.Atoi(m[2])
		dd, _ := strconv.Atoi(m[3])
		return time.Date(y, time.Month(mo), dd, 0, 0, 0, 0, p.location), strings.TrimSpace(input[len(m[0]):]), true
	}

	if m := shortDateRe.FindStringSubmatch(input); m != nil {
		mo, _ := strconv.Atoi(m[1])
		dd, _ := strconv.Atoi(m[2])
		return time.Date(p.now.Year(), time.Month(mo), dd, 0, 0, 0, 0, p.location), strings.TrimSpace(input[len(m[0]):]), true
	}

	return time.Time{}, input, false
}

func (p *TimeParser) parseTime(input string, day time.Time) (start, end time.Time, rest string, ok bool) {
	lower := strings.ToLower(input)

	if m := rangeRe.FindStringSubmatch(lower); m != nil {
		endMeridiem := m[6]
		startMeridiem := m[3]
		if startMeridiem == "" {
			startMeridiem = endMeridiem
		}
		sh, sm, ok1 := clock(m[1], m[2], startMeridiem)
		eh, em, ok2 := clock(m[4], m[5], endMeridiem)
		if ok1 && ok2 {
			start = at(day, sh, sm)
			end = at(day, eh, em)
			if !end.After(start) {
				end = event.AddDays(end, 1)
			}
			return start, end, strings.TrimSpace(input[len(m[0]):]), true
		}
	}

	if m := timeRe.FindStringSubmatch(lower); m != nil {
		h, mm, meridiem := m[1], m[2], m[3]
		if h == "" {
			h, mm, meridiem = m[4], m[5], ""
		}
		if hour, minute, ok := clock(h, mm, meridiem); ok {
			return at(day, hour, minute), time.Time{}, strings.TrimSpace(input[len(m[0]):]), true
		}
	}

	namedTimes := []struct {
		name string
		hour int
	}{
		{"noon", 12},
		{"midnight", 0},
		{"morning", 9},
		{"afternoon", 14},
		{"evening", 18},
		{"night", 21},
	}
	for _, nt := range namedTimes {
		if strings.HasPrefix(lower, nt.name) {
			return at(day, nt.hour, 0), time.Time{}, strings.TrimSpace(input[len(nt.name):]), true
		}
	}

	return time.Time{}, time.Time{}, input, false
}

func clock(hour, minute, meridiem string) (int, int, bool) {
	h, err := strconv.Atoi(hour)
	if err != nil {
		return 0, 0, false
	}
	m := 0
	if minute != "" {
		m, _ = strconv.Atoi(minute)
	}
	switch meridiem {
	case "pm":
		if h < 12 {
			h += 12
		}
	case "am":
		if h == 12 {
			h = 0
		}
	}
	if h > 23 || m > 59 {
		return 0, 0, false
	}
	return h, m, true
}

func parseWeekday(s string) time.Weekday {
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.HasPrefix(strings.ToLower(d.String()), s) {
			return d
		}
	}
	return time.Sunday
}

func at(day time.Time, hour, minute int) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, hour, minute, 0, 0, day.Location())
}

func (p *TimeParser) today() time.Time {
	return event.StartOfDay(p.now.In(p.location))
}
