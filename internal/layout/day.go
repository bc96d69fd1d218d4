package layout

import (
	"sort"
	"time"

	"github.com/cwarden/gridcal/internal/event"
)

// AllDayRowHeight is the pixel height of one entry in the all-day lane.
const AllDayRowHeight = 22

// DayView is everything needed to draw one day column.
type DayView struct {
	Day          time.Time     `json:"day" yaml:"day"`
	AllDay       []event.Event `json:"allDay" yaml:"all_day"`
	AllDayHeight float64       `json:"allDayHeight" yaml:"all_day_height"`
	Layouts      []Layout      `json:"layouts" yaml:"layouts"`
}

// LayoutDay builds the view of day, read in loc, from an unfiltered list of
// events.
func LayoutDay(events []event.Event, day time.Time, loc *time.Location) DayView {
	day = event.StartOfDay(day.In(loc))

	normalized := make([]event.Event, len(events))
	for i, ev := range events {
		normalized[i] = event.Normalize(ev)
	}

	allDay, timed := Partition(normalized, day, loc)
	sort.SliceStable(allDay, func(i, j int) bool {
		if !allDay[i].Start.Equal(allDay[j].Start) {
			return allDay[i].Start.Before(allDay[j].Start)
		}
		return allDay[i].ID < allDay[j].ID
	})

	return DayView{
		Day:          day,
		AllDay:       allDay,
		AllDayHeight: float64(len(allDay)) * AllDayRowHeight,
		Layouts:      Columns(ClipAll(timed, day)),
	}
}

// WeekDays returns the seven days of the week containing anchor.
func WeekDays(anchor time.Time, first time.Weekday, loc *time.Location) []time.Time {
	start := event.StartOfWeek(anchor.In(loc), first)
	days := make([]time.Time, 7)
	for i := range days {
		days[i] = event.AddDays(start, i)
	}
	return days
}

// LayoutWeek lays out each day of the week containing anchor.
func LayoutWeek(events []event.Event, anchor time.Time, first time.Weekday, loc *time.Location) []DayView {
	days := WeekDays(anchor, first, loc)
	views := make([]DayView, len(days))
	for i, day := range days {
		views[i] = LayoutDay(events, day, loc)
	}
	return views
}

// LaneHeight is the all-day lane height shared by a row of day columns.
func LaneHeight(views []DayView) float64 {
	var h float64
	for _, v := range views {
		if v.AllDayHeight > h {
			h = v.AllDayHeight
		}
	}
	return h
}
