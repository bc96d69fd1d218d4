// Package timecursor places the "now" line on a day column and keeps it
// fresh with a cron schedule.
package timecursor

import (
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/cwarden/gridcal/internal/event"
)

// EveryMinute fires at the top of each minute.
const EveryMinute = "* * * * *"

// Offset is the minute of the day of now in loc.
func Offset(now time.Time, loc *time.Location) int {
	if loc == nil {
		loc = time.Local
	}
	return event.MinuteOfDay(now.In(loc))
}

// Visible reports whether day is today in loc.
func Visible(day, now time.Time, loc *time.Location) bool {
	if loc == nil {
		loc = time.Local
	}
	return event.SameDay(day.In(loc), now.In(loc))
}

// Ticker delivers the fire time of a cron schedule on C. A fire is dropped
// when the previous one has not been read yet.
type Ticker struct {
	C <-chan time.Time

	cron *cron.Cron
	once sync.Once
}

// NewTicker starts a ticker for spec, a standard five field cron
// expression, evaluated in loc.
func NewTicker(spec string, loc *time.Location) (*Ticker, error) {
	if loc == nil {
		loc = time.Local
	}

	ch := make(chan time.Time, 1)
	c := cron.New(cron.WithLocation(loc))
	if _, err := c.AddFunc(spec, func() {
		select {
		case ch <- time.Now().In(loc):
		default:
		}
	}); err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	c.Start()

	return &Ticker{C: ch, cron: c}, nil
}

// Stop halts the schedule and waits for a running fire to finish. It is
// safe to call more than once.
func (t *Ticker) Stop() {
	t.once.Do(func() {
		<-t.cron.Stop().Done()
	})
}

// Validate reports whether spec parses as a standard cron expression.
func Validate(spec string) error {
	if _, err := cron.ParseStandard(spec); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	return nil
}
