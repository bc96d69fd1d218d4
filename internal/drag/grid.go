package drag

import (
	"math"
	"time"

	"github.com/cwarden/gridcal/internal/event"
)

// Columns is a row of equal-width day columns over a vertical minute scale.
// Top is where FirstMinute is drawn; rows above or below the grid clamp to
// the first or last minute of the day.
type Columns struct {
	Days            []time.Time
	Left            float64
	Top             float64
	DayWidth        float64
	PixelsPerMinute float64
	FirstMinute     int
}

// SlotAt finds the day column under p and floors the minute to snap.
func (c Columns) SlotAt(p Point, snap int) (Slot, bool) {
	if len(c.Days) == 0 || c.DayWidth <= 0 || c.PixelsPerMinute <= 0 {
		return Slot{}, false
	}
	if p.X < c.Left {
		return Slot{}, false
	}
	col := int((p.X - c.Left) / c.DayWidth)
	if col >= len(c.Days) {
		return Slot{}, false
	}

	minute := c.FirstMinute + int(math.Floor((p.Y-c.Top)/c.PixelsPerMinute))
	if minute < 0 {
		minute = 0
	}
	if minute > 24*60-1 {
		minute = 24*60 - 1
	}
	minute = Snap(minute, snap)

	return Slot{
		Day:    event.StartOfDay(c.Days[col]),
		Hour:   minute / 60,
		Minute: minute % 60,
	}, true
}
