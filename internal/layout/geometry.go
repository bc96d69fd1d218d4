package layout

import (
	"math"
	"time"

	"github.com/cwarden/gridcal/internal/event"
)

const (
	MinutesPerDay = 24 * 60

	// DetailedHeight is the block height, in pixels at one pixel per
	// minute, from which the time range is shown under the title.
	DetailedHeight = 40
)

// Mapper turns a Layout into a rectangle inside its day column. Vertical
// units are whatever PixelsPerMinute scales minutes into; horizontal
// values are percentages of the column width.
type Mapper struct {
	PixelsPerMinute float64
	// MinHeight keeps very short events clickable.
	MinHeight float64
	// Gutter is reserved on the right of each column, in the same units
	// as ColumnWidth. It is ignored while ColumnWidth is zero.
	Gutter      float64
	ColumnWidth float64
}

// DayMapper and WeekMapper are the pixel scales of the day and week grids.
func DayMapper() Mapper {
	return Mapper{PixelsPerMinute: 1, MinHeight: 20, Gutter: 8}
}

func WeekMapper() Mapper {
	return Mapper{PixelsPerMinute: 1, MinHeight: 20, Gutter: 4}
}

// Rect is the placement of one block.
type Rect struct {
	Top    float64 `json:"top" yaml:"top"`
	Height float64 `json:"height" yaml:"height"`
	Left   float64 `json:"left" yaml:"left"`
	Width  float64 `json:"width" yaml:"width"`
}

// Detailed reports whether the block is tall enough for a second line.
func (r Rect) Detailed(threshold float64) bool {
	return r.Height >= threshold
}

// Cells maps the horizontal percentages onto a column that is width cells
// wide. Every block gets at least one cell.
func (r Rect) Cells(width int) (x, w int) {
	x = int(math.Round(r.Left / 100 * float64(width)))
	right := int(math.Round((r.Left + r.Width) / 100 * float64(width)))
	if x >= width {
		x = width - 1
	}
	if x < 0 {
		x = 0
	}
	w = right - x
	if w < 1 {
		w = 1
	}
	return x, w
}

// Rect computes the placement of l.
func (m Mapper) Rect(l Layout) Rect {
	startMin := event.MinuteOfDay(l.Start)
	// Height uses the wall-clock scale of Top.
	endMin := MinutesPerDay
	if end := l.End.In(l.Start.Location()); event.SameDay(l.Start, end) {
		endMin = event.MinuteOfDay(end)
	}
	minutes := endMin - startMin
	if minutes <= 0 {
		// The wall clock runs backwards across a fall-back hour.
		minutes = int(l.End.Sub(l.Start) / time.Minute)
	}
	if limit := MinutesPerDay - startMin; minutes > limit {
		minutes = limit
	}

	height := float64(minutes) * m.PixelsPerMinute
	if height < m.MinHeight {
		height = m.MinHeight
	}

	gutter := 0.0
	if m.ColumnWidth > 0 {
		gutter = m.Gutter / m.ColumnWidth * 100
	}
	total := l.TotalColumns
	if total < 1 {
		total = 1
	}
	width := (100 - gutter) / float64(total)

	return Rect{
		Top:    float64(startMin) * m.PixelsPerMinute,
		Height: height,
		Left:   float64(l.Column) * width,
		Width:  width,
	}
}

// Offset is the vertical position of a minute of the day.
func (m Mapper) Offset(minuteOfDay int) float64 {
	return float64(minuteOfDay) * m.PixelsPerMinute
}
