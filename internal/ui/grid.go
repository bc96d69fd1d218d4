package ui

import (
	"math"
	"time"

	"github.com/cwarden/gridcal/internal/drag"
	"github.com/cwarden/gridcal/internal/event"
	"github.com/cwarden/gridcal/internal/layout"
)

const (
	timeWidth    = 6 // "HH:MM "
	headerRows   = 2 // title, day names
	statusRows   = 2
	maxLaneRows  = 3
	minDayWidth  = 8
	sidebarRatio = 4 // sidebar gets 1/sidebarRatio of the width when shown
	sidebarMin   = 100
)

// geometry is the screen placement of the time grid for the current size
// and view.
type geometry struct {
	days         []time.Time
	laneRows     int
	gridTop      int
	gridRows     int
	dayWidth     int
	sidebarX     int
	sidebarWidth int
}

func (m *Model) visibleDays() []time.Time {
	if m.viewBeforeOverlay() == ViewDay {
		return []time.Time{event.StartOfDay(m.anchor.In(m.loc))}
	}
	return layout.WeekDays(m.anchor, m.config.WeekStartDay, m.loc)
}

func (m *Model) geometry() geometry {
	g := geometry{days: m.visibleDays()}

	for _, day := range g.days {
		if n := len(m.dayView(day).AllDay); n > g.laneRows {
			g.laneRows = n
		}
	}
	if g.laneRows > maxLaneRows {
		g.laneRows = maxLaneRows
	}

	g.gridTop = headerRows + g.laneRows
	g.gridRows = m.height - g.gridTop - statusRows
	if g.gridRows < 1 {
		g.gridRows = 1
	}

	area := m.width - timeWidth
	if m.width >= sidebarMin {
		g.sidebarWidth = m.width / sidebarRatio
		area -= g.sidebarWidth + 1
	}
	g.dayWidth = area / len(g.days)
	if g.dayWidth < minDayWidth {
		g.dayWidth = minDayWidth
	}
	g.sidebarX = timeWidth + g.dayWidth*len(g.days) + 1
	return g
}

func (m *Model) rowsPerMinute() float64 {
	return 1 / float64(m.timeIncrement)
}

// columns is the pointer mapping used for drops and slot clicks.
func (m *Model) columns(g geometry) drag.Columns {
	return drag.Columns{
		Days:            g.days,
		Left:            timeWidth,
		Top:             float64(g.gridTop),
		DayWidth:        float64(g.dayWidth),
		PixelsPerMinute: m.rowsPerMinute(),
		FirstMinute:     m.topMinute,
	}
}

func (m *Model) mapper(g geometry) layout.Mapper {
	return layout.Mapper{
		PixelsPerMinute: m.rowsPerMinute(),
		MinHeight:       1,
		Gutter:          1,
		ColumnWidth:     float64(g.dayWidth),
	}
}

// block is an event as drawn on screen, in cells.
type block struct {
	layout   layout.Layout
	dayIndex int
	x, y     int
	w, h     int
	// cut is set when the block starts above the visible rows.
	cut      bool
	detailed bool
}

func (b block) contains(x, y int) bool {
	return x >= b.x && x < b.x+b.w && y >= b.y && y < b.y+b.h
}

func (m *Model) blocks(g geometry) []block {
	mapper := m.mapper(g)
	offset := mapper.Offset(m.topMinute)

	var out []block
	for i, day := range g.days {
		for _, l := range m.dayView(day).Layouts {
			rect := mapper.Rect(l)
			top := floorRows(rect.Top - offset)
			bottom := top + ceilRows(rect.Height)
			if bottom <= 0 || top >= g.gridRows {
				continue
			}

			b := block{layout: l, dayIndex: i}
			if top < 0 {
				b.cut = true
				top = 0
			}
			if bottom > g.gridRows {
				bottom = g.gridRows
			}

			cx, cw := rect.Cells(g.dayWidth)
			b.x = timeWidth + i*g.dayWidth + cx
			b.y = g.gridTop + top
			b.w = cw
			b.h = bottom - top
			b.detailed = b.h >= 2 && rect.Detailed(mapper.Offset(layout.DetailedHeight))
			out = append(out, b)
		}
	}
	return out
}

// blockAt returns the topmost block under the pointer.
func (m *Model) blockAt(g geometry, x, y int) (block, bool) {
	bs := m.blocks(g)
	for i := len(bs) - 1; i >= 0; i-- {
		if bs[i].contains(x, y) {
			return bs[i], true
		}
	}
	return block{}, false
}

// rowOf is the grid row of a minute of the day, which may fall outside the
// visible rows.
func (m *Model) rowOf(minute int) int {
	return floorRows(float64(minute-m.topMinute) * m.rowsPerMinute())
}

func (m *Model) ensureVisible(g geometry) {
	visible := g.gridRows * m.timeIncrement
	if m.selectedMinute < m.topMinute {
		m.topMinute = m.selectedMinute
	}
	if m.selectedMinute >= m.topMinute+visible {
		m.topMinute = m.selectedMinute - visible + m.timeIncrement
	}
	m.clampScroll(g)
}

func (m *Model) clampScroll(g geometry) {
	maxTop := layout.MinutesPerDay - g.gridRows*m.timeIncrement
	if m.topMinute > maxTop {
		m.topMinute = maxTop
	}
	if m.topMinute < 0 {
		m.topMinute = 0
	}
	m.topMinute -= m.topMinute % m.timeIncrement
}

func floorRows(v float64) int {
	return int(math.Floor(v + 1e-9))
}

func ceilRows(v float64) int {
	n := int(math.Ceil(v - 1e-9))
	if n < 1 {
		n = 1
	}
	return n
}
