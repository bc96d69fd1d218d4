package layout

import (
	"container/heap"
	"sort"
	"time"
)

// Layout places an interval in a column of a lane TotalColumns wide.
type Layout struct {
	Interval     `yaml:",inline"`
	Column       int `json:"column" yaml:"column"`
	TotalColumns int `json:"totalColumns" yaml:"totalColumns"`
}

type timepoint struct {
	at    time.Time
	start bool
	idx   int
}

// Columns assigns every interval the lowest column not held by an interval
// active at its start. Intervals active at the same time never share a
// column. An interval's TotalColumns is the widest the lane gets while it
// is active, so overlapping neighbours agree on the lane width.
//
// The result is ordered by when each interval entered the sweep and does
// not depend on the order of the input.
func Columns(intervals []Interval) []Layout {
	ivs := prepare(intervals)
	if len(ivs) == 0 {
		return nil
	}

	points := make([]timepoint, 0, 2*len(ivs))
	for i, iv := range ivs {
		points = append(points, timepoint{at: iv.Start, start: true, idx: i})
		points = append(points, timepoint{at: iv.End, start: false, idx: i})
	}
	sort.Slice(points, func(a, b int) bool {
		pa, pb := points[a], points[b]
		if !pa.at.Equal(pb.at) {
			return pa.at.Before(pb.at)
		}
		if pa.start != pb.start {
			return !pa.start
		}
		return pa.idx < pb.idx
	})

	arena := newColumnArena()
	column := make([]int, len(ivs))
	emitted := make([]int, len(ivs))
	for i := range emitted {
		emitted[i] = -1
	}

	out := make([]Layout, 0, len(ivs))
	var entered []int
	for i := 0; i < len(points); {
		entered = entered[:0]
		j := i
		for ; j < len(points) && points[j].at.Equal(points[i].at); j++ {
			p := points[j]
			if p.start {
				column[p.idx] = arena.take(p.idx)
				entered = append(entered, p.idx)
			} else {
				arena.release(column[p.idx])
			}
		}
		i = j

		total := arena.width()
		arena.each(func(idx int) {
			if pos := emitted[idx]; pos >= 0 && out[pos].TotalColumns < total {
				out[pos].TotalColumns = total
			}
		})
		for _, idx := range entered {
			emitted[idx] = len(out)
			out = append(out, Layout{Interval: ivs[idx], Column: column[idx], TotalColumns: total})
		}
	}
	return out
}

// prepare drops empty intervals, collapses duplicate event IDs and puts the
// rest in a canonical order: earlier start first, then longer first, then
// by ID.
func prepare(intervals []Interval) []Interval {
	ivs := make([]Interval, 0, len(intervals))
	for _, iv := range intervals {
		if iv.End.After(iv.Start) {
			ivs = append(ivs, iv)
		}
	}
	sort.SliceStable(ivs, func(a, b int) bool {
		ia, ib := ivs[a], ivs[b]
		if !ia.Start.Equal(ib.Start) {
			return ia.Start.Before(ib.Start)
		}
		if !ia.End.Equal(ib.End) {
			return ia.End.After(ib.End)
		}
		return ia.Event.ID < ib.Event.ID
	})

	seen := make(map[string]bool, len(ivs))
	out := ivs[:0]
	for _, iv := range ivs {
		if id := iv.Event.ID; id != "" {
			if seen[id] {
				continue
			}
			seen[id] = true
		}
		out = append(out, iv)
	}
	return out
}

// columnArena tracks which interval holds each column. Freed columns sit in
// a min-heap so the lowest free one is found without scanning.
type columnArena struct {
	slots []int
	free  freeColumns
	high  int
}

func newColumnArena() *columnArena {
	return &columnArena{high: -1}
}

func (a *columnArena) take(idx int) int {
	var col int
	if a.free.Len() > 0 {
		col = heap.Pop(&a.free).(int)
		a.slots[col] = idx
	} else {
		col = len(a.slots)
		a.slots = append(a.slots, idx)
	}
	if col > a.high {
		a.high = col
	}
	return col
}

func (a *columnArena) release(col int) {
	if col < 0 || col >= len(a.slots) || a.slots[col] < 0 {
		return
	}
	a.slots[col] = -1
	heap.Push(&a.free, col)
	for a.high >= 0 && a.slots[a.high] < 0 {
		a.high--
	}
}

// width is the highest occupied column plus one, and at least one.
func (a *columnArena) width() int {
	if a.high < 0 {
		return 1
	}
	return a.high + 1
}

func (a *columnArena) each(fn func(idx int)) {
	for col := 0; col <= a.high; col++ {
		if idx := a.slots[col]; idx >= 0 {
			fn(idx)
		}
	}
}

type freeColumns []int

func (f freeColumns) Len() int           { return len(f) }
func (f freeColumns) Less(i, j int) bool { return f[i] < f[j] }
func (f freeColumns) Swap(i, j int)      { f[i], f[j] = f[j], f[i] }
func (f *freeColumns) Push(x any)        { *f = append(*f, x.(int)) }
func (f *freeColumns) Pop() any {
	old := *f
	n := len(old)
	x := old[n-1]
	*f = old[:n-1]
	return x
}
