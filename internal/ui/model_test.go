package ui

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/cwarden/gridcal/internal/config"
	"github.com/cwarden/gridcal/internal/drag"
	"github.com/cwarden/gridcal/internal/event"
	"github.com/cwarden/gridcal/internal/source"
)

// Wednesday
var testNow = time.Date(2025, 3, 12, 10, 5, 0, 0, time.UTC)

type move struct {
	id         string
	start, end time.Time
}

type fakeSource struct {
	events  []event.Event
	moves   []move
	deleted []string
	added   []event.Event
}

func (f *fakeSource) GetEvents(start, end time.Time) ([]event.Event, error) {
	return f.events, nil
}

func (f *fakeSource) SetFiles(files []string) {}

func (f *fakeSource) WatchFiles() (<-chan source.FileChangeEvent, error) {
	return nil, nil
}

func (f *fakeSource) StopWatching() error {
	return nil
}

func (f *fakeSource) Reschedule(id string, start, end time.Time) (event.Event, error) {
	for _, ev := range f.events {
		if ev.ID == id {
			f.moves = append(f.moves, move{id: id, start: start, end: end})
			ev.Start, ev.End = start, end
			return ev, nil
		}
	}
	return event.Event{}, source.ErrNotFound
}

func (f *fakeSource) Add(ev event.Event) (event.Event, error) {
	ev.ID = "added-1"
	f.added = append(f.added, ev)
	return ev, nil
}

func (f *fakeSource) Delete(id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func at(day, hour, minute int) time.Time {
	return time.Date(2025, 3, day, hour, minute, 0, 0, time.UTC)
}

func testConfig(t *testing.T) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Location = time.UTC
	cfg.WeekStartDay = time.Monday
	cfg.TimeIncrement = 30
	cfg.SnapMinutes = 15
	cfg.LongPress = time.Millisecond
	cfg.ShareDir = t.TempDir()
	return cfg
}

func newTestModel(t *testing.T, cfg *config.Config, events []event.Event, opts ...Option) (*Model, *fakeSource) {
	t.Helper()
	src := &fakeSource{events: events}
	opts = append([]Option{WithClock(func() time.Time { return testNow })}, opts...)
	m := NewModel(cfg, src, opts...)
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	m.Update(m.loadEventsCmd()())
	return m, src
}

func standup() event.Event {
	return event.Event{ID: "standup", Title: "Standup", Start: at(12, 10, 0), End: at(12, 10, 45), Color: "bg-blue-500"}
}

func findBlock(t *testing.T, m *Model, id string) block {
	t.Helper()
	for _, b := range m.blocks(m.geometry()) {
		if b.layout.Event.ID == id {
			return b
		}
	}
	t.Fatalf("no block for %s", id)
	return block{}
}

func press(x, y int) tea.MouseMsg {
	return tea.MouseMsg{X: x, Y: y, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft}
}

func motion(x, y int) tea.MouseMsg {
	return tea.MouseMsg{X: x, Y: y, Action: tea.MouseActionMotion, Button: tea.MouseButtonLeft}
}

func release(x, y int) tea.MouseMsg {
	return tea.MouseMsg{X: x, Y: y, Action: tea.MouseActionRelease, Button: tea.MouseButtonNone}
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEscape}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// cellFor is the screen cell of a minute in a day column.
func cellFor(m *Model, dayIndex, minute int) (int, int) {
	g := m.geometry()
	return timeWidth + dayIndex*g.dayWidth + 2, g.gridTop + m.rowOf(minute)
}

// longPress presses on the block and delivers the long-press timer.
func longPress(t *testing.T, m *Model, b block) {
	t.Helper()
	_, cmd := m.Update(press(b.x, b.y))
	if cmd == nil {
		t.Fatal("press on block returned no command")
	}
	m.Update(cmd())
	if m.drag.Phase() != drag.Dragging {
		t.Fatalf("phase mismatch: got %v, want %v", m.drag.Phase(), drag.Dragging)
	}
}

func TestDragDropReschedules(t *testing.T) {
	var got []move
	cfg := testConfig(t)
	m, _ := newTestModel(t, cfg, []event.Event{standup()}, WithCallbacks(Callbacks{
		OnEventDrop: func(ev event.Event, start, end time.Time) tea.Cmd {
			got = append(got, move{id: ev.ID, start: start, end: end})
			return nil
		},
	}))

	longPress(t, m, findBlock(t, m, "standup"))

	// Friday, the row holding 14:37.
	x, y := cellFor(m, 4, 14*60+37)
	m.Update(motion(x, y))
	if p := m.drag.Preview(); p == nil || p.Hour != 14 || p.Minute != 30 {
		t.Fatalf("preview mismatch: got %+v, want 14:30", p)
	}
	if !strings.Contains(plainView(m), "→ 14:30") {
		t.Errorf("drop preview not rendered")
	}

	m.Update(release(x, y))

	if len(got) != 1 {
		t.Fatalf("drop count mismatch: got %d, want 1", len(got))
	}
	if want := at(14, 14, 30); !got[0].start.Equal(want) {
		t.Errorf("start mismatch: got %v, want %v", got[0].start, want)
	}
	if want := at(14, 15, 15); !got[0].end.Equal(want) {
		t.Errorf("end mismatch: got %v, want %v", got[0].end, want)
	}
	if m.drag.Phase() != drag.Idle {
		t.Errorf("phase after release: got %v, want idle", m.drag.Phase())
	}
}

func TestDefaultDropPersists(t *testing.T) {
	m, src := newTestModel(t, testConfig(t), []event.Event{standup()})

	longPress(t, m, findBlock(t, m, "standup"))
	x, y := cellFor(m, 3, 9*60)
	_, cmd := m.Update(release(x, y))
	if cmd == nil {
		t.Fatal("drop returned no command")
	}

	msg := cmd()
	changed, ok := msg.(eventsChangedMsg)
	if !ok {
		t.Fatalf("message mismatch: got %T, want eventsChangedMsg", msg)
	}
	if changed.selectID != "standup" {
		t.Errorf("selectID mismatch: got %q, want standup", changed.selectID)
	}
	if len(src.moves) != 1 {
		t.Fatalf("reschedule count mismatch: got %d, want 1", len(src.moves))
	}
	if want := at(13, 9, 0); !src.moves[0].start.Equal(want) {
		t.Errorf("start mismatch: got %v, want %v", src.moves[0].start, want)
	}
	if d := src.moves[0].end.Sub(src.moves[0].start); d != 45*time.Minute {
		t.Errorf("duration mismatch: got %v, want 45m", d)
	}
}

func TestQuickReleaseIsClick(t *testing.T) {
	m, src := newTestModel(t, testConfig(t), []event.Event{standup()})
	b := findBlock(t, m, "standup")

	_, pressCmd := m.Update(press(b.x, b.y))
	_, cmd := m.Update(release(b.x, b.y))
	if cmd == nil {
		t.Fatal("click returned no command")
	}
	m.Update(cmd())

	if m.selectedID != "standup" {
		t.Errorf("selection mismatch: got %q, want standup", m.selectedID)
	}
	if len(src.moves) != 0 {
		t.Errorf("click rescheduled the event")
	}

	// The timer of the finished press must not start a drag.
	m.Update(pressCmd())
	if m.drag.Phase() != drag.Idle {
		t.Errorf("stale long press started a drag")
	}
}

func TestDropOutsideColumnsCancels(t *testing.T) {
	dropped := false
	m, _ := newTestModel(t, testConfig(t), []event.Event{standup()}, WithCallbacks(Callbacks{
		OnEventDrop: func(event.Event, time.Time, time.Time) tea.Cmd {
			dropped = true
			return nil
		},
	}))

	longPress(t, m, findBlock(t, m, "standup"))
	g := m.geometry()
	_, cmd := m.Update(release(g.sidebarX+2, g.gridTop+3))

	if cmd != nil || dropped {
		t.Errorf("release over the sidebar dropped the event")
	}
	if m.drag.Phase() != drag.Idle {
		t.Errorf("phase after release: got %v, want idle", m.drag.Phase())
	}
}

func TestEscapeCancelsDrag(t *testing.T) {
	m, src := newTestModel(t, testConfig(t), []event.Event{standup()})

	longPress(t, m, findBlock(t, m, "standup"))
	m.Update(key("esc"))
	x, y := cellFor(m, 4, 12*60)
	_, cmd := m.Update(release(x, y))

	if cmd != nil {
		t.Errorf("release after escape returned a command")
	}
	if len(src.moves) != 0 {
		t.Errorf("cancelled drag rescheduled the event")
	}
}

func TestSlotClickOpensQuickAdd(t *testing.T) {
	m, src := newTestModel(t, testConfig(t), nil)

	// Thursday, inside the 16:00 row.
	x, y := cellFor(m, 3, 16*60)
	_, cmd := m.Update(press(x, y))
	if cmd == nil {
		t.Fatal("slot click returned no command")
	}
	m.Update(cmd())

	if m.mode != ViewQuickAdd {
		t.Fatalf("mode mismatch: got %v, want %v", m.mode, ViewQuickAdd)
	}
	if want := at(13, 16, 0); !m.quickAddAt.Equal(want) {
		t.Errorf("quick-add time mismatch: got %v, want %v", m.quickAddAt, want)
	}

	m.Update(key("Dentist for 45m"))
	_, cmd = m.Update(key("enter"))
	if cmd == nil {
		t.Fatal("enter returned no command")
	}
	m.Update(cmd())

	if m.mode != ViewWeek {
		t.Errorf("mode after enter: got %v, want %v", m.mode, ViewWeek)
	}
	if len(src.added) != 1 {
		t.Fatalf("add count mismatch: got %d, want 1", len(src.added))
	}
	added := src.added[0]
	if added.Title != "Dentist" {
		t.Errorf("title mismatch: got %q, want Dentist", added.Title)
	}
	if !added.Start.Equal(at(13, 16, 0)) || !added.End.Equal(at(13, 16, 45)) {
		t.Errorf("range mismatch: got %v-%v", added.Start, added.End)
	}
	if m.selectedID != "added-1" {
		t.Errorf("selection mismatch: got %q, want added-1", m.selectedID)
	}
}

func TestNavigationKeys(t *testing.T) {
	tests := []struct {
		name       string
		keys       []string
		wantAnchor time.Time
		wantMode   ViewMode
		wantInc    int
	}{
		{"next day", []string{"l"}, at(13, 0, 0), ViewWeek, 30},
		{"previous week", []string{"H"}, at(5, 0, 0), ViewWeek, 30},
		{"back to today", []string{"L", "L", "t"}, at(12, 0, 0), ViewWeek, 30},
		{"day view", []string{"d"}, at(12, 0, 0), ViewDay, 30},
		{"zoom once", []string{"z"}, at(12, 0, 0), ViewWeek, 15},
		{"zoom wraps", []string{"z", "z"}, at(12, 0, 0), ViewWeek, 60},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _ := newTestModel(t, testConfig(t), nil)
			for _, k := range tt.keys {
				m.Update(key(k))
			}
			if !m.anchor.Equal(tt.wantAnchor) {
				t.Errorf("anchor mismatch: got %v, want %v", m.anchor, tt.wantAnchor)
			}
			if m.mode != tt.wantMode {
				t.Errorf("mode mismatch: got %v, want %v", m.mode, tt.wantMode)
			}
			if m.timeIncrement != tt.wantInc {
				t.Errorf("increment mismatch: got %d, want %d", m.timeIncrement, tt.wantInc)
			}
		})
	}
}

func TestSlotRollover(t *testing.T) {
	m, _ := newTestModel(t, testConfig(t), nil)
	m.selectedMinute = 0

	m.Update(key("k"))
	if !m.anchor.Equal(at(11, 0, 0)) {
		t.Errorf("anchor mismatch: got %v, want Mar 11", m.anchor)
	}
	if m.selectedMinute != 23*60+30 {
		t.Errorf("minute mismatch: got %d, want %d", m.selectedMinute, 23*60+30)
	}

	m.Update(key("j"))
	if !m.anchor.Equal(at(12, 0, 0)) || m.selectedMinute != 0 {
		t.Errorf("rollover forward mismatch: got %v minute %d", m.anchor, m.selectedMinute)
	}
}

func TestEventActions(t *testing.T) {
	lunch := event.Event{ID: "lunch", Title: "Lunch", Start: at(12, 12, 0), End: at(12, 13, 0)}
	cfg := testConfig(t)
	m, src := newTestModel(t, cfg, []event.Event{standup(), lunch})

	m.Update(key("x"))
	if m.message != "No event selected" {
		t.Errorf("message mismatch: got %q", m.message)
	}

	m.Update(key("tab"))
	if m.selectedID != "standup" {
		t.Fatalf("first tab selected %q, want standup", m.selectedID)
	}
	m.Update(key("tab"))
	if m.selectedID != "lunch" {
		t.Fatalf("second tab selected %q, want lunch", m.selectedID)
	}

	t.Run("bookmark", func(t *testing.T) {
		_, cmd := m.Update(key("b"))
		m.Update(cmd())
		if !m.bookmarks["lunch"] {
			t.Errorf("lunch not bookmarked")
		}
		if !strings.Contains(plainView(m), "★") {
			t.Errorf("bookmark mark not rendered")
		}
	})

	t.Run("share", func(t *testing.T) {
		_, cmd := m.Update(key("s"))
		m.Update(cmd())
		data, err := os.ReadFile(filepath.Join(cfg.ShareDir, "lunch.ics"))
		if err != nil {
			t.Fatalf("shared file: %v", err)
		}
		if !strings.Contains(string(data), "SUMMARY:Lunch") {
			t.Errorf("shared file has no summary:\n%s", data)
		}
	})

	t.Run("delete declined", func(t *testing.T) {
		m.Update(key("x"))
		if m.pendingDelete == nil {
			t.Fatal("delete did not ask for confirmation")
		}
		m.Update(key("n"))
		if len(src.deleted) != 0 || m.pendingDelete != nil {
			t.Errorf("declined delete went through")
		}
	})

	t.Run("delete confirmed", func(t *testing.T) {
		m.Update(key("x"))
		_, cmd := m.Update(key("y"))
		if cmd == nil {
			t.Fatal("confirm returned no command")
		}
		if _, ok := cmd().(eventsChangedMsg); !ok {
			t.Errorf("delete did not report a change")
		}
		if len(src.deleted) != 1 || src.deleted[0] != "lunch" {
			t.Errorf("deleted mismatch: got %v, want [lunch]", src.deleted)
		}
	})
}

func TestGotoDate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  time.Time
	}{
		{"iso date", "2025-04-01", time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)},
		{"tomorrow", "tomorrow", at(13, 0, 0)},
		{"short date", "3/20", at(20, 0, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _ := newTestModel(t, testConfig(t), nil)
			m.Update(key("g"))
			if m.mode != ViewGoto {
				t.Fatalf("mode mismatch: got %v, want %v", m.mode, ViewGoto)
			}
			m.Update(key(tt.input))
			m.Update(key("enter"))

			if !m.anchor.Equal(tt.want) {
				t.Errorf("anchor mismatch: got %v, want %v", m.anchor, tt.want)
			}
			if m.mode != ViewWeek {
				t.Errorf("mode after goto: got %v, want %v", m.mode, ViewWeek)
			}
		})
	}
}

func TestReloadOutsideLoadedRange(t *testing.T) {
	m, _ := newTestModel(t, testConfig(t), nil)

	if _, cmd := m.Update(key("L")); cmd != nil {
		t.Errorf("next week reloaded inside the loaded range")
	}
	var cmd tea.Cmd
	for i := 0; i < 3; i++ {
		_, cmd = m.Update(key("L"))
	}
	if cmd == nil {
		t.Fatal("leaving the loaded range did not reload")
	}
	msg, ok := cmd().(eventsLoadedMsg)
	if !ok {
		t.Fatalf("reload produced %T", msg)
	}
	if msg.from.After(m.anchor) || !msg.to.After(m.anchor) {
		t.Errorf("reload range %v-%v misses anchor %v", msg.from, msg.to, m.anchor)
	}
}

func TestMessageTimeout(t *testing.T) {
	m, _ := newTestModel(t, testConfig(t), nil)

	m.Update(statusMsg{text: "first"})
	stale := m.msgSeq
	m.Update(statusMsg{text: "second"})

	m.Update(messageTimeoutMsg{seq: stale})
	if m.message != "second" {
		t.Errorf("stale timeout cleared the message")
	}
	m.Update(messageTimeoutMsg{seq: m.msgSeq})
	if m.message != "" {
		t.Errorf("message not cleared: %q", m.message)
	}
}
