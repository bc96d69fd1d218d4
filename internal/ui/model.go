package ui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss/v2"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/cwarden/gridcal/internal/config"
	"github.com/cwarden/gridcal/internal/drag"
	"github.com/cwarden/gridcal/internal/event"
	"github.com/cwarden/gridcal/internal/i18n"
	"github.com/cwarden/gridcal/internal/layout"
	"github.com/cwarden/gridcal/internal/log"
	"github.com/cwarden/gridcal/internal/parser"
	"github.com/cwarden/gridcal/internal/source"
	"github.com/cwarden/gridcal/internal/timecursor"
)

type ViewMode int

const (
	ViewWeek ViewMode = iota
	ViewDay
	ViewHelp
	ViewQuickAdd
	ViewGoto
)

const (
	dayCacheSize   = 64
	loadMarginDays = 14
	messageTimeout = 3 * time.Second
)

type Model struct {
	// Core components
	config    *config.Config
	source    source.Source
	parser    *parser.TimeParser
	callbacks Callbacks
	drag      *drag.Machine
	now       func() time.Time
	loc       *time.Location
	labels    i18n.Labels

	// Background feeds, started by Init
	cursorTicker  *timecursor.Ticker
	refreshTicker *timecursor.Ticker
	changes       <-chan source.FileChangeEvent

	// Loaded events
	events     []event.Event
	loadedFrom time.Time
	loadedTo   time.Time
	revision   uint64
	dayCache   *lru.Cache[dayKey, layout.DayView]

	// View state
	mode           ViewMode
	overlayOf      ViewMode
	anchor         time.Time
	selectedMinute int
	timeIncrement  int
	topMinute      int
	selectedID     string
	bookmarks      map[string]bool

	// UI state
	width   int
	height  int
	message string
	msgSeq  int

	// Input state
	inputBuffer   string
	cursorPos     int
	quickAddAt    time.Time
	pendingDelete *event.Event

	styles Styles
}

type Styles struct {
	Normal   lipgloss.Style
	Selected lipgloss.Style
	Today    lipgloss.Style
	Weekend  lipgloss.Style
	Header   lipgloss.Style
	Help     lipgloss.Style
	Message  lipgloss.Style
	Border   lipgloss.Style
	Grid     lipgloss.Style
	Slot     lipgloss.Style
	Ghost    lipgloss.Style
	Cursor   lipgloss.Style
}

// Option configures a Model.
type Option func(*Model)

// WithCallbacks replaces the default interaction handlers. Nil fields keep
// their defaults.
func WithCallbacks(cb Callbacks) Option {
	return func(m *Model) {
		m.callbacks = m.callbacks.merge(cb)
	}
}

// WithClock sets the clock used for "today" and the time cursor.
func WithClock(now func() time.Time) Option {
	return func(m *Model) {
		m.now = now
	}
}

func NewModel(cfg *config.Config, src source.Source, opts ...Option) *Model {
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}

	cache, _ := lru.New[dayKey, layout.DayView](dayCacheSize)

	m := &Model{
		config:        cfg,
		source:        src,
		parser:        parser.NewTimeParser(loc),
		now:           time.Now,
		loc:           loc,
		labels:        i18n.For(cfg.Locale),
		dayCache:      cache,
		mode:          ViewWeek,
		timeIncrement: cfg.TimeIncrement,
		bookmarks:     make(map[string]bool),
		styles:        DefaultStyles(cfg),
	}
	if cfg.StartupView == "day" {
		m.mode = ViewDay
	}
	if m.timeIncrement <= 0 {
		m.timeIncrement = 30
	}

	m.drag = drag.NewMachine(nil)
	m.drag.LongPress = cfg.LongPress
	m.drag.Snap = cfg.SnapMinutes

	m.callbacks = DefaultCallbacks(cfg, src)
	for _, opt := range opts {
		opt(m)
	}

	now := m.now().In(loc)
	m.anchor = event.StartOfDay(now)
	m.selectedMinute = drag.Snap(event.MinuteOfDay(now), m.timeIncrement)
	m.topMinute = m.selectedMinute - 2*60

	return m
}

func DefaultStyles(cfg *config.Config) Styles {
	return Styles{
		Normal: lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")),
		Selected: lipgloss.NewStyle().
			Foreground(lipgloss.Color("235")).
			Background(lipgloss.Color("220")).
			Bold(true),
		Today: lipgloss.NewStyle().
			Foreground(lipgloss.Color(cfg.Color("today"))).
			Bold(true),
		Weekend: lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")),
		Header: lipgloss.NewStyle().
			Foreground(lipgloss.Color("220")).
			Bold(true).
			Underline(true),
		Help: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")),
		Message: lipgloss.NewStyle().
			Foreground(lipgloss.Color("220")).
			Background(lipgloss.Color("235")).
			Padding(0, 1),
		Border: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("238")),
		Grid: lipgloss.NewStyle().
			Foreground(lipgloss.Color("238")),
		Slot: lipgloss.NewStyle().
			Background(lipgloss.Color("236")),
		Ghost: lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Background(lipgloss.Color("240")).
			Italic(true),
		Cursor: lipgloss.NewStyle().
			Foreground(lipgloss.Color(cfg.Color("cursor"))).
			Bold(true),
	}
}

func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.loadEventsCmd()}

	if t, err := timecursor.NewTicker(m.config.CursorCron, m.loc); err != nil {
		log.Error("cursor ticker disabled", err)
	} else {
		m.cursorTicker = t
		cmds = append(cmds, waitForCursor(t))
	}

	if m.config.AutoRefresh {
		if t, err := timecursor.NewTicker(m.config.RefreshCron, m.loc); err != nil {
			log.Error("refresh ticker disabled", err)
		} else {
			m.refreshTicker = t
			cmds = append(cmds, waitForRefresh(t))
		}
	}

	if ch, err := m.source.WatchFiles(); err != nil {
		log.Error("file watching disabled", err)
	} else if ch != nil {
		m.changes = ch
		cmds = append(cmds, waitForChange(ch))
	}

	return tea.Batch(cmds...)
}

// Close stops the background feeds started by Init.
func (m *Model) Close() error {
	if m.cursorTicker != nil {
		m.cursorTicker.Stop()
	}
	if m.refreshTicker != nil {
		m.refreshTicker.Stop()
	}
	return m.source.StopWatching()
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.clampScroll(m.geometry())
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case longPressMsg:
		if m.drag.Elapsed(msg.token) {
			ev := m.drag.Event()
			m.selectedID = ev.ID
			return m, m.showMessage(fmt.Sprintf("Moving %s", ev.Title))
		}
		return m, nil

	case eventsLoadedMsg:
		if msg.err != nil {
			log.Error("failed to load events", msg.err)
			return m, m.showMessage(fmt.Sprintf("Error loading events: %v", msg.err))
		}
		m.setEvents(msg.events, msg.from, msg.to)
		return m, nil

	case eventsChangedMsg:
		cmds := []tea.Cmd{m.loadEventsCmd()}
		if msg.status != "" {
			cmds = append(cmds, m.showMessage(msg.status))
		}
		if msg.selectID != "" {
			m.selectedID = msg.selectID
		}
		return m, tea.Batch(cmds...)

	case fileChangedMsg:
		log.Debug("events file changed", "path", msg.path)
		return m, tea.Batch(m.loadEventsCmd(), waitForChange(m.changes))

	case cursorTickMsg:
		// Redraw only; the cursor is computed from the clock on render.
		return m, waitForCursor(m.cursorTicker)

	case refreshTickMsg:
		return m, tea.Batch(m.loadEventsCmd(), waitForRefresh(m.refreshTicker))

	case openQuickAddMsg:
		m.openQuickAdd(msg.at)
		return m, nil

	case selectEventMsg:
		m.selectedID = msg.id
		return m, nil

	case bookmarkMsg:
		if m.bookmarks[msg.id] {
			delete(m.bookmarks, msg.id)
			return m, m.showMessage("Bookmark removed")
		}
		m.bookmarks[msg.id] = true
		return m, m.showMessage("Bookmarked")

	case statusMsg:
		return m, m.showMessage(msg.text)

	case errMsg:
		log.Error(msg.context, msg.err)
		return m, m.showMessage(fmt.Sprintf("%s: %v", msg.context, msg.err))

	case messageTimeoutMsg:
		if msg.seq == m.msgSeq {
			m.message = ""
		}
		return m, nil
	}

	return m, nil
}

func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	switch m.mode {
	case ViewHelp:
		return m.viewHelp()
	default:
		return m.renderCanvasView()
	}
}

func (m *Model) viewBeforeOverlay() ViewMode {
	switch m.mode {
	case ViewHelp, ViewQuickAdd, ViewGoto:
		return m.overlayOf
	}
	return m.mode
}

func (m *Model) enterOverlay(mode ViewMode) {
	if m.mode == ViewWeek || m.mode == ViewDay {
		m.overlayOf = m.mode
	}
	m.mode = mode
}

func (m *Model) leaveOverlay() {
	m.mode = m.overlayOf
	m.inputBuffer = ""
	m.cursorPos = 0
}

func (m *Model) setEvents(events []event.Event, from, to time.Time) {
	m.events = events
	m.loadedFrom = from
	m.loadedTo = to
	m.revision++
	m.dayCache.Purge()

	if m.selectedID != "" && m.findEvent(m.selectedID) == nil {
		m.selectedID = ""
	}
}

func (m *Model) findEvent(id string) *event.Event {
	for i := range m.events {
		if m.events[i].ID == id {
			return &m.events[i]
		}
	}
	return nil
}

func (m *Model) selectedEvent() *event.Event {
	if m.selectedID == "" {
		return nil
	}
	return m.findEvent(m.selectedID)
}

// selectedTime is the start of the highlighted slot.
func (m *Model) selectedTime() time.Time {
	day := event.StartOfDay(m.anchor.In(m.loc))
	return day.Add(time.Duration(m.selectedMinute) * time.Minute)
}

// needsReload reports whether the visible days fall outside the loaded
// range.
func (m *Model) needsReload() bool {
	if m.loadedFrom.IsZero() {
		return true
	}
	days := m.visibleDays()
	first := days[0]
	last := event.AddDays(days[len(days)-1], 1)
	return first.Before(m.loadedFrom) || last.After(m.loadedTo)
}

func (m *Model) loadEventsCmd() tea.Cmd {
	src := m.source
	from := event.AddDays(event.StartOfWeek(m.anchor.In(m.loc), m.config.WeekStartDay), -loadMarginDays)
	to := event.AddDays(from, 7+2*loadMarginDays)
	return func() tea.Msg {
		events, err := src.GetEvents(from, to)
		return eventsLoadedMsg{events: events, from: from, to: to, err: err}
	}
}

func (m *Model) moveAnchor(days int) tea.Cmd {
	m.anchor = event.AddDays(m.anchor.In(m.loc), days)
	if m.needsReload() {
		return m.loadEventsCmd()
	}
	return nil
}

func (m *Model) showMessage(text string) tea.Cmd {
	m.msgSeq++
	m.message = text
	seq := m.msgSeq
	return tea.Tick(messageTimeout, func(time.Time) tea.Msg {
		return messageTimeoutMsg{seq: seq}
	})
}
