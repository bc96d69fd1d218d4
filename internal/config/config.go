package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/cwarden/gridcal/internal/i18n"
	"github.com/cwarden/gridcal/internal/log"
	"github.com/cwarden/gridcal/internal/timecursor"
)

var ErrEmptyPath = errors.New("config path is empty")

var (
	setRe   = regexp.MustCompile(`^set\s+(\w+)\s+(.+)$`)
	bindRe  = regexp.MustCompile(`^bind\s+(\S+)\s+(\S+)$`)
	colorRe = regexp.MustCompile(`^color\s+(\S+)\s+(.+)$`)
)

type Config struct {
	// File settings
	EventFiles []string
	ICSFiles   []string
	Editor     string
	ShareDir   string

	// Display settings
	Location       *time.Location
	Locale         i18n.Locale
	WeekStartDay   time.Weekday
	TimeFormat     string
	DateFormat     string
	StartupView    string
	TimeIncrement  int
	MinEventHeight int

	// Interaction settings
	SnapMinutes int
	LongPress   time.Duration

	// UI settings
	Colors      map[string]string
	KeyBindings map[string]string

	// Behavior settings
	AutoRefresh   bool
	RefreshCron   string
	CursorCron    string
	ConfirmDelete bool

	// Logging
	LogFile  string
	LogLevel log.Level
}

func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()

	return &Config{
		EventFiles: []string{filepath.Join(home, ".config", "gridcal", "events.yaml")},
		Editor:     getDefaultEditor(),
		ShareDir:   os.TempDir(),

		Location:       time.Local,
		Locale:         i18n.English,
		WeekStartDay:   time.Sunday,
		TimeFormat:     "15:04",
		DateFormat:     "Jan 2, 2006",
		StartupView:    "week",
		TimeIncrement:  30,
		MinEventHeight: 20,

		SnapMinutes: 15,
		LongPress:   300 * time.Millisecond,

		Colors: map[string]string{
			"bg-blue-500":   "#3C74C4",
			"bg-yellow-500": "#C39248",
			"bg-red-500":    "#C14D4D",
			"bg-green-500":  "#3C996C",
			"bg-purple-500": "#A44DB3",
			"bg-pink-500":   "#C14D84",
			"bg-indigo-500": "#3D63B3",
			"bg-orange-500": "#C27048",
			"bg-teal-500":   "#3C8D8D",
			"default":       "#3A3A3A",
			"cursor":        "#E05252",
			"today":         "#E5C07B",
		},

		KeyBindings: map[string]string{
			"q":      "quit",
			"?":      "help",
			"t":      "today",
			"r":      "refresh",
			"n":      "new_event",
			"e":      "edit_event",
			"x":      "delete_event",
			"s":      "share_event",
			"b":      "bookmark_event",
			"enter":  "open_event",
			"tab":    "next_event",
			"l":      "next_day",
			"h":      "prev_day",
			"L":      "next_week",
			"H":      "prev_week",
			"j":      "next_slot",
			"k":      "prev_slot",
			"d":      "day_view",
			"w":      "week_view",
			"z":      "zoom",
			"g":      "goto_date",
			"ctrl+c": "quit",
		},

		AutoRefresh:   true,
		RefreshCron:   "*/15 * * * *",
		CursorCron:    timecursor.EveryMinute,
		ConfirmDelete: true,

		LogFile:  defaultLogFile(home),
		LogLevel: log.LevelInfo,
	}
}

// Path returns the first config file that exists, or "" when there is none.
func Path() string {
	configPaths := []string{
		os.Getenv("GRIDCAL_CONFIG"),
		filepath.Join(os.Getenv("XDG_CONFIG_HOME"), "gridcal", "gridcalrc"),
		filepath.Join(os.Getenv("HOME"), ".config", "gridcal", "gridcalrc"),
		filepath.Join(os.Getenv("HOME"), ".gridcalrc"),
	}

	for _, path := range configPaths {
		if path == "" || path == filepath.Join("gridcal", "gridcalrc") {
			continue
		}
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

func LoadConfig() (*Config, error) {
	config := DefaultConfig()

	if path := Path(); path != "" {
		if err := config.loadFromFile(path); err != nil {
			return nil, fmt.Errorf("error loading config from %s: %w", path, err)
		}
	}

	return config, nil
}

// LoadFile reads the defaults and then the file at path, which must exist.
func LoadFile(path string) (*Config, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}
	config := DefaultConfig()
	if err := config.loadFromFile(path); err != nil {
		return nil, fmt.Errorf("error loading config from %s: %w", path, err)
	}
	return config, nil
}

func (c *Config) loadFromFile(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if err := c.parseLine(line); err != nil {
			return fmt.Errorf("line %d: %w", lineNum, err)
		}
	}

	return scanner.Err()
}

func (c *Config) parseLine(line string) error {
	if matches := setRe.FindStringSubmatch(line); matches != nil {
		return c.setVariable(matches[1], matches[2])
	}

	// bind <key> <action>
	if matches := bindRe.FindStringSubmatch(line); matches != nil {
		c.KeyBindings[matches[1]] = matches[2]
		return nil
	}

	// color <token> <color>
	if matches := colorRe.FindStringSubmatch(line); matches != nil {
		c.Colors[matches[1]] = strings.Trim(strings.TrimSpace(matches[2]), `"'`)
		return nil
	}

	return fmt.Errorf("unknown config line: %s", line)
}

func (c *Config) setVariable(name, value string) error {
	value = strings.Trim(strings.TrimSpace(value), `"'`)

	switch name {
	case "event_file", "event_files":
		c.EventFiles = splitPaths(value)

	case "ics_file", "ics_files":
		c.ICSFiles = splitPaths(value)

	case "editor":
		c.Editor = value

	case "share_dir":
		c.ShareDir = expandHome(value)

	case "timezone":
		loc, err := time.LoadLocation(value)
		if err != nil {
			return fmt.Errorf("invalid timezone: %s", value)
		}
		c.Location = loc

	case "locale":
		c.Locale = i18n.Resolve(value)

	case "week_start_day":
		day, err := ParseWeekday(value)
		if err != nil {
			return err
		}
		c.WeekStartDay = day

	case "time_format":
		c.TimeFormat = value

	case "date_format":
		c.DateFormat = value

	case "startup_view":
		switch value {
		case "day", "week":
			c.StartupView = value
		default:
			return fmt.Errorf("invalid startup_view: %s", value)
		}

	case "time_increment":
		inc, err := strconv.Atoi(value)
		if err != nil || (inc != 15 && inc != 30 && inc != 60) {
			return fmt.Errorf("invalid time_increment: %s", value)
		}
		c.TimeIncrement = inc

	case "min_event_height":
		h, err := strconv.Atoi(value)
		if err != nil || h < 0 {
			return fmt.Errorf("invalid min_event_height: %s", value)
		}
		c.MinEventHeight = h

	case "snap_minutes":
		snap, err := strconv.Atoi(value)
		if err != nil || snap < 1 || snap > 60 {
			return fmt.Errorf("invalid snap_minutes: %s", value)
		}
		c.SnapMinutes = snap

	case "long_press":
		d, err := time.ParseDuration(value)
		if err != nil {
			// Try parsing as milliseconds
			if ms, err2 := strconv.Atoi(value); err2 == nil {
				d = time.Duration(ms) * time.Millisecond
			} else {
				return fmt.Errorf("invalid long_press: %s", value)
			}
		}
		if d <= 0 {
			return fmt.Errorf("invalid long_press: %s", value)
		}
		c.LongPress = d

	case "auto_refresh":
		c.AutoRefresh = parseBool(value)

	case "refresh_cron":
		if err := timecursor.Validate(value); err != nil {
			return fmt.Errorf("invalid refresh_cron: %w", err)
		}
		c.RefreshCron = value

	case "cursor_cron":
		if err := timecursor.Validate(value); err != nil {
			return fmt.Errorf("invalid cursor_cron: %w", err)
		}
		c.CursorCron = value

	case "confirm_delete":
		c.ConfirmDelete = parseBool(value)

	case "log_file":
		c.LogFile = expandHome(value)

	case "log_level":
		level, err := log.ParseLevel(value)
		if err != nil {
			return err
		}
		c.LogLevel = level

	default:
		return fmt.Errorf("unknown config variable: %s", name)
	}

	return nil
}

// ParseWeekday accepts 0-6 (Sunday is 0), full day names and three letter
// abbreviations.
func ParseWeekday(value string) (time.Weekday, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	if n, err := strconv.Atoi(v); err == nil {
		if n >= 0 && n <= 6 {
			return time.Weekday(n), nil
		}
		return 0, fmt.Errorf("invalid week_start_day: %s", value)
	}
	for d := time.Sunday; d <= time.Saturday; d++ {
		name := strings.ToLower(d.String())
		if v == name || v == name[:3] {
			return d, nil
		}
	}
	return 0, fmt.Errorf("invalid week_start_day: %s", value)
}

// Color returns the configured color for a token, falling back to the
// default event color.
func (c *Config) Color(token string) string {
	if color, ok := c.Colors[token]; ok {
		return color
	}
	return c.Colors["default"]
}

func splitPaths(value string) []string {
	var files []string
	for _, file := range strings.Split(value, ",") {
		file = strings.TrimSpace(file)
		if file == "" {
			continue
		}
		files = append(files, expandHome(file))
	}
	return files
}

func expandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}

func parseBool(value string) bool {
	return strings.ToLower(value) == "true" || value == "1"
}

func defaultLogFile(home string) string {
	if dir := os.Getenv("XDG_CACHE_HOME"); dir != "" {
		return filepath.Join(dir, "gridcal", "gridcal.log")
	}
	return filepath.Join(home, ".cache", "gridcal", "gridcal.log")
}

func getDefaultEditor() string {
	if editor := os.Getenv("EDITOR"); editor != "" {
		return editor
	}
	if editor := os.Getenv("VISUAL"); editor != "" {
		return editor
	}
	return "vi"
}
