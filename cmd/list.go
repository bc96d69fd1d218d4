package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/cwarden/gridcal/internal/config"
	"github.com/cwarden/gridcal/internal/event"
	"github.com/cwarden/gridcal/internal/layout"
	"github.com/spf13/cobra"
)

var listDate string

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List a day's events and exit",
	Long:  `List all events for a day (today by default) in a simple text format and exit.`,
	RunE:  runList,
}

func init() {
	listCmd.Flags().StringVarP(&listDate, "date", "d", "", "Day to list (YYYY-MM-DD), default today")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := loadedConfig()
	if err != nil {
		return err
	}

	day, err := dayArg(listDate, cfg.Location)
	if err != nil {
		return err
	}

	start := event.StartOfDay(day)
	events, err := newSource(cfg).GetEvents(start, event.AddDays(start, 1))
	if err != nil {
		return fmt.Errorf("error getting events: %w", err)
	}

	printDay(cmd.OutOrStdout(), cfg, layout.LayoutDay(events, day, cfg.Location))
	return nil
}

func printDay(w io.Writer, cfg *config.Config, view layout.DayView) {
	fmt.Fprintf(w, "Events for %s:\n", view.Day.Format(cfg.DateFormat))
	if len(view.AllDay) == 0 && len(view.Layouts) == 0 {
		fmt.Fprintln(w, "No events found.")
		return
	}

	for _, ev := range view.AllDay {
		fmt.Fprintf(w, "  %-13s %s\n", "All day", ev.Title)
	}
	for _, l := range view.Layouts {
		span := l.Start.Format(cfg.TimeFormat) + "-" + l.End.Format(cfg.TimeFormat)
		suffix := ""
		if l.Partial {
			suffix = fmt.Sprintf(" (%s)", l.Position)
		}
		fmt.Fprintf(w, "  %-13s %s%s\n", span, l.Event.Title, suffix)
		if l.Event.Location != "" {
			fmt.Fprintf(w, "    @ %s\n", l.Event.Location)
		}
	}
}

// dayArg reads a --date value, defaulting to today in loc.
func dayArg(s string, loc *time.Location) (time.Time, error) {
	if s == "" {
		return time.Now().In(loc), nil
	}
	t, ok := event.ParseInstant(s, loc)
	if !ok {
		return time.Time{}, fmt.Errorf("invalid date: %s", s)
	}
	return t.In(loc), nil
}
