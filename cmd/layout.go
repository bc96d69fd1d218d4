package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/cwarden/gridcal/internal/event"
	"github.com/cwarden/gridcal/internal/layout"
	"github.com/cwarden/gridcal/internal/log"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	layoutDate   string
	layoutWeek   bool
	layoutFormat string
)

var layoutCmd = &cobra.Command{
	Use:   "layout",
	Short: "Print the computed layout of a day or week",
	Long: `Print the column assignment and block rectangles computed for a day
(or with --week, the week containing it) as JSON or YAML. Rectangles use one
pixel per minute and percentages of the column width.`,
	RunE: runLayout,
}

func init() {
	layoutCmd.Flags().StringVarP(&layoutDate, "date", "d", "", "Day to lay out (YYYY-MM-DD), default today")
	layoutCmd.Flags().BoolVarP(&layoutWeek, "week", "w", false, "Lay out the whole week containing the day")
	layoutCmd.Flags().StringVarP(&layoutFormat, "format", "o", "yaml", "Output format: yaml or json")
	rootCmd.AddCommand(layoutCmd)
}

type blockOutput struct {
	layout.Layout `yaml:",inline"`
	Rect          layout.Rect `json:"rect" yaml:"rect"`
}

type dayOutput struct {
	Day          string        `json:"day" yaml:"day"`
	AllDay       []event.Event `json:"allDay" yaml:"all_day"`
	AllDayHeight float64       `json:"allDayHeight" yaml:"all_day_height"`
	Blocks       []blockOutput `json:"blocks" yaml:"blocks"`
}

func runLayout(cmd *cobra.Command, args []string) error {
	cfg, err := loadedConfig()
	if err != nil {
		return err
	}
	// stdout carries the document
	if err := log.Init("-", cfg.LogLevel); err != nil {
		return err
	}
	defer log.Sync()

	day, err := dayArg(layoutDate, cfg.Location)
	if err != nil {
		return err
	}

	from, to := event.StartOfDay(day), event.AddDays(event.StartOfDay(day), 1)
	if layoutWeek {
		from = event.StartOfWeek(day, cfg.WeekStartDay)
		to = event.AddDays(from, 7)
	}
	events, err := newSource(cfg).GetEvents(from, to)
	if err != nil {
		return fmt.Errorf("error getting events: %w", err)
	}
	log.Debug("laying out", "from", from, "to", to, "events", len(events))

	out := buildLayout(events, day, layoutWeek, cfg.WeekStartDay, cfg.Location)
	return writeLayout(cmd.OutOrStdout(), layoutFormat, out)
}

func buildLayout(events []event.Event, day time.Time, week bool, first time.Weekday, loc *time.Location) []dayOutput {
	views := []layout.DayView{layout.LayoutDay(events, day, loc)}
	mapper := layout.DayMapper()
	if week {
		views = layout.LayoutWeek(events, day, first, loc)
		mapper = layout.WeekMapper()
	}

	out := make([]dayOutput, len(views))
	for i, v := range views {
		d := dayOutput{
			Day:          v.Day.Format("2006-01-02"),
			AllDay:       v.AllDay,
			AllDayHeight: v.AllDayHeight,
			Blocks:       make([]blockOutput, len(v.Layouts)),
		}
		for j, l := range v.Layouts {
			d.Blocks[j] = blockOutput{Layout: l, Rect: mapper.Rect(l)}
		}
		out[i] = d
	}
	return out
}

func writeLayout(w io.Writer, format string, out []dayOutput) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(out); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}
