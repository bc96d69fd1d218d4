package cmd

import (
	"fmt"

	"github.com/cwarden/gridcal/internal/config"
	"github.com/cwarden/gridcal/internal/log"
	"github.com/cwarden/gridcal/internal/source"
	"github.com/cwarden/gridcal/internal/ui"
	"github.com/spf13/cobra"

	tea "github.com/charmbracelet/bubbletea"
)

var (
	cfgFile    string
	eventFiles []string
	icsFiles   []string
	cfg        *config.Config
	cfgErr     error
)

var rootCmd = &cobra.Command{
	Use:   "gridcal",
	Short: "A terminal week and day calendar",
	Long: `gridcal draws a week or day grid of your events in the terminal.
Overlapping events share the column side by side, all-day events sit in a
lane above the grid, and events can be dragged to a new time with the mouse.`,
	SilenceUsage: true,
	RunE:         runTUI,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file to use instead of the default search path")
	rootCmd.PersistentFlags().StringSliceVarP(&eventFiles, "file", "f", []string{}, "YAML event file(s) to use (can be specified multiple times)")
	rootCmd.PersistentFlags().StringSliceVar(&icsFiles, "ics", []string{}, "iCalendar file(s) to show read-only")
}

func initConfig() {
	if cfgFile != "" {
		cfg, cfgErr = config.LoadFile(cfgFile)
	} else {
		cfg, cfgErr = config.LoadConfig()
	}
	if cfgErr != nil {
		return
	}

	// Command-line files win over the config file
	if len(eventFiles) > 0 {
		cfg.EventFiles = eventFiles
	}
	if len(icsFiles) > 0 {
		cfg.ICSFiles = icsFiles
	}
}

func loadedConfig() (*config.Config, error) {
	if cfg == nil && cfgErr == nil {
		initConfig()
	}
	if cfgErr != nil {
		return nil, fmt.Errorf("failed to load config: %w", cfgErr)
	}
	return cfg, nil
}

// newSource combines the writable YAML store with any read-only calendars.
func newSource(cfg *config.Config) *source.CompositeSource {
	sources := []source.Source{source.NewStore(cfg.Location, cfg.EventFiles...)}
	if len(cfg.ICSFiles) > 0 {
		sources = append(sources, source.NewICSSource(cfg.Location, cfg.ICSFiles...))
	}
	return source.NewCompositeSource(sources...)
}

func runTUI(cmd *cobra.Command, args []string) error {
	cfg, err := loadedConfig()
	if err != nil {
		return err
	}

	if err := log.Init(cfg.LogFile, cfg.LogLevel); err != nil {
		return err
	}
	defer log.Sync()
	log.Info("starting", "version", version, "events", cfg.EventFiles, "ics", cfg.ICSFiles)

	model := ui.NewModel(cfg, newSource(cfg))
	defer func() {
		if err := model.Close(); err != nil {
			log.Error("teardown failed", err)
		}
	}()

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running program: %w", err)
	}

	return nil
}
