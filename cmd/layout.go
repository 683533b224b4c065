package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/icco/possumbox/internal/config"
	"github.com/icco/possumbox/internal/control"
	"github.com/icco/possumbox/internal/logging"
)

var (
	layoutTrackCC int
	layoutWatch   bool
)

var layoutCmd = &cobra.Command{
	Use:   "layout",
	Short: "Print the resolved control layout",
	Long: `Load the layout from the config file (or the stock layout when it has no
[[controls]]), validate it and print one row per control.`,
	RunE: runLayout,
}

func init() {
	layoutCmd.Flags().IntVar(&layoutTrackCC, "track-cc", config.DefaultTrackCountCC, "CC carrying the track count")
	layoutCmd.Flags().BoolVarP(&layoutWatch, "watch", "w", false, "Print the table again whenever the config file changes")
	rootCmd.AddCommand(layoutCmd)
}

func runLayout(cmd *cobra.Command, args []string) error {
	_, trackCC, err := midiSettings(1, layoutTrackCC)
	if err != nil {
		return err
	}
	l, err := config.LoadLayout(configPath)
	if err != nil {
		return err
	}
	if err := l.Validate(trackCC); err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, layoutTable(l))
	if !layoutWatch {
		return nil
	}

	logger := logging.GetLogger("main")
	w := config.NewWatcher(configPath, config.LoadLayout, func(l config.Layout) {
		if err := l.Validate(trackCC); err != nil {
			fmt.Fprintln(out, errorStyle.Render(err.Error()))
			return
		}
		fmt.Fprintln(out, layoutTable(l))
	}, logger, config.WithErrorHandler[config.Layout](func(err error) {
		fmt.Fprintln(out, errorStyle.Render(err.Error()))
	}))
	if err := w.Start(); err != nil {
		return fmt.Errorf("failed to watch %s: %w", configPath, err)
	}
	defer w.Stop()

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	<-ctx.Done()
	return nil
}

var errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000")).Bold(true)

var headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))

func layoutTable(l config.Layout) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return lipgloss.NewStyle().Padding(0, 1)
		}).
		Headers("NAME", "KIND", "CC", "TRACK", "COLOR", "INPUT", "LED")

	for _, c := range l.Controls {
		t.Row(c.Name, c.Kind, strconv.Itoa(c.CC), trackLabel(c), c.Color, inputLabel(c), ledLabel(c))
	}
	return t.String()
}

func trackLabel(c config.ControlConfig) string {
	if c.TrackIndex() == control.MasterTrack {
		return "master"
	}
	return strconv.Itoa(c.Track)
}

func inputLabel(c config.ControlConfig) string {
	kind, err := control.ParseKind(c.Kind)
	if err != nil {
		return ""
	}
	switch kind {
	case control.KindExpanderButton:
		return fmt.Sprintf("exp%d pin %d", c.Expander, c.Pin)
	case control.KindButton:
		return c.GPIO
	case control.KindMuxPot:
		return fmt.Sprintf("%s mux %d", c.ADC, c.MuxChannel)
	default:
		return c.ADC
	}
}

func ledLabel(c config.ControlConfig) string {
	if c.Color == "" {
		return ""
	}
	return fmt.Sprintf("%d/%d", c.LEDDriver, c.LEDChannel)
}
