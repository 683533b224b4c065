package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/icco/possumbox/internal/capture"
	"github.com/icco/possumbox/internal/config"
	"github.com/icco/possumbox/internal/logging"
	"github.com/icco/possumbox/internal/midiport"
	"github.com/icco/possumbox/internal/tui"
)

var (
	monitorIn      string
	monitorOut     string
	monitorVirtual string
	monitorChannel int
	monitorTrackCC int
	recordPath     string
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Stand in for the host and watch the surface",
	Long: `Connect to a running surface and play the part of the DAW: every control change
the surface sends is logged and shown against the layout, and track-count updates
and LED feedback can be sent back from the keyboard.

Example:
  possumbox monitor --midi-in PossumBox --midi-out PossumBox --record session.mid
`,
	RunE: runMonitor,
}

func init() {
	f := monitorCmd.Flags()
	f.StringVar(&monitorIn, "midi-in", "PossumBox", "Port the surface sends on (substring match)")
	f.StringVar(&monitorOut, "midi-out", "PossumBox", "Port the surface listens on (substring match)")
	f.StringVar(&monitorVirtual, "virtual", "", "Create virtual ports with this name instead of connecting")
	f.IntVar(&monitorChannel, "channel", config.DefaultChannel, "MIDI channel (1-16)")
	f.IntVar(&monitorTrackCC, "track-cc", config.DefaultTrackCountCC, "CC carrying the track count")
	f.StringVarP(&recordPath, "record", "r", "", "Record received control changes to this MIDI file")
	rootCmd.AddCommand(monitorCmd)
}

func runMonitor(cmd *cobra.Command, args []string) error {
	channel, trackCC, err := midiSettings(monitorChannel, monitorTrackCC)
	if err != nil {
		return err
	}
	layout, err := config.LoadLayout(configPath)
	if err != nil {
		return err
	}

	var ports *midiport.Ports
	if monitorVirtual != "" {
		ports, err = midiport.OpenVirtual(monitorVirtual)
	} else {
		ports, err = midiport.Open(monitorIn, monitorOut)
	}
	if err != nil {
		return err
	}
	logger := logging.GetLogger("monitor")
	defer func() {
		if closeErr := ports.Close(); closeErr != nil {
			logger.Warn("Failed to close MIDI ports", "error", closeErr)
		}
	}()

	send, err := midiport.Sender(ports.Out, channel)
	if err != nil {
		return err
	}

	var rec *capture.Recorder
	if recordPath != "" {
		rec = capture.NewRecorder()
	}

	m := tui.New(tui.Config{
		Port:     ports.In.String(),
		Channel:  channel,
		TrackCC:  trackCC,
		Controls: layout.Controls,
		Send:     send,
		Recorder: rec,
	})
	p := tea.NewProgram(m, tea.WithAltScreen())

	stop, err := midiport.Listen(ports.In, channel, func(cc, value uint8) {
		p.Send(tui.CCMsg{CC: cc, Value: value})
	})
	if err != nil {
		return err
	}
	defer stop()

	// Logging to stdout would tear the alternate screen.
	w := config.NewWatcher(configPath, config.LoadLayout, func(l config.Layout) {
		p.Send(tui.LayoutMsg{Controls: l.Controls})
	}, slog.New(slog.DiscardHandler), config.WithErrorHandler[config.Layout](func(err error) {
		p.Send(tui.ErrMsg{Err: err})
	}))
	if err := w.Start(); err != nil {
		logger.Debug("Layout not watched", "path", configPath, "error", err)
	} else {
		defer w.Stop()
	}

	// Handle graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(c)
	go func() {
		<-c
		p.Send(tea.Quit())
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running program: %w", err)
	}

	if rec != nil {
		if err := rec.WriteFile(recordPath); err != nil {
			return err
		}
		logger.Info("Recording saved", "path", recordPath, "events", rec.Len())
	}
	return nil
}
