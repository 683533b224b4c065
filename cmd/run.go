package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/icco/possumbox/internal/board"
	"github.com/icco/possumbox/internal/config"
	"github.com/icco/possumbox/internal/events"
	"github.com/icco/possumbox/internal/logging"
	"github.com/icco/possumbox/internal/metrics"
	"github.com/icco/possumbox/internal/midiport"
	"github.com/icco/possumbox/internal/surface"
)

// runOptions is flat with a toml mapping; precedence is flag > env > file.
type runOptions struct {
	Config string

	// MIDI settings
	MidiIn      string `toml:"midi.in" env:"MIDI_IN"`
	MidiOut     string `toml:"midi.out" env:"MIDI_OUT"`
	VirtualName string `toml:"midi.virtual_name" env:"MIDI_VIRTUAL_NAME" flag:"name"`
	Channel     int    `toml:"midi.channel" env:"MIDI_CHANNEL"`
	TrackCC     int    `toml:"midi.track_count_cc" env:"TRACK_COUNT_CC" flag:"track-cc"`

	// Surface loop settings
	TickPeriod time.Duration `toml:"surface.tick_period" env:"TICK_PERIOD"`
	QueueSize  int           `toml:"surface.queue_size" env:"QUEUE_SIZE"`

	// Observability settings
	MetricsAddr string `toml:"metrics.addr" env:"METRICS_ADDR"`
}

var runOpts runOptions

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the control surface",
	Long: `Open the hardware described by the layout, connect to the host over MIDI and
run the surface loop until interrupted.

Without --midi-in/--midi-out a virtual MIDI port pair is created that the DAW can connect to.

Example:
  possumbox run --config /etc/possumbox.toml --metrics-addr :9100
`,
	RunE: runSurface,
}

func init() {
	f := runCmd.Flags()
	f.StringVar(&runOpts.MidiIn, "midi-in", "", "Input port to read host messages from (substring match)")
	f.StringVar(&runOpts.MidiOut, "midi-out", "", "Output port to send control changes to (substring match)")
	f.StringVarP(&runOpts.VirtualName, "name", "n", "PossumBox", "Name of the virtual MIDI ports")
	f.IntVar(&runOpts.Channel, "channel", config.DefaultChannel, "MIDI channel (1-16)")
	f.IntVar(&runOpts.TrackCC, "track-cc", config.DefaultTrackCountCC, "CC carrying the host's track count")
	f.DurationVar(&runOpts.TickPeriod, "tick-period", surface.DefaultTickPeriod, "Interval between control polls")
	f.IntVar(&runOpts.QueueSize, "queue-size", surface.DefaultQueueSize, "Inbound message queue size")
	f.StringVar(&runOpts.MetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")
	rootCmd.AddCommand(runCmd)
}

// midiSettings validates the options shared by run and monitor and returns
// the zero-based channel and the track-count CC.
func midiSettings(channel, trackCC int) (uint8, uint8, error) {
	if channel < 1 || channel > 16 {
		return 0, 0, fmt.Errorf("channel %d out of range 1-16", channel)
	}
	if trackCC < 0 || trackCC > 127 {
		return 0, 0, fmt.Errorf("track-count CC %d out of range 0-127", trackCC)
	}
	return uint8(channel - 1), uint8(trackCC), nil
}

func openPorts(in, out, name string) (*midiport.Ports, error) {
	if in == "" && out == "" {
		return midiport.OpenVirtual(name)
	}
	return midiport.Open(in, out)
}

func logMemStats(logger *slog.Logger, msg string) {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	logger.Info(msg,
		"heap_alloc", ms.HeapAlloc,
		"heap_sys", ms.HeapSys,
		"num_gc", ms.NumGC)
}

func runSurface(cmd *cobra.Command, args []string) error {
	runOpts.Config = configPath
	if err := config.LoadOptions(&runOpts, cmd); err != nil {
		return fmt.Errorf("failed to load options: %w", err)
	}
	channel, trackCC, err := midiSettings(runOpts.Channel, runOpts.TrackCC)
	if err != nil {
		return err
	}

	logger := logging.GetLogger("main")
	logMemStats(logger, "Boot start")

	layout, err := config.LoadLayout(configPath)
	if err != nil {
		return err
	}
	if err := layout.Validate(trackCC); err != nil {
		return err
	}

	bus := events.New()
	unsubscribe := metrics.Subscribe(bus)
	defer unsubscribe()

	b, err := board.Open(layout, board.WithLogger(logging.GetLogger("board")))
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := b.Close(); closeErr != nil {
			logger.Warn("Failed to close board", "error", closeErr)
		}
	}()

	midiLogger := logging.GetLogger("midi")
	ports, err := openPorts(runOpts.MidiIn, runOpts.MidiOut, runOpts.VirtualName)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := ports.Close(); closeErr != nil {
			midiLogger.Warn("Failed to close MIDI ports", "error", closeErr)
		}
	}()
	midiLogger.Info("MIDI ports open", "in", ports.In.String(), "out", ports.Out.String(), "channel", channel+1)

	send, err := midiport.Sender(ports.Out, channel)
	if err != nil {
		return err
	}

	s := surface.New(b.Registry, send, trackCC,
		surface.WithTickPeriod(runOpts.TickPeriod),
		surface.WithQueueSize(runOpts.QueueSize),
		surface.WithEvents(bus),
		surface.WithLogger(logging.GetLogger("surface")),
	)

	stop, err := midiport.Listen(ports.In, channel, func(cc, value uint8) {
		s.Deliver(cc, value)
	})
	if err != nil {
		return err
	}
	defer stop()

	// Init failures are logged per control; the loop runs regardless.
	_ = s.Init()
	logMemStats(logger, "Boot complete")

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if runOpts.MetricsAddr != "" {
		srv := serveMetrics(runOpts.MetricsAddr, logger)
		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer shutdownCancel()
			if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
				logger.Warn("Error stopping metrics server", "error", shutdownErr)
			}
		}()
	}

	err = s.Run(ctx)
	logger.Info("Shutting down")
	return err
}

func serveMetrics(addr string, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("Starting metrics server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics server failed", "error", err)
		}
	}()
	return srv
}
