package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/icco/possumbox/internal/config"
	"github.com/icco/possumbox/internal/logging"
)

var (
	configPath string
	logLevel   string
	logFormat  string
)

var rootCmd = &cobra.Command{
	Use:   "possumbox",
	Short: "Firmware for the PossumBox MIDI control surface",
	Long: `possumbox drives a MIDI control surface built from buttons, pots and LED drivers
on I2C, and talks control changes to a host over MIDI.

The surface layout (which CC each control sends, which track it belongs to and
where it is wired) is read from the [[controls]] table of the config file, or the
stock PossumBox layout is used.`,
	SilenceUsage:      true,
	PersistentPreRunE: initLogging,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "possumbox.toml", "Path to configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Global logging level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Logging format (text, json)")
}

// initLogging applies the [logging] table of the config file, then the
// command-line overrides.
func initLogging(cmd *cobra.Command, args []string) error {
	cfg := config.LoadLoggingConfig(configPath)
	if logLevel != "" {
		cfg.Level = logLevel
	}
	if logFormat != "" {
		cfg.Format = logFormat
	}
	logging.Initialize(cfg)
	return nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
