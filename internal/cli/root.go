// Package cli implements the soilism command line
package cli

import (
	"log"
	"os"

	"github.com/abelzeko/soilism/internal/config"
	"github.com/spf13/cobra"
)

var (
	verbose    bool
	port       int
	serialPort string
	serialBaud int
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "soilism",
	Short: "Soil moisture monitor for potted plants",
	Long: `Soilism tracks potted plants, ingests soil moisture, temperature and humidity
samples from a serial sensor board or an HTTP push endpoint, and sends a
rate-limited alert when a plant's soil is too dry for its soil type.

Running soilism without a subcommand starts the service.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogger()
	},
	RunE: runServe,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().IntVarP(&port, "port", "p", 0, "HTTP port (overrides PORT)")
	rootCmd.PersistentFlags().StringVar(&serialPort, "serial-port", "", "Serial device of the sensor board (overrides SERIAL_PORT)")
	rootCmd.PersistentFlags().IntVar(&serialBaud, "baud", 0, "Serial baud rate (overrides SERIAL_BAUD)")
}

// setupLogger configures the standard logger used by every package
func setupLogger() {
	flags := log.Ldate | log.Ltime | log.Lshortfile
	if verbose {
		flags |= log.Lmicroseconds
	}
	log.SetOutput(os.Stdout)
	log.SetFlags(flags)
}

// loadConfig reads the environment and applies explicitly set flags
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, err
	}

	flags := cmd.Flags()
	if flags.Changed("port") {
		cfg.Port = port
	}
	if flags.Changed("serial-port") {
		cfg.SerialPort = serialPort
		cfg.SerialEnabled = true
	}
	if flags.Changed("baud") {
		cfg.SerialBaud = serialBaud
	}
	return cfg, cfg.Validate()
}
