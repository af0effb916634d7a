package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/abelzeko/soilism/internal/entities"
	"github.com/abelzeko/soilism/internal/integration"
	"github.com/abelzeko/soilism/internal/policy"
	"github.com/spf13/cobra"
)

var (
	probeCount       int
	probeSettleDelay = integration.DefaultSettleDelay
)

// probeCmd represents the probe command
var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Print samples read from the sensor board",
	Long: `Connect to the serial sensor board and print every parsed sample together
with the soil types it would count as dry for. No plants are touched and no
alerts are sent.`,
	RunE: runProbe,
}

func init() {
	probeCmd.Flags().IntVarP(&probeCount, "count", "n", 0, "Stop after this many samples (0 reads until interrupted)")
	rootCmd.AddCommand(probeCmd)
}

func runProbe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(cmd.OutOrStdout(), "Probing %s at %d baud\n", cfg.SerialPort, cfg.SerialBaud)
	probe(ctx, integration.OpenSerialPort(cfg.SerialPort, cfg.SerialBaud), cmd.OutOrStdout(), probeCount)
	return nil
}

// probe prints samples until ctx is done or count samples were seen
func probe(ctx context.Context, open integration.Opener, out io.Writer, count int) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	seen := 0
	sink := integration.SampleSinkFunc(func(s entities.Sample) error {
		seen++
		fmt.Fprintln(out, formatProbeSample(s))
		if count > 0 && seen >= count {
			cancel()
		}
		return nil
	})
	reader := integration.NewSerialReader(open, sink)
	reader.SettleDelay = probeSettleDelay
	reader.Run(ctx)
}

func formatProbeSample(s entities.Sample) string {
	var dry []string
	for _, soil := range entities.KnownSoilCategories {
		if policy.IsDry(soil, s.SoilMoisture) {
			dry = append(dry, string(soil))
		}
	}
	line := fmt.Sprintf("moisture=%d%% temperature=%.1f°C humidity=%.1f%%", s.SoilMoisture, s.Temperature, s.Humidity)
	if len(dry) > 0 {
		line += fmt.Sprintf(" dry for %v", dry)
	}
	return line
}
