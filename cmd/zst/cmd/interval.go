package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	apiclient "github.com/donaldgifford/zara-stock-tracker/internal/api/client"
)

func intervalCmd() *cobra.Command {
	intervalRoot := &cobra.Command{
		Use:   "interval",
		Short: "View or change the poll interval",
		Long: "View or change how often the scheduler polls tracked products. Presets\n" +
			"of 1, 5, 15, or 30 minutes are accepted, or a raw seconds value. The\n" +
			"new interval takes effect at the next wake.",
	}

	intervalRoot.AddCommand(
		intervalGetCmd(),
		intervalSetCmd(),
	)

	return intervalRoot
}

func intervalGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "get",
		Short:   "Show the current poll interval",
		Example: `  zst interval get`,
		RunE: func(_ *cobra.Command, _ []string) error {
			c := newClient()
			seconds, err := c.GetInterval(context.Background())
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(map[string]int{"seconds": seconds})
			}
			fmt.Printf("Poll interval: %ds\n", seconds)
			return nil
		},
	}
}

func intervalSetCmd() *cobra.Command {
	var (
		minutes int
		seconds int
	)

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Change the poll interval",
		Example: `  zst interval set --minutes 5
  zst interval set --seconds 90`,
		RunE: func(_ *cobra.Command, _ []string) error {
			if (minutes == 0) == (seconds == 0) {
				return fmt.Errorf("exactly one of --minutes or --seconds is required")
			}
			req := apiclient.SetIntervalRequest{
				Minutes: minutes,
				Seconds: seconds,
			}
			c := newClient()
			applied, err := c.SetInterval(context.Background(), req)
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(map[string]int{"seconds": applied})
			}
			fmt.Printf("Poll interval set to %ds (effective at the next wake).\n", applied)
			return nil
		},
	}
	cmd.Flags().IntVar(&minutes, "minutes", 0, "preset interval in minutes (1, 5, 15, 30)")
	cmd.Flags().IntVar(&seconds, "seconds", 0, "raw interval in seconds")

	return cmd
}
