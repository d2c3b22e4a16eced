package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Run a poll cycle now",
		Long: "Ask the server to poll all enabled products immediately. If a cycle is\n" +
			"already in flight the request attaches to it instead of starting a\n" +
			"second one, and this command reports that cycle's result.",
		Example: `  zst check
  zst check --output json`,
		RunE: func(_ *cobra.Command, _ []string) error {
			c := newClient()
			resp, err := c.CheckNow(context.Background())
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(resp)
			}
			if resp.Coalesced {
				fmt.Println("Attached to the cycle already in flight.")
			}
			if resp.Cycle == nil {
				return nil
			}
			return printCycleResult(resp.Cycle)
		},
	}
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show scheduler status",
		Example: `  zst status
  zst status --output json`,
		RunE: func(_ *cobra.Command, _ []string) error {
			c := newClient()
			st, err := c.Status(context.Background())
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(st)
			}
			return printStatus(st)
		},
	}
}
