package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func backupsCmd() *cobra.Command {
	backupsRoot := &cobra.Command{
		Use:   "backups",
		Short: "Manage database backups",
		Long: "List the backups retained on the server or create one immediately.\n" +
			"Scheduled backups run on their own timer; retention pruning keeps only\n" +
			"the newest N files.",
	}

	backupsRoot.AddCommand(
		backupsListCmd(),
		backupsRunCmd(),
	)

	return backupsRoot
}

func backupsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List retained backups",
		Example: `  zst backups list
  zst backups list --output json`,
		RunE: func(_ *cobra.Command, _ []string) error {
			c := newClient()
			records, err := c.ListBackups(context.Background())
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(records)
			}
			if len(records) == 0 {
				fmt.Println("No backups found.")
				return nil
			}
			return printBackupsTable(records)
		},
	}
}

func backupsRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "run",
		Short:   "Create a backup now",
		Example: `  zst backups run`,
		RunE: func(_ *cobra.Command, _ []string) error {
			c := newClient()
			record, err := c.RunBackup(context.Background())
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(record)
			}
			fmt.Printf("Backup created: %s (%d bytes)\n", record.Path, record.SizeBytes)
			return nil
		},
	}
}
