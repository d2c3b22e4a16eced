package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/donaldgifford/zara-stock-tracker/internal/backup"
	"github.com/donaldgifford/zara-stock-tracker/internal/config"
	"github.com/donaldgifford/zara-stock-tracker/internal/store"
	"github.com/donaldgifford/zara-stock-tracker/pkg/logger"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Manage database backups",
}

func init() {
	backupCmd.AddCommand(backupRunCmd)
	backupCmd.AddCommand(backupListCmd)
	backupCmd.AddCommand(backupRestoreCmd)
	rootCmd.AddCommand(backupCmd)
}

var backupRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Write a backup now and prune old ones",
	RunE: func(_ *cobra.Command, _ []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		log := logger.New(cfg.Logging.Level, cfg.Logging.Format)

		st, err := store.NewSQLiteStore(cfg.Database.Path)
		if err != nil {
			return fmt.Errorf("opening store: %w", err)
		}
		defer st.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()

		mgr := backup.NewManager(st, cfg.Backup.Dir, cfg.Backup.Retention,
			backup.WithLogger(log.With("component", "backup")))
		rec, err := mgr.Run(ctx)
		if err != nil {
			return fmt.Errorf("running backup: %w", err)
		}

		fmt.Printf("backup written: %s (%d bytes)\n", rec.Path, rec.SizeBytes)
		return nil
	},
}

var backupListCmd = &cobra.Command{
	Use:   "list",
	Short: "List backups, newest first",
	RunE: func(_ *cobra.Command, _ []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		st, err := store.NewSQLiteStore(cfg.Database.Path)
		if err != nil {
			return fmt.Errorf("opening store: %w", err)
		}
		defer st.Close()

		mgr := backup.NewManager(st, cfg.Backup.Dir, cfg.Backup.Retention)
		records, err := mgr.List()
		if err != nil {
			return fmt.Errorf("listing backups: %w", err)
		}
		if len(records) == 0 {
			fmt.Println("No backups found.")
			return nil
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "PATH\tCREATED\tSIZE")
		for _, rec := range records {
			fmt.Fprintf(tw, "%s\t%s\t%d\n",
				rec.Path, rec.CreatedAt.Format(time.RFC3339), rec.SizeBytes)
		}
		return tw.Flush()
	},
}

var backupRestoreCmd = &cobra.Command{
	Use:   "restore <backup-file>",
	Short: "Restore the database from a backup file",
	Long: "Replaces the configured database file with the given backup, keeping " +
		"the current file as <db>.before_restore. Stop the server first: this is " +
		"a file-level copy and must not race a live connection.",
	Args: cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		log := logger.New(cfg.Logging.Level, cfg.Logging.Format)

		if err := backup.Restore(cfg.Database.Path, args[0]); err != nil {
			return fmt.Errorf("restoring database: %w", err)
		}

		log.Info("database restored", "db", cfg.Database.Path, "from", args[0])
		return nil
	},
}
