package commands

import (
	"fmt"
	"os"
	"time"

	dbfs "github.com/garnizeh/polls/db"
	"github.com/garnizeh/polls/internal/db"
	"github.com/spf13/cobra"
)

func newMigrateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, d, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer d.Close()

			if err := db.Migrate(cmd.Context(), d, dbfs.Migrations); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Database migrated.")
			return nil
		},
	}
}

func newSeedCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "seed [file]",
		Short: "Load questions from a JSON seed document",
		Long: `Load questions and their choices into the database. Without a file the
built-in seed is used. Questions whose text already exists are skipped.

Examples:
  pollsctl seed                  # Load the built-in questions
  pollsctl seed questions.json   # Load questions from a file`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, d, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer d.Close()

			ctx := cmd.Context()
			if err := db.Migrate(ctx, d, dbfs.Migrations); err != nil {
				return err
			}

			var n int
			if len(args) == 1 {
				data, rerr := os.ReadFile(args[0])
				if rerr != nil {
					return fmt.Errorf("read seed file: %w", rerr)
				}
				n, err = db.SeedBytes(ctx, d, dbfs.SeedFiles, data, time.Now())
			} else {
				n, err = db.Seed(ctx, d, dbfs.SeedFiles, time.Now())
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d question(s).\n", n)
			return nil
		},
	}
}

func newBackupCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "backup [destination]",
		Short: "Write a consistent copy of the database",
		Long: `Write a consistent copy of the live database. The destination defaults to
the database path with a timestamped .bak suffix and must not exist.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, d, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer d.Close()

			dst := cfg.DatabasePath + "." + time.Now().UTC().Format("20060102T150405") + ".bak"
			if len(args) == 1 {
				dst = args[0]
			}
			if err := db.Backup(cmd.Context(), d, dst); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Database backed up to %s.\n", dst)
			return nil
		},
	}
}

func newRestoreCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "restore <backup>",
		Short: "Replace the database file with a backup",
		Long: `Replace the configured database file with the given backup. Stop the
server before restoring.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			if err := db.Restore(args[0], cfg.DatabasePath); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Database restored from %s.\n", args[0])
			return nil
		},
	}
}
