// Package commands implements pollsctl, the administrative CLI for the polls
// database.
package commands

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/garnizeh/polls/internal/config"
	"github.com/garnizeh/polls/internal/db"
	"github.com/spf13/cobra"
)

type options struct {
	configPath string
	dbPath     string
	verbose    bool
}

// NewRootCmd builds the command tree.
func NewRootCmd(version string) *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "pollsctl",
		Short: "Administer the polls database",
		Long: `pollsctl manages the SQLite database behind the polls server.

Commands:
  migrate      - Apply pending schema migrations
  seed         - Load questions from a JSON seed document
  create-user  - Register a user account
  backup       - Write a consistent copy of the database
  restore      - Replace a database file with a backup`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to config YAML file")
	root.PersistentFlags().StringVar(&opts.dbPath, "db", "", "Database path (overrides config)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose output")

	root.AddCommand(
		newMigrateCmd(opts),
		newSeedCmd(opts),
		newCreateUserCmd(opts),
		newBackupCmd(opts),
		newRestoreCmd(opts),
	)
	return root
}

// Execute runs the root command
func Execute(version string) {
	if err := NewRootCmd(version).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func (o *options) logger(w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if o.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func (o *options) load() (*config.Config, error) {
	cfg, err := config.LoadConfig(o.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if o.dbPath != "" {
		cfg.DatabasePath = o.dbPath
	}
	if cfg.DatabasePath == "" {
		return nil, fmt.Errorf("no database path configured")
	}
	return cfg, nil
}

// open loads the configuration and opens the database it names.
func (o *options) open(cmd *cobra.Command) (*config.Config, *db.DB, error) {
	cfg, err := o.load()
	if err != nil {
		return nil, nil, err
	}
	d, err := db.New(cmd.Context(), cfg.DatabasePath, o.logger(cmd.ErrOrStderr()))
	if err != nil {
		return nil, nil, err
	}
	return cfg, d, nil
}
