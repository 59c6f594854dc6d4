package commands

import (
	"errors"
	"fmt"
	"os"

	dbfs "github.com/garnizeh/polls/db"
	"github.com/garnizeh/polls/internal/auth"
	"github.com/garnizeh/polls/internal/db"
	"github.com/garnizeh/polls/internal/repository/sqlite"
	"github.com/spf13/cobra"
)

func newCreateUserCmd(opts *options) *cobra.Command {
	var firstName, lastName, password string

	cmd := &cobra.Command{
		Use:   "create-user <username>",
		Short: "Register a user account",
		Long: `Register a user who can sign in to the management pages. The password is
read from --password or, when omitted, from POLLS_USER_PASSWORD.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = os.Getenv("POLLS_USER_PASSWORD")
			}
			if password == "" {
				return errors.New("a password is required (--password or POLLS_USER_PASSWORD)")
			}

			cfg, d, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer d.Close()

			ctx := cmd.Context()
			if err := db.Migrate(ctx, d, dbfs.Migrations); err != nil {
				return err
			}

			logger := opts.logger(cmd.ErrOrStderr())
			repo := sqlite.New(d, logger)
			gate := auth.NewGate(repo, repo, auth.Config{
				Secret:     cfg.SessionSecret,
				BcryptCost: cfg.BcryptCost,
			}, logger)

			u, err := gate.Register(ctx, firstName, lastName, args[0], password)
			if err != nil {
				if errors.Is(err, auth.ErrDuplicateUsername) {
					return fmt.Errorf("user %q already exists", args[0])
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created user %s (id %d).\n", u.Username, u.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&firstName, "first-name", "", "First name")
	cmd.Flags().StringVar(&lastName, "last-name", "", "Last name")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Password")
	return cmd
}
