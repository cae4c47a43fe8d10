package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nkiryanov/castbook/internal/db"
)

var errNoDatabase = errors.New("database is not set: use --database or DATABASE_URI")

func newMigrateCommand(getenv func(string) string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Args:  cobra.NoArgs,
		Short: "Database migration commands",
	}

	cmd.AddCommand(
		newMigrateUpCommand(getenv),
		newMigrateDownCommand(getenv),
	)

	return cmd
}

func newMigrateUpCommand(getenv func(string) string) *cobra.Command {
	var dsn string

	cmd := &cobra.Command{
		Use:   "up",
		Args:  cobra.NoArgs,
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if dsn == "" {
				return errNoDatabase
			}
			if err := db.Migrate(dsn); err != nil {
				return err
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return err
		},
	}

	databaseFlag(cmd, &dsn, getenv)
	return cmd
}

func newMigrateDownCommand(getenv func(string) string) *cobra.Command {
	var dsn string
	var steps int

	cmd := &cobra.Command{
		Use:   "down",
		Args:  cobra.NoArgs,
		Short: "Roll back migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if dsn == "" {
				return errNoDatabase
			}
			if err := db.MigrateDown(dsn, steps); err != nil {
				return err
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "%d migration(s) rolled back\n", steps)
			return err
		},
	}

	databaseFlag(cmd, &dsn, getenv)
	cmd.Flags().IntVarP(&steps, "steps", "n", 1, "number of migrations to roll back")
	return cmd
}
