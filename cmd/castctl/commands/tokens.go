package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nkiryanov/castbook/internal/db"
	"github.com/nkiryanov/castbook/internal/repository/postgres"
	"github.com/nkiryanov/castbook/internal/service/auth/tokenmanager"
)

func newTokensCommand(getenv func(string) string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tokens",
		Args:  cobra.NoArgs,
		Short: "Refresh tokens maintenance",
	}

	cmd.AddCommand(newTokensPruneCommand(getenv))
	return cmd
}

func newTokensPruneCommand(getenv func(string) string) *cobra.Command {
	var dsn string

	cmd := &cobra.Command{
		Use:   "prune",
		Args:  cobra.NoArgs,
		Short: "Delete expired refresh tokens",
		RunE: func(cmd *cobra.Command, args []string) error {
			if dsn == "" {
				return errNoDatabase
			}

			pool, err := db.Connect(cmd.Context(), dsn)
			if err != nil {
				return err
			}
			defer pool.Close()

			// Tokens are not signed here, any key works
			m, err := tokenmanager.New(tokenmanager.Config{SecretKey: "prune-only"}, postgres.NewStorage(pool).Refresh())
			if err != nil {
				return err
			}

			n, err := m.PruneExpired(cmd.Context())
			if err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%d expired refresh token(s) deleted\n", n)
			return err
		},
	}

	databaseFlag(cmd, &dsn, getenv)
	return cmd
}
