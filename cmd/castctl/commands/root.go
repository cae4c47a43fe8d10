// Package commands holds castctl administration commands.
package commands

import (
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command
// getenv is used for options not given as flags
func NewRootCmd(getenv func(string) string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "castctl",
		Short:         "castbook administration tool",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.AddCommand(
		newGenSecretCommand(),
		newMigrateCommand(getenv),
		newTokensCommand(getenv),
	)

	return rootCmd
}

// Register --database flag falling back to DATABASE_URI
func databaseFlag(cmd *cobra.Command, dsn *string, getenv func(string) string) {
	cmd.Flags().StringVarP(dsn, "database", "d", getenv("DATABASE_URI"), "Database connection string (DATABASE_URI)")
}
