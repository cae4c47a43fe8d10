package commands

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

const defaultSecretBytes = 32

func newGenSecretCommand() *cobra.Command {
	var size int

	cmd := &cobra.Command{
		Use:   "gensecret",
		Args:  cobra.NoArgs,
		Short: "Print random hex encoded secret key to use as SECRET_KEY",
		RunE: func(cmd *cobra.Command, args []string) error {
			if size < 16 {
				return errors.New("secret must be at least 16 bytes")
			}

			b := make([]byte, size)
			if _, err := rand.Read(b); err != nil {
				return fmt.Errorf("error while generating secret key: %w", err)
			}

			_, err := fmt.Fprintln(cmd.OutOrStdout(), hex.EncodeToString(b))
			return err
		},
	}

	cmd.Flags().IntVarP(&size, "bytes", "b", defaultSecretBytes, "secret size in bytes")
	return cmd
}
