package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/mrlokans/mangashelf/internal/auth"
)

func newTokenCommand() *cobra.Command {
	var cost int

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Generate an API token and the hash to configure",
		Long: `Print a new random API token and its bcrypt hash. Give the token to API
clients and set AUTH_TOKEN_HASH to the hash. The token is not stored anywhere.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			token, hash, err := auth.GenerateAPIToken(cost)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "token: %s\n", token)
			fmt.Fprintf(out, "AUTH_TOKEN_HASH=%s\n", hash)
			return nil
		},
	}

	cmd.Flags().IntVar(&cost, "cost", bcrypt.DefaultCost, "bcrypt cost")
	return cmd
}
