package cmd

import (
	"fmt"

	"github.com/nuvoor/careadmin/internal/app"
	"github.com/spf13/cobra"
)

func PruneResetTokensCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "prune-reset-tokens",
		Short: "Clear password reset tokens that have expired",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			a, err := app.New(cmd.Context(), cfg, app.Options{})
			if err != nil {
				return err
			}
			defer a.Close()

			cleared, err := a.AuthService.PruneExpiredResetTokens(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d expired reset token(s)\n", cleared)
			return nil
		},
	}
}
