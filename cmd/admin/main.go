package main

import (
	"os"

	"github.com/nuvoor/careadmin/cmd/admin/cmd"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "admin",
		Short:         "Operator tools for the CareAdmin backend",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.AddCommand(cmd.SeedAdminCmd())
	rootCmd.AddCommand(cmd.MigrateCmd())
	rootCmd.AddCommand(cmd.PruneResetTokensCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
