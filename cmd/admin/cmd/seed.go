package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/nuvoor/careadmin/internal/app"
	"github.com/nuvoor/careadmin/internal/service"
	"github.com/spf13/cobra"
)

func SeedAdminCmd() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "seed-admin",
		Short: "Create the admin account if it does not exist",
		Long: `Create the admin account if it does not exist.

Email and password default to ADMIN_EMAIL and ADMIN_PASSWORD. Running the
command again for an existing account changes nothing.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" {
				email = os.Getenv("ADMIN_EMAIL")
			}
			if password == "" {
				password = os.Getenv("ADMIN_PASSWORD")
			}
			if email == "" || password == "" {
				return errors.New("email and password are required (--email/--password or ADMIN_EMAIL/ADMIN_PASSWORD)")
			}

			cfg := loadConfig()
			a, err := app.New(cmd.Context(), cfg, app.Options{})
			if err != nil {
				return err
			}
			defer a.Close()

			return seedAdmin(cmd, a.AuthService, email, password)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "admin email address")
	cmd.Flags().StringVar(&password, "password", "", "admin password")
	return cmd
}

func seedAdmin(cmd *cobra.Command, authService *service.AuthService, email, password string) error {
	user, err := authService.CreateAccount(cmd.Context(), email, password)
	if errors.Is(err, service.ErrEmailAlreadyExists) {
		fmt.Fprintf(cmd.OutOrStdout(), "Admin user %s already exists\n", email)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to seed admin: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Admin user %s created (id %s)\n", user.Email, user.ID)
	return nil
}
