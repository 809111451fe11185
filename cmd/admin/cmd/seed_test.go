package cmd

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/nuvoor/careadmin/internal/repository"
	"github.com/nuvoor/careadmin/internal/service"
	"github.com/nuvoor/careadmin/internal/testutil"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestSeedAdmin_Idempotent(t *testing.T) {
	repo := repository.NewUserRepository(testutil.NewDB(t))
	authService := service.NewAuthService(
		repo,
		service.NewEmailService(service.NewSender("", "", true), "http://localhost:3000", "CareAdmin", time.Second, nil),
		service.NewPasswordHasher(bcrypt.MinCost),
		service.NewSessionIssuer("seed-test-secret-32-characters-long!", time.Hour, nil),
		nil,
		time.Hour,
		nil,
	)

	var out bytes.Buffer
	c := &cobra.Command{}
	c.SetOut(&out)
	c.SetContext(context.Background())

	require.NoError(t, seedAdmin(c, authService, "admin@x.com", "secret1"))
	assert.Contains(t, out.String(), "Admin user admin@x.com created")

	out.Reset()
	require.NoError(t, seedAdmin(c, authService, "admin@x.com", "different"))
	assert.Contains(t, out.String(), "already exists")

	_, err := authService.Login(context.Background(), "admin@x.com", "secret1")
	assert.NoError(t, err)

	assert.Error(t, seedAdmin(c, authService, "broken", "secret1"))
}

func TestAdminCommands(t *testing.T) {
	assert.Equal(t, "seed-admin", SeedAdminCmd().Name())
	assert.NotNil(t, SeedAdminCmd().Flags().Lookup("email"))
	assert.Equal(t, "prune-reset-tokens", PruneResetTokensCmd().Name())

	var names []string
	for _, c := range MigrateCmd().Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"up", "down", "version"}, names)
}
