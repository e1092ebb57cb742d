package cli

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rpupo63/collage-backend/auth"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		tokenTTL = 12 * time.Hour
		tokenSubject = "admin"
		listHidden, listJSON = false, false
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func TestTokenCommand(t *testing.T) {
	t.Setenv("ADMIN_JWT_SECRET", "cli-secret")

	out, err := run(t, "token", "--subject", "ops", "--ttl", "1h")
	require.NoError(t, err)

	claims, err := auth.NewVerifier("cli-secret").Verify(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "ops", claims.Subject)
	assert.Equal(t, auth.AdminRole, claims.Role)
	require.NotNil(t, claims.ExpiresAt)
}

func TestTokenCommandWithoutSecret(t *testing.T) {
	t.Setenv("ADMIN_JWT_SECRET", "")

	_, err := run(t, "token")
	assert.Error(t, err)
}

func TestPostsListMemoryBackend(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "memory")

	out, err := run(t, "posts", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No posts.")

	out, err = run(t, "posts", "list", "--json", "--hidden")
	require.NoError(t, err)
	assert.JSONEq(t, `{"items":[]}`, out)
}

func TestVersionCommand(t *testing.T) {
	SetVersion("1.2.3")
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "collagectl 1.2.3\n", out)
}
