package cmd

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mcporter/internal/mcpdef"
	"mcporter/internal/oauthvault"
	"mcporter/pkg/oauth"
)

func TestStatusForNoVaultIsNotAuthenticated(t *testing.T) {
	dir := t.TempDir()
	status := statusFor("missing-server", dir)
	assert.False(t, status.Authenticated)
	assert.False(t, status.Expired)
	assert.Empty(t, status.Error)
}

func TestStatusForValidTokenIsAuthenticated(t *testing.T) {
	dir := t.TempDir()
	vault := oauthvault.New(dir, "weather")
	require.NoError(t, vault.SaveTokens(&oauth.Token{
		AccessToken: "at",
		ExpiresAt:   time.Now().Add(time.Hour),
	}))

	status := statusFor("weather", dir)
	assert.True(t, status.Authenticated)
	assert.False(t, status.Expired)
}

func TestStatusForExpiredTokenWithRefresh(t *testing.T) {
	dir := t.TempDir()
	vault := oauthvault.New(dir, "weather")
	require.NoError(t, vault.SaveTokens(&oauth.Token{
		AccessToken:  "at",
		RefreshToken: "rt",
		ExpiresAt:    time.Now().Add(-time.Hour),
	}))

	status := statusFor("weather", dir)
	assert.False(t, status.Authenticated)
	assert.True(t, status.Expired)
	assert.True(t, status.HasRefreshToken)
}

func TestClearVaultRemovesTokenFile(t *testing.T) {
	dir := t.TempDir()
	vault := oauthvault.New(dir, "weather")
	require.NoError(t, vault.SaveTokens(&oauth.Token{AccessToken: "at"}))

	require.NoError(t, clearVault(mcpdef.ServerDefinition{Name: "weather"}, dir))

	_, err := os.Stat(filepath.Join(dir, "weather", "tokens.json"))
	assert.True(t, os.IsNotExist(err))
}

func TestFindDefLocatesByName(t *testing.T) {
	defs := []mcpdef.ServerDefinition{{Name: "a"}, {Name: "b"}}
	found, ok := findDef(defs, "b")
	require.True(t, ok)
	assert.Equal(t, "b", found.Name)

	_, ok = findDef(defs, "missing")
	assert.False(t, ok)
}
