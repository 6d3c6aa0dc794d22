package oauthvault

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mcporter/pkg/oauth"
)

func TestTokenRoundTrip(t *testing.T) {
	v := New(t.TempDir(), "my-server")

	token := &oauth.Token{AccessToken: "at", RefreshToken: "rt", ExpiresIn: 3600}
	require.NoError(t, v.SaveTokens(token))

	got, err := v.ReadTokens()
	require.NoError(t, err)
	assert.Equal(t, "at", got.AccessToken)
	assert.Equal(t, "rt", got.RefreshToken)
}

func TestSaveTokensClearsVerifier(t *testing.T) {
	v := New(t.TempDir(), "my-server")
	require.NoError(t, v.SaveCodeVerifier("verifier-value"))

	require.NoError(t, v.SaveTokens(&oauth.Token{AccessToken: "at"}))

	verifier, err := v.ReadCodeVerifier()
	require.NoError(t, err)
	assert.Empty(t, verifier)
}

func TestReadCachedAccessTokenExpiry(t *testing.T) {
	v := New(t.TempDir(), "my-server")
	require.NoError(t, v.SaveTokens(&oauth.Token{AccessToken: "at", ExpiresIn: 3600}))

	token, ok := v.ReadCachedAccessToken()
	assert.True(t, ok)
	assert.Equal(t, "at", token)

	v2 := New(t.TempDir(), "expired")
	require.NoError(t, v2.SaveTokens(&oauth.Token{AccessToken: "at", ExpiresIn: 1}))
	time.Sleep(1100 * time.Millisecond)
	_, ok = v2.ReadCachedAccessToken()
	assert.False(t, ok)
}

func TestClearScopes(t *testing.T) {
	v := New(t.TempDir(), "srv")
	require.NoError(t, v.SaveState("s"))
	require.NoError(t, v.SaveClientInfo(&oauth.ClientInformation{ClientID: "c"}))
	require.NoError(t, v.SaveCodeVerifier("ver"))

	require.NoError(t, v.Clear(ScopeClient))
	info, err := v.ReadClientInfo()
	require.NoError(t, err)
	assert.Nil(t, info)

	state, err := v.ReadState()
	require.NoError(t, err)
	assert.Equal(t, "s", state)

	require.NoError(t, v.Clear(ScopeAll))
	state, err = v.ReadState()
	require.NoError(t, err)
	assert.Empty(t, state)
}
