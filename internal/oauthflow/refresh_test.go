package oauthflow

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mcporter/internal/oauthvault"
	"mcporter/pkg/oauth"
)

func TestRefreshFailsWithoutRefreshToken(t *testing.T) {
	vault := oauthvault.New(t.TempDir(), "srv")
	client := oauth.NewClient()

	_, ok := Refresh(context.Background(), client, vault, "https://example.com")
	assert.False(t, ok)
}

func TestRefreshFailsWithoutClientInfo(t *testing.T) {
	vault := oauthvault.New(t.TempDir(), "srv")
	require.NoError(t, vault.SaveTokens(&oauth.Token{AccessToken: "at", RefreshToken: "rt"}))
	client := oauth.NewClient()

	_, ok := Refresh(context.Background(), client, vault, "https://example.com")
	assert.False(t, ok)
}

func TestRefreshSucceedsAndRetainsRefreshToken(t *testing.T) {
	mux := http.NewServeMux()
	as := httptest.NewServer(mux)
	defer as.Close()

	mux.HandleFunc("/.well-known/oauth-authorization-server", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"issuer":"x","authorization_endpoint":"x","token_endpoint":"%s/token"}`, as.URL)
	})
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"access_token":"new-at","expires_in":3600}`))
	})

	vault := oauthvault.New(t.TempDir(), "srv")
	require.NoError(t, vault.SaveTokens(&oauth.Token{AccessToken: "old-at", RefreshToken: "rt"}))
	require.NoError(t, vault.SaveClientInfo(&oauth.ClientInformation{ClientID: "cid"}))

	client := oauth.NewClient()
	newToken, ok := Refresh(context.Background(), client, vault, as.URL)
	require.True(t, ok)
	assert.Equal(t, "new-at", newToken)

	persisted, err := vault.ReadTokens()
	require.NoError(t, err)
	assert.Equal(t, "rt", persisted.RefreshToken)
}

func TestRefreshTriesFallbackCandidatesInOrder(t *testing.T) {
	mux := http.NewServeMux()
	as := httptest.NewServer(mux)
	defer as.Close()

	// No discovery document: refreshAgainstCandidates falls back to the
	// conventional candidate paths. /oauth2/token 404s, so refresh must
	// move on to /token instead of giving up.
	mux.HandleFunc("/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"access_token":"fallback-at","expires_in":3600}`)
	})

	vault := oauthvault.New(t.TempDir(), "srv")
	require.NoError(t, vault.SaveTokens(&oauth.Token{AccessToken: "old-at", RefreshToken: "rt"}))
	require.NoError(t, vault.SaveClientInfo(&oauth.ClientInformation{ClientID: "cid"}))

	client := oauth.NewClient()
	newToken, ok := Refresh(context.Background(), client, vault, as.URL)
	require.True(t, ok)
	assert.Equal(t, "fallback-at", newToken)
}
