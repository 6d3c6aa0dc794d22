package oauthflow

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mcporter/internal/mcpdef"
	"mcporter/internal/oauthvault"
	"mcporter/pkg/oauth"
)

func newTestSession(t *testing.T, asURL string) *Session {
	t.Helper()
	def := mcpdef.ServerDefinition{Name: "srv"}
	vault := oauthvault.New(t.TempDir(), "srv")
	client := oauth.NewClient()

	s, err := New(context.Background(), def, vault, client, asURL)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSessionComposesClientMetadata(t *testing.T) {
	s := newTestSession(t, "http://127.0.0.1:1")
	meta := s.ClientMetadata()

	assert.Equal(t, "mcporter (srv)", meta.ClientName)
	assert.Equal(t, []string{"code"}, meta.ResponseTypes)
	assert.Equal(t, "none", meta.TokenEndpointAuthMethod)
	assert.Equal(t, "native", meta.ApplicationType)
	assert.Contains(t, meta.RedirectURIs, "http://127.0.0.1/")
}

func TestSessionStateIsPersistedAndStable(t *testing.T) {
	s := newTestSession(t, "http://127.0.0.1:1")

	first, err := s.State()
	require.NoError(t, err)
	assert.NotEmpty(t, first)

	second, err := s.State()
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestSessionCallbackDeliversCode(t *testing.T) {
	s := newTestSession(t, "http://127.0.0.1:1")
	state, err := s.State()
	require.NoError(t, err)

	s.RedirectToAuthorization("http://example.com/authorize")

	go func() {
		time.Sleep(10 * time.Millisecond)
		resp, err := http.Get(s.redirectURL() + "?code=abc123&state=" + state)
		if err == nil {
			resp.Body.Close()
		}
	}()

	code, err := s.WaitForAuthorizationCode(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "abc123", code)
}

func TestSessionCallbackRejectsBadState(t *testing.T) {
	s := newTestSession(t, "http://127.0.0.1:1")
	_, err := s.State()
	require.NoError(t, err)

	s.RedirectToAuthorization("http://example.com/authorize")

	go func() {
		time.Sleep(10 * time.Millisecond)
		resp, err := http.Get(s.redirectURL() + "?code=abc123&state=wrong")
		if err == nil {
			resp.Body.Close()
		}
	}()

	_, err = s.WaitForAuthorizationCode(context.Background())
	assert.Error(t, err)
}

func TestSessionCloseIsIdempotentAndRejectsPending(t *testing.T) {
	s := newTestSession(t, "http://127.0.0.1:1")
	s.RedirectToAuthorization("http://example.com/authorize")

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	_, err := s.WaitForAuthorizationCode(context.Background())
	assert.Error(t, err)
}

func TestEnsureClientRegistrationRegistersOnce(t *testing.T) {
	registrations := 0
	mux := http.NewServeMux()
	as := httptest.NewServer(mux)
	defer as.Close()

	mux.HandleFunc("/register", func(w http.ResponseWriter, r *http.Request) {
		registrations++
		w.Write([]byte(`{"client_id":"new-client"}`))
	})
	mux.HandleFunc("/.well-known/oauth-authorization-server", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"issuer":"x","authorization_endpoint":"x/authorize","token_endpoint":"x/token","registration_endpoint":"%s/register"}`, as.URL)
	})

	s := newTestSession(t, as.URL)
	info, err := s.EnsureClientRegistration(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "new-client", info.ClientID)

	again, err := s.EnsureClientRegistration(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "new-client", again.ClientID)
	assert.Equal(t, 1, registrations)
}
