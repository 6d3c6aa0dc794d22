package oauthflow

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mcporter/pkg/oauth"
)

func TestResolveOAuthScopeTotal(t *testing.T) {
	assert.Equal(t, scopeMCPTools, resolveOAuthScope([]string{"mcp:connect", "mcp:tools"}, nil, "fallback"))
	assert.Equal(t, scopeMCPConnect, resolveOAuthScope([]string{"mcp:connect"}, nil, "fallback"))
	assert.Equal(t, "custom", resolveOAuthScope(nil, []string{"custom"}, "fallback"))
	assert.Equal(t, "fallback", resolveOAuthScope(nil, nil, "fallback"))
}

func TestDiscoverUsesProtectedResourceAuthServer(t *testing.T) {
	as := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"issuer":"https://as.example","authorization_endpoint":"https://as.example/authorize","token_endpoint":"https://as.example/token","scopes_supported":["mcp:tools"]}`))
	}))
	defer as.Close()

	resource := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/.well-known/oauth-protected-resource" {
			w.Write([]byte(`{"resource":"res","authorization_servers":["` + as.URL + `"]}`))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer resource.Close()

	client := oauth.NewClient()
	result := Discover(context.Background(), client, resource.URL)
	require.NotNil(t, result)
	assert.Equal(t, as.URL, result.AuthorizationServer)
	assert.Equal(t, "mcp:tools", result.Scope)
	require.NotNil(t, result.Metadata)
	assert.Equal(t, "https://as.example/token", result.Metadata.TokenEndpoint)
}

func TestDiscoverDegradesOnFailure(t *testing.T) {
	client := oauth.NewClient()
	result := Discover(context.Background(), client, "http://127.0.0.1:0")
	require.NotNil(t, result)
	assert.NotEmpty(t, result.Scope)
	assert.Nil(t, result.Metadata)
}
