package authfetch

import (
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInjectsBearerOnRegisterPath(t *testing.T) {
	os.Setenv(envToken, "secret-token")
	defer os.Unsetenv(envToken)
	os.Unsetenv(envHeader)

	var seenAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := &http.Client{Transport: New(nil)}
	resp, err := client.Post(server.URL+"/register", "application/json", strings.NewReader(`{"client_name":"x"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "Bearer secret-token", seenAuth)
}

func TestPassesThroughNonRegisterRequests(t *testing.T) {
	os.Setenv(envToken, "secret-token")
	defer os.Unsetenv(envToken)

	var seenAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := &http.Client{Transport: New(nil)}
	resp, err := client.Get(server.URL + "/mcp")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Empty(t, seenAuth)
}

func TestCustomHeaderName(t *testing.T) {
	os.Setenv(envHeader, "X-Registration-Token")
	os.Setenv(envToken, "raw-token")
	defer os.Unsetenv(envHeader)
	defer os.Unsetenv(envToken)

	var seen string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Get("X-Registration-Token")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := &http.Client{Transport: New(nil)}
	resp, err := client.Post(server.URL+"/register", "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "raw-token", seen)
}
