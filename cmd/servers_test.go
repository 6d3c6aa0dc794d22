package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mcporter/internal/mcpdef"
)

func TestIsURLRecognizesHTTPAndHTTPS(t *testing.T) {
	assert.True(t, isURL("https://example.com/mcp"))
	assert.True(t, isURL("http://localhost:8080"))
	assert.False(t, isURL("npx"))
	assert.False(t, isURL(""))
}

func TestParseKeyValueFlags(t *testing.T) {
	out, err := parseKeyValueFlags([]string{"X-Api-Key=secret", "Accept=application/json"})
	require.NoError(t, err)
	assert.Equal(t, "secret", out["X-Api-Key"])
	assert.Equal(t, "application/json", out["Accept"])
}

func TestParseKeyValueFlagsRejectsMissingEquals(t *testing.T) {
	_, err := parseKeyValueFlags([]string{"no-equals-here"})
	assert.Error(t, err)
}

func TestParseKeyValueFlagsEmptyReturnsNil(t *testing.T) {
	out, err := parseKeyValueFlags(nil)
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestDescribeCommandHTTP(t *testing.T) {
	def := mcpdef.ServerDefinition{
		Command: mcpdef.Command{Kind: mcpdef.CommandHTTP, HTTP: &mcpdef.HTTPCommand{URL: "https://example.com/mcp"}},
	}
	assert.Equal(t, "https://example.com/mcp", describeCommand(def))
}

func TestDescribeCommandHTTPOAuthSuffix(t *testing.T) {
	def := mcpdef.ServerDefinition{
		Auth:    "oauth",
		Command: mcpdef.Command{Kind: mcpdef.CommandHTTP, HTTP: &mcpdef.HTTPCommand{URL: "https://example.com/mcp"}},
	}
	assert.Equal(t, "https://example.com/mcp (oauth)", describeCommand(def))
}

func TestDescribeCommandStdio(t *testing.T) {
	def := mcpdef.ServerDefinition{
		Command: mcpdef.Command{Kind: mcpdef.CommandStdio, Stdio: &mcpdef.StdioCommand{Exe: "npx", Args: []string{"-y", "server"}}},
	}
	assert.Equal(t, "npx [-y server]", describeCommand(def))
}
