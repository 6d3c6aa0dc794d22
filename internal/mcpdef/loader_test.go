package mcpdef

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStdioAndHTTP(t *testing.T) {
	doc := []byte(`
mcpServers:
  echo:
    command: node
    args: ["echo.js"]
  remote:
    url: https://example.com/mcp
    headers:
      Authorization: "Bearer $env:TOKEN"
    token_cache_dir: /tmp/cache
    allowed_tools: ["a", "b"]
    resultMapping:
      getUser:
        pick: ["id", "profile.email"]
    lifecycle:
      mode: ephemeral
`)
	defs, err := Parse(doc)
	require.NoError(t, err)
	require.Len(t, defs, 2)

	echo := defs[0]
	assert.Equal(t, "echo", echo.Name)
	assert.Equal(t, CommandStdio, echo.Command.Kind)
	require.NotNil(t, echo.Command.Stdio)
	assert.Equal(t, "node", echo.Command.Stdio.Exe)
	assert.Equal(t, LifecycleKeepAlive, echo.Lifecycle.Mode)

	remote := defs[1]
	assert.Equal(t, CommandHTTP, remote.Command.Kind)
	require.NotNil(t, remote.Command.HTTP)
	assert.Equal(t, "https://example.com/mcp", remote.Command.HTTP.URL)
	assert.Equal(t, "/tmp/cache", remote.TokenCacheDir)
	assert.Equal(t, []string{"a", "b"}, remote.AllowedTools)
	assert.Equal(t, []string{"id", "profile.email"}, remote.ResultMapping["getUser"].Pick)
	assert.Equal(t, LifecycleEphemeral, remote.Lifecycle.Mode)
}

func TestParseRejectsEntryWithoutURLOrCommand(t *testing.T) {
	doc := []byte(`
mcpServers:
  broken:
    description: nothing here
`)
	_, err := Parse(doc)
	assert.Error(t, err)
}

func TestAllowTool(t *testing.T) {
	d := ServerDefinition{AllowedTools: []string{"x"}}
	assert.True(t, d.AllowTool("x"))
	assert.False(t, d.AllowTool("y"))

	d2 := ServerDefinition{BlockedTools: []string{"y"}}
	assert.True(t, d2.AllowTool("x"))
	assert.False(t, d2.AllowTool("y"))
}

func TestPromoted(t *testing.T) {
	d := ServerDefinition{Name: "x"}
	p := d.Promoted()
	assert.Empty(t, d.Auth)
	assert.Equal(t, "oauth", p.Auth)
}

func TestAdhocSource(t *testing.T) {
	d := Adhoc("x", Command{Kind: CommandHTTP, HTTP: &HTTPCommand{URL: "https://x"}})
	assert.True(t, d.Source.IsAdhoc())
}
