package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mcporter/internal/mcpdef"
)

func TestStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(filepath.Join(dir, "servers.yaml"))

	defs, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, defs)

	def := mcpdef.ServerDefinition{
		Name:      "echo",
		Command:   mcpdef.Command{Kind: mcpdef.CommandStdio, Stdio: &mcpdef.StdioCommand{Exe: "node", Args: []string{"echo.js"}}},
		Lifecycle: mcpdef.Lifecycle{Mode: mcpdef.LifecycleKeepAlive},
	}
	require.NoError(t, store.Add(def, false))

	loaded, err := store.Load()
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "echo", loaded[0].Name)
	assert.Equal(t, "node", loaded[0].Command.Stdio.Exe)

	err = store.Add(def, false)
	assert.Error(t, err)

	require.NoError(t, store.Remove("echo"))
	loaded, err = store.Load()
	require.NoError(t, err)
	assert.Empty(t, loaded)

	assert.Error(t, store.Remove("echo"))
}
