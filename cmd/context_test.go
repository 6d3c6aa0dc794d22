package cmd

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mcporter/internal/client"
	"mcporter/internal/mcpdef"
	"mcporter/internal/runtime"
)

func TestEnvDurationFallsBackToDefault(t *testing.T) {
	t.Setenv("MCPORTER_TEST_TIMEOUT", "")
	assert.Equal(t, 30*time.Second, envDuration("MCPORTER_TEST_TIMEOUT", "", 30*time.Second))
}

func TestEnvDurationParsesMilliseconds(t *testing.T) {
	t.Setenv("MCPORTER_TEST_TIMEOUT", "1500")
	assert.Equal(t, 1500*time.Millisecond, envDuration("MCPORTER_TEST_TIMEOUT", "", 30*time.Second))
}

func TestEnvDurationFallsBackToAlias(t *testing.T) {
	t.Setenv("MCPORTER_TEST_TIMEOUT_MS", "")
	t.Setenv("MCPORTER_TEST_TIMEOUT", "2000")
	assert.Equal(t, 2*time.Second, envDuration("MCPORTER_TEST_TIMEOUT_MS", "MCPORTER_TEST_TIMEOUT", 30*time.Second))
}

func TestEnvDurationIgnoresGarbage(t *testing.T) {
	t.Setenv("MCPORTER_TEST_TIMEOUT", "not-a-number")
	assert.Equal(t, 30*time.Second, envDuration("MCPORTER_TEST_TIMEOUT", "", 30*time.Second))
}

func TestResolveServerFindsRegisteredDefinition(t *testing.T) {
	rt := runtime.New(client.BuildOptions{})
	rt.RegisterDefinition(mcpdef.ServerDefinition{Name: "weather"}, true)

	name, err := resolveServer(rt, "weather")
	require.NoError(t, err)
	assert.Equal(t, "weather", name)
}

func TestResolveServerBuildsAdhocFromURL(t *testing.T) {
	rt := runtime.New(client.BuildOptions{})

	name, err := resolveServer(rt, "https://example.com/mcp")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/mcp", name)

	def, ok := rt.GetDefinition("https://example.com/mcp")
	require.True(t, ok)
	assert.True(t, def.Source.IsAdhoc())
}

func TestResolveServerRejectsUnknownName(t *testing.T) {
	rt := runtime.New(client.BuildOptions{})
	_, err := resolveServer(rt, "nope")
	assert.Error(t, err)
}
