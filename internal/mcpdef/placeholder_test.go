package mcpdef

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePlaceholders(t *testing.T) {
	os.Setenv("MCPDEF_TEST_VAR", "hello")
	defer os.Unsetenv("MCPDEF_TEST_VAR")
	os.Unsetenv("MCPDEF_TEST_MISSING")

	cases := []struct {
		in   string
		want string
	}{
		{"$MCPDEF_TEST_VAR", "hello"},
		{"$env:MCPDEF_TEST_VAR", "hello"},
		{"${MCPDEF_TEST_VAR:-fallback}", "hello"},
		{"${MCPDEF_TEST_MISSING:-fallback}", "fallback"},
		{"Bearer $MCPDEF_TEST_VAR", "Bearer hello"},
		{"no placeholders here", "no placeholders here"},
	}
	for _, c := range cases {
		got, err := ResolvePlaceholders(c.in)
		require.NoError(t, err, c.in)
		assert.Equal(t, c.want, got, c.in)
	}
}

func TestResolvePlaceholdersMalformed(t *testing.T) {
	_, err := ResolvePlaceholders("${UNTERMINATED")
	assert.Error(t, err)
}

func TestResolveMap(t *testing.T) {
	os.Setenv("MCPDEF_TEST_VAR", "v")
	defer os.Unsetenv("MCPDEF_TEST_VAR")
	out, err := ResolveMap(map[string]string{"k": "$MCPDEF_TEST_VAR"})
	require.NoError(t, err)
	assert.Equal(t, "v", out["k"])
}
