package cmd

import (
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCallArgsDecodesJSONValues(t *testing.T) {
	out, err := parseCallArgs([]string{"count=3", "enabled=true", "name=plain text", `tags=["a","b"]`})
	require.NoError(t, err)
	assert.Equal(t, float64(3), out["count"])
	assert.Equal(t, true, out["enabled"])
	assert.Equal(t, "plain text", out["name"])
	assert.Equal(t, []interface{}{"a", "b"}, out["tags"])
}

func TestParseCallArgsRejectsMissingEquals(t *testing.T) {
	_, err := parseCallArgs([]string{"justakey"})
	assert.Error(t, err)
}

func TestParseCallArgsEmptyInputReturnsNil(t *testing.T) {
	out, err := parseCallArgs(nil)
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestRenderableResultJoinsTextContent(t *testing.T) {
	result := &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: "line one"},
			mcp.TextContent{Type: "text", Text: "line two"},
		},
	}
	assert.Equal(t, "line one\nline two", renderableResult(result))
}

func TestRenderableResultPrefixesErrors(t *testing.T) {
	result := &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: "not found"}},
	}
	assert.Equal(t, "error: not found", renderableResult(result))
}

func TestRenderableResultPassesThroughProjectedValues(t *testing.T) {
	projected := map[string]interface{}{"id": "1"}
	assert.Equal(t, projected, renderableResult(projected))
}
