package runtime

import (
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectNestedScalarPaths(t *testing.T) {
	value := map[string]interface{}{
		"id": float64(1),
		"profile": map[string]interface{}{
			"email": "a@example.com",
			"location": map[string]interface{}{
				"city":    "Berlin",
				"country": "DE",
			},
			"extra": "dropped",
		},
	}

	got := project(value, []string{"id", "profile.email", "profile.location.city"})

	assert.Equal(t, map[string]interface{}{
		"id": float64(1),
		"profile": map[string]interface{}{
			"email": "a@example.com",
			"location": map[string]interface{}{
				"city": "Berlin",
			},
		},
	}, got)
}

func TestProjectAbsentKeyProducesNoEntry(t *testing.T) {
	value := map[string]interface{}{"id": float64(1)}
	got := project(value, []string{"id", "missing"})
	assert.Equal(t, map[string]interface{}{"id": float64(1)}, got)
}

func TestProjectArrayShapePreservedAndMerged(t *testing.T) {
	value := map[string]interface{}{
		"items": []interface{}{
			map[string]interface{}{"id": float64(1), "name": "a"},
			map[string]interface{}{"id": float64(2), "name": "b"},
		},
	}

	got := project(value, []string{"items.id", "items.name"})

	assert.Equal(t, map[string]interface{}{
		"items": []interface{}{
			map[string]interface{}{"id": float64(1), "name": "a"},
			map[string]interface{}{"id": float64(2), "name": "b"},
		},
	}, got)
}

func TestProjectArrayElementMissingKeyKeepsSlot(t *testing.T) {
	value := map[string]interface{}{
		"items": []interface{}{
			map[string]interface{}{"name": "a"},
			map[string]interface{}{},
		},
	}

	got := project(value, []string{"items.name"})

	assert.Equal(t, map[string]interface{}{
		"items": []interface{}{
			map[string]interface{}{"name": "a"},
			map[string]interface{}{},
		},
	}, got)
}

func TestExtractJSONFromTextContent(t *testing.T) {
	result := &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: `{"id": 7}`},
		},
	}

	decoded, err := extractJSON(result)
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"id": float64(7)}, decoded)
}

func TestExtractJSONNonJSONTextYieldsNil(t *testing.T) {
	result := &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: "plain text, not json"},
		},
	}

	decoded, err := extractJSON(result)
	require.NoError(t, err)
	assert.Nil(t, decoded)
}
