package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/spf13/cobra"

	"mcporter/internal/formatting"
	"mcporter/internal/runtime"
)

var (
	callFormat string
	callArgs   []string
)

func newCallCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "call <server> <tool>",
		Short: "Call a tool on an MCP server",
		Args:  cobra.ExactArgs(2),
		RunE:  runCall,
	}
	registerConfigFlags(c.Flags())
	c.Flags().StringVarP(&callFormat, "format", "f", "console", "output format: console, table, json, yaml")
	c.Flags().StringArrayVar(&callArgs, "arg", nil, "tool argument as name=value (value parsed as JSON when possible); repeatable")
	return c
}

func runCall(cmd *cobra.Command, args []string) error {
	store, err := newStore()
	if err != nil {
		return err
	}
	rt, err := newRuntime(store)
	if err != nil {
		return err
	}
	defer rt.Close("")

	name, err := resolveServer(rt, args[0])
	if err != nil {
		return err
	}
	toolName := args[1]

	toolArgs, err := parseCallArgs(callArgs)
	if err != nil {
		return err
	}

	result, err := rt.CallTool(cmd.Context(), name, toolName, runtime.CallOptions{Args: toolArgs})
	if err != nil {
		return fmt.Errorf("calling %s on %s: %w", toolName, name, err)
	}

	formatter := formatting.NewFactory().CreateFormatter(formatting.Options{
		Format: formatting.OutputFormat(callFormat),
	})
	return formatter.FormatData(renderableResult(result))
}

// renderableResult unwraps an unmapped *mcp.CallToolResult into plain text
// (or an error string) so the formatters never have to special-case the SDK
// type. Projected results (from a configured `pick`) already arrive as
// plain maps/slices and pass through unchanged.
func renderableResult(result interface{}) interface{} {
	callResult, ok := result.(*mcp.CallToolResult)
	if !ok {
		return result
	}

	var parts []string
	for _, content := range callResult.Content {
		if text, ok := mcp.AsTextContent(content); ok {
			parts = append(parts, text.Text)
		}
	}
	text := strings.Join(parts, "\n")

	if callResult.IsError {
		return fmt.Sprintf("error: %s", text)
	}
	return text
}

// parseCallArgs turns repeated --arg name=value flags into a tool argument
// map. Each value is tried as JSON first (so numbers, booleans, arrays and
// objects round-trip) and falls back to the raw string otherwise.
func parseCallArgs(raw []string) (map[string]interface{}, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make(map[string]interface{}, len(raw))
	for _, entry := range raw {
		key, value, ok := strings.Cut(entry, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --arg %q: expected name=value", entry)
		}
		var decoded interface{}
		if err := json.Unmarshal([]byte(value), &decoded); err == nil {
			out[key] = decoded
		} else {
			out[key] = value
		}
	}
	return out, nil
}
