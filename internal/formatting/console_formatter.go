package formatting

import (
	"encoding/json"
	"fmt"
	"strings"

	"mcporter/internal/runtime"
)

// ConsoleFormatter provides simple console output formatting
type ConsoleFormatter struct {
	options Options
}

// NewConsoleFormatter creates a new console formatter
func NewConsoleFormatter(options Options) Formatter {
	return &ConsoleFormatter{
		options: options,
	}
}

// FormatToolsList formats tools list for console output
func (f *ConsoleFormatter) FormatToolsList(tools []runtime.ToolInfo) string {
	if len(tools) == 0 {
		return "No tools available."
	}

	var output []string
	output = append(output, fmt.Sprintf("Available tools (%d):", len(tools)))
	for i, tool := range tools {
		output = append(output, fmt.Sprintf("  %d. %-30s - %s", i+1, tool.Name, tool.Description))
	}
	return strings.Join(output, "\n")
}

// FormatToolDetail formats detailed tool information
func (f *ConsoleFormatter) FormatToolDetail(tool runtime.ToolInfo) string {
	var output []string
	output = append(output, fmt.Sprintf("Tool: %s", tool.Name))
	output = append(output, fmt.Sprintf("Description: %s", tool.Description))
	if tool.InputSchema != nil {
		output = append(output, "Input Schema:")
		output = append(output, f.prettyJSON(tool.InputSchema))
	}
	return strings.Join(output, "\n")
}

// FormatData formats generic data (fallback to simple text representation)
func (f *ConsoleFormatter) FormatData(data interface{}) error {
	switch d := data.(type) {
	case map[string]interface{}:
		fmt.Println(f.prettyJSON(d))
	case []interface{}:
		fmt.Println(f.prettyJSON(d))
	case string:
		fmt.Println(d)
	default:
		fmt.Printf("%v\n", d)
	}
	return nil
}

// FindTool finds a tool by name in the cache
func (f *ConsoleFormatter) FindTool(tools []runtime.ToolInfo, name string) *runtime.ToolInfo {
	for _, tool := range tools {
		if tool.Name == name {
			return &tool
		}
	}
	return nil
}

// SetOptions updates the formatter options
func (f *ConsoleFormatter) SetOptions(options Options) {
	f.options = options
}

// GetOptions returns the current formatter options
func (f *ConsoleFormatter) GetOptions() Options {
	return f.options
}

// prettyJSON formats JSON data with indentation
func (f *ConsoleFormatter) prettyJSON(v interface{}) string {
	jsonBytes, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("Error formatting JSON: %v", err)
	}
	return string(jsonBytes)
}
