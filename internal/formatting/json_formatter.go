package formatting

import (
	"encoding/json"
	"fmt"

	"mcporter/internal/runtime"
)

// JSONFormatter provides structured JSON output formatting
type JSONFormatter struct {
	options Options
}

// NewJSONFormatter creates a new JSON formatter
func NewJSONFormatter(options Options) Formatter {
	return &JSONFormatter{
		options: options,
	}
}

// FormatToolsList formats tools list as JSON
func (f *JSONFormatter) FormatToolsList(tools []runtime.ToolInfo) string {
	return f.marshal(tools)
}

// FormatToolDetail formats detailed tool information as JSON
func (f *JSONFormatter) FormatToolDetail(tool runtime.ToolInfo) string {
	return f.marshal(tool)
}

// FormatData formats generic data as JSON (non-MCP specific)
func (f *JSONFormatter) FormatData(data interface{}) error {
	fmt.Println(f.marshal(data))
	return nil
}

// FindTool finds a tool by name in the cache
func (f *JSONFormatter) FindTool(tools []runtime.ToolInfo, name string) *runtime.ToolInfo {
	for _, tool := range tools {
		if tool.Name == name {
			return &tool
		}
	}
	return nil
}

// SetOptions updates the formatter options
func (f *JSONFormatter) SetOptions(options Options) {
	f.options = options
}

// GetOptions returns the current formatter options
func (f *JSONFormatter) GetOptions() Options {
	return f.options
}

// marshal converts data to JSON string with appropriate formatting
func (f *JSONFormatter) marshal(data interface{}) string {
	var jsonBytes []byte
	var err error

	if f.options.Quiet {
		// Compact JSON for quiet mode
		jsonBytes, err = json.Marshal(data)
	} else {
		// Use consolidated PrettyJSON for normal mode
		return PrettyJSON(data)
	}

	if err != nil {
		return fmt.Sprintf(`{"error": "Failed to format JSON: %v"}`, err)
	}

	return string(jsonBytes)
}
