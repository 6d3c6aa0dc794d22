package formatting

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"mcporter/internal/runtime"
)

// YAMLFormatter provides YAML output formatting
type YAMLFormatter struct {
	options Options
}

// NewYAMLFormatter creates a new YAML formatter
func NewYAMLFormatter(options Options) Formatter {
	return &YAMLFormatter{
		options: options,
	}
}

// FormatToolsList formats tools list as YAML
func (f *YAMLFormatter) FormatToolsList(tools []runtime.ToolInfo) string {
	return f.marshal(tools)
}

// FormatToolDetail formats detailed tool information as YAML
func (f *YAMLFormatter) FormatToolDetail(tool runtime.ToolInfo) string {
	return f.marshal(tool)
}

// FormatData formats generic data as YAML (non-MCP specific)
func (f *YAMLFormatter) FormatData(data interface{}) error {
	fmt.Print(f.marshal(data))
	return nil
}

// FindTool finds a tool by name in the cache
func (f *YAMLFormatter) FindTool(tools []runtime.ToolInfo, name string) *runtime.ToolInfo {
	for _, tool := range tools {
		if tool.Name == name {
			return &tool
		}
	}
	return nil
}

// SetOptions updates the formatter options
func (f *YAMLFormatter) SetOptions(options Options) {
	f.options = options
}

// GetOptions returns the current formatter options
func (f *YAMLFormatter) GetOptions() Options {
	return f.options
}

// marshal converts data to YAML string
func (f *YAMLFormatter) marshal(data interface{}) string {
	yamlBytes, err := yaml.Marshal(data)
	if err != nil {
		return fmt.Sprintf("error: \"Failed to format YAML: %v\"\n", err)
	}

	return string(yamlBytes)
}
