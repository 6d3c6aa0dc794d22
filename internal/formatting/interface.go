// Package formatting renders tool lists and tool call results for the CLI
// in one of several output formats (console, JSON, YAML, table).
package formatting

import "mcporter/internal/runtime"

// OutputFormat represents the desired output format
type OutputFormat string

const (
	FormatConsole OutputFormat = "console" // Simple console output
	FormatJSON    OutputFormat = "json"    // JSON output
	FormatYAML    OutputFormat = "yaml"    // YAML output
	FormatTable   OutputFormat = "table"   // Rich table output
)

// Options configures the formatter behavior
type Options struct {
	Format OutputFormat
	Quiet  bool // Suppress decorative elements
	Color  bool // Enable colored output
}

// Formatter renders the Runtime's tool listings and call results.
type Formatter interface {
	// FormatToolsList renders the tools exposed by one server.
	FormatToolsList(tools []runtime.ToolInfo) string
	// FormatToolDetail renders one tool's full schema.
	FormatToolDetail(tool runtime.ToolInfo) string
	// FindTool looks a tool up by name within a previously fetched list.
	FindTool(tools []runtime.ToolInfo, name string) *runtime.ToolInfo

	// FormatData renders a callTool result (already `pick`-projected, if
	// applicable) or any other generic payload.
	FormatData(data interface{}) error

	// Configuration
	SetOptions(options Options)
	GetOptions() Options
}

// Factory creates formatters for different output formats
type Factory interface {
	CreateFormatter(options Options) Formatter
}

// NewFactory creates a new formatter factory
func NewFactory() Factory {
	return &factory{}
}

// factory implements the Factory interface
type factory struct{}

// CreateFormatter creates the appropriate formatter based on options
func (f *factory) CreateFormatter(options Options) Formatter {
	switch options.Format {
	case FormatJSON:
		return NewJSONFormatter(options)
	case FormatYAML:
		return NewYAMLFormatter(options)
	case FormatTable:
		return NewTableFormatter(options)
	case FormatConsole:
		fallthrough
	default:
		return NewConsoleFormatter(options)
	}
}
