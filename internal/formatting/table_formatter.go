package formatting

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"mcporter/internal/runtime"
)

// TableFormatter provides rich table output formatting
type TableFormatter struct {
	options Options
}

// NewTableFormatter creates a new table formatter
func NewTableFormatter(options Options) Formatter {
	return &TableFormatter{
		options: options,
	}
}

// FormatToolsList formats tools list as a table
func (f *TableFormatter) FormatToolsList(tools []runtime.ToolInfo) string {
	if len(tools) == 0 {
		return f.formatEmptyMessage("📋", "No tools found")
	}

	t := f.createTable()

	headers := []interface{}{
		text.FgHiCyan.Sprint("NAME"),
		text.FgHiCyan.Sprint("DESCRIPTION"),
	}
	t.AppendHeader(headers)

	for _, tool := range tools {
		row := []interface{}{
			text.FgHiCyan.Sprint(tool.Name),
			f.formatDescription(tool.Description),
		}
		t.AppendRow(row)
	}

	var result strings.Builder
	t.SetOutputMirror(&result)
	t.Render()

	result.WriteString(fmt.Sprintf("\n🔧 %s %s %s\n",
		text.FgHiBlue.Sprint("Total:"),
		text.FgHiWhite.Sprint(len(tools)),
		text.FgHiBlue.Sprint("tools")))

	return result.String()
}

// FormatToolDetail formats detailed tool information
func (f *TableFormatter) FormatToolDetail(tool runtime.ToolInfo) string {
	t := f.createTable()

	headers := []interface{}{
		text.FgHiCyan.Sprint("FIELD"),
		text.FgHiCyan.Sprint("VALUE"),
	}
	t.AppendHeader(headers)

	t.AppendRow([]interface{}{"Name", text.FgHiCyan.Sprint(tool.Name)})
	t.AppendRow([]interface{}{"Description", tool.Description})

	if tool.InputSchema != nil {
		schemaBytes, _ := json.MarshalIndent(tool.InputSchema, "", "  ")
		t.AppendRow([]interface{}{"Input Schema", string(schemaBytes)})
	}

	var result strings.Builder
	t.SetOutputMirror(&result)
	t.Render()

	return result.String()
}

// FormatData formats generic data using table logic from CLI
func (f *TableFormatter) FormatData(data interface{}) error {
	switch d := data.(type) {
	case map[string]interface{}:
		return f.formatObjectData(d)
	case []interface{}:
		return f.formatArrayData(d)
	case string:
		fmt.Println(d)
	default:
		fmt.Printf("%v\n", d)
	}
	return nil
}

// FindTool finds a tool by name in the cache
func (f *TableFormatter) FindTool(tools []runtime.ToolInfo, name string) *runtime.ToolInfo {
	for _, tool := range tools {
		if tool.Name == name {
			return &tool
		}
	}
	return nil
}

// SetOptions updates the formatter options
func (f *TableFormatter) SetOptions(options Options) {
	f.options = options
}

// GetOptions returns the current formatter options
func (f *TableFormatter) GetOptions() Options {
	return f.options
}

// createTable creates a new table with standard styling
func (f *TableFormatter) createTable() table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleRounded)
	return t
}

// formatDescription truncates long descriptions
func (f *TableFormatter) formatDescription(desc string) string {
	if len(desc) > 50 {
		return desc[:47] + text.FgHiBlack.Sprint("...")
	}
	return desc
}

// formatEmptyMessage formats empty result messages
func (f *TableFormatter) formatEmptyMessage(icon, message string) string {
	return fmt.Sprintf("%s %s\n", text.FgYellow.Sprint(icon), text.FgYellow.Sprint(message))
}

// formatObjectData formats object data as key-value pairs
func (f *TableFormatter) formatObjectData(data map[string]interface{}) error {
	t := f.createTable()

	headers := []interface{}{
		text.FgHiCyan.Sprint("KEY"),
		text.FgHiCyan.Sprint("VALUE"),
	}
	t.AppendHeader(headers)

	for key, value := range data {
		valueStr := fmt.Sprintf("%v", value)
		if len(valueStr) > 100 {
			valueStr = valueStr[:97] + "..."
		}

		t.AppendRow([]interface{}{
			text.FgHiCyan.Sprint(key),
			valueStr,
		})
	}

	t.Render()
	return nil
}

// formatArrayData formats array data as a simple table
func (f *TableFormatter) formatArrayData(data []interface{}) error {
	if len(data) == 0 {
		fmt.Printf("%s %s\n", text.FgYellow.Sprint("📋"), text.FgYellow.Sprint("No items found"))
		return nil
	}

	for i, item := range data {
		fmt.Printf("  %d. %v\n", i+1, item)
	}

	fmt.Printf("\n%s %s %s\n",
		text.FgHiBlue.Sprint("Total:"),
		text.FgHiWhite.Sprint(len(data)),
		text.FgHiBlue.Sprint("items"))

	return nil
}
