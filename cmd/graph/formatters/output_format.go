package formatters

import "strings"

// OutputFormat represents an output format type
type OutputFormat string

const (
	OutputFormatDOT     OutputFormat = "dot"
	OutputFormatJSON    OutputFormat = "json"
	OutputFormatMermaid OutputFormat = "mermaid"
)

var outputFormats = []OutputFormat{OutputFormatJSON, OutputFormatDOT, OutputFormatMermaid}

// String returns the string representation of the format
func (f OutputFormat) String() string {
	return string(f)
}

// ParseOutputFormat maps a user-supplied name to a format.
func ParseOutputFormat(name string) (OutputFormat, bool) {
	for _, f := range outputFormats {
		if strings.EqualFold(name, string(f)) {
			return f, true
		}
	}
	return "", false
}

// SupportedFormats lists the accepted format names.
func SupportedFormats() string {
	names := make([]string, len(outputFormats))
	for i, f := range outputFormats {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}
