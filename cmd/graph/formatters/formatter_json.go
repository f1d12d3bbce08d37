package formatters

import (
	"encoding/json"

	"github.com/LegacyCodeHQ/workgraph/projectgraph"
)

// JSONFormatter formats project graphs as JSON.
type JSONFormatter struct{}

// Format converts the project graph to indented JSON. Map keys are emitted in
// sorted order, so output is stable. Label is not used.
func (f *JSONFormatter) Format(g *projectgraph.ProjectGraph, _ RenderOptions) (string, error) {
	data, err := json.MarshalIndent(g, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// GenerateURL returns false as JSON format does not support URL generation.
func (f *JSONFormatter) GenerateURL(string) (string, bool) {
	return "", false
}
