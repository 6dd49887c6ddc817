package aggregator

import (
	"encoding/json"
	"fmt"
	"os"

	"go.yaml.in/yaml/v4"

	"github.com/oasfold/oasfold/loader"
	"github.com/oasfold/oasfold/oaserrors"
)

// Render serializes the aggregate document. An empty format renders YAML.
func Render(result *Result, format loader.SourceFormat) ([]byte, error) {
	switch format {
	case loader.SourceFormatJSON:
		data, err := json.MarshalIndent(result.Document, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encoding aggregate as JSON: %w", err)
		}
		return append(data, '\n'), nil
	case loader.SourceFormatYAML, "":
		data, err := yaml.Marshal(result.Document)
		if err != nil {
			return nil, fmt.Errorf("encoding aggregate as YAML: %w", err)
		}
		return data, nil
	default:
		return nil, &oaserrors.ConfigError{
			Option:  "format",
			Value:   string(format),
			Message: "unsupported output format",
		}
	}
}

// WriteResult renders the aggregate document and writes it to path. An
// empty format follows the result's output format.
func WriteResult(result *Result, path string, format loader.SourceFormat) error {
	if format == "" {
		format = result.Format
	}
	data, err := Render(result, format)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing aggregate to %s: %w", path, err)
	}
	return nil
}
