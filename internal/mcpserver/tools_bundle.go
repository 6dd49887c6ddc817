package mcpserver

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/oasfold/oasfold/aggregator"
	"github.com/oasfold/oasfold/bundler"
	"github.com/oasfold/oasfold/loader"
)

type bundleInput struct {
	File   string `json:"file"             jsonschema:"Path to the entry OAS file on disk"`
	Output string `json:"output,omitempty" jsonschema:"File path to write the bundled document. If omitted the result is returned inline."`
	Format string `json:"format,omitempty" jsonschema:"Output format: yaml or json. Defaults to the entry document's format."`
}

type bundleOutput struct {
	Title       string `json:"title"`
	Version     string `json:"version"`
	OpenAPI     string `json:"openapi"`
	PathCount   int    `json:"path_count"`
	SchemaCount int    `json:"schema_count"`
	WrittenTo   string `json:"written_to,omitempty"`
	Document    string `json:"document,omitempty"`
	Summary     string `json:"summary"`
}

func handleBundle(ctx context.Context, _ *mcp.CallToolRequest, input bundleInput) (*mcp.CallToolResult, bundleOutput, error) {
	if input.File == "" {
		return errResult(fmt.Errorf("file is required")), bundleOutput{}, nil
	}
	format, err := parseFormat(input.Format)
	if err != nil {
		return errResult(err), bundleOutput{}, nil
	}

	ld := loader.New(loader.NewCache())
	doc, err := bundler.New(ld).Bundle(ctx, input.File)
	if err != nil {
		return errResult(err), bundleOutput{}, nil
	}

	if format == "" {
		format = doc.Format
	}
	data, err := aggregator.Render(&aggregator.Result{Document: doc.Root}, format)
	if err != nil {
		return errResult(err), bundleOutput{}, nil
	}

	output := bundleOutput{
		Title:       doc.Title,
		Version:     doc.Version,
		OpenAPI:     doc.OpenAPI,
		PathCount:   countPaths(doc.Root),
		SchemaCount: countSchemas(doc.Root),
	}
	output.Summary = fmt.Sprintf("Bundled %s into a self-contained document with %s and %s.",
		doc.Title, formatCount(output.PathCount, "path"), formatCount(output.SchemaCount, "schema"))

	if input.Output != "" {
		cleanPath := filepath.Clean(input.Output)
		if err := os.WriteFile(cleanPath, data, 0o600); err != nil {
			return errResult(fmt.Errorf("failed to write output file: %w", err)), bundleOutput{}, nil
		}
		output.WrittenTo = cleanPath
	} else {
		output.Document = string(data)
	}

	return nil, output, nil
}

func parseFormat(s string) (loader.SourceFormat, error) {
	switch s {
	case "":
		return "", nil
	case "yaml":
		return loader.SourceFormatYAML, nil
	case "json":
		return loader.SourceFormatJSON, nil
	default:
		return "", fmt.Errorf("invalid format: %q; valid values: yaml, json", s)
	}
}
