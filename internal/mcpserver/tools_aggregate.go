package mcpserver

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/oasfold/oasfold/aggregator"
)

type aggregateInput struct {
	Specs   []string `json:"specs"             jsonschema:"Paths of the OAS files to aggregate, in priority order (minimum 2). Earlier specs win conflicts."`
	Title   string   `json:"title,omitempty"   jsonschema:"Title for the aggregate document. Defaults to the first spec's title."`
	Version string   `json:"version,omitempty" jsonschema:"Version for the aggregate document. Defaults to the first spec's version."`
	Output  string   `json:"output,omitempty"  jsonschema:"File path to write the aggregate document. If omitted the result is returned inline."`
	Format  string   `json:"format,omitempty"  jsonschema:"Output format: yaml or json. Defaults to the first spec's format."`
}

type aggregateWarning struct {
	Category string `json:"category"`
	Message  string `json:"message"`
	Source   string `json:"source,omitempty"`
}

type failedSpec struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

type aggregateOutput struct {
	SpecCount        int                `json:"spec_count"`
	Title            string             `json:"title"`
	PathCount        int                `json:"path_count"`
	SchemaCount      int                `json:"schema_count"`
	MergedOperations int                `json:"merged_operations"`
	SchemaRenames    int                `json:"schema_renames"`
	HeaderComponents int                `json:"header_components"`
	WarningCount     int                `json:"warning_count"`
	Warnings         []aggregateWarning `json:"warnings,omitempty"`
	FailedSpecs      []failedSpec       `json:"failed_specs,omitempty"`
	WrittenTo        string             `json:"written_to,omitempty"`
	Document         string             `json:"document,omitempty"`
	Summary          string             `json:"summary"`
}

func handleAggregate(ctx context.Context, _ *mcp.CallToolRequest, input aggregateInput) (*mcp.CallToolResult, aggregateOutput, error) {
	if len(input.Specs) < 2 {
		return errResult(fmt.Errorf("at least 2 specs are required for aggregation, got %d", len(input.Specs))), aggregateOutput{}, nil
	}
	format, err := parseFormat(input.Format)
	if err != nil {
		return errResult(err), aggregateOutput{}, nil
	}

	opts := []aggregator.Option{aggregator.WithSpecPaths(input.Specs...)}
	if input.Title != "" {
		opts = append(opts, aggregator.WithAggregateTitle(input.Title))
	}
	if input.Version != "" {
		opts = append(opts, aggregator.WithAggregateVersion(input.Version))
	}

	result, err := aggregator.Aggregate(ctx, opts...)
	if err != nil {
		return errResult(err), aggregateOutput{}, nil
	}

	if format == "" {
		format = result.Format
	}
	data, err := aggregator.Render(result, format)
	if err != nil {
		return errResult(err), aggregateOutput{}, nil
	}

	output := aggregateOutput{
		SpecCount:        len(input.Specs),
		Title:            result.Title,
		PathCount:        countPaths(result.Document),
		SchemaCount:      countSchemas(result.Document),
		MergedOperations: result.MergedOperations,
		SchemaRenames:    result.SchemaRenames,
		HeaderComponents: result.HeaderComponents,
		WarningCount:     len(result.Warnings),
	}

	output.Warnings = makeSlice[aggregateWarning](len(result.Warnings))
	for _, w := range result.Warnings {
		output.Warnings = append(output.Warnings, aggregateWarning{
			Category: string(w.Category),
			Message:  w.Message,
			Source:   w.Source,
		})
	}
	output.FailedSpecs = makeSlice[failedSpec](len(result.SpecErrors))
	for _, se := range result.SpecErrors {
		output.FailedSpecs = append(output.FailedSpecs, failedSpec{
			Path:  se.Path,
			Error: sanitizeError(se.Err),
		})
	}
	output.Summary = buildAggregateSummary(output)

	if input.Output != "" {
		cleanPath := filepath.Clean(input.Output)
		if err := os.WriteFile(cleanPath, data, 0o600); err != nil {
			return errResult(fmt.Errorf("failed to write output file: %w", err)), aggregateOutput{}, nil
		}
		output.WrittenTo = cleanPath
	} else {
		output.Document = string(data)
	}

	return nil, output, nil
}

func buildAggregateSummary(output aggregateOutput) string {
	summary := "Aggregated " + strconv.Itoa(output.SpecCount-len(output.FailedSpecs)) + " of " +
		strconv.Itoa(output.SpecCount) + " specs into '" + output.Title + "'"
	summary += " with " + formatCount(output.PathCount, "path")
	summary += " and " + formatCount(output.SchemaCount, "schema") + "."
	if output.MergedOperations > 0 {
		summary += " Merged " + formatCount(output.MergedOperations, "operation") + "."
	}
	if output.SchemaRenames > 0 {
		summary += " Renamed " + formatCount(output.SchemaRenames, "schema") + "."
	}
	if output.WarningCount > 0 {
		summary += " " + formatCount(output.WarningCount, "warning") + "."
	}
	return summary
}
