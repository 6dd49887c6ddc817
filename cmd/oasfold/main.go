package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/oasfold/oasfold"
	"github.com/oasfold/oasfold/aggregator"
	"github.com/oasfold/oasfold/bundler"
	"github.com/oasfold/oasfold/internal/mcpserver"
	"github.com/oasfold/oasfold/loader"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "version", "-v", "--version":
		fmt.Printf("oasfold v%s\n", oasfold.Version())
	case "help", "-h", "--help":
		printUsage()
	case "bundle":
		if err := handleBundle(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "aggregate":
		if err := handleAggregate(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "mcp":
		if err := handleMCP(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

// bundleFlags contains flags for the bundle command
type bundleFlags struct {
	output  string
	format  string
	verbose bool
}

func setupBundleFlags() (*flag.FlagSet, *bundleFlags) {
	fs := flag.NewFlagSet("bundle", flag.ContinueOnError)
	flags := &bundleFlags{}

	fs.StringVar(&flags.output, "o", "", "output file path (writes to stdout when omitted)")
	fs.StringVar(&flags.output, "output", "", "output file path (writes to stdout when omitted)")
	fs.StringVar(&flags.format, "format", "", "output format: yaml or json (defaults to the input format)")
	fs.BoolVar(&flags.verbose, "verbose", false, "enable debug logging to stderr")

	fs.Usage = func() {
		output := fs.Output()
		_, _ = fmt.Fprintf(output, "Usage: oasfold bundle [flags] <file>\n\n")
		_, _ = fmt.Fprintf(output, "Resolve every external $ref of an OpenAPI document and inline the result.\n\n")
		_, _ = fmt.Fprintf(output, "Flags:\n")
		fs.PrintDefaults()
		_, _ = fmt.Fprintf(output, "\nExamples:\n")
		_, _ = fmt.Fprintf(output, "  oasfold bundle openapi.yaml\n")
		_, _ = fmt.Fprintf(output, "  oasfold bundle -o bundled.yaml openapi.yaml\n")
		_, _ = fmt.Fprintf(output, "  oasfold bundle --format json openapi.yaml\n")
	}

	return fs, flags
}

func handleBundle(args []string) error {
	fs, flags := setupBundleFlags()

	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil
		}
		return err
	}

	if fs.NArg() != 1 {
		fs.Usage()
		return fmt.Errorf("bundle command requires exactly one file path")
	}

	specPath := fs.Arg(0)
	format, err := outputFormat(flags.format)
	if err != nil {
		return err
	}
	if flags.output != "" {
		if err := validateOutputPath(flags.output, []string{specPath}); err != nil {
			return err
		}
	}

	ld := loader.New(loader.NewCache(), loader.WithLogger(newLogger(flags.verbose)))
	b := bundler.New(ld, bundler.WithLogger(newLogger(flags.verbose)))

	startTime := time.Now()
	doc, err := b.Bundle(context.Background(), specPath)
	if err != nil {
		return fmt.Errorf("bundling specification: %w", err)
	}
	totalTime := time.Since(startTime)

	if format == "" {
		format = doc.Format
	}
	data, err := aggregator.Render(&aggregator.Result{Document: doc.Root}, format)
	if err != nil {
		return err
	}

	if flags.output == "" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(flags.output, data, 0o644); err != nil {
		return fmt.Errorf("writing output file: %w", err)
	}

	fmt.Printf("OpenAPI Specification Bundler\n")
	fmt.Printf("=============================\n\n")
	fmt.Printf("oasfold version: %s\n", oasfold.Version())
	fmt.Printf("Specification: %s\n", specPath)
	fmt.Printf("Title: %s\n", doc.Title)
	fmt.Printf("OAS Version: %s\n", doc.OpenAPI)
	fmt.Printf("Output: %s\n", flags.output)
	fmt.Printf("Total Time: %v\n\n", totalTime)
	fmt.Printf("✓ Bundle completed successfully!\n")
	return nil
}

// aggregateFlags contains flags for the aggregate command
type aggregateFlags struct {
	output      string
	format      string
	title       string
	version     string
	parallelism int
	verbose     bool
}

func setupAggregateFlags() (*flag.FlagSet, *aggregateFlags) {
	fs := flag.NewFlagSet("aggregate", flag.ContinueOnError)
	flags := &aggregateFlags{}

	fs.StringVar(&flags.output, "o", "", "output file path (required)")
	fs.StringVar(&flags.output, "output", "", "output file path (required)")
	fs.StringVar(&flags.format, "format", "", "output format: yaml or json (defaults to the first input's format)")
	fs.StringVar(&flags.title, "title", "", "title for the aggregate document (defaults to the first spec's title)")
	fs.StringVar(&flags.version, "set-version", "", "version for the aggregate document (defaults to the first spec's version)")
	fs.IntVar(&flags.parallelism, "parallelism", 0, "maximum specs bundled concurrently (defaults to the CPU count)")
	fs.BoolVar(&flags.verbose, "verbose", false, "enable debug logging to stderr")

	fs.Usage = func() {
		output := fs.Output()
		_, _ = fmt.Fprintf(output, "Usage: oasfold aggregate [flags] <file> <file> [file...]\n\n")
		_, _ = fmt.Fprintf(output, "Bundle several OpenAPI documents and merge them into one.\n")
		_, _ = fmt.Fprintf(output, "Input order matters: earlier specs win every conflict.\n\n")
		_, _ = fmt.Fprintf(output, "Flags:\n")
		fs.PrintDefaults()
		_, _ = fmt.Fprintf(output, "\nExamples:\n")
		_, _ = fmt.Fprintf(output, "  oasfold aggregate -o platform.yaml users.yaml orders.yaml\n")
		_, _ = fmt.Fprintf(output, "  oasfold aggregate -o api.json --format json --title 'Platform API' a.yaml b.yaml\n")
	}

	return fs, flags
}

func handleAggregate(args []string) error {
	fs, flags := setupAggregateFlags()

	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil
		}
		return err
	}

	if fs.NArg() < 2 {
		fs.Usage()
		return fmt.Errorf("aggregate command requires at least 2 input files")
	}
	if flags.output == "" {
		fs.Usage()
		return fmt.Errorf("output file is required (use -o or --output)")
	}

	specPaths := fs.Args()
	format, err := outputFormat(flags.format)
	if err != nil {
		return err
	}
	if err := validateOutputPath(flags.output, specPaths); err != nil {
		return err
	}

	opts := []aggregator.Option{
		aggregator.WithSpecPaths(specPaths...),
		aggregator.WithLogger(newLogger(flags.verbose)),
	}
	if flags.title != "" {
		opts = append(opts, aggregator.WithAggregateTitle(flags.title))
	}
	if flags.version != "" {
		opts = append(opts, aggregator.WithAggregateVersion(flags.version))
	}
	if flags.parallelism > 0 {
		opts = append(opts, aggregator.WithParallelism(flags.parallelism))
	}

	startTime := time.Now()
	result, err := aggregator.Aggregate(context.Background(), opts...)
	if err != nil {
		return fmt.Errorf("aggregating specifications: %w", err)
	}
	err = aggregator.WriteResult(result, flags.output, format)
	totalTime := time.Since(startTime)
	if err != nil {
		return fmt.Errorf("writing output file: %w", err)
	}

	fmt.Printf("OpenAPI Specification Aggregator\n")
	fmt.Printf("================================\n\n")
	fmt.Printf("oasfold version: %s\n", oasfold.Version())
	fmt.Printf("Successfully aggregated %d of %d specification files\n",
		len(specPaths)-len(result.SpecErrors), len(specPaths))
	fmt.Printf("Output: %s\n", flags.output)
	fmt.Printf("Title: %s\n", result.Title)
	fmt.Printf("Total Time: %v\n\n", totalTime)

	if result.MergedOperations > 0 {
		fmt.Printf("Operations merged: %d\n", result.MergedOperations)
	}
	if result.SchemaRenames > 0 {
		fmt.Printf("Schemas renamed: %d\n", result.SchemaRenames)
	}
	if result.HeaderComponents > 0 {
		fmt.Printf("Header parameters deduplicated: %d\n", result.HeaderComponents)
	}

	if len(result.SpecErrors) > 0 {
		fmt.Printf("\nFailed specifications (%d):\n", len(result.SpecErrors))
		for _, se := range result.SpecErrors {
			fmt.Printf("  - %s: %v\n", se.Path, se.Err)
		}
	}

	if len(result.Warnings) > 0 {
		fmt.Printf("\nWarnings (%d):\n", len(result.Warnings))
		for _, warning := range result.Warnings {
			fmt.Printf("  - %s\n", warning)
		}
	}

	fmt.Printf("\n✓ Aggregation completed successfully!\n")
	return nil
}

func handleMCP() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return mcpserver.Run(ctx)
}

func outputFormat(s string) (loader.SourceFormat, error) {
	switch s {
	case "":
		return "", nil
	case "yaml":
		return loader.SourceFormatYAML, nil
	case "json":
		return loader.SourceFormatJSON, nil
	default:
		return "", fmt.Errorf("invalid format '%s'. Valid formats: yaml, json", s)
	}
}

func newLogger(verbose bool) loader.Logger {
	if !verbose {
		return loader.NopLogger{}
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})
	return loader.NewSlogAdapter(slog.New(handler))
}

// validateOutputPath checks if the output path is safe to write to
func validateOutputPath(outputPath string, inputPaths []string) error {
	absOutputPath, err := filepath.Abs(outputPath)
	if err != nil {
		return fmt.Errorf("invalid output path: %w", err)
	}

	for _, inputPath := range inputPaths {
		absInputPath, err := filepath.Abs(inputPath)
		if err != nil {
			return fmt.Errorf("invalid input path %s: %w", inputPath, err)
		}
		if absOutputPath == absInputPath {
			return fmt.Errorf("output file %s would overwrite input file %s", outputPath, inputPath)
		}
	}

	if _, err := os.Stat(outputPath); err == nil {
		fmt.Fprintf(os.Stderr, "Warning: output file %s already exists and will be overwritten\n", outputPath)
	}

	return nil
}

func printUsage() {
	fmt.Println(`oasfold - OpenAPI Reference Resolution and Aggregation

Usage:
  oasfold <command> [options]

Commands:
  bundle      Resolve external $refs of an OpenAPI document into one file
  aggregate   Bundle and merge multiple OpenAPI documents into one
  mcp         Run as an MCP server over stdio
  version     Show version information
  help        Show this help message

Examples:
  oasfold bundle openapi.yaml
  oasfold bundle -o bundled.yaml openapi.yaml
  oasfold aggregate -o platform.yaml users.yaml orders.yaml
  oasfold aggregate -o api.json --format json --title 'Platform API' a.yaml b.yaml

Run 'oasfold <command> --help' for more information on a command.`)
}
