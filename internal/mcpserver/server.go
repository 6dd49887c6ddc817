// Package mcpserver implements an MCP (Model Context Protocol) server that
// exposes bundling and aggregation as MCP tools over stdio.
package mcpserver

import (
	"context"
	"regexp"
	"strconv"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/oasfold/oasfold"
	"github.com/oasfold/oasfold/internal/rawutil"
)

const serverInstructions = `oasfold MCP server — bundles OpenAPI documents into self-contained files and aggregates multiple documents into one.

Tools:
- bundle: resolve every external $ref of one spec and inline the result. Internal references are preserved.
- aggregate: bundle several specs and merge them into a single document. Input order matters: earlier specs win every conflict. Incompatible schema collisions are renamed, not dropped, and each merged operation records which specs contributed to it.

Inputs are file paths on disk. Results are returned inline unless an output path is given.`

// Run starts the MCP server over stdio and blocks until the client
// disconnects or the context is cancelled.
func Run(ctx context.Context) error {
	server := mcp.NewServer(
		&mcp.Implementation{Name: "oasfold", Version: oasfold.Version()},
		&mcp.ServerOptions{
			Instructions: serverInstructions,
		},
	)
	registerAllTools(server)
	return server.Run(ctx, &mcp.StdioTransport{})
}

func registerAllTools(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "bundle",
		Description: "Bundle an OpenAPI Specification document by resolving every external $ref and inlining the referenced content. The result is a single self-contained document; internal references are left intact. Use output to write to a file instead of returning inline.",
	}, handleBundle)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "aggregate",
		Description: "Aggregate multiple OpenAPI Specification documents into one. Each spec is bundled first, then merged in input order: the first spec wins ties, operations sharing a path and method are merged, compatible schema collisions are merged, incompatible ones are renamed, and repeated header parameters are extracted into shared components. Requires at least 2 specs. Use output to write to a file instead of returning inline.",
	}, handleAggregate)
}

// makeSlice returns nil when n is 0 (preserving omitempty JSON semantics),
// otherwise returns make([]T, 0, n) for pre-allocated appending.
func makeSlice[T any](n int) []T {
	if n == 0 {
		return nil
	}
	return make([]T, 0, n)
}

// sanitizeError strips absolute filesystem paths from error messages
// to prevent leaking internal directory structure to MCP clients.
var pathPattern = regexp.MustCompile(`(?:/(?:home|tmp|var|Users|etc|opt|usr|private|root|mnt|srv|run|snap|nix)[a-zA-Z0-9._/-]*)`)

func sanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return pathPattern.ReplaceAllString(err.Error(), "<path>")
}

// errResult creates an MCP error result from an error.
func errResult(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: sanitizeError(err)}},
	}
}

func formatCount(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return strconv.Itoa(n) + " " + noun + "s"
}

func countPaths(doc map[string]any) int {
	return len(rawutil.GetMap(doc, "paths"))
}

func countSchemas(doc map[string]any) int {
	return len(rawutil.GetMap(rawutil.GetMap(doc, "components"), "schemas"))
}
