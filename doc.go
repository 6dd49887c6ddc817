// Package oasfold resolves and aggregates OpenAPI Specification (OAS) 3.x documents.
//
// oasfold takes one or more OpenAPI 3.x documents, each potentially split
// across multiple files linked by $ref, and produces a single self-consistent
// document: external references are resolved and spliced per input spec
// (bundling), and the bundled specs are then folded into one aggregate
// document with deterministic conflict resolution.
//
// # Overview
//
// The library consists of five primary packages:
//
//   - loader: Load YAML/JSON documents into raw trees, with a shared cache
//   - resolver: Resolve $ref pointers across files with cycle detection
//   - bundler: Produce a self-contained document per input spec
//   - merger: Fold bundled specs into one aggregate document
//   - aggregator: Orchestrate the full load-bundle-merge pipeline
//
// Only OAS 3.x documents (3.0.x through 3.2.x) are supported. OAS 2.0
// (Swagger) documents are rejected during structural validation.
//
// # Quick Start
//
// Aggregate two specifications:
//
//	result, err := aggregator.Aggregate(ctx,
//	    aggregator.WithSpecPaths("users-api.yaml", "billing-api.yaml"),
//	    aggregator.WithAggregateTitle("Platform API"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, w := range result.Warnings {
//	    log.Println(w)
//	}
//
// Bundle a single multi-file specification:
//
//	ld := loader.New(loader.NewCache())
//	b := bundler.New(ld)
//	doc, err := b.Bundle(ctx, "api/openapi.yaml")
//
// # Error Handling
//
// Fatal conditions (unresolvable references, reference cycles, structurally
// invalid inputs) are reported per input spec via the structured types in the
// oaserrors package; one malformed spec does not abort aggregation of its
// siblings. Non-fatal conditions surface as structured warnings on the
// aggregation result.
package oasfold
