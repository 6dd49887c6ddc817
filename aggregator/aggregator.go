// Package aggregator is the high-level entry point: it bundles each input
// specification into a self-contained document and merges the results into
// one aggregate OpenAPI document. Bundling runs concurrently over a shared
// document cache; merging is strictly sequential in input order, so the
// first specification always wins ties regardless of bundling timing.
package aggregator

import (
	"context"
	"errors"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/oasfold/oasfold/bundler"
	"github.com/oasfold/oasfold/loader"
	"github.com/oasfold/oasfold/merger"
	"github.com/oasfold/oasfold/oaserrors"
)

type config struct {
	specPaths    []string
	preloads     []preload
	title        string
	version      string
	policy       merger.Policy
	logger       loader.Logger
	cache        *loader.Cache
	maxFileSize  int64
	parallelism  int
	outputFormat loader.SourceFormat
}

type preload struct {
	path string
	data []byte
}

// Option configures an aggregation run.
type Option func(*config)

// WithSpecPaths appends specification files to aggregate, in order. Order
// matters: earlier specifications win merge ties.
func WithSpecPaths(paths ...string) Option {
	return func(c *config) {
		c.specPaths = append(c.specPaths, paths...)
	}
}

// WithSpecBytes appends a specification provided as in-memory bytes. The
// path names the document for caching and for resolving its relative
// references.
func WithSpecBytes(path string, data []byte) Option {
	return func(c *config) {
		c.specPaths = append(c.specPaths, path)
		c.preloads = append(c.preloads, preload{path: path, data: data})
	}
}

// WithAggregateTitle overrides the title of the aggregate document.
func WithAggregateTitle(title string) Option {
	return func(c *config) {
		c.title = title
	}
}

// WithAggregateVersion overrides the version of the aggregate document.
func WithAggregateVersion(version string) Option {
	return func(c *config) {
		c.version = version
	}
}

// WithPolicy overrides the default conflict resolution policy.
func WithPolicy(policy merger.Policy) Option {
	return func(c *config) {
		c.policy = policy
	}
}

// WithLogger sets the logger for the whole pipeline. Defaults to no
// logging.
func WithLogger(logger loader.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithCache reuses an existing document cache across aggregation runs.
func WithCache(cache *loader.Cache) Option {
	return func(c *config) {
		c.cache = cache
	}
}

// WithMaxFileSize overrides the per-file size limit for loaded documents.
func WithMaxFileSize(size int64) Option {
	return func(c *config) {
		c.maxFileSize = size
	}
}

// WithParallelism caps how many specifications bundle concurrently.
// Defaults to the number of CPUs.
func WithParallelism(n int) Option {
	return func(c *config) {
		c.parallelism = n
	}
}

// WithOutputFormat fixes the output format of the aggregate document.
// Defaults to the format of the first input specification.
func WithOutputFormat(format loader.SourceFormat) Option {
	return func(c *config) {
		c.outputFormat = format
	}
}

// SpecError records a specification that failed to bundle. Aggregation
// continues with the remaining specifications.
type SpecError struct {
	// Path is the specification file that failed.
	Path string
	// Err is the underlying failure.
	Err error
}

// Error implements the error interface.
func (e *SpecError) Error() string {
	return e.Path + ": " + e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *SpecError) Unwrap() error {
	return e.Err
}

// Result holds the aggregate document and everything observed while
// producing it.
type Result struct {
	// Document is the aggregate specification as a raw tree.
	Document map[string]any
	// Title is the aggregate document's title.
	Title string
	// Format is the serialization format of the first specification,
	// used as the default output format.
	Format loader.SourceFormat
	// Warnings are the non-fatal diagnostics collected while merging.
	Warnings merger.Warnings
	// SpecErrors lists specifications that failed to bundle. The
	// aggregate covers only the specifications that succeeded.
	SpecErrors []*SpecError
	// SchemaRenames counts schemas renamed due to incompatible collisions.
	SchemaRenames int
	// MergedOperations counts operations merged across specifications.
	MergedOperations int
	// HeaderComponents counts shared header parameters extracted into
	// components.
	HeaderComponents int
}

// Aggregate bundles every input specification and merges the results into
// one document. Specifications that fail to bundle are reported in
// Result.SpecErrors; the run fails outright only when no specification
// survives or the context is cancelled.
func Aggregate(ctx context.Context, opts ...Option) (*Result, error) {
	cfg := &config{logger: loader.NopLogger{}}
	for _, opt := range opts {
		opt(cfg)
	}

	if len(cfg.specPaths) == 0 {
		return nil, &oaserrors.ConfigError{
			Option:  "spec_paths",
			Message: "at least one specification path is required",
		}
	}
	switch cfg.outputFormat {
	case "", loader.SourceFormatYAML, loader.SourceFormatJSON:
	default:
		return nil, &oaserrors.ConfigError{
			Option:  "output_format",
			Value:   string(cfg.outputFormat),
			Message: "unsupported output format",
		}
	}

	cache := cfg.cache
	if cache == nil {
		cache = loader.NewCache()
	}
	loaderOpts := []loader.Option{loader.WithLogger(cfg.logger)}
	if cfg.maxFileSize > 0 {
		loaderOpts = append(loaderOpts, loader.WithMaxFileSize(cfg.maxFileSize))
	}
	ld := loader.New(cache, loaderOpts...)

	for _, p := range cfg.preloads {
		if err := ld.Preload(p.path, p.data); err != nil {
			return nil, err
		}
	}

	docs, specErrs, err := bundleAll(ctx, ld, cfg)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		joined := make([]error, len(specErrs))
		for i, se := range specErrs {
			joined[i] = se
		}
		return nil, errors.Join(joined...)
	}

	if len(docs) == 1 {
		result := singleResult(docs[0], cfg, specErrs)
		if cfg.outputFormat != "" {
			result.Format = cfg.outputFormat
		}
		return result, nil
	}

	merged, err := merger.New(merger.Config{
		AggregateTitle:   cfg.title,
		AggregateVersion: cfg.version,
		Policy:           cfg.policy,
		Logger:           cfg.logger,
	}).Merge(docs)
	if err != nil {
		return nil, err
	}

	format := docs[0].Format
	if cfg.outputFormat != "" {
		format = cfg.outputFormat
	}
	return &Result{
		Document:         merged.Document,
		Title:            merged.Title,
		Format:           format,
		Warnings:         merged.Warnings,
		SpecErrors:       specErrs,
		SchemaRenames:    merged.SchemaRenames,
		MergedOperations: merged.MergedOperations,
		HeaderComponents: merged.HeaderComponents,
	}, nil
}

// bundleAll resolves every specification concurrently, preserving input
// order in the returned slice. Individual failures become SpecErrors
// rather than aborting the group; only context cancellation stops the run.
func bundleAll(ctx context.Context, ld *loader.Loader, cfg *config) ([]*bundler.ResolvedDocument, []*SpecError, error) {
	b := bundler.New(ld, bundler.WithLogger(cfg.logger))

	parallelism := cfg.parallelism
	if parallelism <= 0 {
		parallelism = runtime.NumCPU()
	}

	bundled := make([]*bundler.ResolvedDocument, len(cfg.specPaths))
	errs := make([]error, len(cfg.specPaths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)
	for i, path := range cfg.specPaths {
		g.Go(func() error {
			doc, err := b.Bundle(gctx, path)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				cfg.logger.Warn("specification failed to bundle", "path", path, "error", err.Error())
				errs[i] = err
				return nil
			}
			bundled[i] = doc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	docs := make([]*bundler.ResolvedDocument, 0, len(bundled))
	var specErrs []*SpecError
	for i, doc := range bundled {
		if doc != nil {
			docs = append(docs, doc)
			continue
		}
		specErrs = append(specErrs, &SpecError{Path: cfg.specPaths[i], Err: errs[i]})
	}
	return docs, specErrs, nil
}

// singleResult passes a lone bundled document through unchanged, applying
// only the configured title and version overrides.
func singleResult(doc *bundler.ResolvedDocument, cfg *config, specErrs []*SpecError) *Result {
	title := doc.Title
	if cfg.title != "" || cfg.version != "" {
		info, ok := doc.Root["info"].(map[string]any)
		if !ok {
			info = map[string]any{}
			doc.Root["info"] = info
		}
		if cfg.title != "" {
			info["title"] = cfg.title
			title = cfg.title
		}
		if cfg.version != "" {
			info["version"] = cfg.version
		}
	}
	return &Result{
		Document:   doc.Root,
		Title:      title,
		Format:     doc.Format,
		SpecErrors: specErrs,
	}
}
