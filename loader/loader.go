// Package loader reads raw OpenAPI documents from disk or memory.
//
// Documents are parsed into untyped trees (maps, slices, scalars) exactly as
// they appear on the wire; no OpenAPI semantics are applied at this layer.
// A shared, concurrency-safe Cache guarantees each distinct file is read and
// parsed at most once per pipeline run, even when multiple specs reference it
// concurrently.
package loader

import (
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v4"

	"github.com/oasfold/oasfold/oaserrors"
)

// RawNode is an untyped document tree as parsed from YAML or JSON:
// map[string]any, []any, or a scalar. It may contain $ref string fields.
type RawNode = any

const (
	// MaxFileSize is the maximum size (in bytes) allowed for a loaded file.
	// This prevents resource exhaustion from arbitrarily large inputs.
	MaxFileSize = 10 * 1024 * 1024 // 10MB
)

// SourceFormat identifies the serialization format of a loaded document.
type SourceFormat string

const (
	// SourceFormatYAML indicates a YAML document
	SourceFormatYAML SourceFormat = "yaml"
	// SourceFormatJSON indicates a JSON document
	SourceFormatJSON SourceFormat = "json"
)

// Document is a loaded, parsed document. Documents are shared through the
// Cache and must be treated as read-only by all consumers; anything that
// mutates a tree must deep-copy it first.
type Document struct {
	// Path is the absolute file path the document was loaded from
	Path string
	// Format is the detected serialization format
	Format SourceFormat
	// Root is the parsed document tree
	Root map[string]any
}

// Loader reads and parses documents, consulting a Cache so each distinct
// file path is parsed once. A Loader is safe for concurrent use.
type Loader struct {
	cache       *Cache
	logger      Logger
	maxFileSize int64
}

// Option configures a Loader.
type Option func(*Loader)

// WithLogger sets the logger used for load diagnostics.
func WithLogger(logger Logger) Option {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithMaxFileSize overrides the maximum file size limit.
func WithMaxFileSize(size int64) Option {
	return func(l *Loader) {
		if size > 0 {
			l.maxFileSize = size
		}
	}
}

// New creates a Loader backed by the given cache. The cache is injectable so
// independent pipeline runs do not share stale entries; pass a fresh
// NewCache() per run, or share one cache across the bundling tasks of a
// single run.
func New(cache *Cache, opts ...Option) *Loader {
	if cache == nil {
		cache = NewCache()
	}
	l := &Loader{
		cache:       cache,
		logger:      NopLogger{},
		maxFileSize: MaxFileSize,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Cache returns the cache backing this loader.
func (l *Loader) Cache() *Cache {
	return l.cache
}

// Load returns the parsed document at path, reading and parsing it on first
// use and serving it from the cache afterwards. The path is resolved to its
// absolute form, which is the cache key. Concurrent loads of the same path
// share a single read.
func (l *Loader) Load(path string) (*Document, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("loader: failed to resolve path %s: %w", path, err)
	}

	return l.cache.lookupOrLoad(abs, func() (*Document, error) {
		return l.read(abs)
	})
}

// Preload seeds the cache with an in-memory document so that multi-file
// specs can be supplied as buffers instead of files on disk. The path is the
// identity other documents use to reference this one.
func (l *Loader) Preload(path string, data []byte) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("loader: failed to resolve path %s: %w", path, err)
	}
	if int64(len(data)) > l.maxFileSize {
		return &oaserrors.ResourceLimitError{
			ResourceType: "file_size",
			Limit:        l.maxFileSize,
			Actual:       int64(len(data)),
			Message:      abs,
		}
	}

	doc, err := l.parse(abs, data)
	if err != nil {
		return err
	}
	l.cache.put(abs, doc)
	return nil
}

// read loads a document from disk. Called under the cache's singleflight
// guard, so at most one read per distinct path is in flight.
func (l *Loader) read(abs string) (*Document, error) {
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("loader: failed to read %s: %w", abs, err)
	}
	if int64(len(data)) > l.maxFileSize {
		return nil, &oaserrors.ResourceLimitError{
			ResourceType: "file_size",
			Limit:        l.maxFileSize,
			Actual:       int64(len(data)),
			Message:      abs,
		}
	}

	doc, err := l.parse(abs, data)
	if err != nil {
		return nil, err
	}
	l.logger.Debug("loaded document", "path", abs, "format", string(doc.Format), "bytes", len(data))
	return doc, nil
}

// parse decodes data into a Document. The YAML parser handles both YAML and
// JSON input; the format is detected separately so output can round-trip in
// the source format.
func (l *Loader) parse(abs string, data []byte) (*Document, error) {
	var root map[string]any
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("loader: failed to parse %s: %w", abs, err)
	}
	if root == nil {
		root = map[string]any{}
	}
	return &Document{
		Path:   abs,
		Format: DetectFormat(abs, data),
		Root:   root,
	}, nil
}

// DetectFormat detects the serialization format from the file extension,
// falling back to content sniffing for unknown extensions.
func DetectFormat(path string, data []byte) SourceFormat {
	switch filepath.Ext(path) {
	case ".json":
		return SourceFormatJSON
	case ".yaml", ".yml":
		return SourceFormatYAML
	}
	for _, b := range data {
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		case '{', '[':
			return SourceFormatJSON
		default:
			return SourceFormatYAML
		}
	}
	return SourceFormatYAML
}
