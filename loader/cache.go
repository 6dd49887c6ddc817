package loader

import (
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

// MaxCachedDocuments is the default bound on the document cache. Eviction of
// a hot entry only costs a re-parse, so a modest bound is enough to keep
// pathological inputs with thousands of external files from exhausting
// memory.
const MaxCachedDocuments = 256

// Cache is a bounded, concurrency-safe document cache keyed by absolute file
// path. Lookups that miss collapse into a single in-flight load per path, so
// a file referenced from multiple specs bundled in parallel is read and
// parsed exactly once.
//
// A Cache is scoped to a pipeline run: create one per run rather than
// sharing a process-wide instance, so concurrent runs (e.g. requests in a
// server) never observe each other's entries.
type Cache struct {
	docs  *lru.Cache[string, *Document]
	group singleflight.Group
}

// NewCache creates a cache bounded at MaxCachedDocuments entries.
func NewCache() *Cache {
	return NewCacheWithSize(MaxCachedDocuments)
}

// NewCacheWithSize creates a cache bounded at size entries.
func NewCacheWithSize(size int) *Cache {
	if size <= 0 {
		size = MaxCachedDocuments
	}
	// lru.New only errors on non-positive sizes, which are normalized above.
	docs, _ := lru.New[string, *Document](size)
	return &Cache{docs: docs}
}

// Len returns the number of cached documents.
func (c *Cache) Len() int {
	return c.docs.Len()
}

// lookupOrLoad returns the cached document for key, invoking load on a miss.
// Concurrent callers for the same key share one load invocation and its
// result. Failed loads are not cached, so a transient failure can be retried.
func (c *Cache) lookupOrLoad(key string, load func() (*Document, error)) (*Document, error) {
	if doc, ok := c.docs.Get(key); ok {
		return doc, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		// Re-check under the flight guard: another caller may have
		// completed the load between our miss and this call.
		if doc, ok := c.docs.Get(key); ok {
			return doc, nil
		}
		doc, err := load()
		if err != nil {
			return nil, err
		}
		c.docs.Add(key, doc)
		return doc, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Document), nil
}

// put stores a document directly, overwriting any existing entry.
// Used by Preload to seed in-memory inputs.
func (c *Cache) put(key string, doc *Document) {
	c.docs.Add(key, doc)
}
