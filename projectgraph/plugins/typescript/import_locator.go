package typescript

import (
	"fmt"
	"iter"
	"slices"

	"github.com/LegacyCodeHQ/workgraph/projectgraph"
	"github.com/LegacyCodeHQ/workgraph/vcs"
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize is the number of parsed files kept by a Plugin.
const DefaultCacheSize = 8192

type cacheKey struct {
	file string
	hash string
}

// ImportCache memoizes parsed imports by file path and content hash. It is
// safe for concurrent use and may outlive a single build.
type ImportCache struct {
	entries *lru.Cache[cacheKey, []Import]
}

// NewImportCache returns a cache holding up to size parsed files.
func NewImportCache(size int) (*ImportCache, error) {
	entries, err := lru.New[cacheKey, []Import](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create import cache: %w", err)
	}
	return &ImportCache{entries: entries}, nil
}

// Len returns the number of cached files.
func (c *ImportCache) Len() int {
	return c.entries.Len()
}

// ImportLocator enumerates the imports of workspace files.
type ImportLocator struct {
	read  vcs.ContentReader
	cache *ImportCache
}

// NewImportLocator returns a locator reading through read. cache may be nil.
func NewImportLocator(read vcs.ContentReader, cache *ImportCache) *ImportLocator {
	return &ImportLocator{read: read, cache: cache}
}

// FromFile returns the imports of file in source order. Reading the file is
// the only way it can fail; unrecognized syntax yields no entries.
func (l *ImportLocator) FromFile(file projectgraph.FileData) (iter.Seq[Import], error) {
	key := cacheKey{file: file.File, hash: file.Hash}
	if l.cache != nil && file.Hash != "" {
		if imports, ok := l.cache.entries.Get(key); ok {
			return slices.Values(imports), nil
		}
	}

	content, err := l.read(file.File)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", file.File, err)
	}

	imports := ParseImports(file.File, file.Ext, content)
	if l.cache != nil && file.Hash != "" {
		l.cache.entries.Add(key, imports)
	}
	return slices.Values(imports), nil
}
