package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/cppflow/cppflow/pkg/ir"
)

const analysisCacheFile = "analysis.cache"

// AnalysisCache stores per-file function IR keyed by the file's content
// hash. Editing a file changes its hash, so entries for old revisions age
// out through normal LRU eviction instead of serving stale results.
type AnalysisCache struct {
	lru *LRUCache
	dir string
}

// OpenAnalysisCache opens the cache persisted under dir, starting empty
// when no cache file exists yet.
func OpenAnalysisCache(dir string, opts Options) (*AnalysisCache, error) {
	c := &AnalysisCache{lru: New(opts), dir: dir}
	if dir == "" {
		return c, nil
	}

	f, err := os.Open(filepath.Join(dir, analysisCacheFile))
	if err != nil {
		if os.IsNotExist(err) {
			return c, nil
		}
		return nil, fmt.Errorf("opening analysis cache: %w", err)
	}
	defer f.Close()

	if err := c.lru.Load(f); err != nil {
		// a corrupt cache file is discarded, not fatal
		c.lru.Clear()
	}
	return c, nil
}

// Key returns the cache key for a file's content.
func Key(path string, content []byte) string {
	h := sha256.New()
	h.Write([]byte(path))
	h.Write([]byte{0})
	h.Write(content)
	return hex.EncodeToString(h.Sum(nil))
}

// GetFunctions returns the cached function IR for a content key.
func (c *AnalysisCache) GetFunctions(key string) ([]*ir.FunctionIR, bool) {
	payload, found := c.lru.Get(key)
	if !found {
		return nil, false
	}
	var funcs []*ir.FunctionIR
	if err := msgpack.Unmarshal(payload, &funcs); err != nil {
		c.lru.Delete(key)
		return nil, false
	}
	return funcs, true
}

// PutFunctions stores the function IR for a content key.
func (c *AnalysisCache) PutFunctions(key string, funcs []*ir.FunctionIR) error {
	payload, err := msgpack.Marshal(funcs)
	if err != nil {
		return fmt.Errorf("encoding functions: %w", err)
	}
	c.lru.Set(key, payload)
	return nil
}

// Stats returns the counters of the underlying cache.
func (c *AnalysisCache) Stats() Stats { return c.lru.Stats() }

// Len returns the number of cached files.
func (c *AnalysisCache) Len() int { return c.lru.Len() }

// Flush persists the cache to disk. It is a no-op for a cache opened
// without a directory.
func (c *AnalysisCache) Flush() error {
	if c.dir == "" {
		return nil
	}
	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}
	f, err := os.Create(filepath.Join(c.dir, analysisCacheFile))
	if err != nil {
		return fmt.Errorf("creating analysis cache: %w", err)
	}
	defer f.Close()
	return c.lru.Save(f)
}
