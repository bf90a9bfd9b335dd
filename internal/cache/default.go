package cache

import (
	"github.com/cwbudde/go-rating/internal/ast"
	"github.com/cwbudde/go-rating/internal/value"
)

// DefaultParseTreeCache is an in-process, unsynchronized ParseTreeCache
// backed by a plain Go map. It is the zero-configuration choice for a
// single-goroutine Calculate call; a host that shares one across
// goroutines must provide its own synchronization.
type DefaultParseTreeCache struct {
	trees map[treeKey]*ast.Block
}

type treeKey struct {
	rateKey  string
	cacheKey string
}

// NewDefaultParseTreeCache creates an empty DefaultParseTreeCache.
func NewDefaultParseTreeCache() *DefaultParseTreeCache {
	return &DefaultParseTreeCache{trees: make(map[treeKey]*ast.Block)}
}

func (c *DefaultParseTreeCache) Put(rateKey, cacheKey string, tree *ast.Block) {
	c.trees[treeKey{rateKey, cacheKey}] = tree
}

func (c *DefaultParseTreeCache) Get(rateKey, cacheKey string) (*ast.Block, bool) {
	tree, ok := c.trees[treeKey{rateKey, cacheKey}]
	return tree, ok
}

// DefaultFunctionResultCache is an in-process, unsynchronized
// FunctionResultCache: a flat map for date-agnostic results, and
// per-key lists of (value, validFrom, validTo) entries for
// validity-ranged results.
type DefaultFunctionResultCache struct {
	results   map[treeKey]value.Value
	validated map[treeKey][]validityEntry
}

type validityEntry struct {
	value     value.Value
	validFrom string
	validTo   string
}

// NewDefaultFunctionResultCache creates an empty DefaultFunctionResultCache.
func NewDefaultFunctionResultCache() *DefaultFunctionResultCache {
	return &DefaultFunctionResultCache{
		results:   make(map[treeKey]value.Value),
		validated: make(map[treeKey][]validityEntry),
	}
}

func (c *DefaultFunctionResultCache) Put(rateKey, cacheKey string, v value.Value) {
	c.results[treeKey{rateKey, cacheKey}] = v
}

func (c *DefaultFunctionResultCache) PutWithValidity(rateKey, cacheKey, validFrom, validTo string, v value.Value) {
	key := treeKey{rateKey, cacheKey}
	c.validated[key] = append(c.validated[key], validityEntry{value: v, validFrom: validFrom, validTo: validTo})
}

func (c *DefaultFunctionResultCache) Get(rateKey, cacheKey string) (value.Value, bool) {
	v, ok := c.results[treeKey{rateKey, cacheKey}]
	return v, ok
}

// GetWithValidity returns the first stored entry whose [validFrom, validTo]
// range contains date, comparing as plain strings (valid for ISO
// YYYY-MM-DD dates, which sort lexicographically in calendar order).
func (c *DefaultFunctionResultCache) GetWithValidity(rateKey, date, cacheKey string) (value.Value, bool) {
	for _, entry := range c.validated[treeKey{rateKey, cacheKey}] {
		if entry.validFrom <= date && entry.validTo >= date {
			return entry.value, true
		}
	}
	return value.Value{}, false
}
