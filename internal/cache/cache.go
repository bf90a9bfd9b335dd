// Package cache defines and implements the two caches the rating engine
// consults: a parse-tree cache keyed by (rate key, formula id), and a
// function-result cache keyed by (rate key, cache key) with optional
// validity-date ranges. Neither default implementation synchronizes
// access — the engine is single-threaded per Calculate call, and sharing
// a cache across goroutines is the host's responsibility.
package cache

import (
	"github.com/cwbudde/go-rating/internal/ast"
	"github.com/cwbudde/go-rating/internal/value"
)

// ParseTreeCache stores parsed formula bodies so a formula's source text
// is tokenized and parsed at most once per rate key.
type ParseTreeCache interface {
	Put(rateKey, cacheKey string, tree *ast.Block)
	Get(rateKey, cacheKey string) (*ast.Block, bool)
}

// FunctionResultCache memoizes the result of a formula or host-function
// call. PutWithValidity/GetWithValidity support results that are only
// valid for a caller-supplied date range (e.g. a rate table lookup valid
// between two policy dates); Get/Put are the date-agnostic form.
type FunctionResultCache interface {
	Put(rateKey, cacheKey string, v value.Value)
	PutWithValidity(rateKey, cacheKey, validFrom, validTo string, v value.Value)
	Get(rateKey, cacheKey string) (value.Value, bool)
	GetWithValidity(rateKey, date, cacheKey string) (value.Value, bool)
}
