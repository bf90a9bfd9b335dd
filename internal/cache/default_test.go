package cache_test

import (
	"testing"

	"github.com/cwbudde/go-rating/internal/ast"
	"github.com/cwbudde/go-rating/internal/cache"
	"github.com/cwbudde/go-rating/internal/value"
)

func TestDefaultParseTreeCachePutGet(t *testing.T) {
	c := cache.NewDefaultParseTreeCache()
	tree := &ast.Block{}

	if _, ok := c.Get("rate1", "premium"); ok {
		t.Fatalf("expected a miss before any Put")
	}
	c.Put("rate1", "premium", tree)
	got, ok := c.Get("rate1", "premium")
	if !ok || got != tree {
		t.Fatalf("expected to get back the stored tree")
	}
	if _, ok := c.Get("rate2", "premium"); ok {
		t.Fatalf("expected rate keys to partition the cache")
	}
}

func TestDefaultFunctionResultCachePutGet(t *testing.T) {
	c := cache.NewDefaultFunctionResultCache()
	v := value.Number(42)
	c.Put("rate1", "lookupX", v)

	got, ok := c.Get("rate1", "lookupX")
	if !ok || !value.Equal(got, v) {
		t.Fatalf("expected to get back the stored value")
	}
}

func TestDefaultFunctionResultCacheValidityRange(t *testing.T) {
	c := cache.NewDefaultFunctionResultCache()
	c.PutWithValidity("rate1", "tariff", "2020-01-01", "2020-12-31", value.Number(1))
	c.PutWithValidity("rate1", "tariff", "2021-01-01", "2021-12-31", value.Number(2))

	got, ok := c.GetWithValidity("rate1", "2020-06-15", "tariff")
	if !ok || got.AsNumber() != 1 {
		t.Fatalf("expected the 2020 entry, got %v ok=%v", got, ok)
	}

	got, ok = c.GetWithValidity("rate1", "2021-06-15", "tariff")
	if !ok || got.AsNumber() != 2 {
		t.Fatalf("expected the 2021 entry, got %v ok=%v", got, ok)
	}

	if _, ok := c.GetWithValidity("rate1", "2019-01-01", "tariff"); ok {
		t.Fatalf("expected a miss outside any validity range")
	}
}
