package dataflows

import (
	"context"
	"log"
)

// Provider is the uniform contract every data source implements. Fetch
// never returns an error: internal failures are converted into an empty
// record set, which the orchestrator reads as "unavailable". PerSymbol
// reports whether results depend on the symbol; market-wide sources share
// one cache entry per time key.
type Provider interface {
	Name() string
	PerSymbol() bool
	Fetch(ctx context.Context, triggerTime, symbol string) RecordSet
}

// cachedProvider adds read-through snapshot caching to a provider. A hit
// skips the fetch entirely; a miss triggers exactly one fetch whose
// non-empty result is written once per key.
type cachedProvider struct {
	inner Provider
	cache *SnapshotCache
}

// Cached wraps a provider with the snapshot cache.
func Cached(p Provider, cache *SnapshotCache) Provider {
	return &cachedProvider{inner: p, cache: cache}
}

func (c *cachedProvider) Name() string { return c.inner.Name() }

func (c *cachedProvider) PerSymbol() bool { return c.inner.PerSymbol() }

func (c *cachedProvider) Fetch(ctx context.Context, triggerTime, symbol string) RecordSet {
	key := TimeKey(triggerTime)
	cacheSymbol := ""
	if c.inner.PerSymbol() {
		cacheSymbol = symbol
	}

	if rs, ok := c.cache.Get(c.inner.Name(), key, cacheSymbol); ok {
		log.Printf("[%s] cache hit for %s", c.inner.Name(), key)
		return rs
	}

	rs := c.inner.Fetch(ctx, triggerTime, symbol)
	if !rs.Empty() {
		c.cache.Put(c.inner.Name(), key, cacheSymbol, rs)
	}
	return rs
}
