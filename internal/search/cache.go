package search

import (
	"context"
	"errors"
	"time"
	"unicode/utf8"

	"github.com/patrickmn/go-cache"
)

// CachedSource memoizes an upstream source per normalized query.
// Failed lookups and queries that are not valid UTF-8 are not cached.
type CachedSource struct {
	upstream Source
	cache    *cache.Cache
}

func NewCachedSource(upstream Source, ttl time.Duration) *CachedSource {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &CachedSource{
		upstream: upstream,
		cache:    cache.New(ttl, 2*ttl),
	}
}

func (c *CachedSource) Candidates(ctx context.Context, query string) (Candidates, error) {
	// NormalizeQuery maps invalid input to the blank query, whose key must
	// only hold the upstream's answer to a blank query
	if !utf8.ValidString(query) {
		return c.upstream.Candidates(ctx, query)
	}
	key := NormalizeQuery(query)
	if v, ok := c.cache.Get(key); ok {
		return cloneCandidates(v.(Candidates)), nil
	}
	res, err := c.upstream.Candidates(ctx, query)
	if err != nil {
		return Candidates{}, err
	}
	c.cache.Set(key, cloneCandidates(res), cache.DefaultExpiration)
	return res, nil
}

// Invalidate drops every cached query, e.g. after the catalog changed.
func (c *CachedSource) Invalidate() {
	c.cache.Flush()
}

// DocCount forwards to the upstream source when it is an index.
func (c *CachedSource) DocCount() (int, error) {
	if dc, ok := c.upstream.(DocCounter); ok {
		return dc.DocCount()
	}
	return 0, errors.New("upstream source does not count documents")
}
