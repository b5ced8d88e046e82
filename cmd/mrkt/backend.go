package main

import (
	"context"
	"fmt"

	"github.com/pders01/mrkt/internal/catalog"
	"github.com/pders01/mrkt/internal/config"
	"github.com/pders01/mrkt/internal/importer"
	"github.com/pders01/mrkt/internal/search"
)

// backend is the search source selected by search.backend.
type backend struct {
	source  search.Source
	indexer importer.Indexer
	closers []func() error
}

func (b *backend) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		_ = b.closers[i]()
	}
}

// newBackend builds the candidate source. The memory backend filters a
// snapshot of the catalog locally and reloads it after a refresh; the others
// answer per query behind a short-lived cache.
func newBackend(ctx context.Context, cfg *config.Config, db *catalog.DB) (*backend, error) {
	switch cfg.Search.Backend {
	case config.BackendMemory:
		src, err := search.NewSnapshotSource(ctx, db)
		if err != nil {
			return nil, err
		}
		return &backend{source: src}, nil

	case config.BackendBleve:
		bs, err := search.NewBleveSource(ctx, db, cfg.Database.SearchIndex, cfg.Search.Limit)
		if err != nil {
			return nil, fmt.Errorf("opening search index: %w", err)
		}
		return &backend{
			source:  search.NewCachedSource(bs, cfg.Search.CacheTTL),
			indexer: bs,
			closers: []func() error{bs.Close},
		}, nil

	case config.BackendHTTP:
		var opts []search.HTTPOption
		if cfg.Search.APIToken != "" {
			opts = append(opts, search.WithBearerToken(cfg.Search.APIToken))
		}
		hs := search.NewHTTPSource(cfg.Search.Endpoint, cfg.Import.UserAgent, cfg.Search.FetchTimeout, opts...)
		return &backend{source: search.NewCachedSource(hs, cfg.Search.CacheTTL)}, nil

	default:
		return nil, fmt.Errorf("unknown search backend %q", cfg.Search.Backend)
	}
}
