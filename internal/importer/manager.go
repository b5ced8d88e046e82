package importer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pders01/mrkt/internal/catalog"
	"github.com/pders01/mrkt/internal/config"
	"github.com/pders01/mrkt/internal/debuglog"
	"github.com/pders01/mrkt/internal/plugins"
	"github.com/pders01/mrkt/internal/plugins/platforms"
	"github.com/pders01/mrkt/internal/validation"
)

// Indexer is told about catalog changes so a search index can follow them.
type Indexer interface {
	OnStoreUpdated(store catalog.Store, products []catalog.Product) error
	OnStoreDeleted(storeID string) error
}

// Report summarizes one feed import.
type Report struct {
	StoreID     string
	FeedURL     string
	Products    int
	NotModified bool
}

type Manager struct {
	db           *catalog.DB
	fetcher      *Fetcher
	parser       *Parser
	urlValidator *validation.EndpointValidator
	resolver     *plugins.Registry
	concurrency  int
	indexer      Indexer
}

func NewManager(db *catalog.DB, cfg *config.Config) *Manager {
	v := validation.NewEndpointValidator()
	if cfg.Import.AllowPrivate {
		v = validation.NewLocalEndpointValidator()
	}
	return &Manager{
		db:           db,
		fetcher:      NewFetcher(cfg),
		parser:       NewParser(cfg.Import.MaxItems),
		urlValidator: v,
		resolver:     platforms.Default(),
		concurrency:  max(1, cfg.Import.Concurrency),
	}
}

// SetIndexer registers the index to update after each import.
func (m *Manager) SetIndexer(ix Indexer) {
	m.indexer = ix
}

// SetResolver replaces the registry that maps shop pages to feed URLs.
func (m *Manager) SetResolver(r *plugins.Registry) {
	m.resolver = r
}

// SetForceRefresh configures the manager to ignore ETag/Last-Modified headers
func (m *Manager) SetForceRefresh(force bool) {
	m.fetcher.SetIgnoreCache(force)
}

// ImportFeed fetches the product feed at rawURL and replaces the products of
// storeID with its items. The store is created from the feed's channel data
// when it does not exist yet. A shop page of a known platform is accepted in
// place of its feed.
func (m *Manager) ImportFeed(ctx context.Context, storeID, rawURL string) (*Report, error) {
	storeID = strings.TrimSpace(storeID)
	if storeID == "" {
		return nil, fmt.Errorf("store id is required")
	}
	info := &plugins.FeedInfo{OriginalURL: rawURL, FeedURL: rawURL}
	if m.resolver != nil {
		resolved, err := m.resolver.Resolve(ctx, rawURL)
		if err != nil {
			return nil, fmt.Errorf("resolving feed URL: %w", err)
		}
		info = resolved
	}
	feedURL, err := m.urlValidator.Normalize(info.FeedURL)
	if err != nil {
		return nil, fmt.Errorf("invalid feed URL: %w", err)
	}
	log := debuglog.WithFields(map[string]interface{}{"store": storeID, "url": feedURL})
	if info.Platform != "" {
		log.With("platform", info.Platform).Debugf("resolved %s", rawURL)
	}

	meta, err := m.db.GetImportMeta(storeID)
	if err != nil && !errors.Is(err, catalog.ErrNotFound) {
		return nil, err
	}

	resp, err := m.fetcher.Fetch(ctx, feedURL, meta)
	if err != nil {
		log.Warnf("import fetch failed: %v", err)
		return nil, err
	}

	now := time.Now()
	report := &Report{StoreID: storeID, FeedURL: feedURL}
	if resp.NotModified {
		if meta == nil {
			return nil, fmt.Errorf("feed answered 304 to an unconditional request")
		}
		meta.LastFetched = now
		if err := m.db.SaveImportMeta(meta); err != nil {
			return nil, fmt.Errorf("saving import metadata: %w", err)
		}
		report.NotModified = true
		report.Products = meta.ProductCount
		log.Debugf("feed not modified")
		return report, nil
	}

	parsed, err := m.parser.Parse(bytes.NewReader(resp.Body), storeID)
	if err != nil {
		log.Warnf("import parse failed: %v", err)
		return nil, err
	}

	store, err := m.db.GetStore(storeID)
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		store = &catalog.Store{
			ID:          storeID,
			Name:        firstNonEmpty(parsed.Title, info.StoreName, storeID),
			Description: parsed.Description,
		}
	case err != nil:
		return nil, err
	}
	store.FeedURL = feedURL
	store.UpdatedAt = now
	for i := range parsed.Products {
		parsed.Products[i].UpdatedAt = now
	}

	if err := m.db.SaveStore(store); err != nil {
		return nil, fmt.Errorf("saving store: %w", err)
	}
	if err := m.db.ReplaceProducts(storeID, parsed.Products); err != nil {
		return nil, fmt.Errorf("saving products: %w", err)
	}
	if err := m.db.SaveImportMeta(&catalog.ImportMeta{
		StoreID:      storeID,
		FeedURL:      feedURL,
		ETag:         resp.ETag,
		LastModified: resp.LastModified,
		LastFetched:  now,
		ProductCount: len(parsed.Products),
	}); err != nil {
		return nil, fmt.Errorf("saving import metadata: %w", err)
	}

	if m.indexer != nil {
		// the store is re-indexed from scratch so dropped products disappear
		if err := m.indexer.OnStoreDeleted(storeID); err != nil {
			log.Warnf("index delete failed: %v", err)
		}
		if err := m.indexer.OnStoreUpdated(*store, parsed.Products); err != nil {
			log.Warnf("index update failed: %v", err)
		}
	}

	report.Products = len(parsed.Products)
	log.Infof("imported %d products", report.Products)
	return report, nil
}

// RefreshAll re-imports every store that has a feed URL, a bounded number
// at a time. Failures of single stores are joined into the returned error;
// the reports of successful stores are returned either way.
func (m *Manager) RefreshAll(ctx context.Context) ([]Report, error) {
	stores, err := m.db.ListStores()
	if err != nil {
		return nil, fmt.Errorf("listing stores: %w", err)
	}

	var targets []catalog.Store
	for _, s := range stores {
		if s.FeedURL != "" {
			targets = append(targets, s)
		}
	}
	if len(targets) == 0 {
		return nil, nil
	}

	reports := make([]*Report, len(targets))
	errs := make([]error, len(targets))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.concurrency)
	for i, s := range targets {
		g.Go(func() error {
			r, err := m.ImportFeed(gctx, s.ID, s.FeedURL)
			if err != nil {
				errs[i] = fmt.Errorf("store %s: %w", s.ID, err)
				return nil
			}
			reports[i] = r
			return nil
		})
	}
	_ = g.Wait()

	var out []Report
	for _, r := range reports {
		if r != nil {
			out = append(out, *r)
		}
	}
	return out, errors.Join(errs...)
}
