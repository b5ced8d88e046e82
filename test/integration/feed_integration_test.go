package integration

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pders01/mrkt/internal/catalog"
	"github.com/pders01/mrkt/internal/config"
	"github.com/pders01/mrkt/internal/importer"
	"github.com/pders01/mrkt/internal/navigate"
	"github.com/pders01/mrkt/internal/search"
	"github.com/pders01/mrkt/internal/searchbar"
)

var fixtures *httptest.Server

const rssFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:g="http://base.google.com/ns/1.0">
	<channel>
		<title>Keyboard Corner</title>
		<description>Keyboards and switches</description>
		<item>
			<title>Mechanical Keyboard</title>
			<link>http://shop.example/p/kb</link>
			<description>Tactile switches</description>
			<guid>kb</guid>
			<g:price>89.90 USD</g:price>
		</item>
		<item>
			<title>Keycap Set</title>
			<guid>caps</guid>
			<g:price>25 USD</g:price>
		</item>
		<item>
			<title>Wrist Rest</title>
			<guid>rest</guid>
			<g:price>15 USD</g:price>
		</item>
	</channel>
</rss>`

const atomFeed = `<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
	<title>Paper Goods</title>
	<id>urn:paper</id>
	<updated>2024-01-01T00:00:00Z</updated>
	<entry>
		<title>Notebook</title>
		<id>urn:paper:notebook</id>
		<updated>2024-01-01T00:00:00Z</updated>
		<summary>Dotted pages</summary>
	</entry>
	<entry>
		<title>Fountain Pen</title>
		<id>urn:paper:pen</id>
		<updated>2024-01-01T00:00:00Z</updated>
	</entry>
</feed>`

func TestMain(m *testing.M) {
	mux := http.NewServeMux()
	mux.HandleFunc("/feed.rss", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprint(w, rssFeed)
	})
	mux.HandleFunc("/feed.atom", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/atom+xml")
		fmt.Fprint(w, atomFeed)
	})
	mux.HandleFunc("/cached-feed.rss", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("If-None-Match") == `"test-etag-123"` {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"test-etag-123"`)
		w.Header().Set("Last-Modified", "Mon, 01 Jan 2024 00:00:00 GMT")
		fmt.Fprint(w, rssFeed)
	})
	mux.HandleFunc("/rate-limited.rss", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "60")
		w.WriteHeader(http.StatusTooManyRequests)
	})
	fixtures = httptest.NewServer(mux)

	code := m.Run()

	fixtures.Close()
	os.Exit(code)
}

func setupTestEnvironment(t *testing.T) (*catalog.DB, *importer.Manager, func()) {
	tmpDir, err := os.MkdirTemp("", "integration-test-*")
	if err != nil {
		t.Fatal(err)
	}

	db, err := catalog.Open(filepath.Join(tmpDir, "test.db"), time.Second)
	if err != nil {
		os.RemoveAll(tmpDir)
		t.Fatal(err)
	}

	// TestConfig allows loopback feed URLs
	manager := importer.NewManager(db, config.TestConfig())

	cleanup := func() {
		db.Close()
		os.RemoveAll(tmpDir)
	}

	return db, manager, cleanup
}

func TestIntegration_ImportRSSFeed(t *testing.T) {
	db, manager, cleanup := setupTestEnvironment(t)
	defer cleanup()

	report, err := manager.ImportFeed(context.Background(), "keys", fixtures.URL+"/feed.rss")
	if err != nil {
		t.Fatalf("Failed to import RSS feed: %v", err)
	}
	if report.Products != 3 {
		t.Errorf("Expected 3 products, got %d", report.Products)
	}

	store, err := db.GetStore("keys")
	if err != nil {
		t.Fatalf("Failed to get store: %v", err)
	}
	if store.Name != "Keyboard Corner" {
		t.Errorf("Expected store name from the feed title, got %q", store.Name)
	}

	products, err := db.ListProducts("keys", 10)
	if err != nil {
		t.Fatalf("Failed to list products: %v", err)
	}
	for _, p := range products {
		if p.Name == "" {
			t.Error("Product has empty name")
		}
		if p.Price == nil || *p.Price <= 0 {
			t.Errorf("Product %q has no price", p.Name)
		}
	}
}

func TestIntegration_ImportAtomFeed(t *testing.T) {
	db, manager, cleanup := setupTestEnvironment(t)
	defer cleanup()

	if _, err := manager.ImportFeed(context.Background(), "paper", fixtures.URL+"/feed.atom"); err != nil {
		t.Fatalf("Failed to import Atom feed: %v", err)
	}

	products, err := db.ListProducts("paper", 10)
	if err != nil {
		t.Fatalf("Failed to list products: %v", err)
	}
	if len(products) != 2 {
		t.Errorf("Expected 2 products, got %d", len(products))
	}
}

func TestIntegration_CachingHeaders(t *testing.T) {
	db, manager, cleanup := setupTestEnvironment(t)
	defer cleanup()

	if _, err := manager.ImportFeed(context.Background(), "cached", fixtures.URL+"/cached-feed.rss"); err != nil {
		t.Fatalf("Failed to import cached feed: %v", err)
	}

	meta, err := db.GetImportMeta("cached")
	if err != nil {
		t.Fatalf("Failed to get import meta: %v", err)
	}
	if meta.ETag != `"test-etag-123"` {
		t.Errorf(`Expected ETag "test-etag-123", got %s`, meta.ETag)
	}
	if meta.LastModified == "" {
		t.Error("Expected Last-Modified to be recorded")
	}

	reports, err := manager.RefreshAll(context.Background())
	if err != nil {
		t.Fatalf("Refresh should handle 304 response: %v", err)
	}
	if len(reports) != 1 || !reports[0].NotModified {
		t.Errorf("Expected one not-modified report, got %+v", reports)
	}
}

func TestIntegration_RateLimiting(t *testing.T) {
	_, manager, cleanup := setupTestEnvironment(t)
	defer cleanup()

	_, err := manager.ImportFeed(context.Background(), "busy", fixtures.URL+"/rate-limited.rss")
	if err == nil {
		t.Fatal("Expected error for rate limited feed, got nil")
	}
	if !strings.Contains(err.Error(), "429") {
		t.Errorf("Expected a 429 error, got %v", err)
	}
}

// TestIntegration_SearchImportedProducts runs an import into a bleve index
// and selects a product through the search box.
func TestIntegration_SearchImportedProducts(t *testing.T) {
	db, manager, cleanup := setupTestEnvironment(t)
	defer cleanup()
	ctx := context.Background()

	if err := db.ApplySeed(catalog.DemoSeed()); err != nil {
		t.Fatalf("Failed to seed catalog: %v", err)
	}

	index, err := search.NewBleveSource(ctx, db, "", 50)
	if err != nil {
		t.Fatalf("Failed to build index: %v", err)
	}
	defer index.Close()
	manager.SetIndexer(index)

	if _, err := manager.ImportFeed(ctx, "keys", fixtures.URL+"/feed.rss"); err != nil {
		t.Fatalf("Failed to import feed: %v", err)
	}

	history := &navigate.History{}
	box := searchbar.NewController(search.NewCachedSource(index, time.Minute),
		searchbar.WithNavigator(history),
		searchbar.WithDebounce(0),
	)
	defer box.Close()

	box.Dispatch(searchbar.Focus{})
	box.Dispatch(searchbar.Input{Query: "keyboard"})

	state := waitFor(t, box, func(s searchbar.State) bool {
		return !s.Loading && len(s.Results) > 0
	})

	var found bool
	for _, e := range state.Results {
		if e.Title == "Mechanical Keyboard" {
			found = true
			box.Dispatch(searchbar.Click{Index: e.FlatIndex})
			break
		}
	}
	if !found {
		t.Fatalf("Expected the imported keyboard in %+v", state.Results)
	}

	route, err := navigate.ParsePath(history.Last())
	if err != nil {
		t.Fatalf("Selection navigated to an invalid path %q: %v", history.Last(), err)
	}
	product, err := db.GetProduct(route.ID)
	if err != nil {
		t.Fatalf("Selected product is not in the catalog: %v", err)
	}
	if product.StoreID != "keys" {
		t.Errorf("Expected product of store keys, got %q", product.StoreID)
	}
	if box.State().Open {
		t.Error("Expected the dropdown to close after selection")
	}
}

func waitFor(t *testing.T, c *searchbar.Controller, ok func(searchbar.State) bool) searchbar.State {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if s := c.State(); ok(s) {
			return s
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("search state did not settle: %+v", c.State())
	return searchbar.State{}
}
