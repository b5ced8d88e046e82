package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/mrkt/internal/config"
)

const pantryFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:g="http://base.google.com/ns/1.0">
	<channel>
		<title>Corner Pantry</title>
		<description>Dry goods</description>
		<item>
			<title>Rolled Oats</title>
			<description>Whole grain oats</description>
			<guid>oats-1</guid>
			<g:price>4.50 USD</g:price>
		</item>
		<item>
			<title>Basmati Rice</title>
			<guid>rice-2</guid>
			<g:price>7 USD</g:price>
		</item>
	</channel>
</rss>`

// testEnv writes a config with the memory backend into a temp dir and
// returns the global flags pointing at it.
func testEnv(t *testing.T, mutate ...func(*config.Config)) []string {
	t.Helper()
	dir := t.TempDir()

	cfg := config.TestConfig()
	cfg.Database.Path = filepath.Join(dir, "mrkt.db")
	cfg.Log.File = filepath.Join(dir, "mrkt.log")
	for _, m := range mutate {
		m(cfg)
	}
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, config.Save(cfg, path))
	return []string{"--config", path}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func run(t *testing.T, env []string, args ...string) string {
	t.Helper()
	out, err := execute(t, append(args, env...)...)
	require.NoError(t, err, out)
	return out
}

func TestVersion(t *testing.T) {
	out := run(t, nil, "version")
	assert.Contains(t, out, "mrkt dev")
	assert.Contains(t, out, "github.com/pders01/mrkt")
}

func TestSeedAndSearch(t *testing.T) {
	env := testEnv(t)

	out := run(t, env, "seed")
	assert.Equal(t, "Seeded 6 stores and 12 products\n", out)

	tests := []struct {
		name    string
		query   []string
		want    []string
		notWant []string
	}{
		{
			name:  "product",
			query: []string{"lap"},
			want:  []string{"Stores (0)", "No stores found", "Products & Services (1)", "Laptop  $1200  /products/1"},
		},
		{
			name:  "stores",
			query: []string{"store"},
			want:  []string{"Stores (2)", "Electronics Store  /stores/1", "Bookstore  /stores/4", "No products found"},
		},
		{
			name:    "words are joined",
			query:   []string{"mystery", "thriller"},
			want:    []string{"Mystery Thriller  $18"},
			notWant: []string{"Bestseller"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := run(t, env, append([]string{"search"}, tt.query...)...)
			for _, w := range tt.want {
				assert.Contains(t, out, w)
			}
			for _, w := range tt.notWant {
				assert.NotContains(t, out, w)
			}
		})
	}
}

func TestSearchJSON(t *testing.T) {
	env := testEnv(t)
	run(t, env, "seed")

	out := run(t, env, "search", "--json", "lap")

	var res jsonResults
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "lap", res.Query)
	assert.Empty(t, res.Stores)
	require.Len(t, res.Products, 1)
	assert.Equal(t, "Laptop", res.Products[0].Title)
	assert.Equal(t, "/products/1", res.Products[0].Path)
	require.NotNil(t, res.Products[0].Price)
	assert.Equal(t, 1200.0, *res.Products[0].Price)
}

func TestSearchHTML(t *testing.T) {
	env := testEnv(t)
	run(t, env, "seed")

	out := run(t, env, "search", "--html", "lap")

	assert.Contains(t, out, `role="combobox"`)
	assert.Contains(t, out, `aria-expanded="true"`)
	assert.Contains(t, out, "<div>No stores found</div>")
	assert.Contains(t, out, `href="/products/1"`)
}

func TestSearchFlagsExclusive(t *testing.T) {
	env := testEnv(t)
	_, err := execute(t, append([]string{"search", "--html", "--json", "lap"}, env...)...)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mutually exclusive")
}

func TestSearchNeedsQuery(t *testing.T) {
	_, err := execute(t, "search")
	require.Error(t, err)
}

func TestSeedFromFile(t *testing.T) {
	env := testEnv(t)
	seed := filepath.Join(t.TempDir(), "catalog.toml")
	require.NoError(t, os.WriteFile(seed, []byte(`
[[stores]]
id = "w"
name = "Widget World"
description = "Widgets"

[[products]]
id = "w-1"
store_id = "w"
name = "Blue Widget"
description = "A widget"
price = 3.5
currency = "EUR"
`), 0o644))

	out := run(t, env, "seed", seed)
	assert.Equal(t, "Seeded 1 stores and 1 products\n", out)

	out = run(t, env, "search", "widget")
	assert.Contains(t, out, "Widget World  /stores/w")
	assert.Contains(t, out, "Blue Widget  3.5 EUR  /products/w-1")
}

func TestSeedRejectsInvalidFile(t *testing.T) {
	env := testEnv(t)
	seed := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(seed, []byte(`
[[products]]
id = "1"
store_id = "missing"
name = "Orphan"
`), 0o644))

	_, err := execute(t, append([]string{"seed", seed}, env...)...)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown store")
}

func TestImportAndRefresh(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("If-None-Match") == `"p1"` {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"p1"`)
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(pantryFeed))
	}))
	defer srv.Close()

	env := testEnv(t)

	out := run(t, env, "refresh")
	assert.Equal(t, "No store has a product feed\n", out)

	out = run(t, env, "import", "pantry", srv.URL+"/feed.xml")
	assert.Contains(t, out, "store pantry: 2 products from ")
	assert.Contains(t, out, "/feed.xml")

	out = run(t, env, "search", "oats")
	assert.Contains(t, out, "Rolled Oats  $4.5")

	out = run(t, env, "search", "pantry")
	assert.Contains(t, out, "Corner Pantry  /stores/pantry")

	out = run(t, env, "refresh")
	assert.Equal(t, "store pantry: not modified\n", out)

	out = run(t, env, "refresh", "--force")
	assert.Contains(t, out, "store pantry: 2 products")
}

func TestImportRejectsBadURL(t *testing.T) {
	env := testEnv(t)
	_, err := execute(t, append([]string{"import", "s1", "ftp://example.com/feed"}, env...)...)
	require.Error(t, err)
}

func TestReindex(t *testing.T) {
	t.Run("without index path", func(t *testing.T) {
		env := testEnv(t)
		_, err := execute(t, append([]string{"reindex"}, env...)...)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "search_index")
	})

	t.Run("builds the index", func(t *testing.T) {
		index := filepath.Join(t.TempDir(), "index.bleve")
		env := testEnv(t, func(c *config.Config) { c.Database.SearchIndex = index })
		run(t, env, "seed")

		out := run(t, env, "reindex")
		assert.Equal(t, "Indexed 18 documents into "+index+"\n", out)
		assert.DirExists(t, index)
	})
}

func TestInvalidBackend(t *testing.T) {
	env := testEnv(t, func(c *config.Config) { c.Search.Backend = "carrier-pigeon" })
	_, err := execute(t, append([]string{"search", "lap"}, env...)...)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown backend")
}

func TestGenerateConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	out := run(t, nil, "generate-config", path)

	assert.Contains(t, out, path)
	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.BackendBleve, cfg.Search.Backend)
	assert.Equal(t, "/", cfg.Keys.Bindings.Search)
}
