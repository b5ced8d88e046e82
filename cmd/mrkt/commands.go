package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pders01/mrkt/internal/catalog"
	"github.com/pders01/mrkt/internal/config"
	"github.com/pders01/mrkt/internal/debuglog"
	"github.com/pders01/mrkt/internal/importer"
	"github.com/pders01/mrkt/internal/search"
	"github.com/pders01/mrkt/internal/searchbar"
	"github.com/pders01/mrkt/internal/validation"
)

const importTimeout = 5 * time.Minute

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func newSearchCmd(flags *globalFlags) *cobra.Command {
	var asHTML, asJSON bool

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search stores and products once and print the grouped results",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if asHTML && asJSON {
				return errors.New("--html and --json are mutually exclusive")
			}
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			defer debuglog.Close()

			db, err := openCatalog(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			ctx := commandContext(cmd)
			b, err := newBackend(ctx, cfg, db)
			if err != nil {
				return err
			}
			defer b.Close()

			state, err := runQuery(ctx, b.source, strings.Join(args, " "), cfg.Search.FetchTimeout)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch {
			case asHTML:
				return searchbar.RenderHTML(out, state, cfg.Search.Placeholder)
			case asJSON:
				return writeJSON(out, state)
			default:
				writeText(out, state)
				return nil
			}
		},
	}
	cmd.Flags().BoolVar(&asHTML, "html", false, "Print the search box as an accessible HTML fragment")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the results as JSON")
	return cmd
}

// runQuery asks src once and derives the open search state for query.
func runQuery(ctx context.Context, src search.Source, query string, timeout time.Duration) (searchbar.State, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	candidates, err := src.Candidates(ctx, query)
	if err != nil {
		return searchbar.State{}, fmt.Errorf("searching: %w", err)
	}
	s := searchbar.New(candidates)
	s, _ = searchbar.Reduce(s, searchbar.Focus{})
	s, _ = searchbar.Reduce(s, searchbar.Input{Query: query})
	return s, nil
}

func writeText(w io.Writer, s searchbar.State) {
	var stores, products []search.FlatEntry
	for _, e := range s.Results {
		if e.Kind == search.KindStore {
			stores = append(stores, e)
		} else {
			products = append(products, e)
		}
	}

	group := func(header, empty string, rows []search.FlatEntry) {
		fmt.Fprintf(w, "%s (%d)\n", header, len(rows))
		if len(rows) == 0 {
			fmt.Fprintf(w, "  %s\n", empty)
			return
		}
		for _, e := range rows {
			line := "  " + e.Title
			if price := searchbar.FormatPrice(e); price != "" {
				line += "  " + price
			}
			fmt.Fprintf(w, "%s  %s\n", line, e.Path)
		}
	}
	group("Stores", "No stores found", stores)
	group("Products & Services", "No products found", products)
}

type jsonEntry struct {
	Kind        search.Kind `json:"kind"`
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description,omitempty"`
	Path        string      `json:"path"`
	Price       *float64    `json:"price,omitempty"`
	Currency    string      `json:"currency,omitempty"`
}

type jsonResults struct {
	Query    string      `json:"query"`
	Stores   []jsonEntry `json:"stores"`
	Products []jsonEntry `json:"products"`
}

func writeJSON(w io.Writer, s searchbar.State) error {
	res := jsonResults{Query: s.Query, Stores: []jsonEntry{}, Products: []jsonEntry{}}
	for _, e := range s.Results {
		je := jsonEntry{Kind: e.Kind, ID: e.ID, Title: e.Title, Description: e.Description, Path: e.Path}
		if e.HasPrice {
			price := e.Price
			je.Price = &price
			je.Currency = e.Currency
		}
		if e.Kind == search.KindStore {
			res.Stores = append(res.Stores, je)
		} else {
			res.Products = append(res.Products, je)
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

func newSeedCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "seed [file]",
		Short: "Load a TOML catalog into the database (the demo catalog without a file)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			defer debuglog.Close()

			seed := catalog.DemoSeed()
			if len(args) == 1 {
				if seed, err = readSeed(args[0]); err != nil {
					return err
				}
			}

			db, err := openCatalog(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := db.ApplySeed(seed); err != nil {
				return err
			}
			if err := syncIndex(commandContext(cmd), cfg, db); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d stores and %d products\n", len(seed.Stores), len(seed.Products))
			return nil
		},
	}
}

func readSeed(path string) (*catalog.Seed, error) {
	clean, err := validation.NewUnrestrictedPathValidator().File(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(clean)
	if err != nil {
		return nil, fmt.Errorf("opening seed: %w", err)
	}
	defer f.Close()
	return catalog.LoadSeed(f)
}

// syncIndex rebuilds the bleve index after bulk catalog changes. Other
// backends read the catalog directly.
func syncIndex(ctx context.Context, cfg *config.Config, db *catalog.DB) error {
	if cfg.Search.Backend != config.BackendBleve {
		return nil
	}
	_, err := reindex(ctx, cfg, db)
	return err
}

func reindex(ctx context.Context, cfg *config.Config, db *catalog.DB) (int, error) {
	bs, err := search.NewBleveSource(ctx, db, cfg.Database.SearchIndex, cfg.Search.Limit)
	if err != nil {
		return 0, fmt.Errorf("rebuilding search index: %w", err)
	}
	defer bs.Close()
	return bs.DocCount()
}

func newImportCmd(flags *globalFlags) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "import <store-id> <url>",
		Short: "Import a store's products from an RSS or Atom feed",
		Long: `Fetches the feed at <url> and replaces the products of <store-id> with
its items. The store is created from the feed's title when it does not exist.
The feed URL is remembered for 'mrkt refresh'.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withManager(cmd, flags, force, func(ctx context.Context, m *importer.Manager) error {
				r, err := m.ImportFeed(ctx, args[0], args[1])
				if err != nil {
					return err
				}
				printReport(cmd.OutOrStdout(), *r)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Ignore ETag and Last-Modified from the previous import")
	return cmd
}

func newRefreshCmd(flags *globalFlags) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Re-import the product feed of every store that has one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withManager(cmd, flags, force, func(ctx context.Context, m *importer.Manager) error {
				reports, err := m.RefreshAll(ctx)
				out := cmd.OutOrStdout()
				if err == nil && len(reports) == 0 {
					fmt.Fprintln(out, "No store has a product feed")
					return nil
				}
				for _, r := range reports {
					printReport(out, r)
				}
				return err
			})
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Ignore ETag and Last-Modified from previous imports")
	return cmd
}

// withManager runs fn with an import manager wired to the configured index.
func withManager(cmd *cobra.Command, flags *globalFlags, force bool, fn func(context.Context, *importer.Manager) error) error {
	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}
	defer debuglog.Close()

	db, err := openCatalog(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(commandContext(cmd), importTimeout)
	defer cancel()

	m := importer.NewManager(db, cfg)
	m.SetForceRefresh(force)
	if cfg.Search.Backend == config.BackendBleve {
		b, err := newBackend(ctx, cfg, db)
		if err != nil {
			return err
		}
		defer b.Close()
		m.SetIndexer(b.indexer)
	}
	return fn(ctx, m)
}

func printReport(w io.Writer, r importer.Report) {
	if r.NotModified {
		fmt.Fprintf(w, "store %s: not modified\n", r.StoreID)
		return
	}
	fmt.Fprintf(w, "store %s: %d products from %s\n", r.StoreID, r.Products, r.FeedURL)
}

func newReindexCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "reindex",
		Short: "Rebuild the bleve search index from the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			defer debuglog.Close()
			if cfg.Database.SearchIndex == "" {
				return errors.New("database.search_index is not set")
			}

			db, err := openCatalog(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			n, err := reindex(commandContext(cmd), cfg, db)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d documents into %s\n", n, cfg.Database.SearchIndex)
			return nil
		},
	}
}

func newGenerateConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "generate-config [file]",
		Short: "Write the default configuration file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.DefaultPath()
			if len(args) == 1 {
				path = args[0]
			}
			if err := config.GenerateDefaultConfig(path); err != nil {
				return fmt.Errorf("failed to generate config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Generated default configuration at: %s\n", path)
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "mrkt %s\n", Version)
			fmt.Fprintln(out, "Marketplace search")
			fmt.Fprintln(out, "github.com/pders01/mrkt")
		},
	}
}
