package search

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	bleveQuery "github.com/blevesearch/bleve/v2/search/query"

	"github.com/pders01/mrkt/internal/catalog"
)

// BleveSource answers queries from a bleve index built over the catalog.
type BleveSource struct {
	repo  catalog.Repository
	idx   bleve.Index
	limit int
}

// NewBleveSource creates or opens a Bleve index at indexPath and indexes the
// current catalog. An empty indexPath keeps the index in memory.
func NewBleveSource(ctx context.Context, repo catalog.Repository, indexPath string, limit int) (*BleveSource, error) {
	idx, err := openIndex(indexPath)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}

	bs := &BleveSource{repo: repo, idx: idx, limit: limit}
	if err := bs.Reindex(ctx); err != nil {
		_ = idx.Close()
		return nil, err
	}
	return bs, nil
}

func openIndex(indexPath string) (bleve.Index, error) {
	if indexPath == "" {
		return bleve.NewMemOnly(buildIndexMapping())
	}
	if err := os.MkdirAll(filepath.Dir(indexPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}
	if idx, err := bleve.Open(indexPath); err == nil {
		if idx.Mapping().AnalyzerNameForPath("text") == keyword.Name {
			return idx, nil
		}
		// built before the text field existed; NewBleveSource reindexes anyway
		_ = idx.Close()
		if err := os.RemoveAll(indexPath); err != nil {
			return nil, fmt.Errorf("removing outdated index: %w", err)
		}
	}
	idx, err := bleve.New(indexPath, buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("creating index: %w", err)
	}
	return idx, nil
}

func buildIndexMapping() mapping.IndexMapping {
	im := bleve.NewIndexMapping()
	im.DefaultAnalyzer = standard.Name

	dm := bleve.NewDocumentMapping()

	name := bleve.NewTextFieldMapping()
	name.Analyzer = standard.Name
	name.Store = true
	name.IncludeTermVectors = true

	desc := bleve.NewTextFieldMapping()
	desc.Analyzer = standard.Name
	desc.Store = true

	price := bleve.NewNumericFieldMapping()
	price.Store = true

	// "name description" lower-cased as a single term, for substring matches
	// that cross token boundaries or hit stop words
	text := bleve.NewTextFieldMapping()
	text.Analyzer = keyword.Name
	text.Store = false
	text.IncludeTermVectors = false
	text.IncludeInAll = false

	dm.AddFieldMappingsAt("name", name)
	dm.AddFieldMappingsAt("description", desc)
	dm.AddFieldMappingsAt("text", text)
	dm.AddFieldMappingsAt("price", price)
	// exact-value fields used to rebuild entities from hits and to sort
	for _, f := range []string{"kind", "id", "store_id", "sort_name"} {
		dm.AddFieldMappingsAt(f, keywordField(true))
	}
	for _, f := range []string{"path", "currency"} {
		dm.AddFieldMappingsAt(f, keywordField(false))
	}

	im.DefaultMapping = dm
	return im
}

func keywordField(indexed bool) *mapping.FieldMapping {
	fm := bleve.NewTextFieldMapping()
	fm.Analyzer = keyword.Name
	fm.Store = true
	fm.Index = indexed
	fm.IncludeTermVectors = false
	return fm
}

// Reindex indexes every store and product currently in the repository.
func (b *BleveSource) Reindex(ctx context.Context) error {
	snap, err := b.repo.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("loading catalog: %w", err)
	}
	batch := b.idx.NewBatch()
	for _, s := range snap.Stores {
		if err := batch.Index(docID(KindStore, s.ID), storeDoc(s)); err != nil {
			return err
		}
	}
	for _, p := range snap.Products {
		if err := batch.Index(docID(KindProduct, p.ID), productDoc(p)); err != nil {
			return err
		}
	}
	return b.idx.Batch(batch)
}

// OnStoreUpdated indexes one store and its current products.
func (b *BleveSource) OnStoreUpdated(store catalog.Store, products []catalog.Product) error {
	batch := b.idx.NewBatch()
	if err := batch.Index(docID(KindStore, store.ID), storeDoc(store)); err != nil {
		return err
	}
	for _, p := range products {
		if err := batch.Index(docID(KindProduct, p.ID), productDoc(p)); err != nil {
			return err
		}
	}
	return b.idx.Batch(batch)
}

// OnStoreDeleted removes the store document and every product document of the store.
func (b *BleveSource) OnStoreDeleted(storeID string) error {
	if err := b.idx.Delete(docID(KindStore, storeID)); err != nil {
		return err
	}

	tq := bleve.NewTermQuery(storeID)
	tq.SetField("store_id")

	const size = 1000
	for {
		req := bleve.NewSearchRequestOptions(tq, size, 0, false)
		res, err := b.idx.Search(req)
		if err != nil {
			return err
		}
		if len(res.Hits) == 0 {
			return nil
		}
		batch := b.idx.NewBatch()
		for _, h := range res.Hits {
			batch.Delete(h.ID)
		}
		if err := b.idx.Batch(batch); err != nil {
			return err
		}
		if len(res.Hits) < size {
			return nil
		}
	}
}

// Candidates implements Source. A blank query returns every document; otherwise
// every store and product whose "name description" contains the query, ranked
// by prefix and term matches on the analyzed fields.
func (b *BleveSource) Candidates(ctx context.Context, query string) (Candidates, error) {
	if err := ctx.Err(); err != nil {
		return Candidates{}, err
	}

	q := buildQuery(query)
	req := bleve.NewSearchRequestOptions(q, b.limit, 0, false)
	req.Fields = []string{"kind", "id", "name", "description", "path", "price", "currency", "store_id"}
	// equal scores (always the case for match-all) fall back to catalog order
	req.SortBy([]string{"-_score", "sort_name", "_id"})

	res, err := b.idx.SearchInContext(ctx, req)
	if err != nil {
		return Candidates{}, err
	}

	var out Candidates
	for _, h := range res.Hits {
		e := entityFromFields(h.Fields)
		switch e.Kind {
		case KindStore:
			out.Stores = append(out.Stores, e)
		case KindProduct:
			out.Products = append(out.Products, e)
		}
	}
	return out, nil
}

func buildQuery(query string) bleveQuery.Query {
	q := NormalizeQuery(query)
	if q == "" {
		return bleve.NewMatchAllQuery()
	}

	// the substring query decides membership, the rest only ranks
	sub := bleve.NewRegexpQuery(substringPattern(q))
	sub.SetField("text")
	sub.SetBoost(1.0)
	qs := []bleveQuery.Query{sub}

	for _, field := range []struct {
		name  string
		boost float64
	}{{"name", 4.0}, {"description", 2.0}} {
		for _, tok := range queryTerms(q) {
			qp := bleve.NewPrefixQuery(tok)
			qp.SetField(field.name)
			qp.SetBoost(field.boost * 0.9)
			qs = append(qs, qp)

			qm := bleve.NewMatchQuery(tok)
			qm.SetField(field.name)
			qm.SetBoost(field.boost)
			qs = append(qs, qm)
		}
	}
	return bleve.NewDisjunctionQuery(qs...)
}

func entityFromFields(fields map[string]interface{}) Entity {
	str := func(k string) string {
		if v, ok := fields[k].(string); ok {
			return v
		}
		return ""
	}
	e := Entity{
		Kind:        Kind(str("kind")),
		ID:          str("id"),
		Name:        str("name"),
		Description: str("description"),
		Path:        str("path"),
		Currency:    str("currency"),
		StoreID:     str("store_id"),
	}
	if p, ok := fields["price"].(float64); ok {
		e.Price = &p
	}
	return e
}

// DocCount reports total documents in the index.
func (b *BleveSource) DocCount() (int, error) {
	n, err := b.idx.DocCount()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func (b *BleveSource) Close() error {
	return b.idx.Close()
}

func storeDoc(s catalog.Store) map[string]any {
	return map[string]any{
		"kind":        string(KindStore),
		"id":          s.ID,
		"name":        s.Name,
		"description": s.Description,
		"text":        searchText(s.Name, s.Description),
		"path":        s.Path,
		"sort_name":   strings.ToLower(s.Name),
	}
}

func productDoc(p catalog.Product) map[string]any {
	doc := map[string]any{
		"kind":        string(KindProduct),
		"id":          p.ID,
		"name":        p.Name,
		"description": p.Description,
		"text":        searchText(p.Name, p.Description),
		"path":        p.Path,
		"currency":    p.Currency,
		"store_id":    p.StoreID,
		"sort_name":   strings.ToLower(p.Name),
	}
	if p.Price != nil {
		doc["price"] = *p.Price
	}
	return doc
}

func docID(kind Kind, id string) string { return string(kind) + ":" + id }

// searchText is the value of the "text" field. It lower-cases exactly like
// Filter so both agree on what contains a query.
func searchText(name, description string) string {
	return strings.ToLower(name + " " + description)
}

func substringPattern(q string) string {
	return `(?s).*` + regexp.QuoteMeta(q) + `.*`
}

// queryTerms splits a normalized query into distinct terms of two or more runes.
func queryTerms(q string) []string {
	seen := map[string]bool{}
	var out []string
	for _, f := range strings.FieldsFunc(q, func(r rune) bool {
		return !(r == '-' || r == '_' || ('a' <= r && r <= 'z') || ('0' <= r && r <= '9') || r > 127)
	}) {
		if len([]rune(f)) < 2 || seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}
