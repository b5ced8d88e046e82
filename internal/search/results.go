package search

// FlatEntry is one navigable row of the dropdown.
type FlatEntry struct {
	Kind        Kind
	ID          string
	Title       string
	Description string
	Path        string
	Price       float64
	Currency    string
	HasPrice    bool
	FlatIndex   int
}

// Flatten lays out stores then products and numbers them contiguously from 0.
func Flatten(f Filtered) []FlatEntry {
	out := make([]FlatEntry, 0, f.Len())
	for _, s := range f.Stores {
		out = append(out, toFlat(s, len(out)))
	}
	for _, p := range f.Products {
		out = append(out, toFlat(p, len(out)))
	}
	return out
}

func toFlat(e Entity, idx int) FlatEntry {
	path := e.Path
	if path == "" {
		path = DefaultPath(e.Kind, e.ID)
	}
	fe := FlatEntry{
		Kind:        e.Kind,
		ID:          e.ID,
		Title:       e.Name,
		Description: e.Description,
		Path:        path,
		Currency:    e.Currency,
		FlatIndex:   idx,
	}
	if e.Kind == KindProduct && e.Price != nil {
		fe.Price = *e.Price
		fe.HasPrice = true
	}
	return fe
}
