package catalog

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a store, product or import record is missing.
var ErrNotFound = errors.New("not found")

type Store struct {
	ID          string    `json:"id" toml:"id"`
	Name        string    `json:"name" toml:"name"`
	Description string    `json:"description" toml:"description"`
	Path        string    `json:"path,omitempty" toml:"path,omitempty"`
	FeedURL     string    `json:"feed_url,omitempty" toml:"feed_url,omitempty"`
	UpdatedAt   time.Time `json:"updated_at" toml:"-"`
}

type Product struct {
	ID          string    `json:"id" toml:"id"`
	StoreID     string    `json:"store_id" toml:"store_id"`
	Name        string    `json:"name" toml:"name"`
	Description string    `json:"description" toml:"description"`
	Price       *float64  `json:"price,omitempty" toml:"price,omitempty"`
	Currency    string    `json:"currency,omitempty" toml:"currency,omitempty"`
	Path        string    `json:"path,omitempty" toml:"path,omitempty"`
	URL         string    `json:"url,omitempty" toml:"url,omitempty"`
	UpdatedAt   time.Time `json:"updated_at" toml:"-"`
}

// Price returns a pointer for Product.Price; a nil price means unpriced.
func Price(v float64) *float64 {
	return &v
}

// ImportMeta tracks conditional-request state for a store's product feed.
type ImportMeta struct {
	StoreID      string    `json:"store_id"`
	FeedURL      string    `json:"feed_url"`
	ETag         string    `json:"etag"`
	LastModified string    `json:"last_modified"`
	LastFetched  time.Time `json:"last_fetched"`
	ProductCount int       `json:"product_count"`
}

// Snapshot is a point-in-time copy of the catalog. Callers own the slices.
type Snapshot struct {
	Stores   []Store
	Products []Product
}

func (s *Snapshot) clone() *Snapshot {
	if s == nil {
		return &Snapshot{}
	}
	out := &Snapshot{
		Stores:   make([]Store, len(s.Stores)),
		Products: make([]Product, len(s.Products)),
	}
	copy(out.Stores, s.Stores)
	copy(out.Products, s.Products)
	return out
}
