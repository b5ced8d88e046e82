package search

import (
	"fmt"

	"github.com/pders01/mrkt/internal/catalog"
)

// Kind tags a searchable entity.
type Kind string

const (
	KindStore   Kind = "store"
	KindProduct Kind = "product"
)

// Entity is the normalized searchable record. Identity is (Kind, ID).
// Price and StoreID are only meaningful for products; a nil Price is unpriced.
type Entity struct {
	Kind        Kind     `json:"kind"`
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Path        string   `json:"path,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	Currency    string   `json:"currency,omitempty"`
	StoreID     string   `json:"store_id,omitempty"`
}

// Key returns the identity of the entity as a single string.
func (e Entity) Key() string {
	return string(e.Kind) + ":" + e.ID
}

// Candidates is the unfiltered set the dropdown narrows down.
type Candidates struct {
	Stores   []Entity `json:"stores"`
	Products []Entity `json:"products"`
}

// Len reports the total number of entities.
func (c Candidates) Len() int {
	return len(c.Stores) + len(c.Products)
}

func StoreEntity(s catalog.Store) Entity {
	return Entity{
		Kind:        KindStore,
		ID:          s.ID,
		Name:        s.Name,
		Description: s.Description,
		Path:        s.Path,
	}
}

func ProductEntity(p catalog.Product) Entity {
	return Entity{
		Kind:        KindProduct,
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Path:        p.Path,
		Price:       p.Price,
		Currency:    p.Currency,
		StoreID:     p.StoreID,
	}
}

// FromSnapshot converts a catalog snapshot, preserving order.
func FromSnapshot(snap *catalog.Snapshot) Candidates {
	if snap == nil {
		return Candidates{}
	}
	c := Candidates{
		Stores:   make([]Entity, 0, len(snap.Stores)),
		Products: make([]Entity, 0, len(snap.Products)),
	}
	for _, s := range snap.Stores {
		c.Stores = append(c.Stores, StoreEntity(s))
	}
	for _, p := range snap.Products {
		c.Products = append(c.Products, ProductEntity(p))
	}
	return c
}

// DefaultPath is the navigation target for an entity without an explicit path.
func DefaultPath(kind Kind, id string) string {
	switch kind {
	case KindStore:
		return fmt.Sprintf("/stores/%s", id)
	case KindProduct:
		return fmt.Sprintf("/products/%s", id)
	default:
		return "/"
	}
}
