package catalog

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Repository supplies immutable catalog snapshots to the search layer.
type Repository interface {
	Snapshot(ctx context.Context) (*Snapshot, error)
}

// Reader adds record lookups to Repository. DB and MemoryRepository both
// implement it.
type Reader interface {
	Repository
	GetStore(id string) (*Store, error)
	GetProduct(id string) (*Product, error)
	ListStores() ([]Store, error)
	ListProducts(storeID string, limit int) ([]Product, error)
}

// MemoryRepository keeps a catalog in memory. Every Snapshot call returns
// a fresh copy so callers can never mutate the repository's state.
type MemoryRepository struct {
	mu   sync.RWMutex
	data *Snapshot
}

func NewMemoryRepository(stores []Store, products []Product) *MemoryRepository {
	seed := &Snapshot{Stores: stores, Products: products}
	return &MemoryRepository{data: seed.clone()}
}

func (m *MemoryRepository) Snapshot(ctx context.Context) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data.clone(), nil
}

// Replace swaps the whole catalog atomically.
func (m *MemoryRepository) Replace(snap *Snapshot) {
	next := snap.clone()
	m.mu.Lock()
	m.data = next
	m.mu.Unlock()
}

func (m *MemoryRepository) GetStore(id string) (*Store, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.data.Stores {
		if s.ID == id {
			out := s
			return &out, nil
		}
	}
	return nil, fmt.Errorf("store %q: %w", id, ErrNotFound)
}

func (m *MemoryRepository) GetProduct(id string) (*Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.data.Products {
		if p.ID == id {
			out := p
			return &out, nil
		}
	}
	return nil, fmt.Errorf("product %q: %w", id, ErrNotFound)
}

// ListStores orders stores the same way DB.ListStores does.
func (m *MemoryRepository) ListStores() ([]Store, error) {
	m.mu.RLock()
	stores := make([]Store, len(m.data.Stores))
	copy(stores, m.data.Stores)
	m.mu.RUnlock()

	sort.SliceStable(stores, func(i, j int) bool {
		return lessByName(stores[i].Name, stores[i].ID, stores[j].Name, stores[j].ID)
	})
	return stores, nil
}

func (m *MemoryRepository) ListProducts(storeID string, limit int) ([]Product, error) {
	m.mu.RLock()
	var products []Product
	for _, p := range m.data.Products {
		if storeID == "" || p.StoreID == storeID {
			products = append(products, p)
		}
	}
	m.mu.RUnlock()

	sort.SliceStable(products, func(i, j int) bool {
		return lessByName(products[i].Name, products[i].ID, products[j].Name, products[j].ID)
	})
	if limit > 0 && len(products) > limit {
		products = products[:limit]
	}
	return products, nil
}
