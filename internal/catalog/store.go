package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"
)

var (
	storesBucket   = []byte("stores")
	productsBucket = []byte("products")
	metaBucket     = []byte("metadata")
)

// DB is the bbolt-backed catalog. It satisfies Repository.
type DB struct {
	db *bolt.DB
}

func Open(dbPath string, timeout time.Duration) (*DB, error) {
	if timeout <= 0 {
		timeout = 1 * time.Second
	}
	db, err := bolt.Open(dbPath, 0o600, &bolt.Options{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{storesBucket, productsBucket, metaBucket} {
			if _, createErr := tx.CreateBucketIfNotExists(bucket); createErr != nil {
				return createErr
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &DB{db: db}, nil
}

func (d *DB) Close() error {
	return d.db.Close()
}

func (d *DB) SaveStore(store *Store) error {
	if store == nil || strings.TrimSpace(store.ID) == "" {
		return fmt.Errorf("store id is required")
	}
	return d.db.Update(func(tx *bolt.Tx) error {
		data, err := json.Marshal(store)
		if err != nil {
			return err
		}
		return tx.Bucket(storesBucket).Put([]byte(store.ID), data)
	})
}

func (d *DB) GetStore(id string) (*Store, error) {
	var store Store
	err := d.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(storesBucket).Get([]byte(id))
		if data == nil {
			return fmt.Errorf("store %q: %w", id, ErrNotFound)
		}
		return json.Unmarshal(data, &store)
	})
	if err != nil {
		return nil, err
	}
	return &store, nil
}

// ListStores returns stores ordered by name (case-insensitive), then ID.
func (d *DB) ListStores() ([]Store, error) {
	var stores []Store
	err := d.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(storesBucket).ForEach(func(_ []byte, v []byte) error {
			var s Store
			if err := json.Unmarshal(v, &s); err != nil {
				return err
			}
			stores = append(stores, s)
			return nil
		})
	})
	sort.SliceStable(stores, func(i, j int) bool {
		return lessByName(stores[i].Name, stores[i].ID, stores[j].Name, stores[j].ID)
	})
	return stores, err
}

func (d *DB) SaveProducts(products []Product) error {
	return d.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(productsBucket)
		for i := range products {
			p := &products[i]
			if strings.TrimSpace(p.ID) == "" {
				return fmt.Errorf("product id is required")
			}
			data, err := json.Marshal(p)
			if err != nil {
				return err
			}
			if err := b.Put([]byte(p.ID), data); err != nil {
				return err
			}
		}
		return nil
	})
}

func (d *DB) GetProduct(id string) (*Product, error) {
	var p Product
	err := d.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(productsBucket).Get([]byte(id))
		if data == nil {
			return fmt.Errorf("product %q: %w", id, ErrNotFound)
		}
		return json.Unmarshal(data, &p)
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListProducts returns the products of storeID (all products when storeID is
// empty) ordered by name, then ID. limit <= 0 means no limit.
func (d *DB) ListProducts(storeID string, limit int) ([]Product, error) {
	var products []Product
	err := d.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(productsBucket).ForEach(func(_ []byte, v []byte) error {
			var p Product
			if err := json.Unmarshal(v, &p); err != nil {
				// skip corrupt records rather than failing the whole listing
				return nil
			}
			if storeID == "" || p.StoreID == storeID {
				products = append(products, p)
			}
			return nil
		})
	})
	sort.SliceStable(products, func(i, j int) bool {
		return lessByName(products[i].Name, products[i].ID, products[j].Name, products[j].ID)
	})
	if limit > 0 && len(products) > limit {
		products = products[:limit]
	}
	return products, err
}

// DeleteStore removes a store together with its products and import metadata.
func (d *DB) DeleteStore(id string) error {
	return d.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket(storesBucket).Delete([]byte(id)); err != nil {
			return err
		}
		if err := tx.Bucket(metaBucket).Delete([]byte(id)); err != nil {
			return err
		}

		c := tx.Bucket(productsBucket).Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var p Product
			if err := json.Unmarshal(v, &p); err != nil {
				continue
			}
			if p.StoreID == id {
				if err := c.Delete(); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// ReplaceProducts swaps the product set of one store in a single transaction.
func (d *DB) ReplaceProducts(storeID string, products []Product) error {
	return d.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(productsBucket)
		c := b.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var p Product
			if err := json.Unmarshal(v, &p); err != nil {
				continue
			}
			if p.StoreID == storeID {
				if err := c.Delete(); err != nil {
					return err
				}
			}
		}
		for i := range products {
			products[i].StoreID = storeID
			data, err := json.Marshal(&products[i])
			if err != nil {
				return err
			}
			if err := b.Put([]byte(products[i].ID), data); err != nil {
				return err
			}
		}
		return nil
	})
}

func (d *DB) SaveImportMeta(meta *ImportMeta) error {
	return d.db.Update(func(tx *bolt.Tx) error {
		data, err := json.Marshal(meta)
		if err != nil {
			return err
		}
		return tx.Bucket(metaBucket).Put([]byte(meta.StoreID), data)
	})
}

func (d *DB) GetImportMeta(storeID string) (*ImportMeta, error) {
	var meta ImportMeta
	err := d.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(metaBucket).Get([]byte(storeID))
		if data == nil {
			return fmt.Errorf("import metadata for %q: %w", storeID, ErrNotFound)
		}
		return json.Unmarshal(data, &meta)
	})
	if err != nil {
		return nil, err
	}
	return &meta, nil
}

// Snapshot implements Repository. The returned slices are freshly decoded
// and never shared with other callers.
func (d *DB) Snapshot(ctx context.Context) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	stores, err := d.ListStores()
	if err != nil {
		return nil, fmt.Errorf("listing stores: %w", err)
	}
	products, err := d.ListProducts("", 0)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	return &Snapshot{Stores: stores, Products: products}, nil
}

func lessByName(ni, idi, nj, idj string) bool {
	li, lj := strings.ToLower(ni), strings.ToLower(nj)
	if li != lj {
		return li < lj
	}
	return idi < idj
}
