package catalog

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed demo_seed.toml
var demoSeedTOML []byte

// Seed is the on-disk TOML catalog format.
type Seed struct {
	Stores   []Store   `toml:"stores"`
	Products []Product `toml:"products"`
}

// LoadSeed decodes and validates a TOML seed document.
func LoadSeed(r io.Reader) (*Seed, error) {
	var seed Seed
	dec := toml.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&seed); err != nil {
		return nil, fmt.Errorf("parsing seed: %w", err)
	}
	if err := seed.validate(); err != nil {
		return nil, err
	}
	return &seed, nil
}

// DemoSeed returns the bundled demo catalog.
func DemoSeed() *Seed {
	seed, err := LoadSeed(bytes.NewReader(demoSeedTOML))
	if err != nil {
		panic(fmt.Sprintf("embedded demo seed is invalid: %v", err))
	}
	return seed
}

func (s *Seed) validate() error {
	storeIDs := make(map[string]bool, len(s.Stores))
	for i, st := range s.Stores {
		id := strings.TrimSpace(st.ID)
		if id == "" {
			return fmt.Errorf("stores[%d]: id is required", i)
		}
		if storeIDs[id] {
			return fmt.Errorf("stores[%d]: duplicate id %q", i, id)
		}
		storeIDs[id] = true
	}
	productIDs := make(map[string]bool, len(s.Products))
	for i, p := range s.Products {
		id := strings.TrimSpace(p.ID)
		if id == "" {
			return fmt.Errorf("products[%d]: id is required", i)
		}
		if productIDs[id] {
			return fmt.Errorf("products[%d]: duplicate id %q", i, id)
		}
		if !storeIDs[p.StoreID] {
			return fmt.Errorf("products[%d]: unknown store %q", i, p.StoreID)
		}
		if p.Price != nil && *p.Price < 0 {
			return fmt.Errorf("products[%d]: negative price", i)
		}
		productIDs[id] = true
	}
	return nil
}

// Memory builds an in-memory repository holding the seed contents.
func (s *Seed) Memory() *MemoryRepository {
	return NewMemoryRepository(s.Stores, s.Products)
}

// ApplySeed writes every store and product of the seed.
func (d *DB) ApplySeed(seed *Seed) error {
	now := time.Now()
	for i := range seed.Stores {
		st := seed.Stores[i]
		st.UpdatedAt = now
		if err := d.SaveStore(&st); err != nil {
			return fmt.Errorf("saving store %q: %w", st.ID, err)
		}
	}
	products := make([]Product, len(seed.Products))
	for i, p := range seed.Products {
		p.UpdatedAt = now
		products[i] = p
	}
	if err := d.SaveProducts(products); err != nil {
		return fmt.Errorf("saving products: %w", err)
	}
	return nil
}
