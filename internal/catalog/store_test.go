package catalog

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"), time.Second)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestDB_SaveAndGetStore(t *testing.T) {
	db := setupTestDB(t)

	store := &Store{ID: "1", Name: "Electronics Store", Description: "latest electronics"}
	if err := db.SaveStore(store); err != nil {
		t.Fatalf("failed to save store: %v", err)
	}

	got, err := db.GetStore("1")
	if err != nil {
		t.Fatalf("failed to get store: %v", err)
	}
	if got.Name != store.Name {
		t.Errorf("expected Name %s, got %s", store.Name, got.Name)
	}
	if got.Description != store.Description {
		t.Errorf("expected Description %s, got %s", store.Description, got.Description)
	}
}

func TestDB_GetStoreNotFound(t *testing.T) {
	db := setupTestDB(t)

	_, err := db.GetStore("missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDB_SaveStoreRequiresID(t *testing.T) {
	db := setupTestDB(t)

	if err := db.SaveStore(&Store{Name: "nameless"}); err == nil {
		t.Fatal("expected error for store without id")
	}
}

func TestDB_ListStoresSortedByName(t *testing.T) {
	db := setupTestDB(t)

	for _, s := range []Store{
		{ID: "3", Name: "sports center"},
		{ID: "1", Name: "Bookstore"},
		{ID: "2", Name: "Apparel"},
	} {
		s := s
		if err := db.SaveStore(&s); err != nil {
			t.Fatal(err)
		}
	}

	stores, err := db.ListStores()
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"Apparel", "Bookstore", "sports center"}
	if len(stores) != len(want) {
		t.Fatalf("expected %d stores, got %d", len(want), len(stores))
	}
	for i, name := range want {
		if stores[i].Name != name {
			t.Errorf("stores[%d] = %s, want %s", i, stores[i].Name, name)
		}
	}
}

func TestDB_ListProductsFiltersAndLimits(t *testing.T) {
	db := setupTestDB(t)

	products := []Product{
		{ID: "1", StoreID: "a", Name: "Laptop", Price: Price(1200)},
		{ID: "2", StoreID: "a", Name: "Smartphone", Price: Price(1000)},
		{ID: "3", StoreID: "b", Name: "Jeans", Price: Price(50)},
	}
	if err := db.SaveProducts(products); err != nil {
		t.Fatal(err)
	}

	got, err := db.ListProducts("a", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 products for store a, got %d", len(got))
	}
	if got[0].Name != "Laptop" || got[1].Name != "Smartphone" {
		t.Errorf("unexpected order: %s, %s", got[0].Name, got[1].Name)
	}

	limited, err := db.ListProducts("", 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 1 {
		t.Errorf("expected limit to cap results at 1, got %d", len(limited))
	}
}

func TestDB_DeleteStoreCascades(t *testing.T) {
	db := setupTestDB(t)

	if err := db.SaveStore(&Store{ID: "a", Name: "A"}); err != nil {
		t.Fatal(err)
	}
	if err := db.SaveStore(&Store{ID: "b", Name: "B"}); err != nil {
		t.Fatal(err)
	}
	if err := db.SaveProducts([]Product{
		{ID: "1", StoreID: "a", Name: "one"},
		{ID: "2", StoreID: "b", Name: "two"},
	}); err != nil {
		t.Fatal(err)
	}
	if err := db.SaveImportMeta(&ImportMeta{StoreID: "a", ETag: "x"}); err != nil {
		t.Fatal(err)
	}

	if err := db.DeleteStore("a"); err != nil {
		t.Fatalf("failed to delete store: %v", err)
	}

	if _, err := db.GetStore("a"); !errors.Is(err, ErrNotFound) {
		t.Errorf("store should be gone, got %v", err)
	}
	if _, err := db.GetImportMeta("a"); !errors.Is(err, ErrNotFound) {
		t.Errorf("import metadata should be gone, got %v", err)
	}
	remaining, err := db.ListProducts("", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(remaining) != 1 || remaining[0].ID != "2" {
		t.Errorf("expected only product 2 to remain, got %+v", remaining)
	}
}

func TestDB_ReplaceProducts(t *testing.T) {
	db := setupTestDB(t)

	if err := db.SaveProducts([]Product{
		{ID: "old", StoreID: "a", Name: "old"},
		{ID: "other", StoreID: "b", Name: "other"},
	}); err != nil {
		t.Fatal(err)
	}

	if err := db.ReplaceProducts("a", []Product{{ID: "new", Name: "new"}}); err != nil {
		t.Fatal(err)
	}

	got, err := db.ListProducts("a", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID != "new" || got[0].StoreID != "a" {
		t.Errorf("unexpected products for a: %+v", got)
	}
	if _, err := db.GetProduct("other"); err != nil {
		t.Errorf("products of other stores must survive: %v", err)
	}
}

func TestDB_SnapshotIsACopy(t *testing.T) {
	db := setupTestDB(t)

	if err := db.SaveStore(&Store{ID: "1", Name: "Electronics Store"}); err != nil {
		t.Fatal(err)
	}

	snap, err := db.Snapshot(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	snap.Stores[0].Name = "mutated"

	again, err := db.Snapshot(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if again.Stores[0].Name != "Electronics Store" {
		t.Errorf("snapshot mutation leaked into the store: %s", again.Stores[0].Name)
	}
}
