package usecase

import (
	"testing"
	"time"

	"LaborStats/internal/domain"
)

func TestTableCacheLoadsOnce(t *testing.T) {
	t.Parallel()

	store := &countingStore{table: domain.Table{obs(month(2024, time.January), "X", 1)}}
	cache := NewTableCache(store)

	for i := 0; i < 3; i++ {
		tbl, err := cache.Table()
		if err != nil {
			t.Fatalf("Table: %v", err)
		}
		if len(tbl) != 1 {
			t.Fatalf("expected 1 row, got %d", len(tbl))
		}
	}
	if store.loads != 1 {
		t.Fatalf("expected a single load, got %d", store.loads)
	}
}

func TestTableCacheReload(t *testing.T) {
	t.Parallel()

	store := &countingStore{table: domain.Table{obs(month(2024, time.January), "X", 1)}}
	cache := NewTableCache(store)

	if _, err := cache.Table(); err != nil {
		t.Fatalf("Table: %v", err)
	}

	store.table = append(store.table, obs(month(2024, time.February), "X", 2))
	tbl, err := cache.Table()
	if err != nil {
		t.Fatalf("Table: %v", err)
	}
	if len(tbl) != 1 {
		t.Fatal("cache must not observe store changes without Reload")
	}

	tbl, err = cache.Reload()
	if err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if len(tbl) != 2 {
		t.Fatalf("expected reloaded table with 2 rows, got %d", len(tbl))
	}
	if store.loads != 2 {
		t.Fatalf("expected 2 loads, got %d", store.loads)
	}
}

type countingStore struct {
	table domain.Table
	loads int
}

func (s *countingStore) Load() (domain.Table, error) {
	s.loads++
	out := make(domain.Table, len(s.table))
	copy(out, s.table)
	return out, nil
}

func (s *countingStore) Save(table domain.Table) error {
	s.table = table
	return nil
}
