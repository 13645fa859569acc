package usecase

import (
	"sync"

	"LaborStats/internal/domain"
	"LaborStats/internal/ports"
)

// TableCache memoizes the persisted table for the lifetime of the process.
// The table is loaded on first access and invalidated only by an explicit
// Reload, so HTTP handlers never touch the disk on the hot path. Callers
// must treat the returned table as read-only.
type TableCache struct {
	store ports.TableStore

	mu     sync.RWMutex
	loaded bool
	table  domain.Table
}

// NewTableCache wires the cache to a table store.
func NewTableCache(store ports.TableStore) *TableCache {
	return &TableCache{store: store}
}

// Table returns the cached table, loading it on first use.
func (c *TableCache) Table() (domain.Table, error) {
	c.mu.RLock()
	if c.loaded {
		defer c.mu.RUnlock()
		return c.table, nil
	}
	c.mu.RUnlock()

	return c.Reload()
}

// Reload re-reads the table from the store and replaces the cached copy.
func (c *TableCache) Reload() (domain.Table, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	table, err := c.store.Load()
	if err != nil {
		return nil, err
	}
	c.table = table
	c.loaded = true
	return table, nil
}
