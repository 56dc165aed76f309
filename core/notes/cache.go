package notes

import (
	"sync"

	"github.com/edusco/scolar/core"
)

// TableCache memoizes aggregated tables by semester id. Tables are derived
// state only: a missing entry is rebuilt from the database of record, never
// an error. Concurrent rebuilds of the same key are idempotent.
type TableCache struct {
	repo   Repository
	logger core.Logger

	mu     sync.RWMutex
	tables map[int]*Table
}

func NewTableCache(repo Repository, logger core.Logger) *TableCache {
	return &TableCache{
		repo:   repo,
		logger: logger,
		tables: make(map[int]*Table),
	}
}

// Get returns the memoized table for semID, building it first if needed.
func (c *TableCache) Get(semID int) (*Table, error) {
	c.mu.RLock()
	t, ok := c.tables[semID]
	c.mu.RUnlock()
	if ok {
		return t, nil
	}

	// built outside the lock: two racing rebuilds compute the same view
	t, err := BuildTable(c.repo, semID)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	if cached, ok := c.tables[semID]; ok {
		t = cached
	} else {
		c.tables[semID] = t
	}
	c.mu.Unlock()
	return t, nil
}

// Invalidate drops the memoized table for semID and for every semester that
// capitalizes a UE acquired in it. Fan-out lookup failures are logged and the
// local entry is dropped anyway: a stale list of dependents must not keep a
// known-stale entry alive.
func (c *TableCache) Invalidate(semID int) {
	c.InvalidateOnly(semID)

	deps, err := c.repo.QueryCapitalizingSemesters(semID)
	if err != nil {
		c.logger.Warn("cache invalidation fan-out lookup failed", err, map[string]interface{}{"semester": semID})
		return
	}
	for _, dep := range deps {
		c.InvalidateOnly(dep)
	}
}

// InvalidateOnly drops the memoized table for semID, without fan-out.
func (c *TableCache) InvalidateOnly(semID int) {
	c.mu.Lock()
	delete(c.tables, semID)
	c.mu.Unlock()
}

// Len returns the number of memoized tables.
func (c *TableCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.tables)
}
