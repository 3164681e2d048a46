// Package fkcache records the external IDs emitted so far in the current
// run. It is the single source of truth for reference resolution: output
// files are never re-read, so the boundary between "processed in memory" and
// "durably written" stays trivial to reason about.
package fkcache

import "github.com/Ramsey-B/fern/pkg/models"

// Cache is an append-only mapping from (entity, unique-key tuple) to
// external ID. It is created fresh per run, owned by the orchestrator, and
// discarded at run end; two runs never share one.
type Cache struct {
	ids map[string]string
}

// New creates an empty cache
func New() *Cache {
	return &Cache{ids: make(map[string]string)}
}

func cacheKey(entity string, key models.KeyTuple) string {
	return entity + "\x1e" + key.String()
}

// Put records an assigned external ID. Entries are never mutated or removed;
// putting an existing key is ignored.
func (c *Cache) Put(record models.ExternalIDRecord) {
	k := cacheKey(record.Entity, record.Key)
	if _, exists := c.ids[k]; exists {
		return
	}
	c.ids[k] = record.ID
}

// Resolve returns the external ID assigned to the given entity row, if that
// row survived validation in an earlier step of this run
func (c *Cache) Resolve(entity string, key models.KeyTuple) (string, bool) {
	id, ok := c.ids[cacheKey(entity, key)]
	return id, ok
}

// Has reports whether the unique-key tuple already produced an external ID
// in this run
func (c *Cache) Has(entity string, key models.KeyTuple) bool {
	_, ok := c.ids[cacheKey(entity, key)]
	return ok
}

// Len returns the number of recorded IDs
func (c *Cache) Len() int {
	return len(c.ids)
}
