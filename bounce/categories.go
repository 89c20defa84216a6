package bounce

import (
	"context"
	"fmt"
	"sync"
)

// CategoryLookup resolves a taxonomy label to the mailing registry's internal
// id for it. Implementations return ErrCategoryNotFound for labels the
// registry doesn't know.
type CategoryLookup interface {
	LookupCategoryId(ctx context.Context, name string) (string, error)
}

// Categories caches label-to-id mappings for the process lifetime. The
// taxonomy is static reference data, so the cache never evicts. Population is
// lazy and race tolerant: concurrent misses may each query the registry, but
// they converge on the same values.
type Categories struct {
	Lookup CategoryLookup

	mu  sync.Mutex
	ids map[Category]string
}

func NewCategories(lookup CategoryLookup) *Categories {
	return &Categories{Lookup: lookup, ids: make(map[Category]string)}
}

// Id returns the registry id for a category label. Uncategorized never
// resolves: events without a category id defer to the registry's own
// fallback classifier.
func (c *Categories) Id(
	ctx context.Context, category Category,
) (id string, err error) {
	if category == Uncategorized {
		err = fmt.Errorf("no registry id for %s events", Uncategorized)
		return
	}

	c.mu.Lock()
	id, ok := c.ids[category]
	c.mu.Unlock()

	if ok {
		return
	}
	if id, err = c.Lookup.LookupCategoryId(ctx, category.String()); err != nil {
		err = fmt.Errorf("resolving %s category id: %w", category, err)
		return
	}

	c.mu.Lock()
	c.ids[category] = id
	c.mu.Unlock()
	return
}
