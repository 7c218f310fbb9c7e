package cache

import (
	"context"

	"github.com/tessara/linkgate/internal/app/model"
)

// Cache answers "what is the destination for short code C" without touching
// the origin. Lookup reports freshness separately from presence: a stale
// entry (past its freshness horizon but inside retention) is still returned
// so the resolver can serve it during an origin outage.
type Cache interface {
	// Lookup returns the cached entry for code, or nil on a miss. fresh is
	// true while the entry is inside its freshness horizon.
	Lookup(ctx context.Context, code string) (entry *model.CacheEntry, fresh bool, err error)

	// Populate stores or replaces the entry for code. Entries are never
	// updated in place.
	Populate(ctx context.Context, code, destination string) error

	// Invalidate removes the entry for code. Used when the link store
	// reports the link deleted.
	Invalidate(ctx context.Context, code string) error
}
