package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/tessara/linkgate/internal/app/cache"
	"github.com/tessara/linkgate/internal/app/linkstore"
	metrics "github.com/tessara/linkgate/internal/infra/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	// Sizing for the missing-code filters. At this capacity and rate the
	// chance of wrongly suppressing a real code stays around 1 in 10^6.
	missingFilterCapacity = 1_000_000
	missingFilterFPRate   = 0.000001

	// Missing marks are dropped after at most two rotation periods, so a
	// code that gets assigned to a link after a lookup probed it resolves
	// again without a purge.
	missingFilterRotation = 5 * time.Minute
)

// Resolver answers short-code lookups through the cache, falling back to the
// link store on a miss. Concurrent first-time lookups for the same code are
// coalesced into a single origin call, and codes the origin has reported
// missing are remembered in a pair of rotating bloom filters so ghost
// traffic stops hitting the origin for a bounded window.
type Resolver struct {
	logger *zap.Logger
	cache  cache.Cache
	origin linkstore.Origin

	group singleflight.Group

	missingMu   sync.Mutex
	missing     *bloom.BloomFilter
	prevMissing *bloom.BloomFilter
	rotatedAt   time.Time
}

// NewResolver builds a Resolver over the given cache and origin.
func NewResolver(logger *zap.Logger, c cache.Cache, origin linkstore.Origin) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		logger:      logger,
		cache:       c,
		origin:      origin,
		missing:     bloom.NewWithEstimates(missingFilterCapacity, missingFilterFPRate),
		prevMissing: bloom.NewWithEstimates(missingFilterCapacity, missingFilterFPRate),
		rotatedAt:   time.Now(),
	}
}

// Resolve returns the destination URL for code. It returns
// linkstore.ErrLinkNotFound when no mapping exists and
// linkstore.ErrStoreUnavailable when the origin is unreachable and no cached
// entry (fresh or stale) can stand in.
func (r *Resolver) Resolve(ctx context.Context, code string) (string, error) {
	entry, fresh, err := r.cache.Lookup(ctx, code)
	if err != nil {
		// A broken cache must not break redirects; treat as a miss.
		r.logger.Warn("cache lookup failed", zap.String("code", code), zap.Error(err))
		entry, fresh = nil, false
	}

	if entry != nil && fresh {
		metrics.CacheHitsTotal.Inc()
		return entry.Destination, nil
	}
	metrics.CacheMissesTotal.Inc()

	if entry == nil && r.knownMissing(code) {
		metrics.OriginErrorsTotal.WithLabelValues("not_found").Inc()
		return "", linkstore.ErrLinkNotFound
	}

	dest, err := r.fill(ctx, code)
	if err == nil {
		return dest, nil
	}

	switch {
	case errors.Is(err, linkstore.ErrLinkNotFound):
		metrics.OriginErrorsTotal.WithLabelValues("not_found").Inc()
		r.markMissing(code)
		if entry != nil {
			// The origin is authoritative: a stale entry for a deleted
			// link must not keep resolving.
			if invErr := r.cache.Invalidate(ctx, code); invErr != nil {
				r.logger.Warn("failed to invalidate deleted link", zap.String("code", code), zap.Error(invErr))
			}
		}
		return "", linkstore.ErrLinkNotFound

	case entry != nil:
		// Origin outage with a stale entry on hand: destinations are
		// immutable, so serving it is safe.
		metrics.StaleServedTotal.Inc()
		r.logger.Warn("origin unavailable, serving stale cache entry",
			zap.String("code", code),
			zap.Time("fetched_at", entry.FetchedAt),
			zap.Error(err))
		return entry.Destination, nil

	default:
		metrics.OriginErrorsTotal.WithLabelValues("unavailable").Inc()
		return "", err
	}
}

// Invalidate drops the cached entry for code and forgets any missing marks.
// Called by the purge endpoint when the link store deletes or creates a link.
func (r *Resolver) Invalidate(ctx context.Context, code string) error {
	r.forgetMissing()
	return r.cache.Invalidate(ctx, code)
}

// fill performs the origin lookup, coalescing concurrent calls per code, and
// populates the cache on success.
func (r *Resolver) fill(ctx context.Context, code string) (string, error) {
	v, err, _ := r.group.Do(code, func() (interface{}, error) {
		start := time.Now()
		dest, lookupErr := r.origin.LookupDestination(ctx, code)
		metrics.OriginLookupDuration.Observe(time.Since(start).Seconds())
		if lookupErr != nil {
			return "", lookupErr
		}

		if cacheErr := r.cache.Populate(ctx, code, dest); cacheErr != nil {
			// Next request pays the origin round-trip again; nothing worse.
			r.logger.Warn("failed to populate cache", zap.String("code", code), zap.Error(cacheErr))
		}
		return dest, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (r *Resolver) knownMissing(code string) bool {
	r.missingMu.Lock()
	defer r.missingMu.Unlock()
	r.rotateMissingLocked(time.Now())
	return r.missing.TestString(code) || r.prevMissing.TestString(code)
}

func (r *Resolver) markMissing(code string) {
	r.missingMu.Lock()
	defer r.missingMu.Unlock()
	r.rotateMissingLocked(time.Now())
	r.missing.AddString(code)
}

// rotateMissingLocked ages out missing marks: the current filter becomes the
// previous one after a rotation period, and both are gone after two. Bloom
// filters cannot remove single entries, so expiry works by generation.
func (r *Resolver) rotateMissingLocked(now time.Time) {
	elapsed := now.Sub(r.rotatedAt)
	if elapsed < missingFilterRotation {
		return
	}
	if elapsed >= 2*missingFilterRotation {
		r.prevMissing = bloom.NewWithEstimates(missingFilterCapacity, missingFilterFPRate)
	} else {
		r.prevMissing = r.missing
	}
	r.missing = bloom.NewWithEstimates(missingFilterCapacity, missingFilterFPRate)
	r.rotatedAt = now
}

// forgetMissing resets both filters. Purges are rare and marks rebuild on
// the next authoritative NotFound, so a wholesale reset is cheaper than
// tracking individual codes.
func (r *Resolver) forgetMissing() {
	r.missingMu.Lock()
	r.missing = bloom.NewWithEstimates(missingFilterCapacity, missingFilterFPRate)
	r.prevMissing = bloom.NewWithEstimates(missingFilterCapacity, missingFilterFPRate)
	r.rotatedAt = time.Now()
	r.missingMu.Unlock()
}
