package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/tessara/linkgate/internal/app/cache"
	"github.com/tessara/linkgate/internal/app/linkstore"
)

type mockOrigin struct {
	mu       sync.Mutex
	calls    int
	lookupFn func(ctx context.Context, code string) (string, error)
}

func (m *mockOrigin) LookupDestination(ctx context.Context, code string) (string, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.lookupFn != nil {
		return m.lookupFn(ctx, code)
	}
	return "", linkstore.ErrLinkNotFound
}

func (m *mockOrigin) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func TestResolver_CacheHitSkipsOrigin(t *testing.T) {
	origin := &mockOrigin{
		lookupFn: func(ctx context.Context, code string) (string, error) {
			return "https://example.com/page", nil
		},
	}
	mem := cache.NewMemory(time.Hour, 2*time.Hour)
	r := NewResolver(nil, mem, origin)

	for i := 0; i < 5; i++ {
		dest, err := r.Resolve(context.Background(), "promo")
		if err != nil {
			t.Fatalf("Resolve returned error: %v", err)
		}
		if dest != "https://example.com/page" {
			t.Fatalf("unexpected destination %q", dest)
		}
	}

	if got := origin.callCount(); got != 1 {
		t.Fatalf("expected a single origin lookup across repeated resolves, got %d", got)
	}
}

func TestResolver_NotFoundWritesNothing(t *testing.T) {
	origin := &mockOrigin{}
	mem := cache.NewMemory(time.Hour, 2*time.Hour)
	r := NewResolver(nil, mem, origin)

	_, err := r.Resolve(context.Background(), "ghost")
	if !errors.Is(err, linkstore.ErrLinkNotFound) {
		t.Fatalf("expected ErrLinkNotFound, got %v", err)
	}
	if mem.Len() != 0 {
		t.Fatalf("expected no cache writes for unknown code, got %d entries", mem.Len())
	}
}

func TestResolver_RepeatedMissSkipsOrigin(t *testing.T) {
	origin := &mockOrigin{}
	mem := cache.NewMemory(time.Hour, 2*time.Hour)
	r := NewResolver(nil, mem, origin)

	for i := 0; i < 3; i++ {
		if _, err := r.Resolve(context.Background(), "ghost"); !errors.Is(err, linkstore.ErrLinkNotFound) {
			t.Fatalf("expected ErrLinkNotFound, got %v", err)
		}
	}

	if got := origin.callCount(); got != 1 {
		t.Fatalf("expected the missing-code filter to absorb repeat misses, got %d origin calls", got)
	}
}

func TestResolver_MissingMarkExpires(t *testing.T) {
	created := false
	origin := &mockOrigin{
		lookupFn: func(ctx context.Context, code string) (string, error) {
			if !created {
				return "", linkstore.ErrLinkNotFound
			}
			return "https://example.com/new", nil
		},
	}
	r := NewResolver(nil, cache.NewMemory(time.Hour, 2*time.Hour), origin)

	// Probe the code before any link carries it.
	if _, err := r.Resolve(context.Background(), "promo"); !errors.Is(err, linkstore.ErrLinkNotFound) {
		t.Fatalf("expected ErrLinkNotFound, got %v", err)
	}

	// The store assigns the code; the mark ages out after two rotations.
	created = true
	r.missingMu.Lock()
	r.rotatedAt = time.Now().Add(-2*missingFilterRotation - time.Second)
	r.missingMu.Unlock()

	dest, err := r.Resolve(context.Background(), "promo")
	if err != nil {
		t.Fatalf("expected the created link to resolve, got error: %v", err)
	}
	if dest != "https://example.com/new" {
		t.Fatalf("unexpected destination %q", dest)
	}
	if got := origin.callCount(); got != 2 {
		t.Fatalf("expected the origin to be consulted again after expiry, got %d calls", got)
	}
}

func TestResolver_PurgeClearsMissingMark(t *testing.T) {
	created := false
	origin := &mockOrigin{
		lookupFn: func(ctx context.Context, code string) (string, error) {
			if !created {
				return "", linkstore.ErrLinkNotFound
			}
			return "https://example.com/new", nil
		},
	}
	r := NewResolver(nil, cache.NewMemory(time.Hour, 2*time.Hour), origin)

	if _, err := r.Resolve(context.Background(), "promo"); !errors.Is(err, linkstore.ErrLinkNotFound) {
		t.Fatalf("expected ErrLinkNotFound, got %v", err)
	}

	// The store creates the link and purges the code.
	created = true
	if err := r.Invalidate(context.Background(), "promo"); err != nil {
		t.Fatalf("Invalidate returned error: %v", err)
	}

	dest, err := r.Resolve(context.Background(), "promo")
	if err != nil {
		t.Fatalf("expected the created link to resolve after purge, got error: %v", err)
	}
	if dest != "https://example.com/new" {
		t.Fatalf("unexpected destination %q", dest)
	}
}

func TestResolver_ServesStaleDuringOutage(t *testing.T) {
	origin := &mockOrigin{
		lookupFn: func(ctx context.Context, code string) (string, error) {
			return "", linkstore.ErrStoreUnavailable
		},
	}
	// Zero horizon: every entry is stale the moment it is written.
	mem := cache.NewMemory(0, time.Hour)
	if err := mem.Populate(context.Background(), "promo", "https://example.com/page"); err != nil {
		t.Fatalf("Populate returned error: %v", err)
	}
	r := NewResolver(nil, mem, origin)

	dest, err := r.Resolve(context.Background(), "promo")
	if err != nil {
		t.Fatalf("expected stale fallback, got error: %v", err)
	}
	if dest != "https://example.com/page" {
		t.Fatalf("unexpected destination %q", dest)
	}
	if origin.callCount() != 1 {
		t.Fatalf("expected one origin attempt before falling back, got %d", origin.callCount())
	}
}

func TestResolver_OutageWithoutEntryFails(t *testing.T) {
	origin := &mockOrigin{
		lookupFn: func(ctx context.Context, code string) (string, error) {
			return "", linkstore.ErrStoreUnavailable
		},
	}
	r := NewResolver(nil, cache.NewMemory(time.Hour, 2*time.Hour), origin)

	_, err := r.Resolve(context.Background(), "promo")
	if !errors.Is(err, linkstore.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}

func TestResolver_AuthoritativeNotFoundEvictsStale(t *testing.T) {
	origin := &mockOrigin{}
	mem := cache.NewMemory(0, time.Hour)
	if err := mem.Populate(context.Background(), "gone", "https://example.com/deleted"); err != nil {
		t.Fatalf("Populate returned error: %v", err)
	}
	r := NewResolver(nil, mem, origin)

	_, err := r.Resolve(context.Background(), "gone")
	if !errors.Is(err, linkstore.ErrLinkNotFound) {
		t.Fatalf("expected ErrLinkNotFound, got %v", err)
	}
	if mem.Len() != 0 {
		t.Fatal("expected stale entry for deleted link to be evicted")
	}
}

func TestResolver_CoalescesConcurrentMisses(t *testing.T) {
	release := make(chan struct{})
	origin := &mockOrigin{
		lookupFn: func(ctx context.Context, code string) (string, error) {
			<-release
			return "https://example.com/page", nil
		},
	}
	r := NewResolver(nil, cache.NewMemory(time.Hour, 2*time.Hour), origin)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			dest, err := r.Resolve(context.Background(), "promo")
			if err != nil {
				t.Errorf("Resolve returned error: %v", err)
				return
			}
			if dest != "https://example.com/page" {
				t.Errorf("unexpected destination %q", dest)
			}
		}()
	}

	// Give the goroutines time to pile onto the in-flight lookup.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if got := origin.callCount(); got != 1 {
		t.Fatalf("expected concurrent misses to coalesce into one origin call, got %d", got)
	}
}
