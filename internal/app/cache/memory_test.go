package cache

import (
	"context"
	"testing"
	"time"
)

func TestMemoryCache_PopulateThenLookup(t *testing.T) {
	c := NewMemory(time.Hour, 2*time.Hour)
	ctx := context.Background()

	if err := c.Populate(ctx, "promo", "https://example.com/page"); err != nil {
		t.Fatalf("Populate returned error: %v", err)
	}

	entry, fresh, err := c.Lookup(ctx, "promo")
	if err != nil {
		t.Fatalf("Lookup returned error: %v", err)
	}
	if entry == nil || !fresh {
		t.Fatal("expected a fresh entry")
	}
	if entry.Destination != "https://example.com/page" {
		t.Fatalf("unexpected destination %q", entry.Destination)
	}
	if entry.FetchedAt.IsZero() {
		t.Fatal("expected FetchedAt to be set")
	}
}

func TestMemoryCache_MissOnUnknownCode(t *testing.T) {
	c := NewMemory(time.Hour, 2*time.Hour)

	entry, fresh, err := c.Lookup(context.Background(), "ghost")
	if err != nil {
		t.Fatalf("Lookup returned error: %v", err)
	}
	if entry != nil || fresh {
		t.Fatal("expected a miss for unknown code")
	}
}

func TestMemoryCache_StaleEntryStillReturned(t *testing.T) {
	// Zero horizon makes entries stale immediately while retention keeps
	// them available for outage fallback.
	c := NewMemory(0, time.Hour)
	ctx := context.Background()

	if err := c.Populate(ctx, "promo", "https://example.com/page"); err != nil {
		t.Fatalf("Populate returned error: %v", err)
	}

	entry, fresh, err := c.Lookup(ctx, "promo")
	if err != nil {
		t.Fatalf("Lookup returned error: %v", err)
	}
	if entry == nil {
		t.Fatal("expected stale entry to be retained")
	}
	if fresh {
		t.Fatal("expected entry past its horizon to be reported stale")
	}
}

func TestMemoryCache_Invalidate(t *testing.T) {
	c := NewMemory(time.Hour, 2*time.Hour)
	ctx := context.Background()

	if err := c.Populate(ctx, "promo", "https://example.com/page"); err != nil {
		t.Fatalf("Populate returned error: %v", err)
	}
	if err := c.Invalidate(ctx, "promo"); err != nil {
		t.Fatalf("Invalidate returned error: %v", err)
	}

	entry, _, err := c.Lookup(ctx, "promo")
	if err != nil {
		t.Fatalf("Lookup returned error: %v", err)
	}
	if entry != nil {
		t.Fatal("expected entry to be gone after invalidation")
	}
	if c.Len() != 0 {
		t.Fatalf("expected empty cache, got %d entries", c.Len())
	}
}

func TestMemoryCache_ReplaceRefreshesEntry(t *testing.T) {
	c := NewMemory(time.Hour, 2*time.Hour)
	ctx := context.Background()

	if err := c.Populate(ctx, "promo", "https://example.com/old"); err != nil {
		t.Fatalf("Populate returned error: %v", err)
	}
	if err := c.Populate(ctx, "promo", "https://example.com/new"); err != nil {
		t.Fatalf("Populate returned error: %v", err)
	}

	entry, _, err := c.Lookup(ctx, "promo")
	if err != nil {
		t.Fatalf("Lookup returned error: %v", err)
	}
	if entry == nil || entry.Destination != "https://example.com/new" {
		t.Fatal("expected replacement to win")
	}
	if c.Len() != 1 {
		t.Fatalf("expected a single entry, got %d", c.Len())
	}
}
