package model

import "time"

// Link is the shape of a short link as served by the link store. The code
// and destination are immutable once assigned; edits only touch title and
// tags, which is what makes long-horizon caching of code -> destination safe.
type Link struct {
	ID          int64     `json:"id"`
	ShortCode   string    `json:"short_code"`
	OriginalURL string    `json:"original_url"`
	Title       string    `json:"title"`
	Tags        []string  `json:"tags"`
	Clicks      int64     `json:"clicks"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CacheEntry is the cached resolution of a short code. Entries are written
// once and replaced wholesale; FetchedAt decides freshness at read time.
type CacheEntry struct {
	Destination string    `json:"destination"`
	FetchedAt   time.Time `json:"fetched_at"`
}
