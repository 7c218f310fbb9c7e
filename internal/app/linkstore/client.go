package linkstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/tessara/linkgate/internal/app/model"
)

var (
	// ErrLinkNotFound signals the store has no mapping for the short code.
	ErrLinkNotFound = errors.New("link not found")
	// ErrStoreUnavailable signals the store could not be reached or answered
	// outside its contract. Distinct from ErrLinkNotFound so callers can fall
	// back to stale cache entries.
	ErrStoreUnavailable = errors.New("link store unavailable")
)

// Origin is the lookup contract the resolver needs from the link store.
type Origin interface {
	LookupDestination(ctx context.Context, code string) (string, error)
}

// Tracker receives click events on behalf of the link store.
type Tracker interface {
	RecordClick(ctx context.Context, code, referrer string) error
}

// Aggregator exposes the read-only dashboard aggregations the store derives
// from the click stream. Consumed in shape only; the edge never aggregates.
type Aggregator interface {
	DashboardStats(ctx context.Context, limit int) (*model.DashboardStats, error)
	LinkStats(ctx context.Context, id int64) (*model.LinkStats, error)
}

// Client talks to the link store's public REST API.
type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a Client for the store at baseURL. Timeout bounds every call,
// including the fire-and-forget track requests.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// LookupDestination resolves a short code to its destination URL.
func (c *Client) LookupDestination(ctx context.Context, code string) (string, error) {
	endpoint := fmt.Sprintf("%s/api/v1/public/links/%s", c.baseURL, url.PathEscape(code))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("linkstore: build lookup request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return "", ErrLinkNotFound
	case resp.StatusCode != http.StatusOK:
		return "", fmt.Errorf("%w: unexpected status %d", ErrStoreUnavailable, resp.StatusCode)
	}

	var link model.Link
	if err := json.NewDecoder(resp.Body).Decode(&link); err != nil {
		return "", fmt.Errorf("%w: decode lookup response: %v", ErrStoreUnavailable, err)
	}
	if link.OriginalURL == "" {
		return "", ErrLinkNotFound
	}

	return link.OriginalURL, nil
}

type trackRequest struct {
	CustomRef string `json:"custom_ref,omitempty"`
}

// RecordClick posts one click event for the code. A non-2xx answer is an
// error for the caller to log; the redirect path never sees it.
func (c *Client) RecordClick(ctx context.Context, code, referrer string) error {
	endpoint := fmt.Sprintf("%s/api/v1/public/links/%s/track", c.baseURL, url.PathEscape(code))

	body, err := json.Marshal(trackRequest{CustomRef: referrer})
	if err != nil {
		return fmt.Errorf("linkstore: marshal track request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("linkstore: build track request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	if resp.StatusCode == http.StatusNotFound {
		return ErrLinkNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: track status %d", ErrStoreUnavailable, resp.StatusCode)
	}

	return nil
}

// DashboardStats fetches the system-wide aggregation.
func (c *Client) DashboardStats(ctx context.Context, limit int) (*model.DashboardStats, error) {
	endpoint := c.baseURL + "/api/v1/dashboard"
	if limit > 0 {
		endpoint += "?limit=" + strconv.Itoa(limit)
	}

	var stats model.DashboardStats
	if err := c.getJSON(ctx, endpoint, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// LinkStats fetches per-link aggregation by link ID.
func (c *Client) LinkStats(ctx context.Context, id int64) (*model.LinkStats, error) {
	endpoint := fmt.Sprintf("%s/api/v1/links/%d/stats", c.baseURL, id)

	var stats model.LinkStats
	if err := c.getJSON(ctx, endpoint, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("linkstore: build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrLinkNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: unexpected status %d", ErrStoreUnavailable, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrStoreUnavailable, err)
	}
	return nil
}
