package linkstore

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tessara/linkgate/internal/app/model"
)

func TestClient_LookupDestination(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/public/links/promo" {
			t.Fatalf("unexpected path %q", r.URL.Path)
		}
		json.NewEncoder(w).Encode(model.Link{
			ShortCode:   "promo",
			OriginalURL: "https://example.com/page",
		})
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	dest, err := c.LookupDestination(context.Background(), "promo")
	if err != nil {
		t.Fatalf("LookupDestination returned error: %v", err)
	}
	if dest != "https://example.com/page" {
		t.Fatalf("unexpected destination %q", dest)
	}
}

func TestClient_LookupDestination_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	_, err := c.LookupDestination(context.Background(), "ghost")
	if !errors.Is(err, ErrLinkNotFound) {
		t.Fatalf("expected ErrLinkNotFound, got %v", err)
	}
}

func TestClient_LookupDestination_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	_, err := c.LookupDestination(context.Background(), "promo")
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}

func TestClient_LookupDestination_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := New(srv.URL, time.Second)
	_, err := c.LookupDestination(context.Background(), "promo")
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}

func TestClient_RecordClick(t *testing.T) {
	var got trackRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("unexpected method %q", r.Method)
		}
		if r.URL.Path != "/api/v1/public/links/promo/track" {
			t.Fatalf("unexpected path %q", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode track body: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	if err := c.RecordClick(context.Background(), "promo", "https://google.com"); err != nil {
		t.Fatalf("RecordClick returned error: %v", err)
	}
	if got.CustomRef != "https://google.com" {
		t.Fatalf("expected referrer in track body, got %q", got.CustomRef)
	}
}

func TestClient_RecordClick_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	err := c.RecordClick(context.Background(), "ghost", "")
	if !errors.Is(err, ErrLinkNotFound) {
		t.Fatalf("expected ErrLinkNotFound, got %v", err)
	}
}

func TestClient_DashboardStats(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/dashboard" {
			t.Fatalf("unexpected path %q", r.URL.Path)
		}
		if r.URL.Query().Get("limit") != "5" {
			t.Fatalf("expected limit query, got %q", r.URL.RawQuery)
		}
		json.NewEncoder(w).Encode(model.DashboardStats{
			TotalSystemClicks: 42,
			TopLinks:          []model.Link{{ShortCode: "promo"}},
		})
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	stats, err := c.DashboardStats(context.Background(), 5)
	if err != nil {
		t.Fatalf("DashboardStats returned error: %v", err)
	}
	if stats.TotalSystemClicks != 42 || len(stats.TopLinks) != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestClient_LinkStats(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/links/7/stats" {
			t.Fatalf("unexpected path %q", r.URL.Path)
		}
		json.NewEncoder(w).Encode(model.LinkStats{
			TotalClicks: 3,
			Referrers:   map[string]int64{"https://google.com": 2, "": 1},
			DailyClicks: []model.DailyClicks{{Date: "2026-08-30", Count: 3}},
		})
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	stats, err := c.LinkStats(context.Background(), 7)
	if err != nil {
		t.Fatalf("LinkStats returned error: %v", err)
	}
	if stats.TotalClicks != 3 || stats.Referrers["https://google.com"] != 2 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}
