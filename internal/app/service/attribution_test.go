package service

import "testing"

func TestResolveAttribution_OptOutWins(t *testing.T) {
	decision := ResolveAttribution(VisitSignals{
		CustomRef: "https://partner.example",
		Referer:   "https://google.com",
		NoStat:    true,
	})
	if decision.Record {
		t.Fatal("expected opt-out visit not to be recorded")
	}
	if decision.Referrer != "" {
		t.Fatalf("expected no referrer for opt-out visit, got %q", decision.Referrer)
	}
}

func TestResolveAttribution_OverrideBeatsHeader(t *testing.T) {
	decision := ResolveAttribution(VisitSignals{
		CustomRef: "https://partner.example",
		Referer:   "https://google.com",
	})
	if !decision.Record {
		t.Fatal("expected visit to be recorded")
	}
	if decision.Referrer != "https://partner.example" {
		t.Fatalf("expected override to win, got %q", decision.Referrer)
	}
}

func TestResolveAttribution_HeaderFallback(t *testing.T) {
	decision := ResolveAttribution(VisitSignals{
		Referer: "https://google.com",
	})
	if !decision.Record {
		t.Fatal("expected visit to be recorded")
	}
	if decision.Referrer != "https://google.com" {
		t.Fatalf("expected header referrer, got %q", decision.Referrer)
	}
}

func TestResolveAttribution_DirectVisit(t *testing.T) {
	decision := ResolveAttribution(VisitSignals{})
	if !decision.Record {
		t.Fatal("expected direct visit to be recorded")
	}
	if decision.Referrer != "" {
		t.Fatalf("expected empty referrer for direct visit, got %q", decision.Referrer)
	}
}

func TestResolveAttribution_WhitespaceOverrideDegrades(t *testing.T) {
	decision := ResolveAttribution(VisitSignals{
		CustomRef: "   ",
		Referer:   "https://news.ycombinator.com",
	})
	if decision.Referrer != "https://news.ycombinator.com" {
		t.Fatalf("expected blank override to fall through to header, got %q", decision.Referrer)
	}
}
