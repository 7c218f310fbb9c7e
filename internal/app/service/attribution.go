package service

import "strings"

// VisitSignals carries the request-side signals relevant to click
// attribution: an explicit referrer override (custom_ref), the HTTP Referer
// header, and the opt-out flag used by internal preview links.
type VisitSignals struct {
	CustomRef string
	Referer   string
	NoStat    bool
}

// AttributionDecision is the per-visit outcome: whether to record at all and,
// if so, under which referrer. An empty Referrer means direct/unknown.
type AttributionDecision struct {
	Record   bool
	Referrer string
}

// ResolveAttribution decides how a visit is attributed. Opt-out wins
// outright; otherwise the explicit override beats the Referer header, and a
// visit with neither is recorded as direct. Pure, never fails: malformed
// input degrades to no referrer.
func ResolveAttribution(sig VisitSignals) AttributionDecision {
	if sig.NoStat {
		return AttributionDecision{}
	}

	referrer := strings.TrimSpace(sig.CustomRef)
	if referrer == "" {
		referrer = strings.TrimSpace(sig.Referer)
	}

	return AttributionDecision{Record: true, Referrer: referrer}
}
