package model

import "time"

// ClickEvent is the append-only record of one counted visit. Referrer is
// empty for direct/unknown traffic; the event is never mutated after
// publication.
type ClickEvent struct {
	ID        string    `json:"id"`
	LinkCode  string    `json:"link_code"`
	Referrer  string    `json:"referrer,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

const (
	ClickStreamName     = "CLICKS"
	ClickStreamSubject  = "clicks.events"
	ClickConsumerName   = "click-forwarder"
	ClickStreamMaxBytes = 1024 * 1024 * 100 // 100MB
)
