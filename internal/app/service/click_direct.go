package service

import (
	"context"

	"github.com/tessara/linkgate/internal/app/linkstore"
	"github.com/tessara/linkgate/internal/app/model"
)

// DirectRecorder posts click events straight to the link store's track
// endpoint. Used when no NATS stream is deployed; delivery is then only as
// reliable as the store itself.
type DirectRecorder struct {
	tracker linkstore.Tracker
}

// NewDirectRecorder creates a recorder backed by the link store client.
func NewDirectRecorder(tracker linkstore.Tracker) *DirectRecorder {
	return &DirectRecorder{tracker: tracker}
}

func (r *DirectRecorder) Record(ctx context.Context, event model.ClickEvent) error {
	return r.tracker.RecordClick(ctx, event.LinkCode, event.Referrer)
}
