package service

import (
	"context"
	"encoding/json"

	"github.com/nats-io/nats.go"
	"github.com/tessara/linkgate/internal/app/model"
)

// ClickRecorder delivers a click event somewhere durable enough. The
// pipeline invokes it from a detached goroutine; an error only means the
// event is lost, never that the redirect failed.
type ClickRecorder interface {
	Record(ctx context.Context, event model.ClickEvent) error
}

// ClickPublisher records clicks by publishing them to the JetStream click
// stream, decoupling the redirect path from link store availability.
type ClickPublisher struct {
	js nats.JetStreamContext
}

// NewClickPublisher creates a new click event publisher.
func NewClickPublisher(js nats.JetStreamContext) *ClickPublisher {
	return &ClickPublisher{js: js}
}

func (p *ClickPublisher) Record(ctx context.Context, event model.ClickEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	_, err = p.js.Publish(model.ClickStreamSubject, data, nats.Context(ctx))
	return err
}
