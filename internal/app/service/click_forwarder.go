package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/tessara/linkgate/internal/app/linkstore"
	"github.com/tessara/linkgate/internal/app/model"
	metrics "github.com/tessara/linkgate/internal/infra/prometheus"
	"go.uber.org/zap"
)

const (
	forwardTimeout  = 5 * time.Second
	fetchRetryDelay = 2 * time.Second
)

// messageFetcher is the slice of nats.Subscription the consume loop uses.
type messageFetcher interface {
	Fetch(batch int, opts ...nats.PullOpt) ([]*nats.Msg, error)
}

// ClickForwarder drains the JetStream click stream and delivers each event
// to the link store's track endpoint. Transient store failures leave the
// message in the stream for redelivery; events for deleted links are dropped.
type ClickForwarder struct {
	js         nats.JetStreamContext
	logger     *zap.Logger
	tracker    linkstore.Tracker
	retryDelay time.Duration
	stopChan   chan struct{}
}

// NewClickForwarder creates a new click event forwarder.
func NewClickForwarder(js nats.JetStreamContext, logger *zap.Logger, tracker linkstore.Tracker) *ClickForwarder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClickForwarder{
		js:         js,
		logger:     logger,
		tracker:    tracker,
		retryDelay: fetchRetryDelay,
		stopChan:   make(chan struct{}),
	}
}

// Start ensures the stream and durable consumer exist and begins forwarding.
func (f *ClickForwarder) Start() error {
	if _, err := f.js.StreamInfo(model.ClickStreamName); err != nil {
		_, err = f.js.AddStream(&nats.StreamConfig{
			Name:     model.ClickStreamName,
			Subjects: []string{model.ClickStreamSubject},
			MaxBytes: model.ClickStreamMaxBytes,
		})
		if err != nil {
			return fmt.Errorf("failed to create stream: %w", err)
		}
	}

	if _, err := f.js.ConsumerInfo(model.ClickStreamName, model.ClickConsumerName); err != nil {
		_, err = f.js.AddConsumer(model.ClickStreamName, &nats.ConsumerConfig{
			Durable:   model.ClickConsumerName,
			AckPolicy: nats.AckExplicitPolicy,
		})
		if err != nil {
			return fmt.Errorf("failed to create consumer: %w", err)
		}
	}

	sub, err := f.js.PullSubscribe(model.ClickStreamSubject, model.ClickConsumerName)
	if err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}

	go f.consume(sub)
	return nil
}

// Stop ends the forwarding loop after the current fetch completes.
func (f *ClickForwarder) Stop() {
	close(f.stopChan)
}

func (f *ClickForwarder) consume(sub messageFetcher) {
	for {
		select {
		case <-f.stopChan:
			f.logger.Info("click forwarder stopped")
			return
		default:
		}

		msgs, err := sub.Fetch(10, nats.MaxWait(5*time.Second))
		if err != nil && err != nats.ErrTimeout {
			f.logger.Error("failed to fetch click events", zap.Error(err))
			// Pace retries so a dead connection does not spin the loop.
			select {
			case <-time.After(f.retryDelay):
			case <-f.stopChan:
			}
			continue
		}

		for _, msg := range msgs {
			f.forward(msg)
		}
	}
}

func (f *ClickForwarder) forward(msg *nats.Msg) {
	var event model.ClickEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		f.logger.Error("failed to unmarshal click event", zap.Error(err))
		// Malformed payloads can never succeed; drop them.
		msg.Ack()
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), forwardTimeout)
	defer cancel()

	err := f.tracker.RecordClick(ctx, event.LinkCode, event.Referrer)
	switch {
	case err == nil:
		metrics.ClicksForwardedTotal.Inc()
		f.logger.Debug("click event forwarded",
			zap.String("id", event.ID),
			zap.String("link_code", event.LinkCode),
			zap.String("referrer", event.Referrer),
			zap.Time("timestamp", event.Timestamp),
		)
		msg.Ack()

	case errors.Is(err, linkstore.ErrLinkNotFound):
		// The link was deleted after the click; nothing to count it against.
		f.logger.Debug("dropping click for deleted link",
			zap.String("id", event.ID),
			zap.String("link_code", event.LinkCode))
		msg.Ack()

	default:
		metrics.ClickForwardErrorsTotal.Inc()
		f.logger.Error("failed to forward click event",
			zap.String("id", event.ID),
			zap.String("link_code", event.LinkCode),
			zap.Error(err))
		msg.Nak()
	}
}
