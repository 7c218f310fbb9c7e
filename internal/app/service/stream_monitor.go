package service

import (
	"time"

	"github.com/nats-io/nats.go"
	"github.com/tessara/linkgate/internal/app/model"
	metrics "github.com/tessara/linkgate/internal/infra/prometheus"
	"go.uber.org/zap"
)

// ConsumerInspector is the slice of the JetStream API the monitor needs.
type ConsumerInspector interface {
	ConsumerInfo(stream, consumer string, opts ...nats.JSOpt) (*nats.ConsumerInfo, error)
}

// StreamMonitor periodically samples the forwarder's backlog on the click
// stream. A growing backlog means the forwarder is losing ground against
// incoming clicks.
type StreamMonitor struct {
	logger        *zap.Logger
	js            ConsumerInspector
	interval      time.Duration
	warnThreshold uint64
	stopChan      chan struct{}
}

// NewStreamMonitor creates a monitor for the click forwarder's consumer.
func NewStreamMonitor(logger *zap.Logger, js ConsumerInspector, warnThreshold uint64) *StreamMonitor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StreamMonitor{
		logger:        logger,
		js:            js,
		interval:      30 * time.Second,
		warnThreshold: warnThreshold,
		stopChan:      make(chan struct{}),
	}
}

// Start begins periodic sampling.
func (m *StreamMonitor) Start() {
	go m.run()
}

// Stop ends the sampling loop.
func (m *StreamMonitor) Stop() {
	close(m.stopChan)
}

func (m *StreamMonitor) run() {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.sample()
		case <-m.stopChan:
			m.logger.Info("click stream monitor stopped")
			return
		}
	}
}

func (m *StreamMonitor) sample() {
	info, err := m.js.ConsumerInfo(model.ClickStreamName, model.ClickConsumerName)
	if err != nil {
		m.logger.Error("failed to read click consumer info", zap.Error(err))
		return
	}

	// Undelivered plus delivered-but-unacked; the stream keeps acked
	// messages around until its byte limit evicts them, so stream depth
	// would overstate the backlog.
	pending := info.NumPending + uint64(info.NumAckPending)
	metrics.ClickStreamPending.Set(float64(pending))

	if m.warnThreshold > 0 && pending > m.warnThreshold {
		m.logger.Warn("click stream backlog is growing",
			zap.Uint64("pending", pending),
			zap.Uint64("threshold", m.warnThreshold),
		)
	}
}
