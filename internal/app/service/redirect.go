package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/tessara/linkgate/internal/app/model"
	metrics "github.com/tessara/linkgate/internal/infra/prometheus"
	"go.uber.org/zap"
)

const defaultTrackTimeout = 3 * time.Second

// DestinationResolver is what the pipeline needs from the resolver.
type DestinationResolver interface {
	Resolve(ctx context.Context, code string) (string, error)
}

// RedirectPipeline is the per-request orchestration: resolve the code,
// decide attribution, hand the destination back for the redirect and fire
// the click record as a detached best-effort task. Recording can fail or
// hang without the redirect ever noticing.
type RedirectPipeline struct {
	logger       *zap.Logger
	resolver     DestinationResolver
	recorder     ClickRecorder
	trackTimeout time.Duration
}

// NewRedirectPipeline builds the pipeline. recorder may be nil, in which
// case visits resolve and redirect but are never recorded.
func NewRedirectPipeline(logger *zap.Logger, resolver DestinationResolver, recorder ClickRecorder, trackTimeout time.Duration) *RedirectPipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	if trackTimeout <= 0 {
		trackTimeout = defaultTrackTimeout
	}
	return &RedirectPipeline{
		logger:       logger,
		resolver:     resolver,
		recorder:     recorder,
		trackTimeout: trackTimeout,
	}
}

// Handle resolves code and, for counted visits, dispatches the click record
// before returning. The returned destination is ready to redirect to; the
// dispatch outcome is never part of the result. Resolution errors
// (linkstore.ErrLinkNotFound, linkstore.ErrStoreUnavailable) are the only
// failures a caller sees, and neither produces a click event.
func (p *RedirectPipeline) Handle(ctx context.Context, code string, sig VisitSignals) (string, error) {
	dest, err := p.resolver.Resolve(ctx, code)
	if err != nil {
		return "", err
	}

	decision := ResolveAttribution(sig)
	if !decision.Record {
		metrics.ClicksSuppressedTotal.Inc()
	} else if p.recorder != nil {
		p.dispatch(code, decision.Referrer)
	}

	metrics.RedirectsTotal.Inc()
	return dest, nil
}

// dispatch starts the detached recording task. It deliberately does not take
// the request context: the response is already on its way out when the
// record lands, so the task gets its own deadline and is abandoned, not
// retried, on expiry.
func (p *RedirectPipeline) dispatch(code, referrer string) {
	event := model.ClickEvent{
		ID:        uuid.New().String(),
		LinkCode:  code,
		Referrer:  referrer,
		Timestamp: time.Now().UTC(),
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), p.trackTimeout)
		defer cancel()

		if err := p.recorder.Record(ctx, event); err != nil {
			metrics.ClicksDroppedTotal.Inc()
			p.logger.Warn("click record dropped",
				zap.String("id", event.ID),
				zap.String("code", code),
				zap.Error(err))
			return
		}
		metrics.ClicksPublishedTotal.Inc()
	}()
}
