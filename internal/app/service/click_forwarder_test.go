package service

import (
	"sync"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
)

type stubFetcher struct {
	mu    sync.Mutex
	calls int
}

func (s *stubFetcher) Fetch(batch int, opts ...nats.PullOpt) ([]*nats.Msg, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	return nil, nats.ErrConnectionClosed
}

func (s *stubFetcher) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func TestClickForwarder_PacesFetchRetries(t *testing.T) {
	sub := &stubFetcher{}
	f := NewClickForwarder(nil, nil, nil)

	done := make(chan struct{})
	go func() {
		defer close(done)
		f.consume(sub)
	}()

	time.Sleep(150 * time.Millisecond)
	f.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("consume loop did not stop")
	}

	if got := sub.callCount(); got != 1 {
		t.Fatalf("expected a single fetch attempt before backing off, got %d", got)
	}
}
