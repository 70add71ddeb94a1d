package redis

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"chart-systemv1/internal/model"
)

// State is the publish breaker's position.
type State int

const (
	StateClosed   State = iota // publishes pass through to the stream
	StateOpen                  // publishes rejected without touching Redis
	StateHalfOpen              // one probe publish in flight
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	}
	return "unknown"
}

// ErrPublishRejected is returned for samples refused while the breaker is
// open. Callers distinguish it from real publish failures with errors.Is.
var ErrPublishRejected = errors.New("feed publish rejected: breaker open")

// PublishFunc appends one sample to the feed stream. Satisfied by
// (*Reader).PublishSample.
type PublishFunc func(ctx context.Context, s model.PriceSample) error

// PublishBreaker sits between a sample producer and the feed stream. A dead
// Redis must not turn a ticking producer into a tight error loop: after
// maxFailures consecutive publish failures the breaker opens and samples are
// rejected locally for resetTimeout. The first publish after the timeout
// runs as a probe; its outcome decides between closing and reopening.
type PublishBreaker struct {
	publish      PublishFunc
	maxFailures  int
	resetTimeout time.Duration

	// OnStateChange fires on every transition, e.g. for operator logs.
	OnStateChange func(from, to State)

	mu       sync.Mutex
	state    State
	failures int
	openedAt time.Time
}

// NewPublishBreaker wraps publish. maxFailures is the consecutive-failure
// count that opens the breaker; resetTimeout is how long it stays open
// before allowing a probe.
func NewPublishBreaker(publish PublishFunc, maxFailures int, resetTimeout time.Duration) *PublishBreaker {
	return &PublishBreaker{
		publish:      publish,
		maxFailures:  maxFailures,
		resetTimeout: resetTimeout,
	}
}

// Publish forwards one sample through the breaker. While open it returns
// ErrPublishRejected without calling Redis; otherwise real publish errors
// come back wrapped.
func (b *PublishBreaker) Publish(ctx context.Context, s model.PriceSample) error {
	if err := b.admit(); err != nil {
		return err
	}

	err := b.publish(ctx, s)
	b.record(err)
	if err != nil {
		return fmt.Errorf("feed publish: %w", err)
	}
	return nil
}

// CurrentState returns the breaker's position.
func (b *PublishBreaker) CurrentState() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *PublishBreaker) admit() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == StateOpen {
		if time.Since(b.openedAt) <= b.resetTimeout {
			return ErrPublishRejected
		}
		b.transition(StateHalfOpen)
	}
	return nil
}

func (b *PublishBreaker) record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err != nil {
		b.failures++
		if b.state == StateHalfOpen || b.failures >= b.maxFailures {
			b.openedAt = time.Now()
			b.transition(StateOpen)
		}
		return
	}

	if b.state == StateHalfOpen {
		b.transition(StateClosed)
	}
	b.failures = 0
}

// transition must run with b.mu held.
func (b *PublishBreaker) transition(to State) {
	from := b.state
	if from == to {
		return
	}
	b.state = to
	if to == StateClosed {
		b.failures = 0
	}
	if b.OnStateChange != nil {
		b.OnStateChange(from, to)
	}
}
