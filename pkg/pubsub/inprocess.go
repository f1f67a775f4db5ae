package pubsub

import (
	"context"
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
)

// ErrPubSubClosed is returned for publishes and subscriptions that arrive
// after Close.
var ErrPubSubClosed = errors.New("pubsub already closed")

// InProcessPubSub fans a message out to every subscriber, in subscription
// order, within the publisher's goroutine. It backs the process-wide
// "unauthorized" signal and the chat channel's event feed, where the handful
// of subscribers are all local components.
type InProcessPubSub[T any] struct {
	mu          sync.RWMutex
	subscribers []Subscriber[T]
	closed      bool
}

func NewInProcessPubSub[T any]() *InProcessPubSub[T] {
	return &InProcessPubSub[T]{}
}

func (p *InProcessPubSub[T]) Publish(ctx context.Context, message T) error {
	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return ErrPubSubClosed
	}
	subscribers := make([]Subscriber[T], len(p.subscribers))
	copy(subscribers, p.subscribers)
	p.mu.RUnlock()

	var errs *multierror.Error
	for _, subscriber := range subscribers {
		errs = multierror.Append(errs, subscriber.Handle(ctx, message))
	}
	return errs.ErrorOrNil()
}

func (p *InProcessPubSub[T]) Subscribe(_ context.Context, subscriber Subscriber[T]) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrPubSubClosed
	}
	p.subscribers = append(p.subscribers, subscriber)
	return nil
}

func (p *InProcessPubSub[T]) Close(_ context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subscribers = nil
	p.closed = true
	return nil
}

// compile-time interface assertions
var _ PubSub[string] = (*InProcessPubSub[string])(nil)
