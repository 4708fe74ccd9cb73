package events

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/roach88/flexiflow/ferrors"
)

// Delivery selects how eligible handlers run.
type Delivery string

const (
	// Sequential runs handlers one at a time in priority order.
	Sequential Delivery = "sequential"

	// Concurrent starts all eligible handlers together and waits for all of
	// them to finish. No ordering guarantee on completion.
	Concurrent Delivery = "concurrent"
)

// ErrorPolicy selects what a handler failure does to the publish call.
type ErrorPolicy string

const (
	// Continue logs the failure and proceeds; Publish returns nil.
	Continue ErrorPolicy = "continue"

	// Propagate surfaces a handler failure to the publisher. Sequential
	// delivery stops at the first failure; concurrent delivery still runs
	// everything and returns the earliest-priority failure afterwards.
	Propagate ErrorPolicy = "propagate"
)

// PublishOption configures one publish call.
type PublishOption func(*publishOptions)

type publishOptions struct {
	delivery Delivery
	onError  ErrorPolicy
}

// WithDelivery sets the delivery mode (default Sequential).
func WithDelivery(d Delivery) PublishOption {
	return func(o *publishOptions) { o.delivery = d }
}

// WithOnError sets the error policy (default Continue).
func WithOnError(p ErrorPolicy) PublishOption {
	return func(o *publishOptions) { o.onError = p }
}

// Publish delivers data to every eligible subscriber of event.
//
// Eligibility is decided by each subscription's filter before any handler
// runs. Delivery order is ascending priority with insertion order breaking
// ties. Zero eligible subscribers is a no-op. Handler failures never corrupt
// the subscription table; their effect on the publish call is governed by
// the error policy.
func (b *Bus) Publish(ctx context.Context, event string, data any, opts ...PublishOption) error {
	o := publishOptions{delivery: Sequential, onError: Continue}
	for _, opt := range opts {
		opt(&o)
	}

	if o.delivery != Sequential && o.delivery != Concurrent {
		ectx := ferrors.Context{}.Add("delivery", string(o.delivery))
		return ferrors.InvalidArgument(
			fmt.Sprintf("delivery must be %q or %q", Sequential, Concurrent), ectx)
	}
	if o.onError != Continue && o.onError != Propagate {
		ectx := ferrors.Context{}.Add("on_error", string(o.onError))
		return ferrors.InvalidArgument(
			fmt.Sprintf("error policy must be %q or %q", Continue, Propagate), ectx)
	}

	ordered := b.eligible(event, data)
	if len(ordered) == 0 {
		return nil
	}

	if o.delivery == Concurrent {
		return b.deliverConcurrent(ctx, event, data, ordered, o.onError)
	}
	return b.deliverSequential(ctx, event, data, ordered, o.onError)
}

// eligible snapshots the subscriber list for event, applies filters, and
// returns the survivors in delivery order. The snapshot means handlers can
// subscribe/unsubscribe reentrantly without affecting this delivery.
func (b *Bus) eligible(event string, data any) []*subscription {
	b.mu.Lock()
	subs := b.events[event]
	snapshot := make([]*subscription, len(subs))
	copy(snapshot, subs)
	b.mu.Unlock()

	eligible := snapshot[:0]
	for _, s := range snapshot {
		if s.filter == nil || s.filter(event, data) {
			eligible = append(eligible, s)
		}
	}

	sort.SliceStable(eligible, func(i, j int) bool {
		if eligible[i].priority != eligible[j].priority {
			return eligible[i].priority < eligible[j].priority
		}
		return eligible[i].seq < eligible[j].seq
	})
	return eligible
}

func (b *Bus) deliverSequential(ctx context.Context, event string, data any, ordered []*subscription, onError ErrorPolicy) error {
	for _, s := range ordered {
		if err := s.handler(ctx, data); err != nil {
			b.logHandlerError(event, s, err)
			if onError == Propagate {
				return fmt.Errorf("handler for event %q failed: %w", event, err)
			}
		}
	}
	return nil
}

func (b *Bus) deliverConcurrent(ctx context.Context, event string, data any, ordered []*subscription, onError ErrorPolicy) error {
	// One outcome slot per subscriber, indexed by delivery order, so the
	// earliest-priority failure can be picked after the join regardless of
	// completion order.
	results := make([]error, len(ordered))

	var wg sync.WaitGroup
	for i, s := range ordered {
		wg.Add(1)
		go func(i int, s *subscription) {
			defer wg.Done()
			results[i] = s.handler(ctx, data)
		}(i, s)
	}
	wg.Wait()

	var first error
	for i, err := range results {
		if err == nil {
			continue
		}
		b.logHandlerError(event, ordered[i], err)
		if first == nil {
			first = err
		}
	}

	if onError == Propagate && first != nil {
		return fmt.Errorf("handler for event %q failed: %w", event, first)
	}
	return nil
}

func (b *Bus) logHandlerError(event string, s *subscription, err error) {
	if b.logger == nil {
		return
	}
	b.logger.Error("error handling event",
		"event", event,
		"subscriber", s.owner,
		"priority", s.priority,
		"error", err,
	)
}
