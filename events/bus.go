// Package events implements the in-process priority-ordered publish/subscribe
// bus.
//
// Subscribers register per event name with a priority (1 fires before 5) and
// an optional filter predicate. Publish delivers to eligible subscribers in
// ascending priority order, insertion order breaking ties, either
// sequentially or concurrently, with a configurable error policy. The bus is
// best-effort and cooperative: no retry, no back-pressure, no persistence.
//
// The subscription table is mutex-guarded, so subscribe/unsubscribe/publish
// are safe from any goroutine, and handlers may themselves subscribe or
// unsubscribe during delivery (publish iterates a snapshot).
package events

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/roach88/flexiflow/ferrors"
)

// Handler processes one published event payload.
type Handler func(ctx context.Context, data any) error

// Filter decides whether a subscription is eligible for a given publish.
// Filters run synchronously before dispatch and must not block.
type Filter func(event string, data any) bool

// Handle is the opaque token returned by Subscribe, used to unsubscribe.
// It carries a lookup key, not ownership: the bus owns the subscription.
type Handle struct {
	Event string
	id    string
}

// Priority bounds for subscriptions.
const (
	MinPriority     = 1
	MaxPriority     = 5
	DefaultPriority = 3
)

type subscription struct {
	id       string
	priority int
	owner    string
	handler  Handler
	filter   Filter
	seq      uint64 // insertion order, tie-break among equal priorities
}

// Bus is the event manager. The zero value is not usable; construct with New.
type Bus struct {
	mu      sync.Mutex
	logger  *slog.Logger
	events  map[string][]*subscription
	byOwner map[string][]Handle
	seq     uint64
}

// New creates a bus. logger may be nil; handler failures are then dropped
// silently apart from the error policy.
func New(logger *slog.Logger) *Bus {
	return &Bus{
		logger:  logger,
		events:  make(map[string][]*subscription),
		byOwner: make(map[string][]Handle),
	}
}

// SubscribeOption configures a subscription.
type SubscribeOption func(*subscribeOptions)

type subscribeOptions struct {
	priority int
	filter   Filter
}

// WithPriority sets the delivery priority (1..5, lower fires first).
func WithPriority(p int) SubscribeOption {
	return func(o *subscribeOptions) { o.priority = p }
}

// WithFilter attaches an eligibility predicate.
func WithFilter(f Filter) SubscribeOption {
	return func(o *subscribeOptions) { o.filter = f }
}

// Subscribe registers a handler for an event on behalf of owner.
// Returns an invalid-argument error when the priority is outside 1..5.
func (b *Bus) Subscribe(event, owner string, handler Handler, opts ...SubscribeOption) (Handle, error) {
	o := subscribeOptions{priority: DefaultPriority}
	for _, opt := range opts {
		opt(&o)
	}

	if o.priority < MinPriority || o.priority > MaxPriority {
		ctx := ferrors.Context{}.Add("priority", o.priority).Add("event", event)
		return Handle{}, ferrors.InvalidArgument(
			fmt.Sprintf("priority must be between %d and %d", MinPriority, MaxPriority), ctx)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.seq++
	sub := &subscription{
		id:       uuid.NewString(),
		priority: o.priority,
		owner:    owner,
		handler:  handler,
		filter:   o.filter,
		seq:      b.seq,
	}
	b.events[event] = append(b.events[event], sub)

	handle := Handle{Event: event, id: sub.id}
	b.byOwner[owner] = append(b.byOwner[owner], handle)
	return handle, nil
}

// Unsubscribe removes the subscription behind handle. Returns true when a
// subscription was actually removed; false for unknown or already-removed
// handles, so calling it twice is safe.
func (b *Bus) Unsubscribe(handle Handle) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.removeLocked(handle)
}

func (b *Bus) removeLocked(handle Handle) bool {
	subs, ok := b.events[handle.Event]
	if !ok {
		return false
	}

	removed := false
	kept := subs[:0]
	var owner string
	for _, s := range subs {
		if s.id == handle.id {
			removed = true
			owner = s.owner
			continue
		}
		kept = append(kept, s)
	}
	if !removed {
		return false
	}

	if len(kept) == 0 {
		delete(b.events, handle.Event)
	} else {
		b.events[handle.Event] = kept
	}

	// Purge the reverse index entry.
	handles := b.byOwner[owner]
	keptHandles := handles[:0]
	for _, h := range handles {
		if h == handle {
			continue
		}
		keptHandles = append(keptHandles, h)
	}
	if len(keptHandles) == 0 {
		delete(b.byOwner, owner)
	} else {
		b.byOwner[owner] = keptHandles
	}

	return true
}

// UnsubscribeAll removes every subscription registered by owner, returning
// the number removed.
func (b *Bus) UnsubscribeAll(owner string) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	handles := b.byOwner[owner]
	delete(b.byOwner, owner)

	count := 0
	for _, h := range handles {
		if b.removeLocked(h) {
			count++
		}
	}
	return count
}

// subscriberCount reports how many subscriptions exist for event.
func (b *Bus) subscriberCount(event string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.events[event])
}
