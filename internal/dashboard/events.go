package dashboard

import (
	"context"
	"errors"
	"sync"
)

// ErrSubscribed is returned when a second subscriber registers.
var ErrSubscribed = errors.New("roster events already have a subscriber")

// InvalidateFunc reacts to a roster invalidation.
type InvalidateFunc func(ctx context.Context, reason string) error

// RosterEvents announces that the roster held by the client is stale. It has
// at most one subscriber, called synchronously, so each Invalidate causes
// exactly one refetch.
type RosterEvents struct {
	mu    sync.Mutex
	sub   InvalidateFunc
	count int
}

func NewRosterEvents() *RosterEvents {
	return &RosterEvents{}
}

// Subscribe registers fn as the single subscriber.
func (e *RosterEvents) Subscribe(fn InvalidateFunc) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sub != nil {
		return ErrSubscribed
	}
	e.sub = fn
	return nil
}

// Unsubscribe removes the subscriber.
func (e *RosterEvents) Unsubscribe() {
	e.mu.Lock()
	e.sub = nil
	e.mu.Unlock()
}

// Invalidate notifies the subscriber and returns its error.
func (e *RosterEvents) Invalidate(ctx context.Context, reason string) error {
	e.mu.Lock()
	e.count++
	sub := e.sub
	e.mu.Unlock()

	if sub == nil {
		return nil
	}
	return sub(ctx, reason)
}

// Count returns how many invalidations have been emitted.
func (e *RosterEvents) Count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.count
}
