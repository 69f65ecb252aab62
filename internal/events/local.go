package events

import (
	"context"
	"sync"

	"github.com/sihmvp/dropout-monitor/internal/model"
)

// LocalBus delivers events to subscribers in the same process.
// A full subscriber buffer drops the event for that subscriber only.
type LocalBus struct {
	mu   sync.Mutex
	next int
	subs map[int]chan model.RosterEvent
}

// NewLocalBus creates an empty LocalBus.
func NewLocalBus() *LocalBus {
	return &LocalBus{subs: make(map[int]chan model.RosterEvent)}
}

func (b *LocalBus) Publish(_ context.Context, ev model.RosterEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	return nil
}

func (b *LocalBus) Subscribe(_ context.Context) (<-chan model.RosterEvent, func(), error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.next
	b.next++
	ch := make(chan model.RosterEvent, subscriberBuffer)
	b.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs, id)
			close(ch)
		})
	}
	return ch, cancel, nil
}
