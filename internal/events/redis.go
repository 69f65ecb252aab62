package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/sihmvp/dropout-monitor/internal/config"
	"github.com/sihmvp/dropout-monitor/internal/model"
)

// RedisBus carries roster events over Redis pub/sub so every server
// instance sees every mutation.
type RedisBus struct {
	rdb *redis.Client
	log zerolog.Logger
}

// NewRedisBus creates a RedisBus.
func NewRedisBus(rdb *redis.Client, log zerolog.Logger) *RedisBus {
	return &RedisBus{rdb: rdb, log: log.With().Str("component", "roster_events").Logger()}
}

func (b *RedisBus) Publish(ctx context.Context, ev model.RosterEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	return b.rdb.Publish(ctx, config.CacheKey.RosterEventsChannel(), payload).Err()
}

func (b *RedisBus) Subscribe(ctx context.Context) (<-chan model.RosterEvent, func(), error) {
	pubsub := b.rdb.Subscribe(ctx, config.CacheKey.RosterEventsChannel())
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, nil, fmt.Errorf("subscribe: %w", err)
	}

	out := make(chan model.RosterEvent, subscriberBuffer)
	done := make(chan struct{})
	go func() {
		defer close(out)
		ch := pubsub.Channel()
		for {
			select {
			case <-done:
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var ev model.RosterEvent
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					b.log.Warn().Err(err).Msg("Dropping malformed roster event")
					continue
				}
				select {
				case out <- ev:
				default:
					b.log.Warn().Str("type", string(ev.Type)).Msg("Subscriber too slow, event dropped")
				}
			}
		}
	}()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			close(done)
			pubsub.Close()
		})
	}
	return out, cancel, nil
}
