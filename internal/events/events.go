// Package events fans roster change notifications out to live subscribers.
package events

import (
	"context"

	"github.com/sihmvp/dropout-monitor/internal/model"
)

// Bus publishes roster events and hands out subscriptions.
type Bus interface {
	Publish(ctx context.Context, ev model.RosterEvent) error
	// Subscribe returns a channel of events and a cancel func that closes it.
	Subscribe(ctx context.Context) (<-chan model.RosterEvent, func(), error)
}

const subscriberBuffer = 16
