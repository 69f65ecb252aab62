package events

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sihmvp/dropout-monitor/internal/model"
)

func TestLocalBusFanOut(t *testing.T) {
	ctx := context.Background()
	bus := NewLocalBus()

	a, cancelA, err := bus.Subscribe(ctx)
	require.NoError(t, err)
	b, cancelB, err := bus.Subscribe(ctx)
	require.NoError(t, err)
	defer cancelB()

	require.NoError(t, bus.Publish(ctx, model.RosterEvent{Type: model.EventStudentDeleted, StudentID: "S1"}))
	assert.Equal(t, "S1", (<-a).StudentID)
	assert.Equal(t, "S1", (<-b).StudentID)

	cancelA()
	cancelA()
	_, open := <-a
	assert.False(t, open)

	require.NoError(t, bus.Publish(ctx, model.RosterEvent{Type: model.EventRosterUploaded, Count: 2}))
	assert.Equal(t, 2, (<-b).Count)
}

func TestLocalBusSlowSubscriberDoesNotBlock(t *testing.T) {
	ctx := context.Background()
	bus := NewLocalBus()
	_, cancel, err := bus.Subscribe(ctx)
	require.NoError(t, err)
	defer cancel()

	for i := 0; i < subscriberBuffer*2; i++ {
		require.NoError(t, bus.Publish(ctx, model.RosterEvent{Type: model.EventStudentUpdated}))
	}
}
