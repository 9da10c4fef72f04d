package events

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/seanorg/heartbeat-module/pkg/sdk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusPublishStampsEvents(t *testing.T) {
	b := NewBus()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.Publish(sdk.Event{Type: "heartbeat.tick", Data: map[string]any{"count": 1}})

	select {
	case ev := <-ch:
		assert.Equal(t, "heartbeat.tick", ev.Type)
		_, err := uuid.Parse(ev.ID)
		require.NoError(t, err)
		assert.False(t, ev.Time.IsZero())
		assert.Equal(t, 1, ev.Data["count"])
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
}

func TestBusKeepsCallerID(t *testing.T) {
	b := NewBus()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.Publish(sdk.Event{ID: "fixed", Type: "x"})
	ev := <-ch
	assert.Equal(t, "fixed", ev.ID)
}

func TestBusDropsWhenSubscriberIsFull(t *testing.T) {
	b := NewBus()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	for i := 0; i < cap(ch)+10; i++ {
		b.Publish(sdk.Event{Type: "x"})
	}
	assert.Len(t, ch, cap(ch))
}

func TestBusUnsubscribeTwice(t *testing.T) {
	b := NewBus()
	ch := b.Subscribe()
	b.Unsubscribe(ch)
	assert.NotPanics(t, func() { b.Unsubscribe(ch) })

	_, open := <-ch
	assert.False(t, open)
}
