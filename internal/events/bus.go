package events

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/seanorg/heartbeat-module/pkg/sdk"
)

// Bus fans published events out to every subscriber. Slow subscribers drop events.
type Bus struct {
	mu   sync.RWMutex
	subs map[chan sdk.Event]struct{}
}

func NewBus() *Bus {
	return &Bus{
		subs: make(map[chan sdk.Event]struct{}),
	}
}

func (b *Bus) Subscribe() chan sdk.Event {
	ch := make(chan sdk.Event, 64)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

func (b *Bus) Unsubscribe(ch chan sdk.Event) {
	b.mu.Lock()
	if _, ok := b.subs[ch]; ok {
		delete(b.subs, ch)
		close(ch)
	}
	b.mu.Unlock()
}

func (b *Bus) Publish(ev sdk.Event) {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.Time.IsZero() {
		ev.Time = time.Now().UTC()
	}
	b.mu.RLock()
	for ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	b.mu.RUnlock()
}
