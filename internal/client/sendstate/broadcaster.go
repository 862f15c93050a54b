package sendstate

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/cenkeeper/internal/logging"
)

// subscriberBuffer is the per-subscriber channel capacity. A subscriber that
// falls this far behind starts losing transitions rather than blocking the
// pipeline.
const subscriberBuffer = 16

// Broadcaster fans state transitions out to any number of subscribers.
// New subscribers see only future transitions (no replay).
type Broadcaster struct {
	logger logging.Logger

	mu   sync.Mutex
	subs map[int]chan State
	next int
}

func NewBroadcaster(logger logging.Logger) *Broadcaster {
	return &Broadcaster{
		logger: logger,
		subs:   make(map[int]chan State),
	}
}

// Subscribe registers a new listener. The returned cancel function must be
// called when the listener is done; it closes the channel.
func (b *Broadcaster) Subscribe() (<-chan State, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.next
	b.next++
	ch := make(chan State, subscriberBuffer)
	b.subs[id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if c, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(c)
		}
	}
	return ch, cancel
}

// Publish delivers the state to every current subscriber. Delivery to a
// full subscriber buffer is skipped and the drop is logged.
func (b *Broadcaster) Publish(s State) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for id, ch := range b.subs {
		select {
		case ch <- s:
		default:
			b.logger.Warn(context.Background(), "dropping state for slow subscriber",
				"subscriber", id, "state", s.Kind.String())
		}
	}
}
