package quorum

import (
	"github.com/quorumlabs/quorum-genkit/internal/eventbus"
)

// WithEventBus sets a custom event bus for the Quorum instance.
// If not provided and EnableEventBus is true in the config,
// a default channel-based event bus will be created.
func WithEventBus(eventBus eventbus.EventBus) Option {
	return func(q *Quorum) {
		q.eventBus = eventBus
	}
}
