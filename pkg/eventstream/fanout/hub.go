// Package fanout delivers published events to in-process subscribers, such
// as the /v1/events stream, before handing them to the configured publisher.
package fanout

import (
	"context"
	"log/slog"
	"sync"

	"github.com/papercomputeco/companion/pkg/eventstream"
	"github.com/papercomputeco/companion/pkg/logger"
)

// DefaultBuffer is the per-subscriber channel capacity.
const DefaultBuffer = 64

// Filter narrows a subscription. Empty fields match everything.
type Filter struct {
	ConversationID string
	UserID         string
}

// Match reports whether ev passes the filter.
func (f Filter) Match(ev *eventstream.Event) bool {
	if f.ConversationID != "" && ev.ConversationID != f.ConversationID {
		return false
	}
	if f.UserID != "" && ev.UserID != f.UserID {
		return false
	}
	return true
}

type subscriber struct {
	ch     chan *eventstream.Event
	filter Filter
}

// Hub is an eventstream.Publisher that copies each event to every matching
// subscriber and then forwards it to next. A subscriber whose buffer is
// full misses the event rather than stalling the publisher.
type Hub struct {
	next   eventstream.Publisher
	buffer int
	logger *slog.Logger

	mu     sync.RWMutex
	subs   map[uint64]*subscriber
	seq    uint64
	closed bool
}

var _ eventstream.Publisher = (*Hub)(nil)

// New returns a Hub forwarding to next, which may be nil.
func New(next eventstream.Publisher, buffer int, log *slog.Logger) *Hub {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Hub{
		next:   next,
		buffer: buffer,
		logger: log,
		subs:   map[uint64]*subscriber{},
	}
}

// Subscribe registers a subscriber. The returned cancel func unregisters it
// and closes the channel; it is safe to call more than once. Subscribing to
// a closed hub yields an already-closed channel.
func (h *Hub) Subscribe(filter Filter) (<-chan *eventstream.Event, func()) {
	ch := make(chan *eventstream.Event, h.buffer)

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(ch)
		return ch, func() {}
	}

	h.seq++
	id := h.seq
	h.subs[id] = &subscriber{ch: ch, filter: filter}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if s, ok := h.subs[id]; ok {
				delete(h.subs, id)
				close(s.ch)
			}
		})
	}
}

// Len returns the number of live subscribers.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Publish fans event out and forwards it to the next publisher.
func (h *Hub) Publish(ctx context.Context, event *eventstream.Event) error {
	if event == nil {
		return eventstream.ErrNilEvent
	}

	h.mu.RLock()
	for _, s := range h.subs {
		if !s.filter.Match(event) {
			continue
		}
		select {
		case s.ch <- event:
		default:
			h.logger.Debug("subscriber buffer full, event skipped",
				"event_id", event.EventID,
				"event_type", event.EventType,
			)
		}
	}
	h.mu.RUnlock()

	if h.next == nil {
		return nil
	}
	return h.next.Publish(ctx, event)
}

// Drain ends every subscription and refuses new ones. Events are still
// forwarded to the next publisher.
func (h *Hub) Drain() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for id, s := range h.subs {
		delete(h.subs, id)
		close(s.ch)
	}
}

// Close drains the hub and closes the next publisher.
func (h *Hub) Close() error {
	h.Drain()
	if h.next == nil {
		return nil
	}
	return h.next.Close()
}
