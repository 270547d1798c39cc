package notify

import (
	"context"
	"log/slog"
	"sync"

	"github.com/brojonat/solsplash/service/metrics"
)

// subscriberBuffer is how many notifications a subscriber may lag behind before
// further ones are dropped for it.
const subscriberBuffer = 16

// Hub is an in-process Notifier that fans notifications out to all subscribers.
type Hub struct {
	mu      sync.RWMutex
	subs    map[chan *Notification]struct{}
	closed  bool
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewHub creates an in-process notifier.
func NewHub(logger *slog.Logger, m *metrics.Metrics) *Hub {
	return &Hub{
		subs:    make(map[chan *Notification]struct{}),
		logger:  logger,
		metrics: m,
	}
}

func (h *Hub) Publish(ctx context.Context, n *Notification) error {
	h.metrics.RecordNotification(n.Kind)
	h.deliver(ctx, n)
	return nil
}

// deliver hands n to every subscriber without blocking.
func (h *Hub) deliver(ctx context.Context, n *Notification) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.closed {
		return
	}

	for ch := range h.subs {
		select {
		case ch <- n:
		default:
			h.logger.WarnContext(ctx, "dropping notification for slow subscriber",
				"id", n.ID,
				"kind", n.Kind,
			)
		}
	}
}

func (h *Hub) Subscribe() (<-chan *Notification, func()) {
	ch := make(chan *Notification, subscriberBuffer)

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		close(ch)
		return ch, func() {}
	}
	h.subs[ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if _, ok := h.subs[ch]; ok {
				delete(h.subs, ch)
				close(ch)
			}
		})
	}
}

func (h *Hub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}
	h.closed = true
	for ch := range h.subs {
		delete(h.subs, ch)
		close(ch)
	}
	return nil
}
