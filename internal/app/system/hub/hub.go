// Package hub delivers live complaint events to connected clients over
// WebSocket, replacing the managed store's snapshot listeners from the
// mobile client. Screens subscribe with their company (and optionally
// department) scope and re-render as events arrive. Delivery is
// push-style and best-effort: slow clients are evicted rather than
// allowed to stall the hub.
package hub

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Event kinds published by the complaint writer.
const (
	KindComplaintCreated = "complaint_created"
	KindStatusChanged    = "complaint_status_changed"
	KindComplaintDeleted = "complaint_deleted"
)

// Event is the JSON envelope sent to subscribers. Channel metadata
// (importance, vibration pattern) is preserved so mobile clients can
// raise the equivalent local notification.
type Event struct {
	Kind       string      `json:"kind"`
	Channel    string      `json:"channel"`
	Importance string      `json:"importance"`
	Vibration  []int       `json:"vibration_pattern,omitempty"`
	CompanyKey string      `json:"company_key"`
	Department string      `json:"department,omitempty"` // sanitized; empty for company-wide
	Payload    interface{} `json:"payload,omitempty"`

	// Origin identifies the publishing hub instance so a Redis relay
	// does not echo an event back to where it came from.
	Origin string `json:"origin,omitempty"`
}

// Relay re-broadcasts events between hub instances.
type Relay interface {
	Publish(ctx context.Context, ev Event) error
	Listen(ctx context.Context, deliver func(Event))
}

// Hub fans events out to registered clients.
type Hub struct {
	id         string
	register   chan *Client
	unregister chan *Client
	broadcast  chan Event
	clients    map[*Client]struct{}
	relay      Relay
	log        *zap.Logger

	runOnce sync.Once
}

// New builds a hub. Call Run before publishing.
func New(logger *zap.Logger) *Hub {
	return &Hub{
		id:         uuid.New().String(),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan Event, 64),
		clients:    make(map[*Client]struct{}),
		log:        logger,
	}
}

// SetRelay installs a cross-instance relay. Must be called before Run.
func (h *Hub) SetRelay(r Relay) { h.relay = r }

// Run processes registrations and broadcasts until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	h.runOnce.Do(func() {
		if h.relay != nil {
			go h.relay.Listen(ctx, func(ev Event) {
				if ev.Origin == h.id {
					return
				}
				select {
				case h.broadcast <- ev:
				case <-ctx.Done():
				}
			})
		}
		go h.loop(ctx)
	})
}

func (h *Hub) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				c.closeSend()
			}
			return
		case c := <-h.register:
			h.clients[c] = struct{}{}
		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				c.closeSend()
			}
		case ev := <-h.broadcast:
			for c := range h.clients {
				if !c.wants(ev) {
					continue
				}
				select {
				case c.send <- ev:
				default:
					// Slow client: evict instead of stalling the hub.
					h.log.Warn("evicting slow subscriber",
						zap.String("company", c.companyKey))
					delete(h.clients, c)
					c.closeSend()
				}
			}
		}
	}
}

// Publish broadcasts an event locally and through the relay, without
// blocking the caller: if the hub's buffer is full the event is dropped
// and logged (subscribers re-sync on their next query).
func (h *Hub) Publish(ctx context.Context, ev Event) {
	ev.Origin = h.id
	select {
	case h.broadcast <- ev:
	default:
		h.log.Warn("hub broadcast buffer full, dropping event",
			zap.String("kind", ev.Kind))
	}
	if h.relay != nil {
		if err := h.relay.Publish(ctx, ev); err != nil {
			h.log.Warn("relay publish failed", zap.Error(err))
		}
	}
}
