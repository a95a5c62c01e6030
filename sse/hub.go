package sse

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kbukum/chatstream/logger"
)

// Broadcaster publishes events to connected clients.
// Handlers depend on it rather than on a concrete Hub.
type Broadcaster interface {
	Publish(eventType string, payload any) error
}

// Hub manages SSE client connections and event fan-out.
// All client map mutations happen on the Run goroutine.
type Hub struct {
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	broadcast  chan Event
	done       chan struct{}
	stopOnce   sync.Once
	nextID     atomic.Uint64
	count      atomic.Int64

	keepAlive time.Duration
	log       *logger.Logger
}

// HubOption configures a Hub.
type HubOption func(*Hub)

// WithKeepAlive sets the keep-alive comment interval. Zero disables it.
func WithKeepAlive(d time.Duration) HubOption {
	return func(h *Hub) { h.keepAlive = d }
}

// WithLogger sets the hub logger.
func WithLogger(l *logger.Logger) HubOption {
	return func(h *Hub) { h.log = l }
}

// NewHub creates a new SSE hub.
func NewHub(opts ...HubOption) *Hub {
	h := &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan Event, clientBuffer),
		done:       make(chan struct{}),
		keepAlive:  30 * time.Second,
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.log == nil {
		h.log = logger.WithComponent("sse")
	}
	return h
}

var _ Broadcaster = (*Hub)(nil)

// Run starts the hub's event loop. It blocks until Stop is called or ctx
// is done, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	defer h.closeAll()
	for {
		select {
		case <-ctx.Done():
			h.Stop()
			return
		case <-h.done:
			return
		case c := <-h.register:
			if old, ok := h.clients[c.id]; ok && old != c {
				old.close()
				h.log.Debug("client replaced", logger.Fields("client_id", c.id))
			}
			h.clients[c.id] = c
			h.count.Store(int64(len(h.clients)))
			h.log.Debug("client registered", logger.Fields("client_id", c.id, "clients", len(h.clients)))
		case c := <-h.unregister:
			if cur, ok := h.clients[c.id]; ok && cur == c {
				delete(h.clients, c.id)
				c.close()
			}
			h.count.Store(int64(len(h.clients)))
			h.log.Debug("client unregistered", logger.Fields("client_id", c.id, "clients", len(h.clients)))
		case ev := <-h.broadcast:
			h.fanOut(ev)
		}
	}
}

// Stop shuts the hub down. Safe to call multiple times.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

// Done is closed once the hub stops.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

// Register adds a client. It returns false if the hub has stopped.
func (h *Hub) Register(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes a client and closes its channel.
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Publish encodes payload as JSON and queues it for every subscribed
// client. Publishing to a stopped hub is a no-op.
func (h *Hub) Publish(eventType string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("sse: encode %s event: %w", eventType, err)
	}
	ev := Event{ID: h.nextID.Add(1), Type: eventType, Data: data}
	select {
	case h.broadcast <- ev:
	case <-h.done:
	}
	return nil
}

func (h *Hub) fanOut(ev Event) {
	delivered := 0
	for _, c := range h.clients {
		if c.Wants(ev.Type) && c.Send(ev) {
			delivered++
		}
	}
	h.log.Debug("event published", logger.Fields(
		"event", ev.Type,
		"id", ev.ID,
		"delivered", delivered,
	))
}

func (h *Hub) closeAll() {
	for id, c := range h.clients {
		c.close()
		delete(h.clients, id)
	}
	h.count.Store(0)
	h.log.Debug("all clients closed")
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	return int(h.count.Load())
}
