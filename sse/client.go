package sse

import (
	"slices"

	"github.com/kbukum/chatstream/logger"
)

const clientBuffer = 256

// Client represents a connected SSE client.
type Client struct {
	id     string
	types  []string // event types to deliver; empty means all
	events chan Event
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithTypes restricts delivery to the given event types.
// EventTypeConnected is always delivered.
func WithTypes(types ...string) ClientOption {
	return func(c *Client) {
		for _, t := range types {
			if t != "" && !slices.Contains(c.types, t) {
				c.types = append(c.types, t)
			}
		}
	}
}

// NewClient creates a new SSE client.
func NewClient(id string, opts ...ClientOption) *Client {
	c := &Client{
		id:     id,
		events: make(chan Event, clientBuffer),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ID returns the client's unique identifier.
func (c *Client) ID() string {
	return c.id
}

// Types returns the event types the client subscribed to.
func (c *Client) Types() []string {
	return slices.Clone(c.types)
}

// Wants reports whether the client subscribed to eventType.
func (c *Client) Wants(eventType string) bool {
	return len(c.types) == 0 || eventType == EventTypeConnected || slices.Contains(c.types, eventType)
}

// Events returns the channel for receiving events.
func (c *Client) Events() <-chan Event {
	return c.events
}

// Send queues an event for the client.
// Returns false if the buffer is full (client is slow).
func (c *Client) Send(ev Event) bool {
	select {
	case c.events <- ev:
		return true
	default:
		logger.Warn("sse client buffer full, dropping event", logger.Fields(
			"client_id", c.id,
			"event", ev.Type,
		))
		return false
	}
}

// close closes the client's event channel. Only the hub loop calls it.
func (c *Client) close() {
	close(c.events)
}
