package sse

import (
	"fmt"
	"io"
	"strings"
)

// Event types sent to clients.
const (
	// EventTypeConnected is sent once when a client connects.
	EventTypeConnected = "connected"
	// EventTypeFragment carries one assistant fragment.
	EventTypeFragment = "fragment"
	// EventTypeState carries an engine state transition.
	EventTypeState = "state"
	// EventTypeError carries the error that ended an exchange.
	EventTypeError = "error"
)

// Event is one server-sent event.
type Event struct {
	// ID is assigned by the Hub on publish.
	ID   uint64
	Type string
	Data []byte
}

// WriteTo encodes e as an SSE frame. Multi-line data is split across
// several data fields so that clients reassemble it with '\n'.
func (e Event) WriteTo(w io.Writer) (int64, error) {
	var b strings.Builder
	if e.ID > 0 {
		fmt.Fprintf(&b, "id: %d\n", e.ID)
	}
	if e.Type != "" {
		fmt.Fprintf(&b, "event: %s\n", e.Type)
	}
	for _, line := range strings.Split(string(e.Data), "\n") {
		b.WriteString("data: ")
		b.WriteString(line)
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	n, err := io.WriteString(w, b.String())
	return int64(n), err
}

// ConnectedEvent is the payload of EventTypeConnected.
type ConnectedEvent struct {
	ClientID string   `json:"client_id"`
	Types    []string `json:"types,omitempty"`
}

// FragmentEvent is the payload of EventTypeFragment.
type FragmentEvent struct {
	ExchangeID string `json:"exchange_id"`
	Text       string `json:"text"`
}

// StateEvent is the payload of EventTypeState.
type StateEvent struct {
	ExchangeID string `json:"exchange_id"`
	From       string `json:"from"`
	To         string `json:"to"`
}

// ErrorEvent is the payload of EventTypeError.
type ErrorEvent struct {
	ExchangeID string `json:"exchange_id,omitempty"`
	Kind       string `json:"kind"`
	StatusCode int    `json:"status_code,omitempty"`
	Message    string `json:"message"`
}
