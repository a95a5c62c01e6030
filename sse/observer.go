package sse

import (
	"github.com/kbukum/chatstream/llm"
	"github.com/kbukum/chatstream/logger"
)

// EngineObserver relays engine fragments and state transitions to b.
func EngineObserver(b Broadcaster) llm.Observer {
	return llm.ObserverFuncs{
		StateChange: func(id string, from, to llm.State) {
			publish(b, EventTypeState, StateEvent{ExchangeID: id, From: from.String(), To: to.String()})
		},
		Fragment: func(id, fragment string) {
			publish(b, EventTypeFragment, FragmentEvent{ExchangeID: id, Text: fragment})
		},
	}
}

// PublishError relays the error that ended an exchange.
func PublishError(b Broadcaster, exchangeID string, err error) {
	ev := ErrorEvent{ExchangeID: exchangeID, Kind: "internal", Message: err.Error()}
	if kind, ok := llm.KindOf(err); ok {
		ev.Kind = kind.String()
		ev.StatusCode = llm.StatusCode(err)
	}
	publish(b, EventTypeError, ev)
}

func publish(b Broadcaster, eventType string, payload any) {
	if err := b.Publish(eventType, payload); err != nil {
		logger.Warn("sse publish failed", logger.MergeWithError(logger.Fields("event", eventType), err))
	}
}
