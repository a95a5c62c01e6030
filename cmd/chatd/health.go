package main

import (
	"context"
	"strconv"

	"github.com/kbukum/chatstream/llm"
	"github.com/kbukum/chatstream/observability"
)

// engineHealth reports the engine as degraded while its last exchange
// failed, so a broken provider shows up without failing liveness.
func (h *handlers) engineHealth() observability.HealthChecker {
	return observability.HealthCheckerFunc(func(context.Context) observability.Health {
		cfg := h.engine.Config()
		health := observability.Health{
			Name:   "engine",
			Status: observability.HealthStatusUp,
			Details: map[string]string{
				"state":   h.engine.State().String(),
				"model":   cfg.Model,
				"dialect": h.engine.Dialect().Name(),
			},
		}
		if err := h.engine.LastError(); err != nil && !llm.IsConcurrentExchange(err) {
			health.Status = observability.HealthStatusDegraded
			health.Message = err.Error()
		}
		return health
	})
}

// streamHealth reports the SSE hub as down once it has stopped.
func (h *handlers) streamHealth() observability.HealthChecker {
	return observability.HealthCheckerFunc(func(context.Context) observability.Health {
		select {
		case <-h.hub.Done():
			return observability.Health{Name: "events", Status: observability.HealthStatusDown, Message: "event hub stopped"}
		default:
			return observability.Health{
				Name:    "events",
				Status:  observability.HealthStatusUp,
				Details: map[string]string{"clients": strconv.Itoa(h.hub.ClientCount())},
			}
		}
	})
}
