// Package observability wires OpenTelemetry tracing and metrics export and
// provides health reporting types.
//
// Setup:
//
//	shutdown, err := observability.Init(ctx, cfg.Telemetry)
//	defer shutdown(ctx)
//
// With telemetry disabled the global providers remain no-ops, so code that
// creates spans and instruments unconditionally costs nothing.
//
// HTTP metrics:
//
//	m, err := observability.NewHTTPMetrics(observability.Meter("chatd"))
//	m.RecordRequestEnd(ctx, "POST", "/v1/messages", 200, elapsed)
//
// Health:
//
//	health := observability.Check(ctx, "chatd", version.Short(), engineChecker)
package observability
