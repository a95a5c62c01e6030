// Package logger provides structured logging on top of zerolog.
//
// Loggers carry a service name and may be narrowed with WithComponent,
// WithFields, or WithContext. WithContext picks up the request ID stored by
// ContextWithRequestID and the trace/span IDs of the active OpenTelemetry
// span.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"   # json | console | pretty
//	  output: "stderr" # stdout | stderr
//
// # Usage
//
//	log := logger.WithComponent("llm")
//	log.Info("exchange completed", logger.Fields(logger.FieldExchangeID, id))
package logger
