// Package server provides the HTTP server used by chatd: Gin routes behind
// an h2c handler, so HTTP/1.1 and cleartext HTTP/2 clients share one port.
//
// # Middleware
//
// New wraps every route with the server/middleware chain:
//
//   - Recovery: panic recovery with structured logging
//   - RequestID: UUID request ids propagated into the logger context
//   - CORS: cross-origin resource sharing for browser clients
//   - BodySizeLimit: request body size limits
//   - RequestLogger: request logging with duration tracking
//
// Metrics and RateLimit are Gin middleware applied per route group.
//
// # Endpoints
//
// server/endpoint provides /health, /alive, /ready and /version handlers.
//
// # Responses
//
// RespondWithError maps llm and validation errors onto HTTP statuses and the
// {"error": {"kind", "message"}} envelope.
package server
