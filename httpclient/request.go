package httpclient

import (
	"io"
)

// Request describes an outbound HTTP request.
type Request struct {
	// Method is the HTTP method (GET, POST, PUT, PATCH, DELETE, etc).
	Method string
	// URL is the absolute request URL.
	URL string
	// Headers are request-specific headers (merged with client defaults).
	Headers map[string]string
	// Body is the request body. Accepts io.Reader, []byte, string, or any value
	// that will be JSON-encoded.
	Body any
}

// StreamResponse wraps a streaming HTTP response whose body is still open.
type StreamResponse struct {
	// StatusCode is the HTTP status code.
	StatusCode int
	// Headers are the response headers.
	Headers map[string]string
	// Body is the raw streaming body.
	Body io.ReadCloser
}

// Close releases the connection. Safe to call more than once.
func (r *StreamResponse) Close() error {
	if r.Body == nil {
		return nil
	}
	body := r.Body
	r.Body = nil
	return body.Close()
}
