package llm

import (
	"errors"
	"strings"

	"github.com/tidwall/gjson"
)

const nativeEndpoint = "/api/chat"

var errInvalidJSON = errors.New("invalid JSON")

// NativeDialect speaks the native chat protocol: one JSON object per line,
// with the fragment in message.content.
type NativeDialect struct{}

var _ Dialect = NativeDialect{}

// Name returns DialectNative.
func (NativeDialect) Name() string { return DialectNative }

// Endpoint returns "/api/chat".
func (NativeDialect) Endpoint() string { return nativeEndpoint }

// BuildRequest builds a streaming /api/chat request.
func (NativeDialect) BuildRequest(cfg ProviderConfig, history []Turn) (*Request, error) {
	return &Request{
		URL: endpointURL(cfg.BaseURL, nativeEndpoint),
		Headers: map[string]string{
			"Content-Type": "application/json",
		},
		Body: chatRequest(cfg, history),
	}, nil
}

// ExtractFragment parses one NDJSON line.
func (NativeDialect) ExtractFragment(line string) (string, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return "", nil
	}

	if !gjson.Valid(line) {
		return "", NewDecodeError(line, errInvalidJSON)
	}
	return gjson.Get(line, "message.content").String(), nil
}
