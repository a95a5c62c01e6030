package llm

import (
	"strings"

	"github.com/tidwall/gjson"
)

const (
	compatibleEndpoint = "/chat/completions"

	sseDataPrefix = "data: "
	sseDone       = "[DONE]"
)

// CompatibleDialect speaks the OpenAI-compatible protocol: SSE "data: "
// lines carrying choices[0].delta.content, terminated by "data: [DONE]".
type CompatibleDialect struct{}

var _ Dialect = CompatibleDialect{}

// Name returns DialectCompatible.
func (CompatibleDialect) Name() string { return DialectCompatible }

// Endpoint returns "/chat/completions".
func (CompatibleDialect) Endpoint() string { return compatibleEndpoint }

// BuildRequest builds a streaming /chat/completions request. The API key is
// passed through as-is; an empty key yields "Bearer ".
func (CompatibleDialect) BuildRequest(cfg ProviderConfig, history []Turn) (*Request, error) {
	return &Request{
		URL: endpointURL(cfg.BaseURL, compatibleEndpoint),
		Headers: map[string]string{
			"Content-Type":  "application/json",
			"Authorization": "Bearer " + cfg.APIKey,
		},
		Body: chatRequest(cfg, history),
	}, nil
}

// ExtractFragment parses one SSE line. Lines without the "data: " prefix
// (event names, ids, comments, blank separators) carry nothing.
func (CompatibleDialect) ExtractFragment(line string) (string, error) {
	if !strings.HasPrefix(line, sseDataPrefix) {
		return "", nil
	}
	payload := strings.TrimSpace(line[len(sseDataPrefix):])
	if payload == "" || payload == sseDone {
		return "", nil
	}

	if !gjson.Valid(payload) {
		return "", NewDecodeError(line, errInvalidJSON)
	}
	return gjson.Get(payload, "choices.0.delta.content").String(), nil
}
