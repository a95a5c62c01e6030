package llm

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Built-in dialect names.
const (
	// DialectNative streams newline-delimited JSON (Ollama /api/chat).
	DialectNative = "native-stream"
	// DialectCompatible streams Server-Sent Events (OpenAI-compatible /chat/completions).
	DialectCompatible = "sse-compatible"
)

// Dialect maps a transcript to a provider's HTTP request and extracts text
// fragments from single lines of the provider's streamed response.
//
// Dialect implementations must be stateless; one instance is shared by every
// engine that selects it.
type Dialect interface {
	// Name returns the dialect identifier.
	Name() string

	// Endpoint returns the fixed path suffix appended to the base URL.
	Endpoint() string

	// BuildRequest builds the outbound request for history.
	BuildRequest(cfg ProviderConfig, history []Turn) (*Request, error)

	// ExtractFragment returns the text carried by one raw response line.
	// An empty string means the line carries nothing. A non-nil error is a
	// decode error; callers skip the line and keep streaming.
	ExtractFragment(line string) (string, error)
}

// --- Dialect Registry ---

var (
	dialectsMu sync.RWMutex
	dialects   = map[string]Dialect{}
)

func init() {
	native := NativeDialect{}
	compatible := CompatibleDialect{}

	RegisterDialect(DialectNative, native)
	RegisterDialect(DialectCompatible, compatible)

	// Provider aliases.
	RegisterDialect("ollama", native)
	RegisterDialect("openai", compatible)
	RegisterDialect("deepseek", compatible)
}

// RegisterDialect adds a dialect to the global registry, replacing any
// dialect registered under the same name.
func RegisterDialect(name string, d Dialect) {
	dialectsMu.Lock()
	defer dialectsMu.Unlock()
	dialects[name] = d
}

// GetDialect retrieves a dialect by name. An empty name selects DialectNative.
func GetDialect(name string) (Dialect, error) {
	if name == "" {
		name = DialectNative
	}
	dialectsMu.RLock()
	defer dialectsMu.RUnlock()
	d, ok := dialects[name]
	if !ok {
		return nil, &Error{Kind: KindInvalidInput, Message: fmt.Sprintf("unknown dialect %q", name)}
	}
	return d, nil
}

// Dialects returns the sorted names of all registered dialects.
func Dialects() []string {
	dialectsMu.RLock()
	defer dialectsMu.RUnlock()
	names := make([]string, 0, len(dialects))
	for name := range dialects {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// --- shared helpers ---

// endpointURL strips trailing slashes from base and appends suffix unless
// base already ends with it.
func endpointURL(base, suffix string) string {
	base = strings.TrimRight(base, "/")
	if strings.HasSuffix(base, suffix) {
		return base
	}
	return base + suffix
}

func chatRequest(cfg ProviderConfig, history []Turn) ChatRequest {
	msgs := make([]Turn, len(history))
	copy(msgs, history)
	return ChatRequest{
		Model:    cfg.Model,
		Stream:   true,
		Messages: msgs,
	}
}
