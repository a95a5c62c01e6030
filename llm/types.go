package llm

// Role identifies who authored a Turn.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is one of the three known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	}
	return false
}

// Turn is a single message in a conversation.
type Turn struct {
	Role    Role   `json:"role" yaml:"role"`
	Content string `json:"content" yaml:"content"`
}

// ProviderConfig describes the backend an Engine talks to.
// It is copied on construction and never mutated afterwards.
type ProviderConfig struct {
	// BaseURL is the provider's API base URL (e.g., "http://localhost:11434").
	BaseURL string `json:"base_url" yaml:"base_url" mapstructure:"base_url" validate:"required,url"`
	// Model is the model requested on every exchange (e.g., "qwen2.5:7b", "deepseek-chat").
	Model string `json:"model" yaml:"model" mapstructure:"model" validate:"required"`
	// APIKey is sent as a bearer token by dialects that need one.
	APIKey string `json:"-" yaml:"api_key" mapstructure:"api_key"`
	// Dialect selects the wire protocol. Empty means DialectNative.
	Dialect string `json:"dialect" yaml:"dialect" mapstructure:"dialect"`
	// SystemPrompt seeds the transcript when non-empty.
	SystemPrompt string `json:"system_prompt,omitempty" yaml:"system_prompt" mapstructure:"system_prompt"`
}

// ChatRequest is the JSON body shared by both dialects.
type ChatRequest struct {
	Model    string `json:"model"`
	Stream   bool   `json:"stream"`
	Messages []Turn `json:"messages"`
}

// Request is an outbound streaming chat request built by a Dialect.
type Request struct {
	URL     string
	Headers map[string]string
	Body    ChatRequest
}

// Result is the outcome of one Engine.Send call.
type Result struct {
	// ExchangeID identifies the exchange in logs, spans and observer callbacks.
	ExchangeID string `json:"exchange_id"`
	// Content is the assistant reply accumulated so far.
	Content string `json:"content"`
	// Fragments is the number of non-empty fragments received.
	Fragments int `json:"fragments"`
	// Partial is set when the stream failed after some content arrived.
	Partial bool `json:"partial"`
}
