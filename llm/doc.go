// Package llm provides a streaming chat engine over two LLM wire dialects.
//
// # Dialects
//
// A [Dialect] knows how to build the outbound request for a transcript and
// how to pull a text fragment out of one line of the response stream:
//   - [NativeDialect] ("native-stream"): newline-delimited JSON, fragment in
//     message.content, endpoint /api/chat.
//   - [CompatibleDialect] ("sse-compatible"): SSE "data: " lines, fragment in
//     choices[0].delta.content, terminated by "data: [DONE]", endpoint
//     /chat/completions, bearer auth.
//
// Dialects are selected by name through the registry ([RegisterDialect],
// [GetDialect]). "ollama", "openai" and "deepseek" are registered as aliases.
//
// # Engine
//
// An [Engine] owns one [Transcript] and runs one exchange at a time:
//
//	engine, err := llm.NewEngine(llm.ProviderConfig{
//	    BaseURL: "http://localhost:11434",
//	    Model:   "qwen2.5:7b",
//	    Dialect: llm.DialectNative,
//	})
//
//	res, err := engine.Send(ctx, "Hello!", func(fragment string) {
//	    fmt.Print(fragment)
//	})
//
// Send appends the user turn and an empty assistant placeholder, streams the
// reply into the placeholder and finalizes it. When the exchange fails the
// placeholder is removed if it is still empty, or kept as a partial reply.
// Malformed lines are logged and skipped.
//
// Cancel the context passed to Send, or call [Engine.Cancel], to abort an
// exchange. There is no internal timeout.
package llm
