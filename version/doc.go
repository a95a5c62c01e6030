// Package version reports build information for the binaries and the
// User-Agent sent to LLM providers.
package version
