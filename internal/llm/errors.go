package llm

import "fmt"

// ConfigurationError means the request could not be served with the current
// settings: an unknown provider, a missing model id or a missing credential.
// It is returned before any network call is made.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Reason
}

// UpstreamError wraps a failure from the model or one of its tools.
type UpstreamError struct {
	Provider string
	Err      error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s agent failed: %v", e.Provider, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }
