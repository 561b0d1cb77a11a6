package types

// APIError is the error object shared by every supported provider's
// error envelope. Only the human-readable message is extracted; the
// rest of each provider's schema is deliberately not replicated.
type APIError struct {
	Message string `json:"message"`
	Type    string `json:"type,omitempty"`
	Code    any    `json:"code,omitempty"`
}

// ErrorEnvelope is the common `{"error": {...}}` wrapper.
type ErrorEnvelope struct {
	Error *APIError `json:"error,omitempty"`
}
