// Package extractor normalizes proxied provider exchanges into the
// canonical transaction fields. A closed, ordered set of adapters is
// matched against the outbound URL; the first match wins.
package extractor

import (
	"errors"
	"net/http"
)

// ErrUnsupportedProvider is returned when no adapter signature matches
// the outbound URL. The gateway's background capture logs it and moves
// on; it must never affect the already-sent client response.
var ErrUnsupportedProvider = errors.New("unsupported provider URL")

// Transaction type constants shared with the transaction package.
const (
	TypeChat            = "chat"
	TypeCompletions     = "completions"
	TypeEmbedding       = "embedding"
	TypeImageGeneration = "image_generation"
)

// Request is the outbound side of a proxied exchange.
type Request struct {
	Method  string
	URL     string
	Headers http.Header
	Body    []byte
}

// Response is the inbound side of a proxied exchange. Body is the
// buffered copy captured by the gateway.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// Fields holds the canonical values extracted from one exchange.
// Nil pointers mean "not present in the exchange", never zero.
type Fields struct {
	Type         string
	Provider     string
	Model        *string
	Prompt       string
	InputTokens  *int64
	OutputTokens *int64
	LastMessage  string
	ErrorMessage string

	// ImageCount is the requested image count for image generation;
	// zero for every other transaction type.
	ImageCount int
}

// Adapter extracts canonical fields for one provider wire format.
type Adapter interface {
	// Name returns the adapter identifier for logging.
	Name() string

	// Matches reports whether this adapter handles the outbound URL.
	Matches(url string) bool

	// Extract normalizes the exchange. Called only after Matches.
	Extract(req *Request, resp *Response) (*Fields, error)
}

// Registry dispatches an exchange to the first matching adapter.
type Registry struct {
	adapters []Adapter
}

// NewRegistry builds the default adapter set in priority order.
// Chat must precede legacy completions: the chat URL contains the
// completions path as a suffix.
func NewRegistry() *Registry {
	return &Registry{adapters: []Adapter{
		&chatAdapter{},
		&anthropicAdapter{},
		&vertexAdapter{},
		&embeddingsAdapter{},
		&imagesAdapter{},
		&completionsAdapter{},
	}}
}

// Extract runs the first adapter whose signature matches the outbound
// URL. Returns ErrUnsupportedProvider when none matches.
func (r *Registry) Extract(req *Request, resp *Response) (*Fields, error) {
	for _, a := range r.adapters {
		if a.Matches(req.URL) {
			return a.Extract(req, resp)
		}
	}
	return nil, ErrUnsupportedProvider
}

// isError reports whether the response selects the error path.
// 200 itself is success; anything above it is an error.
func isError(statusCode int) bool {
	return statusCode > 200
}
