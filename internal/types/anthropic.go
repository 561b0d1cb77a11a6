package types

// AnthropicRequest is the Anthropic messages API request shape.
// Message content reuses the polymorphic Content type: Anthropic
// accepts both a plain string and a list of typed blocks.
type AnthropicRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
}

// AnthropicResponse is the Anthropic messages API response shape.
type AnthropicResponse struct {
	Model   string           `json:"model,omitempty"`
	Content []AnthropicBlock `json:"content,omitempty"`
	Usage   *Usage           `json:"usage,omitempty"`
	Error   *APIError        `json:"error,omitempty"`
}

// AnthropicBlock is one content block of an Anthropic response.
type AnthropicBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}
