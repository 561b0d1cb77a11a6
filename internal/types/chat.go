package types

// ChatRequest is the subset of an OpenAI/Azure chat completions request
// the extractor needs.
type ChatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
}

// ChatResponse is the subset of a chat completions response body.
type ChatResponse struct {
	Model   string       `json:"model,omitempty"`
	Choices []ChatChoice `json:"choices,omitempty"`
	Usage   *Usage       `json:"usage,omitempty"`
	Error   *APIError    `json:"error,omitempty"`
}

// ChatChoice is a single completion choice.
type ChatChoice struct {
	Index   int     `json:"index"`
	Message Message `json:"message"`
}
