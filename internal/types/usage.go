package types

// Usage is the token accounting block providers attach to responses.
// OpenAI-style bodies use prompt/completion naming, Anthropic uses
// input/output; both map onto the same struct so a body-level usage
// object can always be preferred over adapter-specific fields.
type Usage struct {
	PromptTokens     *int64 `json:"prompt_tokens,omitempty"`
	CompletionTokens *int64 `json:"completion_tokens,omitempty"`
	TotalTokens      *int64 `json:"total_tokens,omitempty"`
	InputTokens      *int64 `json:"input_tokens,omitempty"`
	OutputTokens     *int64 `json:"output_tokens,omitempty"`
}

// In returns the input-side token count, whichever naming the provider used.
func (u *Usage) In() *int64 {
	if u == nil {
		return nil
	}
	if u.PromptTokens != nil {
		return u.PromptTokens
	}
	return u.InputTokens
}

// Out returns the output-side token count, whichever naming the provider used.
func (u *Usage) Out() *int64 {
	if u == nil {
		return nil
	}
	if u.CompletionTokens != nil {
		return u.CompletionTokens
	}
	return u.OutputTokens
}
