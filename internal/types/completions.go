package types

import "encoding/json"

// CompletionRequest is the legacy text completions request shape.
type CompletionRequest struct {
	Model  string       `json:"model"`
	Prompt StringOrList `json:"prompt"`
}

// CompletionResponse is the legacy text completions response shape.
type CompletionResponse struct {
	Model   string             `json:"model,omitempty"`
	Choices []CompletionChoice `json:"choices,omitempty"`
	Usage   *Usage             `json:"usage,omitempty"`
	Error   *APIError          `json:"error,omitempty"`
}

// CompletionChoice is a single legacy completion choice.
type CompletionChoice struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

// StringOrList accepts a JSON field that may be a single string or a
// list of strings (the `prompt` and `input` fields of the legacy
// completions and embeddings APIs).
type StringOrList struct {
	Value  string
	List   []string
	IsList bool
}

// UnmarshalJSON accepts both string and string-array forms.
func (s *StringOrList) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		s.Value = single
		s.List = nil
		s.IsList = false
		return nil
	}

	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		s.List = list
		s.Value = ""
		s.IsList = true
		return nil
	}

	return nil // tolerate null and non-string inputs
}

// MarshalJSON emits the form the value was parsed from.
func (s StringOrList) MarshalJSON() ([]byte, error) {
	if s.IsList {
		return json.Marshal(s.List)
	}
	return json.Marshal(s.Value)
}
