package types

// EmbeddingRequest is the embeddings request shape. Input may be a
// single string or a list of strings.
type EmbeddingRequest struct {
	Model string       `json:"model"`
	Input StringOrList `json:"input"`
}

// EmbeddingResponse is the embeddings response shape.
type EmbeddingResponse struct {
	Model string          `json:"model,omitempty"`
	Data  []EmbeddingData `json:"data,omitempty"`
	Usage *Usage          `json:"usage,omitempty"`
	Error *APIError       `json:"error,omitempty"`
}

// EmbeddingData carries one embedding vector.
type EmbeddingData struct {
	Index     int       `json:"index"`
	Embedding []float64 `json:"embedding"`
}
