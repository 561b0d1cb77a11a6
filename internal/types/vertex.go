package types

// VertexRequest is the VertexAI generateContent request shape.
type VertexRequest struct {
	Contents []VertexContent `json:"contents"`
}

// VertexContent is one conversation turn in a VertexAI request or response.
type VertexContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []VertexPart `json:"parts,omitempty"`
}

// VertexPart is a single content part of a VertexAI turn.
type VertexPart struct {
	Text string `json:"text,omitempty"`
}

// VertexResponse is the VertexAI generateContent response shape.
type VertexResponse struct {
	Candidates    []VertexCandidate    `json:"candidates,omitempty"`
	UsageMetadata *VertexUsageMetadata `json:"usageMetadata,omitempty"`
	ModelVersion  string               `json:"modelVersion,omitempty"`
	Error         *APIError            `json:"error,omitempty"`
}

// VertexCandidate is one generated candidate.
type VertexCandidate struct {
	Content VertexContent `json:"content"`
}

// VertexUsageMetadata is VertexAI's token accounting block.
type VertexUsageMetadata struct {
	PromptTokenCount     *int64 `json:"promptTokenCount,omitempty"`
	CandidatesTokenCount *int64 `json:"candidatesTokenCount,omitempty"`
	TotalTokenCount      *int64 `json:"totalTokenCount,omitempty"`
}
