package types

// ImageRequest is the image generation request shape.
type ImageRequest struct {
	Model  string `json:"model,omitempty"`
	Prompt string `json:"prompt"`
	N      int    `json:"n,omitempty"`
}

// ImageResponse is the image generation response shape.
type ImageResponse struct {
	Data  []ImageData `json:"data,omitempty"`
	Error *APIError   `json:"error,omitempty"`
}

// ImageData carries one generated image reference.
type ImageData struct {
	URL     string `json:"url,omitempty"`
	B64JSON string `json:"b64_json,omitempty"`
}
