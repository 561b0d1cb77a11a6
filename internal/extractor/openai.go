package extractor

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/tollgate-ai/tollgate/internal/types"
)

// Providers recognized by the OpenAI-format adapters. Azure hosts the
// same wire format, so the provider is derived from the URL host.
const (
	ProviderOpenAI    = "openai"
	ProviderAzure     = "azure"
	ProviderAnthropic = "anthropic"
	ProviderVertexAI  = "vertexai"
)

// modelHeader is the response header OpenAI and Azure set with the
// model that actually served the request; it overrides the body model.
const modelHeader = "Openai-Model"

var (
	chatPattern        = regexp.MustCompile(`(?i)/chat/completions`)
	completionsPattern = regexp.MustCompile(`(?i)/completions`)
	embeddingsPattern  = regexp.MustCompile(`(?i)/embeddings`)
	imagesPattern      = regexp.MustCompile(`(?i)/images/generations`)
	azureHostPattern   = regexp.MustCompile(`(?i)\.azure\.com|azure-api\.net`)
)

// openAIProvider distinguishes Azure deployments from openai.com by host.
func openAIProvider(url string) string {
	if azureHostPattern.MatchString(url) {
		return ProviderAzure
	}
	return ProviderOpenAI
}

// errorMessage pulls the human-readable message out of an error body.
// Falls back to the raw body when the envelope doesn't parse.
func errorMessage(body []byte) string {
	var envelope types.ErrorEnvelope
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error != nil {
		return envelope.Error.Message
	}
	return strings.TrimSpace(string(body))
}

// joinStringList renders a string list the way the upstream source
// formatted it: comma-joined and bracketed.
func joinStringList(values []string) string {
	return "[" + strings.Join(values, ", ") + "]"
}

// joinFloatList renders an embedding vector with the same join rule.
func joinFloatList(values []float64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// modelOrNil returns a pointer to the first non-empty candidate.
func modelOrNil(candidates ...string) *string {
	for _, c := range candidates {
		if c != "" {
			model := c
			return &model
		}
	}
	return nil
}

// chatAdapter handles OpenAI and Azure OpenAI chat completions.
type chatAdapter struct{}

func (a *chatAdapter) Name() string { return "openai-chat" }

func (a *chatAdapter) Matches(url string) bool { return chatPattern.MatchString(url) }

func (a *chatAdapter) Extract(req *Request, resp *Response) (*Fields, error) {
	var chatReq types.ChatRequest
	_ = json.Unmarshal(req.Body, &chatReq)

	fields := &Fields{
		Type:     TypeChat,
		Provider: openAIProvider(req.URL),
		Prompt:   chatPrompt(chatReq.Messages),
	}

	if isError(resp.StatusCode) {
		fields.Model = modelOrNil(chatReq.Model)
		fields.ErrorMessage = errorMessage(resp.Body)
		return fields, nil
	}

	var chatResp types.ChatResponse
	_ = json.Unmarshal(resp.Body, &chatResp)

	fields.Model = modelOrNil(resp.Headers.Get(modelHeader), chatResp.Model, chatReq.Model)
	fields.InputTokens = chatResp.Usage.In()
	fields.OutputTokens = chatResp.Usage.Out()
	if len(chatResp.Choices) > 0 {
		fields.LastMessage = chatResp.Choices[0].Message.Content.String()
	}
	return fields, nil
}

// chatPrompt returns the content of the last user message, falling back
// to the first message when no user message exists.
func chatPrompt(messages []types.Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == types.RoleUser {
			return messages[i].Content.String()
		}
	}
	if len(messages) > 0 {
		return messages[0].Content.String()
	}
	return ""
}

// completionsAdapter handles the legacy text completions endpoint.
// Registered last: its URL signature is a suffix of the chat signature.
type completionsAdapter struct{}

func (a *completionsAdapter) Name() string { return "openai-completions" }

func (a *completionsAdapter) Matches(url string) bool { return completionsPattern.MatchString(url) }

func (a *completionsAdapter) Extract(req *Request, resp *Response) (*Fields, error) {
	var compReq types.CompletionRequest
	_ = json.Unmarshal(req.Body, &compReq)

	prompt := compReq.Prompt.Value
	if compReq.Prompt.IsList {
		prompt = joinStringList(compReq.Prompt.List)
	}

	fields := &Fields{
		Type:     TypeCompletions,
		Provider: openAIProvider(req.URL),
		Prompt:   prompt,
	}

	if isError(resp.StatusCode) {
		fields.Model = modelOrNil(compReq.Model)
		fields.ErrorMessage = errorMessage(resp.Body)
		return fields, nil
	}

	var compResp types.CompletionResponse
	_ = json.Unmarshal(resp.Body, &compResp)

	fields.Model = modelOrNil(compResp.Model, compReq.Model)
	fields.InputTokens = compResp.Usage.In()
	fields.OutputTokens = compResp.Usage.Out()
	if len(compResp.Choices) > 0 {
		fields.LastMessage = compResp.Choices[0].Text
	}
	return fields, nil
}

// embeddingsAdapter handles the embeddings endpoint.
type embeddingsAdapter struct{}

func (a *embeddingsAdapter) Name() string { return "openai-embeddings" }

func (a *embeddingsAdapter) Matches(url string) bool { return embeddingsPattern.MatchString(url) }

func (a *embeddingsAdapter) Extract(req *Request, resp *Response) (*Fields, error) {
	var embReq types.EmbeddingRequest
	_ = json.Unmarshal(req.Body, &embReq)

	prompt := embReq.Input.Value
	if embReq.Input.IsList {
		prompt = joinStringList(embReq.Input.List)
	}

	fields := &Fields{
		Type:     TypeEmbedding,
		Provider: openAIProvider(req.URL),
		Prompt:   prompt,
	}

	if isError(resp.StatusCode) {
		fields.Model = modelOrNil(embReq.Model)
		fields.ErrorMessage = errorMessage(resp.Body)
		return fields, nil
	}

	var embResp types.EmbeddingResponse
	_ = json.Unmarshal(resp.Body, &embResp)

	fields.Model = modelOrNil(embResp.Model, embReq.Model)
	fields.InputTokens = embResp.Usage.In()
	fields.OutputTokens = embResp.Usage.Out()
	if len(embResp.Data) > 0 {
		fields.LastMessage = joinFloatList(embResp.Data[0].Embedding)
	}
	return fields, nil
}

// imagesAdapter handles the image generation endpoint. It is the only
// adapter that produces the image_generation transaction type, which
// in turn selects per-image pricing.
type imagesAdapter struct{}

func (a *imagesAdapter) Name() string { return "openai-images" }

func (a *imagesAdapter) Matches(url string) bool { return imagesPattern.MatchString(url) }

func (a *imagesAdapter) Extract(req *Request, resp *Response) (*Fields, error) {
	var imgReq types.ImageRequest
	_ = json.Unmarshal(req.Body, &imgReq)

	imageCount := imgReq.N
	if imageCount <= 0 {
		imageCount = 1
	}

	fields := &Fields{
		Type:       TypeImageGeneration,
		Provider:   openAIProvider(req.URL),
		Prompt:     imgReq.Prompt,
		Model:      modelOrNil(imgReq.Model),
		ImageCount: imageCount,
	}

	if isError(resp.StatusCode) {
		fields.ErrorMessage = errorMessage(resp.Body)
		return fields, nil
	}

	var imgResp types.ImageResponse
	_ = json.Unmarshal(resp.Body, &imgResp)
	if len(imgResp.Data) > 0 {
		if imgResp.Data[0].URL != "" {
			fields.LastMessage = imgResp.Data[0].URL
		} else if imgResp.Data[0].B64JSON != "" {
			fields.LastMessage = "[base64 image data]"
		}
	}
	return fields, nil
}
