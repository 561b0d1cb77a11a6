package extractor

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/tollgate-ai/tollgate/internal/types"
)

var vertexPattern = regexp.MustCompile(`(?i):(stream)?generatecontent|aiplatform\.googleapis\.com|generativelanguage\.googleapis\.com`)

// vertexAdapter handles the VertexAI / Gemini generateContent API.
type vertexAdapter struct{}

func (a *vertexAdapter) Name() string { return "vertexai" }

func (a *vertexAdapter) Matches(url string) bool { return vertexPattern.MatchString(url) }

func (a *vertexAdapter) Extract(req *Request, resp *Response) (*Fields, error) {
	var genReq types.VertexRequest
	_ = json.Unmarshal(req.Body, &genReq)

	fields := &Fields{
		Type:     TypeChat,
		Provider: ProviderVertexAI,
		Model:    vertexModelFromURL(req.URL),
	}
	if len(genReq.Contents) > 0 {
		fields.Prompt = joinVertexParts(genReq.Contents[len(genReq.Contents)-1].Parts)
	}

	if isError(resp.StatusCode) {
		fields.ErrorMessage = errorMessage(resp.Body)
		return fields, nil
	}

	var genResp types.VertexResponse
	_ = json.Unmarshal(resp.Body, &genResp)

	if genResp.ModelVersion != "" {
		fields.Model = modelOrNil(genResp.ModelVersion)
	}
	if meta := genResp.UsageMetadata; meta != nil {
		fields.InputTokens = meta.PromptTokenCount
		fields.OutputTokens = meta.CandidatesTokenCount
	}
	if len(genResp.Candidates) > 0 {
		fields.LastMessage = joinVertexParts(genResp.Candidates[0].Content.Parts)
	}
	return fields, nil
}

// vertexModelPattern pulls the model out of .../models/{model}:generateContent.
var vertexModelPattern = regexp.MustCompile(`(?i)/models/([^/:]+):`)

func vertexModelFromURL(url string) *string {
	if m := vertexModelPattern.FindStringSubmatch(url); len(m) == 2 {
		return modelOrNil(m[1])
	}
	return nil
}

func joinVertexParts(parts []types.VertexPart) string {
	var b strings.Builder
	for _, p := range parts {
		b.WriteString(p.Text)
	}
	return b.String()
}
