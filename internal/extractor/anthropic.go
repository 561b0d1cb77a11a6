package extractor

import (
	"encoding/json"
	"regexp"

	"github.com/tollgate-ai/tollgate/internal/types"
)

var anthropicPattern = regexp.MustCompile(`(?i)api\.anthropic\.com|/v1/messages`)

// anthropicAdapter handles the Anthropic messages API.
type anthropicAdapter struct{}

func (a *anthropicAdapter) Name() string { return "anthropic" }

func (a *anthropicAdapter) Matches(url string) bool { return anthropicPattern.MatchString(url) }

func (a *anthropicAdapter) Extract(req *Request, resp *Response) (*Fields, error) {
	var msgReq types.AnthropicRequest
	_ = json.Unmarshal(req.Body, &msgReq)

	fields := &Fields{
		Type:     TypeChat,
		Provider: ProviderAnthropic,
	}
	if len(msgReq.Messages) > 0 {
		fields.Prompt = msgReq.Messages[0].Content.String()
	}

	if isError(resp.StatusCode) {
		fields.Model = modelOrNil(msgReq.Model)
		fields.ErrorMessage = errorMessage(resp.Body)
		return fields, nil
	}

	var msgResp types.AnthropicResponse
	_ = json.Unmarshal(resp.Body, &msgResp)

	fields.Model = modelOrNil(msgResp.Model, msgReq.Model)
	fields.InputTokens = msgResp.Usage.In()
	fields.OutputTokens = msgResp.Usage.Out()
	if len(msgResp.Content) > 0 {
		fields.LastMessage = msgResp.Content[0].Text
	}
	return fields, nil
}
