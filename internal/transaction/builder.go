// Package transaction builds the persistent record of one proxied
// exchange: extracted fields, cost breakdown, generation speed, and the
// raw request/response snapshot pair.
package transaction

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/tollgate-ai/tollgate/internal/extractor"
	"github.com/tollgate-ai/tollgate/internal/pricing"
	"github.com/tollgate-ai/tollgate/internal/storage"
	"github.com/tollgate-ai/tollgate/internal/tokenizer"
)

// Builder assembles and persists transactions. It runs on the
// gateway's background path: failures are logged by the caller and
// never reach the client response.
type Builder struct {
	registry  *extractor.Registry
	pricelist *pricing.Pricelist
	estimator *tokenizer.Estimator
	store     storage.Storage
	logger    *slog.Logger
}

// NewBuilder creates a Builder. estimator may be nil to disable the
// token estimate fallback.
func NewBuilder(registry *extractor.Registry, pricelist *pricing.Pricelist, estimator *tokenizer.Estimator, store storage.Storage, logger *slog.Logger) *Builder {
	return &Builder{
		registry:  registry,
		pricelist: pricelist,
		estimator: estimator,
		store:     store,
		logger:    logger,
	}
}

// Input carries everything the gateway captured for one exchange.
type Input struct {
	ProjectID    string
	Tags         []string
	ModelVersion string // overrides the extracted model when set
	Request      extractor.Request
	Response     extractor.Response
	RequestTime  time.Time
	ResponseTime time.Time
}

// Build normalizes the exchange, derives billing fields, and persists
// the transaction with its raw snapshot pair. At-most-once: no retry
// on any failure.
func (b *Builder) Build(in *Input) (*storage.Transaction, error) {
	fields, err := b.registry.Extract(&in.Request, &in.Response)
	if err != nil {
		return nil, fmt.Errorf("extraction failed for %s: %w", in.Request.URL, err)
	}

	if in.ModelVersion != "" {
		model := in.ModelVersion
		fields.Model = &model
	}

	b.estimateTokens(fields, in.Response.StatusCode)

	cost := pricing.CalculateCost(b.pricelist, fields.Provider, fields.Model,
		fields.Type, fields.InputTokens, fields.OutputTokens, fields.ImageCount)
	speed := pricing.GenerationSpeed(fields.OutputTokens, in.RequestTime, in.ResponseTime)

	tx := &storage.Transaction{
		ProjectID:       in.ProjectID,
		Tags:            in.Tags,
		Provider:        fields.Provider,
		Model:           fields.Model,
		Type:            fields.Type,
		StatusCode:      in.Response.StatusCode,
		InputTokens:     fields.InputTokens,
		OutputTokens:    fields.OutputTokens,
		InputCost:       cost.InputCost,
		OutputCost:      cost.OutputCost,
		TotalCost:       cost.TotalCost,
		GenerationSpeed: speed,
		Prompt:          fields.Prompt,
		RequestTime:     in.RequestTime,
		ResponseTime:    in.ResponseTime,
	}

	// Exactly one of the two message fields is populated, selected by
	// the status code. 200 itself counts as success.
	if in.Response.StatusCode <= 200 {
		tx.LastMessage = fields.LastMessage
	} else {
		tx.ErrorMessage = fields.ErrorMessage
	}

	if err := b.store.AddTransaction(tx); err != nil {
		return nil, fmt.Errorf("failed to store transaction: %w", err)
	}

	b.storeRawPair(tx.ID, in)

	return tx, nil
}

// estimateTokens fills missing token counts on successful OpenAI-format
// chat/completions exchanges from a tiktoken estimate. Responses that
// carried a usage block are never overridden.
func (b *Builder) estimateTokens(fields *extractor.Fields, statusCode int) {
	if b.estimator == nil || statusCode > 200 || fields.Model == nil {
		return
	}
	if fields.Type != extractor.TypeChat && fields.Type != extractor.TypeCompletions {
		return
	}
	if fields.Provider != extractor.ProviderOpenAI && fields.Provider != extractor.ProviderAzure {
		return
	}

	if fields.InputTokens == nil && fields.Prompt != "" {
		if n, err := b.estimator.CountTokens(fields.Prompt, *fields.Model); err == nil {
			count := int64(n)
			fields.InputTokens = &count
		}
	}
	if fields.OutputTokens == nil && fields.LastMessage != "" {
		if n, err := b.estimator.CountTokens(fields.LastMessage, *fields.Model); err == nil {
			count := int64(n)
			fields.OutputTokens = &count
		}
	}
}

// storeRawPair writes the diagnostic request/response snapshots. These
// are not required for cost or statistics correctness, so a failure is
// logged and does not fail the build.
func (b *Builder) storeRawPair(transactionID string, in *Input) {
	pair := []*storage.RawTransaction{
		{
			TransactionID: transactionID,
			Kind:          storage.RawKindRequest,
			Headers:       in.Request.Headers,
			Body:          in.Request.Body,
		},
		{
			TransactionID: transactionID,
			Kind:          storage.RawKindResponse,
			Headers:       in.Response.Headers,
			Body:          in.Response.Body,
		},
	}
	for _, raw := range pair {
		if err := b.store.AddRawTransaction(raw); err != nil {
			b.logger.Warn("failed to store raw snapshot",
				"transaction_id", transactionID,
				"kind", raw.Kind,
				"error", err,
			)
		}
	}
}
