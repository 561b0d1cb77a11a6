package pricing

// TransactionType mirrors the transaction type enum used by the
// extractor; it selects the pricing mode for image generation.
const TypeImageGeneration = "image_generation"

// CostBreakdown holds the computed cost fields. Nil values mean "no
// matching price rule", which is distinct from a legitimate zero cost.
type CostBreakdown struct {
	InputCost  *float64
	OutputCost *float64
	TotalCost  *float64
}

// CalculateCost computes the cost breakdown for one transaction.
// model may be nil when extraction found no model; that never matches a
// rule, so all cost fields stay nil. Token counts default to zero when
// absent. imageCount only applies to image-generation pricing.
func CalculateCost(pl *Pricelist, provider string, model *string, txType string, inputTokens, outputTokens *int64, imageCount int) CostBreakdown {
	if pl == nil || model == nil {
		return CostBreakdown{}
	}

	rule := pl.Match(provider, *model)
	if rule == nil {
		return CostBreakdown{}
	}

	in := tokensOrZero(inputTokens)
	out := tokensOrZero(outputTokens)

	switch {
	case txType == TypeImageGeneration:
		// Per-image pricing: TotalPrice is USD per generated image.
		inputCost := 0.0
		outputCost := float64(imageCount) * rule.TotalPrice
		return breakdown(inputCost, outputCost, outputCost)

	case rule.InputPrice == 0:
		// Flat/blended pricing over the combined token count.
		totalCost := float64(in+out) / 1000 * rule.TotalPrice
		return breakdown(0, 0, totalCost)

	default:
		inputCost := rule.InputPrice * float64(in) / 1000
		outputCost := rule.OutputPrice * float64(out) / 1000
		return breakdown(inputCost, outputCost, inputCost+outputCost)
	}
}

func breakdown(input, output, total float64) CostBreakdown {
	return CostBreakdown{InputCost: &input, OutputCost: &output, TotalCost: &total}
}

func tokensOrZero(n *int64) int64 {
	if n == nil {
		return 0
	}
	return *n
}
