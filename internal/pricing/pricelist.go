// Package pricing provides the provider pricelist and the cost and
// generation-speed calculators used by the transaction builder.
package pricing

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/BurntSushi/toml"
)

// PriceRule is a single pricelist entry. Prices are USD per 1000 tokens,
// except image-generation pricing where TotalPrice is USD per image.
type PriceRule struct {
	ModelName    string     `toml:"model_name"`
	Provider     string     `toml:"provider"`
	StartDate    *time.Time `toml:"start_date"`
	MatchPattern string     `toml:"match_pattern"`
	InputPrice   float64    `toml:"input_price"`
	OutputPrice  float64    `toml:"output_price"`
	TotalPrice   float64    `toml:"total_price"`
	IsActive     bool       `toml:"is_active"`

	// pattern is the compiled MatchPattern, set at load time
	pattern *regexp.Regexp
}

// Pricelist is the ordered, read-only set of price rules loaded at startup.
type Pricelist struct {
	Rules []PriceRule
}

// pricelistFile is the TOML file structure.
type pricelistFile struct {
	Prices []PriceRule `toml:"prices"`
}

// LoadPricelist reads and compiles the pricelist from a TOML file.
// A missing file yields an empty pricelist, not an error: every
// transaction then records null costs.
func LoadPricelist(path string) (*Pricelist, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return &Pricelist{}, nil
	}

	var file pricelistFile
	if _, err := toml.DecodeFile(path, &file); err != nil {
		return nil, fmt.Errorf("failed to parse pricelist: %w", err)
	}

	return NewPricelist(file.Prices)
}

// NewPricelist compiles the match patterns of the given rules.
func NewPricelist(rules []PriceRule) (*Pricelist, error) {
	for i := range rules {
		pattern, err := regexp.Compile(rules[i].MatchPattern)
		if err != nil {
			return nil, fmt.Errorf("invalid match_pattern %q for model %q: %w",
				rules[i].MatchPattern, rules[i].ModelName, err)
		}
		rules[i].pattern = pattern
	}
	return &Pricelist{Rules: rules}, nil
}

// Match returns the price rule for the given provider and model, or nil
// when no active rule matches. When several rules match, the one with
// the latest start date wins; a nil start date sorts earliest.
func (p *Pricelist) Match(provider, model string) *PriceRule {
	var best *PriceRule
	for i := range p.Rules {
		rule := &p.Rules[i]
		if !rule.IsActive || rule.Provider != provider {
			continue
		}
		if rule.pattern == nil || !rule.pattern.MatchString(model) {
			continue
		}
		if best == nil || ruleStartsAfter(rule, best) {
			best = rule
		}
	}
	return best
}

// ruleStartsAfter reports whether a starts strictly after b.
func ruleStartsAfter(a, b *PriceRule) bool {
	if a.StartDate == nil {
		return false
	}
	if b.StartDate == nil {
		return true
	}
	return a.StartDate.After(*b.StartDate)
}
