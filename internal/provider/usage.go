package provider

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/codecrew-ai/codecrew/pkg/types"
)

// defaultRates is the compiled-in pricing table, dollars per million tokens.
// Config rates override these; they exist so cost estimates never silently
// disappear when the config omits a provider.
var defaultRates = map[types.Provider]types.Rate{
	types.ProviderGrok:   {Input: 3.00, Output: 15.00},
	types.ProviderGroq:   {Input: 0.59, Output: 0.79},
	types.ProviderGemini: {Input: 0.10, Output: 0.40},
	types.ProviderClaude: {Input: 3.00, Output: 15.00},
	types.ProviderOllama: {Input: 0, Output: 0},
}

// RateFor returns the pricing for a provider: the config's rate when set,
// otherwise the compiled-in default.
func RateFor(p types.Provider, cfg *types.Config) types.Rate {
	if r, ok := cfg.RateFor(p); ok {
		return r
	}
	return defaultRates[p]
}

// Cost estimates the dollar cost of one usage record.
func Cost(u types.Usage, r types.Rate) float64 {
	return float64(u.InputTokens)/1e6*r.Input + float64(u.OutputTokens)/1e6*r.Output
}

// UsageFooter renders the accounting block appended to an agent's reply.
// The format is a contract: cost aggregation downstream matches it with
// CostPattern, so the shape must not drift.
func UsageFooter(u types.Usage, r types.Rate) string {
	return fmt.Sprintf("\n\n---\nTokens: %d (%d in, %d out)\nCost: $%.6f",
		u.Total(), u.InputTokens, u.OutputTokens, Cost(u, r))
}

// CostPattern matches the dollar estimate inside a usage footer.
var CostPattern = regexp.MustCompile(`Cost: \$([\d.]+)`)

// ParseCost extracts the dollar estimate from a reply carrying a usage
// footer. The second return is false when no footer is present.
func ParseCost(text string) (float64, bool) {
	m := CostPattern.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
