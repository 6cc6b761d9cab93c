package provider

import (
	"math"
	"strings"
	"testing"

	"github.com/codecrew-ai/codecrew/pkg/types"
)

func TestUsageFooter(t *testing.T) {
	u := types.Usage{InputTokens: 1200, OutputTokens: 340}
	r := types.Rate{Input: 3.00, Output: 15.00}

	got := UsageFooter(u, r)
	want := "\n\n---\nTokens: 1540 (1200 in, 340 out)\nCost: $0.008700"
	if got != want {
		t.Errorf("UsageFooter() = %q, want %q", got, want)
	}
}

func TestUsageFooter_FreeProvider(t *testing.T) {
	got := UsageFooter(types.Usage{InputTokens: 50, OutputTokens: 20}, types.Rate{})
	if !strings.HasSuffix(got, "Cost: $0.000000") {
		t.Errorf("UsageFooter() = %q, want zero cost", got)
	}
}

func TestParseCost_RoundTrip(t *testing.T) {
	u := types.Usage{InputTokens: 987654, OutputTokens: 123456}
	r := types.Rate{Input: 0.59, Output: 0.79}
	footer := UsageFooter(u, r)

	got, ok := ParseCost("The answer is 42." + footer)
	if !ok {
		t.Fatalf("ParseCost() found no footer in %q", footer)
	}
	if math.Abs(got-Cost(u, r)) > 1e-6 {
		t.Errorf("ParseCost() = %v, want %v", got, Cost(u, r))
	}
}

func TestParseCost_NoFooter(t *testing.T) {
	if _, ok := ParseCost("plain text without a footer"); ok {
		t.Error("ParseCost() matched text with no footer")
	}
}

func TestCost(t *testing.T) {
	tests := []struct {
		name string
		u    types.Usage
		r    types.Rate
		want float64
	}{
		{"simple", types.Usage{InputTokens: 1_000_000, OutputTokens: 1_000_000}, types.Rate{Input: 3, Output: 15}, 18},
		{"zero usage", types.Usage{}, types.Rate{Input: 3, Output: 15}, 0},
		{"free rate", types.Usage{InputTokens: 500, OutputTokens: 500}, types.Rate{}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Cost(tt.u, tt.r); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Cost() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRateFor(t *testing.T) {
	cfg := &types.Config{
		Rates: map[types.Provider]types.Rate{
			types.ProviderGrok: {Input: 1.23, Output: 4.56},
		},
	}

	if got := RateFor(types.ProviderGrok, cfg); got.Input != 1.23 || got.Output != 4.56 {
		t.Errorf("RateFor(grok) = %+v, want the config override", got)
	}
	if got := RateFor(types.ProviderClaude, cfg); got != defaultRates[types.ProviderClaude] {
		t.Errorf("RateFor(claude) = %+v, want the compiled-in default", got)
	}
	if got := RateFor(types.ProviderOllama, &types.Config{}); got.Input != 0 || got.Output != 0 {
		t.Errorf("RateFor(ollama) = %+v, want free", got)
	}
}
