package scenario

import (
	"context"
	"fmt"
	"sort"

	"github.com/ksred/klear-datagen/internal/marketdata"
	"github.com/ksred/klear-datagen/internal/types"
)

// Step is one scenario within a profile. A step with RoundTrip set uses
// only the first symbol.
type Step struct {
	ScenarioID      string
	Symbols         []string
	TradesPerSymbol int
	RoundTrip       bool
}

// Profile is a named list of scenarios generated together
type Profile struct {
	Name  string
	Steps []Step
}

const DefaultProfile = "default"

var profiles = map[string]Profile{
	"default": {
		Name: "default",
		Steps: []Step{
			{ScenarioID: "trade-happy-path", Symbols: []string{"AAPL", "BTC-USD"}, TradesPerSymbol: 2},
			{ScenarioID: "trade-crypto-batch", Symbols: []string{"BTC-USD", "XRP-USD", "ADA-USD"}, TradesPerSymbol: 2},
			{ScenarioID: "trade-round-trip", Symbols: []string{"TSLA"}, RoundTrip: true},
		},
	},
	"ci": {
		Name: "ci",
		Steps: []Step{
			{ScenarioID: "trade-happy-path", Symbols: []string{"AAPL", "MSFT", "GOOGL", "BTC-USD", "XRP-USD"}, TradesPerSymbol: 3},
			{ScenarioID: "trade-crypto-batch", Symbols: []string{"BTC-USD", "XRP-USD", "CRV-USD", "LINK-USD", "ADA-USD"}, TradesPerSymbol: 5},
			{ScenarioID: "trade-settlement-failures", Symbols: []string{"TSLA", "JPM"}, TradesPerSymbol: 10},
			{ScenarioID: "trade-round-trip-equity", Symbols: []string{"AAPL"}, RoundTrip: true},
			{ScenarioID: "trade-round-trip-crypto", Symbols: []string{"BTC-USD"}, RoundTrip: true},
		},
	},
	"load": {
		Name: "load",
		Steps: []Step{
			{ScenarioID: "perf-trade-load", Symbols: marketdata.DefaultSymbols, TradesPerSymbol: 200},
			{ScenarioID: "perf-trade-spike", Symbols: []string{"AAPL", "TSLA", "BTC-USD"}, TradesPerSymbol: 500},
		},
	},
}

// LookupProfile returns the named profile
func LookupProfile(name string) (Profile, bool) {
	p, ok := profiles[name]
	return p, ok
}

// ProfileNames lists the known profiles, sorted
func ProfileNames() []string {
	names := make([]string, 0, len(profiles))
	for name := range profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RunProfile generates every step of p in order and stops at the first error
func (o *Orchestrator) RunProfile(ctx context.Context, p Profile) ([]*types.Dataset, error) {
	out := make([]*types.Dataset, 0, len(p.Steps))
	for _, step := range p.Steps {
		var (
			d   *types.Dataset
			err error
		)
		if step.RoundTrip {
			if len(step.Symbols) == 0 {
				return nil, fmt.Errorf("profile %s step %s: %w", p.Name, step.ScenarioID, &RequestError{Reason: "round trip needs a symbol"})
			}
			d, err = o.GenerateRoundTripScenario(ctx, step.ScenarioID, step.Symbols[0])
		} else {
			d, err = o.GenerateTradeScenario(ctx, step.ScenarioID, step.Symbols, step.TradesPerSymbol)
		}
		if err != nil {
			return nil, fmt.Errorf("profile %s step %s: %w", p.Name, step.ScenarioID, err)
		}
		out = append(out, d)
	}
	return out, nil
}
