package scenario

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ksred/klear-datagen/internal/events"
	"github.com/ksred/klear-datagen/internal/random"
	"github.com/ksred/klear-datagen/internal/settlement"
	"github.com/ksred/klear-datagen/internal/trading"
	"github.com/ksred/klear-datagen/internal/types"
)

// failureMarker in a scenario id guarantees the dataset has a FAILED settlement
const failureMarker = "failure"

const traderAccountPrefix = "ACCT-"

// Options configures an Orchestrator. Zero values select defaults.
type Options struct {
	Seed     int64
	Now      func() time.Time
	Registry *Registry
}

// Orchestrator runs whole scenarios: snapshots, trades, settlements and
// events, registered under the scenario id. Each scenario gets its own
// synthesizers seeded from the base seed and the scenario id.
type Orchestrator struct {
	snapshots trading.SnapshotProvider
	registry  *Registry
	seed      int64
	now       func() time.Time
}

func NewOrchestrator(snapshots trading.SnapshotProvider, opts Options) *Orchestrator {
	o := &Orchestrator{
		snapshots: snapshots,
		registry:  opts.Registry,
		seed:      opts.Seed,
		now:       opts.Now,
	}
	if o.registry == nil {
		o.registry = NewRegistry()
	}
	if o.now == nil {
		o.now = time.Now
	}
	return o
}

func (o *Orchestrator) Registry() *Registry { return o.registry }

func (o *Orchestrator) Seed() int64 { return o.seed }

// pipeline is the set of synthesizers for one scenario, all drawing from a
// single seeded source.
type pipeline struct {
	rng         *random.Source
	trades      *trading.Synthesizer
	settlements *settlement.Synthesizer
	events      *events.Sequencer
}

func (o *Orchestrator) pipeline(scenarioID string) pipeline {
	rng := random.ForScenario(o.seed, scenarioID)
	trades := trading.NewSynthesizer(rng, o.snapshots, o.now)
	return pipeline{
		rng:         rng,
		trades:      trades,
		settlements: settlement.NewSynthesizer(rng, trades, o.now),
		events:      events.NewSequencer(rng, o.now),
	}
}

// GenerateTradeScenario books perSymbol trades on each symbol to a single
// trader account and derives their settlements and events.
func (o *Orchestrator) GenerateTradeScenario(ctx context.Context, scenarioID string, symbols []string, perSymbol int) (*types.Dataset, error) {
	if err := Validate(TradeScenarioRequest{ScenarioID: scenarioID, Symbols: symbols, TradesPerSymbol: perSymbol}); err != nil {
		return nil, err
	}
	logger := log.With().Str("component", "orchestrator").Str("scenario_id", scenarioID).Logger()
	logger.Info().
		Strs("symbols", symbols).
		Int("trades_per_symbol", perSymbol).
		Msg("generating trade scenario")

	p := o.pipeline(scenarioID)
	trades, snapshots := p.trades.GenerateBatch(ctx, symbols, perSymbol)

	account := traderAccountPrefix + strings.ToUpper(strings.ReplaceAll(types.NewUUID(p.rng), "-", "")[:8])
	for i := range trades {
		trades[i] = trades[i].WithAccount(account)
	}

	failure := isFailureScenario(scenarioID)
	if failure {
		trades = ensureSettlingTrade(trades, logger)
	}
	settlements := p.settlements.FromTrades(trades)
	if failure {
		settlements = ensureFailure(settlements, logger)
	}

	d := o.assemble(scenarioID, account, p, trades, settlements, snapshots)
	logger.Info().
		Int("trades", len(d.Trades)).
		Int("settlements", len(d.Settlements)).
		Int("snapshots", d.MarketSnapshots.Len()).
		Int("events", len(d.DerivedEvents)).
		Msg("trade scenario generated")
	return d, nil
}

// GenerateRoundTripScenario books a buy and a sell of the same size on
// symbol and derives their settlements and events.
func (o *Orchestrator) GenerateRoundTripScenario(ctx context.Context, scenarioID, symbol string) (*types.Dataset, error) {
	if err := Validate(RoundTripRequest{ScenarioID: scenarioID, Symbol: symbol}); err != nil {
		return nil, err
	}
	logger := log.With().Str("component", "orchestrator").Str("scenario_id", scenarioID).Logger()
	logger.Info().Str("symbol", symbol).Msg("generating round-trip scenario")

	p := o.pipeline(scenarioID)
	pair, snapshot := p.trades.GenerateRoundTrip(ctx, symbol)
	trades := pair[:]

	snapshots := types.NewSnapshotSet()
	snapshots.Put(snapshot)

	failure := isFailureScenario(scenarioID)
	if failure {
		trades = ensureSettlingTrade(trades, logger)
	}
	settlements := p.settlements.FromTrades(trades)
	if failure {
		settlements = ensureFailure(settlements, logger)
	}

	d := o.assemble(scenarioID, pair[0].AccountID, p, trades, settlements, snapshots)
	logger.Info().
		Int("settlements", len(d.Settlements)).
		Int("events", len(d.DerivedEvents)).
		Msg("round-trip scenario generated")
	return d, nil
}

func (o *Orchestrator) assemble(scenarioID, account string, p pipeline, trades []types.Trade, settlements []types.Settlement, snapshots *types.SnapshotSet) *types.Dataset {
	d := &types.Dataset{
		ScenarioID:      scenarioID,
		TraderAccount:   account,
		Seed:            o.seed,
		GeneratedAt:     o.now().UTC(),
		Trades:          trades,
		Settlements:     settlements,
		MarketSnapshots: snapshots,
		DerivedEvents:   p.events.FromDataset(trades, settlements),
		SettlementIndex: types.IndexSettlements(settlements),
	}
	o.registry.Put(d)
	return d
}

func isFailureScenario(scenarioID string) bool {
	return strings.Contains(strings.ToLower(scenarioID), failureMarker)
}

// ensureSettlingTrade marks the last trade EXECUTED when no trade would
// settle, so a failure scenario always has a settlement to fail.
func ensureSettlingTrade(trades []types.Trade, logger zerolog.Logger) []types.Trade {
	if len(trades) == 0 {
		return trades
	}
	for _, t := range trades {
		if t.Status.Settles() {
			return trades
		}
	}
	last := len(trades) - 1
	logger.Info().
		Str("trade_id", trades[last].TradeID).
		Str("status", string(trades[last].Status)).
		Msg("promoted trade to EXECUTED for failure scenario")
	trades[last].Status = types.TradeStatusExecuted
	return trades
}

// ensureFailure forces the last settlement to FAILED when none failed on
// its own. This runs after the first-per-symbol rule and takes precedence
// over it.
func ensureFailure(settlements []types.Settlement, logger zerolog.Logger) []types.Settlement {
	if len(settlements) == 0 {
		return settlements
	}
	for _, s := range settlements {
		if s.Status == types.SettlementStatusFailed {
			return settlements
		}
	}
	last := len(settlements) - 1
	settlements[last] = settlements[last].WithStatus(types.SettlementStatusFailed, types.FailCounterpartyDefault)
	logger.Info().
		Str("settlement_id", settlements[last].SettlementID).
		Msg("forced FAILED settlement for failure scenario")
	return settlements
}
