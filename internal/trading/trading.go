package trading

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/ksred/klear-datagen/internal/random"
	"github.com/ksred/klear-datagen/internal/types"
)

// SnapshotProvider supplies the market reference data trades are priced from
type SnapshotProvider interface {
	GetSnapshot(ctx context.Context, symbol string) types.MarketSnapshot
	GetSnapshots(ctx context.Context, symbols []string) *types.SnapshotSet
}

var accountPrefixes = []string{"ACCT", "IRA", "401K", "MRGN", "INST"}

// Counterparties are the market makers a trade can be booked against
var Counterparties = []string{
	"CITADEL-001", "VIRTU-002", "JANE-STREET-003", "TWO-SIGMA-004",
	"JUMP-TRADING-005", "DRW-006", "WOLVERINE-007", "IMC-008",
}

var orderTypes = random.MustDistribution(
	random.Outcome[types.OrderType]{Value: types.OrderTypeMarket, Weight: 50},
	random.Outcome[types.OrderType]{Value: types.OrderTypeLimit, Weight: 30},
	random.Outcome[types.OrderType]{Value: types.OrderTypeStop, Weight: 15},
	random.Outcome[types.OrderType]{Value: types.OrderTypeStopLimit, Weight: 5},
)

var tradeStatuses = random.MustDistribution(
	random.Outcome[types.TradeStatus]{Value: types.TradeStatusExecuted, Weight: 85},
	random.Outcome[types.TradeStatus]{Value: types.TradeStatusPartiallyFilled, Weight: 7},
	random.Outcome[types.TradeStatus]{Value: types.TradeStatusRejected, Weight: 5},
	random.Outcome[types.TradeStatus]{Value: types.TradeStatusCancelled, Weight: 3},
)

// roundTripDrift is the standard deviation of the sell leg's move, as a
// fraction of the reference price.
var roundTripDrift = decimal.RequireFromString("0.005")

// Synthesizer derives trades from market snapshots. All draws come from one
// seeded source, so a synthesizer built with the same seed and snapshots
// yields the same trades.
type Synthesizer struct {
	rng       *random.Source
	snapshots SnapshotProvider
	now       func() time.Time
}

func NewSynthesizer(rng *random.Source, snapshots SnapshotProvider, now func() time.Time) *Synthesizer {
	if now == nil {
		now = time.Now
	}
	return &Synthesizer{
		rng:       rng,
		snapshots: snapshots,
		now:       now,
	}
}

// Generate builds one trade constrained by snapshot
func (s *Synthesizer) Generate(snapshot types.MarketSnapshot) types.Trade {
	trade := types.Trade{
		TradeID:      types.NewID(types.TradeIDPrefix, s.rng),
		Symbol:       snapshot.Symbol,
		Exchange:     snapshot.Exchange,
		Currency:     types.DefaultCurrency,
		ExecutedAt:   s.now().UTC(),
		MarketBid:    snapshot.Bid,
		MarketAsk:    snapshot.Ask,
		MarketVolume: snapshot.Volume,
	}

	trade.Side = s.randomSide()
	trade.OrderType = orderTypes.Draw(s.rng)
	trade.AccountID = s.RandomAccountID()
	trade.Quantity = s.randomQuantity(snapshot.Price)
	trade = trade.WithPrice(DeriveExecutionPrice(snapshot, trade.Side, trade.OrderType, s.rng))
	trade.Status = tradeStatuses.Draw(s.rng)

	return trade
}

// GenerateFor fetches a snapshot for symbol and builds one trade from it
func (s *Synthesizer) GenerateFor(ctx context.Context, symbol string) types.Trade {
	return s.Generate(s.snapshots.GetSnapshot(ctx, symbol))
}

// GenerateRoundTrip builds a BUY and a SELL of the same size on one account,
// both priced from one snapshot, which is returned with them. The sell
// executes at the buy price moved by a normal draw scaled to the reference
// price.
func (s *Synthesizer) GenerateRoundTrip(ctx context.Context, symbol string) ([2]types.Trade, types.MarketSnapshot) {
	snapshot := s.snapshots.GetSnapshot(ctx, symbol)
	accountID := s.RandomAccountID()

	buy := s.Generate(snapshot)
	buy.Side = types.SideBuy
	buy = buy.WithAccount(accountID).
		WithPrice(DeriveExecutionPrice(snapshot, types.SideBuy, buy.OrderType, s.rng))

	sell := s.Generate(snapshot)
	sell.Side = types.SideSell
	sell.Quantity = buy.Quantity
	shift := snapshot.Price.Mul(decimal.NewFromFloat(s.rng.NormFloat64())).Mul(roundTripDrift)
	sell = sell.WithAccount(accountID).WithPrice(buy.Price.Add(shift))

	log.Debug().
		Str("component", "trade_synthesizer").
		Str("symbol", symbol).
		Str("account_id", accountID).
		Str("buy_price", buy.Price.String()).
		Str("sell_price", sell.Price.String()).
		Msg("generated round trip")

	return [2]types.Trade{buy, sell}, snapshot
}

// GenerateBatch fetches each symbol's snapshot once and builds perSymbol
// trades from it, grouped by symbol in input order.
func (s *Synthesizer) GenerateBatch(ctx context.Context, symbols []string, perSymbol int) ([]types.Trade, *types.SnapshotSet) {
	snapshots := s.snapshots.GetSnapshots(ctx, symbols)
	return s.GenerateFromSnapshots(snapshots, perSymbol), snapshots
}

// GenerateFromSnapshots builds perSymbol trades for every snapshot in set
func (s *Synthesizer) GenerateFromSnapshots(set *types.SnapshotSet, perSymbol int) []types.Trade {
	trades := make([]types.Trade, 0, set.Len()*max(perSymbol, 0))
	for _, snapshot := range set.Snapshots() {
		for i := 0; i < perSymbol; i++ {
			trades = append(trades, s.Generate(snapshot))
		}
	}
	return trades
}

// RandomCounterparty picks a market maker from Counterparties
func (s *Synthesizer) RandomCounterparty() string {
	return random.Pick(s.rng, Counterparties)
}

// RandomAccountID returns an id like IRA-48213
func (s *Synthesizer) RandomAccountID() string {
	return fmt.Sprintf("%s-%d", random.Pick(s.rng, accountPrefixes), s.rng.IntRange(10000, 99999))
}

func (s *Synthesizer) randomSide() types.Side {
	if s.rng.Bool() {
		return types.SideBuy
	}
	return types.SideSell
}

var (
	cryptoLotPrice = decimal.NewFromInt(10_000)
	highPriceLot   = decimal.NewFromInt(500)
	midPriceLot    = decimal.NewFromInt(100)
	lowPriceLot    = decimal.NewFromInt(10)
)

// randomQuantity sizes lots inversely to price
func (s *Synthesizer) randomQuantity(price decimal.Decimal) int64 {
	switch {
	case price.GreaterThan(cryptoLotPrice):
		return int64(s.rng.IntRange(1, 3))
	case price.GreaterThan(highPriceLot):
		return int64(s.rng.IntRange(5, 54))
	case price.GreaterThan(midPriceLot):
		return int64(s.rng.IntRange(10, 109))
	case price.GreaterThan(lowPriceLot):
		return int64(s.rng.IntRange(50, 549))
	default:
		return int64(s.rng.IntRange(100, 10_099))
	}
}
