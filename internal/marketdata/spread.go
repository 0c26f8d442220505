package marketdata

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/ksred/klear-datagen/internal/types"
)

const (
	halfSpreadScale  = 4
	veryLiquidVolume = 10_000_000
	liquidVolume     = 1_000_000
)

var (
	cryptoSpread     = decimal.RequireFromString("0.001")
	veryLiquidSpread = decimal.RequireFromString("0.0002")
	liquidSpread     = decimal.RequireFromString("0.0005")
	illiquidSpread   = decimal.RequireFromString("0.002")
	two              = decimal.NewFromInt(2)
)

// EstimateSpread returns the bid/ask spread as a fraction of price
func EstimateSpread(symbol string, volume int64) decimal.Decimal {
	switch {
	case types.IsCryptoSymbol(symbol):
		return cryptoSpread
	case volume > veryLiquidVolume:
		return veryLiquidSpread
	case volume > liquidVolume:
		return liquidSpread
	default:
		return illiquidSpread
	}
}

// snapshotFromQuote turns a live quote into a snapshot, estimating the
// bid and ask when the source did not provide them.
func snapshotFromQuote(symbol string, q Quote, now time.Time) types.MarketSnapshot {
	bid, ask := q.Bid.Decimal, q.Ask.Decimal
	if !q.Bid.Valid || !q.Ask.Valid {
		half := q.Price.Mul(EstimateSpread(symbol, q.Volume)).Div(two).Round(halfSpreadScale)
		bid = q.Price.Sub(half)
		ask = q.Price.Add(half)
	}
	exchange := q.Exchange
	if exchange == "" {
		exchange = unknownExchange
	}
	name := q.Name
	if name == "" {
		name = symbol
	}
	origin := q.Origin
	if origin == "" {
		origin = types.SnapshotSourceLive
	}
	return types.MarketSnapshot{
		Symbol:        symbol,
		Exchange:      exchange,
		Name:          name,
		Price:         q.Price,
		Bid:           bid,
		Ask:           ask,
		PreviousClose: q.PreviousClose,
		DayHigh:       q.DayHigh,
		DayLow:        q.DayLow,
		Volume:        q.Volume,
		CapturedAt:    now.UTC(),
		Source:        origin,
	}
}
