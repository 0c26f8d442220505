package marketdata

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/ksred/klear-datagen/internal/types"
)

type reference struct {
	price    string
	exchange string
	name     string
}

// Approximate reference prices. Exact values do not matter to consumers,
// only that they sit in a realistic range.
var referenceData = map[string]reference{
	"BTC-USD":  {"97000.00", "CCC", "Bitcoin USD"},
	"XRP-USD":  {"2.45", "CCC", "XRP USD"},
	"CRV-USD":  {"0.55", "CCC", "Curve DAO Token USD"},
	"LINK-USD": {"18.50", "CCC", "Chainlink USD"},
	"ADA-USD":  {"0.78", "CCC", "Cardano USD"},
	"AAPL":     {"228.00", "NMS", "Apple Inc."},
	"MSFT":     {"415.00", "NMS", "Microsoft Corporation"},
	"GOOGL":    {"175.00", "NMS", "Alphabet Inc."},
	"AMZN":     {"205.00", "NMS", "Amazon.com Inc."},
	"TSLA":     {"350.00", "NMS", "Tesla Inc."},
	"JPM":      {"255.00", "NYQ", "JPMorgan Chase & Co."},
	"BAC":      {"44.00", "NYQ", "Bank of America Corp."},
	"GS":       {"595.00", "NYQ", "Goldman Sachs Group"},
	"SPY":      {"600.00", "PCX", "SPDR S&P 500 ETF"},
	"QQQ":      {"520.00", "NMS", "Invesco QQQ Trust"},
}

// DefaultSymbols is the watchlist used by generation profiles
var DefaultSymbols = []string{
	"BTC-USD", "XRP-USD", "CRV-USD", "LINK-USD", "ADA-USD",
	"AAPL", "MSFT", "GOOGL", "AMZN", "TSLA",
	"JPM", "BAC", "GS",
	"SPY", "QQQ",
}

const (
	unknownPrice    = "100.00"
	unknownExchange = "UNK"
	fallbackVolume  = 1_000_000
)

var (
	previousCloseFactor = decimal.RequireFromString("0.995")
	fallbackBidFactor   = decimal.RequireFromString("0.9998")
	fallbackAskFactor   = decimal.RequireFromString("1.0002")
)

// FallbackSnapshot builds the deterministic reference snapshot for symbol
func FallbackSnapshot(symbol string, now time.Time) types.MarketSnapshot {
	ref, ok := referenceData[symbol]
	if !ok {
		ref = reference{price: unknownPrice, exchange: unknownExchange, name: symbol}
	}
	price := decimal.RequireFromString(ref.price)
	return types.MarketSnapshot{
		Symbol:        symbol,
		Exchange:      ref.exchange,
		Name:          ref.name,
		Price:         price,
		Bid:           price.Mul(fallbackBidFactor),
		Ask:           price.Mul(fallbackAskFactor),
		PreviousClose: price.Mul(previousCloseFactor),
		Volume:        fallbackVolume,
		CapturedAt:    now.UTC(),
		Source:        types.SnapshotSourceFallback,
	}
}
