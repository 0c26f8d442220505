package marketdata

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/ksred/klear-datagen/internal/types"
)

// ErrQuoteUnavailable covers every way a live quote can fail: unreachable
// host, non-200 response, or a body that cannot be read as a quote.
var ErrQuoteUnavailable = errors.New("quote unavailable")

// Quote is the raw answer from a quote source. Bid and Ask are optional;
// when missing they are estimated from the liquidity tier.
type Quote struct {
	Price         decimal.Decimal
	PreviousClose decimal.Decimal
	DayHigh       decimal.Decimal
	DayLow        decimal.Decimal
	Bid           decimal.NullDecimal
	Ask           decimal.NullDecimal
	Volume        int64
	Exchange      string
	Name          string
	// Origin labels the resulting snapshot; empty means live.
	Origin        types.SnapshotSource
}

// QuoteSource fetches a current quote for one symbol
type QuoteSource interface {
	Fetch(ctx context.Context, symbol string) (Quote, error)
}

// QuoteSourceFunc adapts a function to QuoteSource
type QuoteSourceFunc func(ctx context.Context, symbol string) (Quote, error)

func (f QuoteSourceFunc) Fetch(ctx context.Context, symbol string) (Quote, error) {
	return f(ctx, symbol)
}
