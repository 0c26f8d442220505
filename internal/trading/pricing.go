package trading

import (
	"github.com/shopspring/decimal"

	"github.com/ksred/klear-datagen/internal/types"
)

// Uniform draws a float in [0, 1)
type Uniform interface {
	Float64() float64
}

const (
	midScale       = 4
	marketSlippage = 0.3
	limitOffset    = 0.5
	stopSlipFloor  = 0.5
)

// DeriveExecutionPrice prices a fill against the snapshot's quote. Buys
// execute near the ask and sells near the bid; limit orders land between
// mid and the near side; stops fill past the touch. The result is rounded
// to currency scale.
func DeriveExecutionPrice(snapshot types.MarketSnapshot, side types.Side, orderType types.OrderType, r Uniform) decimal.Decimal {
	bid, ask := snapshot.Bid, snapshot.Ask
	mid := snapshot.Mid().Round(midScale)
	spread := snapshot.Spread()

	var price decimal.Decimal
	switch orderType {
	case types.OrderTypeLimit:
		offset := spread.Mul(decimal.NewFromFloat(r.Float64() * limitOffset))
		if side == types.SideBuy {
			price = mid.Sub(offset)
		} else {
			price = mid.Add(offset)
		}
	case types.OrderTypeStop, types.OrderTypeStopLimit:
		slip := spread.Mul(decimal.NewFromFloat(stopSlipFloor + r.Float64()))
		if side == types.SideBuy {
			price = ask.Add(slip)
		} else {
			price = bid.Sub(slip)
		}
	default:
		slip := spread.Mul(decimal.NewFromFloat(r.Float64() * marketSlippage))
		if side == types.SideBuy {
			price = ask.Add(slip)
		} else {
			price = bid.Sub(slip)
		}
	}
	return types.RoundCurrency(price)
}
