package types

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Side is the direction of a trade
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Opposite returns the other side of the book
func (s Side) Opposite() Side {
	if s == SideBuy {
		return SideSell
	}
	return SideBuy
}

type OrderType string

const (
	OrderTypeMarket    OrderType = "MARKET"
	OrderTypeLimit     OrderType = "LIMIT"
	OrderTypeStop      OrderType = "STOP"
	OrderTypeStopLimit OrderType = "STOP_LIMIT"
)

type TradeStatus string

const (
	TradeStatusExecuted        TradeStatus = "EXECUTED"
	TradeStatusPartiallyFilled TradeStatus = "PARTIALLY_FILLED"
	TradeStatusRejected        TradeStatus = "REJECTED"
	TradeStatusCancelled       TradeStatus = "CANCELLED"
)

// Settles reports whether a trade in this status produces a settlement
func (s TradeStatus) Settles() bool {
	return s == TradeStatusExecuted || s == TradeStatusPartiallyFilled
}

// DefaultCurrency is used for every generated trade and settlement
const DefaultCurrency = "USD"

var ErrInvalidTrade = errors.New("invalid trade")

// Trade is a single synthetic execution derived from a market snapshot.
// The settlement that a trade produced is tracked outside the trade, see
// Dataset.SettlementIndex.
type Trade struct {
	TradeID      string          `json:"trade_id"`
	Symbol       string          `json:"symbol"`
	Exchange     string          `json:"exchange"`
	Side         Side            `json:"side"`
	Quantity     int64           `json:"quantity"`
	Price        decimal.Decimal `json:"price"`
	TotalValue   decimal.Decimal `json:"total_value"`
	Currency     string          `json:"currency"`
	AccountID    string          `json:"account_id"`
	OrderType    OrderType       `json:"order_type"`
	Status       TradeStatus     `json:"status"`
	ExecutedAt   time.Time       `json:"executed_at"`
	MarketBid    decimal.Decimal `json:"market_bid"`
	MarketAsk    decimal.Decimal `json:"market_ask"`
	MarketVolume int64           `json:"market_volume"`
}

// WithAccount returns a copy of the trade booked to accountID
func (t Trade) WithAccount(accountID string) Trade {
	t.AccountID = accountID
	return t
}

// WithPrice returns a copy of the trade at price, with the total value recomputed
func (t Trade) WithPrice(price decimal.Decimal) Trade {
	t.Price = RoundCurrency(price)
	t.TotalValue = TotalValue(t.Price, t.Quantity)
	return t
}

// TotalValue is price x quantity at currency scale
func TotalValue(price decimal.Decimal, quantity int64) decimal.Decimal {
	return RoundCurrency(price.Mul(decimal.NewFromInt(quantity)))
}

// Validate checks the invariants every generated trade must hold
func (t Trade) Validate() error {
	if t.TradeID == "" {
		return fmt.Errorf("%w: missing trade id", ErrInvalidTrade)
	}
	if t.Quantity <= 0 {
		return fmt.Errorf("%w: trade %s has non-positive quantity %d", ErrInvalidTrade, t.TradeID, t.Quantity)
	}
	if !t.TotalValue.Equal(TotalValue(t.Price, t.Quantity)) {
		return fmt.Errorf("%w: trade %s total %s does not match price %s x %d",
			ErrInvalidTrade, t.TradeID, t.TotalValue, t.Price, t.Quantity)
	}
	switch t.Side {
	case SideBuy, SideSell:
	default:
		return fmt.Errorf("%w: trade %s has unknown side %q", ErrInvalidTrade, t.TradeID, t.Side)
	}
	switch t.Status {
	case TradeStatusExecuted, TradeStatusPartiallyFilled, TradeStatusRejected, TradeStatusCancelled:
	default:
		return fmt.Errorf("%w: trade %s has unknown status %q", ErrInvalidTrade, t.TradeID, t.Status)
	}
	return nil
}
