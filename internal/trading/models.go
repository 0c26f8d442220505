package trading

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/ksred/klear-datagen/internal/types"
)

// TradeRecord is the relational row a seeded trade is stored as
type TradeRecord struct {
	gorm.Model   `json:"-"`
	ScenarioID   string          `gorm:"index;not null" json:"scenario_id"`
	TradeID      string          `gorm:"uniqueIndex;not null" json:"trade_id"`
	Symbol       string          `gorm:"index" json:"symbol"`
	Exchange     string          `json:"exchange"`
	Side         string          `json:"side"` // BUY or SELL
	Quantity     int64           `json:"quantity"`
	Price        decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"price"`
	TotalValue   decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"total_value"`
	Currency     string          `json:"currency"`
	AccountID    string          `gorm:"index" json:"account_id"`
	OrderType    string          `json:"order_type"` // MARKET, LIMIT, STOP, STOP_LIMIT
	Status       string          `json:"status"`     // EXECUTED, PARTIALLY_FILLED, REJECTED, CANCELLED
	ExecutedAt   time.Time       `json:"executed_at"`
	MarketBid    decimal.Decimal `gorm:"type:decimal(20,8)" json:"market_bid"`
	MarketAsk    decimal.Decimal `gorm:"type:decimal(20,8)" json:"market_ask"`
	MarketVolume int64           `json:"market_volume"`
}

func newTradeRecord(scenarioID string, t types.Trade) TradeRecord {
	return TradeRecord{
		ScenarioID:   scenarioID,
		TradeID:      t.TradeID,
		Symbol:       t.Symbol,
		Exchange:     t.Exchange,
		Side:         string(t.Side),
		Quantity:     t.Quantity,
		Price:        t.Price,
		TotalValue:   t.TotalValue,
		Currency:     t.Currency,
		AccountID:    t.AccountID,
		OrderType:    string(t.OrderType),
		Status:       string(t.Status),
		ExecutedAt:   t.ExecutedAt,
		MarketBid:    t.MarketBid,
		MarketAsk:    t.MarketAsk,
		MarketVolume: t.MarketVolume,
	}
}

// Trade converts the row back to the domain value
func (r TradeRecord) Trade() types.Trade {
	return types.Trade{
		TradeID:      r.TradeID,
		Symbol:       r.Symbol,
		Exchange:     r.Exchange,
		Side:         types.Side(r.Side),
		Quantity:     r.Quantity,
		Price:        r.Price,
		TotalValue:   r.TotalValue,
		Currency:     r.Currency,
		AccountID:    r.AccountID,
		OrderType:    types.OrderType(r.OrderType),
		Status:       types.TradeStatus(r.Status),
		ExecutedAt:   r.ExecutedAt.UTC(),
		MarketBid:    r.MarketBid,
		MarketAsk:    r.MarketAsk,
		MarketVolume: r.MarketVolume,
	}
}
