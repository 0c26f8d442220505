package types

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var tradeTime = time.Date(2025, 1, 15, 14, 30, 0, 0, time.UTC)

func sampleDataset() *Dataset {
	snaps := NewSnapshotSet()
	snaps.Put(MarketSnapshot{Symbol: "AAPL", Exchange: "NMS", Price: decimal.RequireFromString("228.00"), Source: SnapshotSourceFallback})

	price := decimal.RequireFromString("228.01")
	trade := Trade{
		TradeID:    "TRD-000000000001",
		Symbol:     "AAPL",
		Exchange:   "NMS",
		Side:       SideBuy,
		Quantity:   10,
		Price:      price,
		TotalValue: TotalValue(price, 10),
		Currency:   "USD",
		AccountID:  "ACCT-0000AAAA",
		OrderType:  OrderTypeMarket,
		Status:     TradeStatusExecuted,
		ExecutedAt: tradeTime,
	}
	stl := Settlement{
		SettlementID:     "STL-000000000001",
		TradeID:          trade.TradeID,
		Symbol:           "AAPL",
		Side:             SideBuy,
		Quantity:         10,
		SettlementAmount: trade.TotalValue.Add(decimal.RequireFromString("0.01")),
		Currency:         "USD",
		Status:           SettlementStatusMatched,
		TradeDate:        DateOf(tradeTime),
		SettlementDate:   DateOf(tradeTime).AddBusinessDays(1),
		AccountID:        trade.AccountID,
	}
	return &Dataset{
		ScenarioID:      "sample",
		TraderAccount:   trade.AccountID,
		Trades:          []Trade{trade},
		Settlements:     []Settlement{stl},
		MarketSnapshots: snaps,
		SettlementIndex: IndexSettlements([]Settlement{stl}),
		DerivedEvents:   []Event{{
			EventID:       "evt-1",
			EventType:     EventTradeExecuted,
			CorrelationID: trade.TradeID,
			Payload:       Payload{{Key: "tradeId", Value: trade.TradeID}},
		}},
	}
}

func TestDatasetValidate(t *testing.T) {
	require.NoError(t, sampleDataset().Validate())

	tests := []struct {
		name   string
		mutate func(d *Dataset)
	}{
		{"missing scenario id", func(d *Dataset) { d.ScenarioID = "" }},
		{"total mismatch", func(d *Dataset) { d.Trades[0].TotalValue = decimal.NewFromInt(1) }},
		{"no snapshot", func(d *Dataset) { d.MarketSnapshots = NewSnapshotSet() }},
		{"duplicate trade", func(d *Dataset) { d.Trades = append(d.Trades, d.Trades[0]) }},
		{"unknown trade", func(d *Dataset) { d.Settlements[0].TradeID = "TRD-X" }},
		{"rejected trade settled", func(d *Dataset) { d.Trades[0].Status = TradeStatusRejected }},
		{"amount below value", func(d *Dataset) { d.Settlements[0].SettlementAmount = decimal.NewFromInt(1) }},
		{"index disagrees", func(d *Dataset) { d.SettlementIndex[d.Trades[0].TradeID] = "STL-OTHER" }},
		{"index extra", func(d *Dataset) { d.SettlementIndex["TRD-GHOST"] = "STL-GHOST" }},
		{"failed without reason", func(d *Dataset) { d.Settlements[0].Status = SettlementStatusFailed }},
		{"weekend equity date", func(d *Dataset) { d.Settlements[0].SettlementDate = NewDate(2025, time.January, 18) }},
		{"incomplete event", func(d *Dataset) { d.DerivedEvents[0].CorrelationID = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := sampleDataset()
			tt.mutate(d)
			assert.Error(t, d.Validate())
		})
	}
}

func TestDatasetLookups(t *testing.T) {
	d := sampleDataset()

	trade, ok := d.Trade("TRD-000000000001")
	require.True(t, ok)
	assert.Equal(t, "AAPL", trade.Symbol)

	stl, ok := d.SettlementFor(trade.TradeID)
	require.True(t, ok)
	assert.Equal(t, "STL-000000000001", stl.SettlementID)

	_, ok = d.SettlementFor("TRD-NONE")
	assert.False(t, ok)
	assert.Len(t, d.EventsFor(trade.TradeID), 1)
}

func TestSettlementWithStatus(t *testing.T) {
	actual := NewDate(2025, time.January, 16)
	s := sampleDataset().Settlements[0]
	s.Status = SettlementStatusSettled
	s.ActualSettlementDate = &actual

	failed := s.WithStatus(SettlementStatusFailed, FailSystemError)
	assert.Equal(t, FailSystemError, failed.FailReason)
	assert.Nil(t, failed.ActualSettlementDate)
	assert.NotNil(t, s.ActualSettlementDate, "receiver untouched")

	clearing := failed.WithStatus(SettlementStatusClearing, "")
	assert.Empty(t, clearing.FailReason)
	assert.NoError(t, clearing.Validate())
}

func TestSnapshotSetKeepsInsertionOrder(t *testing.T) {
	set := NewSnapshotSet()
	for _, sym := range []string{"TSLA", "AAPL", "BTC-USD"} {
		set.Put(MarketSnapshot{Symbol: sym, Price: decimal.NewFromInt(1)})
	}
	set.Put(MarketSnapshot{Symbol: "AAPL", Price: decimal.NewFromInt(2)})

	assert.Equal(t, []string{"TSLA", "AAPL", "BTC-USD"}, set.Symbols())
	aapl, _ := set.Get("AAPL")
	assert.True(t, aapl.Price.Equal(decimal.NewFromInt(2)))

	data, err := json.Marshal(set)
	require.NoError(t, err)
	back := NewSnapshotSet()
	require.NoError(t, json.Unmarshal(data, back))
	assert.Equal(t, set.Symbols(), back.Symbols())

	assert.Error(t, json.Unmarshal([]byte(`{"AAPL":{"symbol":"MSFT"}}`), back))
}

func TestPayloadKeepsKeyOrder(t *testing.T) {
	p := Payload{
		{Key: "tradeId", Value: "TRD-1"},
		{Key: "symbol", Value: "AAPL"},
		{Key: "price", Value: decimal.RequireFromString("228.01")},
		{Key: "quantity", Value: int64(10)},
	}
	data, err := json.Marshal(p)
	require.NoError(t, err)
	assert.Equal(t, `{"tradeId":"TRD-1","symbol":"AAPL","price":"228.01","quantity":10}`, string(data))

	var back Payload
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, p.Keys(), back.Keys())
	qty, ok := back.Get("quantity")
	require.True(t, ok)
	assert.Equal(t, json.Number("10"), qty)

	again, err := json.Marshal(back)
	require.NoError(t, err)
	assert.Equal(t, string(data), string(again))
}
