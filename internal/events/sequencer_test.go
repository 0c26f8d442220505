package events

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ksred/klear-datagen/internal/random"
	"github.com/ksred/klear-datagen/internal/types"
)

var fixedNow = time.Date(2025, 1, 15, 14, 30, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func sampleTrade(id string, status types.TradeStatus) types.Trade {
	t := types.Trade{
		TradeID:   id,
		Symbol:    "AAPL",
		Exchange:  "NMS",
		Side:      types.SideBuy,
		Quantity:  25,
		Currency:  types.DefaultCurrency,
		AccountID: "IRA-55555",
		OrderType: types.OrderTypeLimit,
		Status:    status,
	}
	return t.WithPrice(decimal.RequireFromString("228.04"))
}

func sampleSettlement(id string, status types.SettlementStatus, reason string) types.Settlement {
	s := types.Settlement{
		SettlementID:     id,
		TradeID:          "TRD-1",
		Symbol:           "AAPL",
		Side:             types.SideBuy,
		Quantity:         25,
		SettlementAmount: decimal.RequireFromString("5701.02"),
		Currency:         types.DefaultCurrency,
		TradeDate:        types.NewDate(2025, 1, 15),
		SettlementDate:   types.NewDate(2025, 1, 16),
		CounterpartyID:   "DRW-006",
		ClearingHouse:    "DTCC",
	}
	return s.WithStatus(status, reason)
}

func eventTypes(events []types.Event) []types.EventType {
	out := make([]types.EventType, len(events))
	for i, e := range events {
		out[i] = e.EventType
	}
	return out
}

func TestFromTrade(t *testing.T) {
	tests := []struct {
		status types.TradeStatus
		want   types.EventType
	}{
		{types.TradeStatusExecuted, types.EventTradeExecuted},
		{types.TradeStatusPartiallyFilled, types.EventTradeExecuted},
		{types.TradeStatusCancelled, types.EventTradeExecuted},
		{types.TradeStatusRejected, types.EventTradeRejected},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			seq := NewSequencer(random.New(1), clock)
			events := seq.FromTrade(sampleTrade("TRD-1", tt.status))

			require.Len(t, events, 1)
			e := events[0]
			assert.Equal(t, tt.want, e.EventType)
			assert.Equal(t, TradeTopic, e.Topic)
			assert.Equal(t, EventSource, e.Source)
			assert.Equal(t, "TRD-1", e.CorrelationID)
			assert.NotEmpty(t, e.EventID)
			assert.Equal(t, []string{
				"tradeId", "symbol", "side", "quantity", "price",
				"totalValue", "orderType", "accountId", "exchange",
			}, e.Payload.Keys())
		})
	}
}

func TestFromSettlement_FollowsStatusPath(t *testing.T) {
	tests := []struct {
		status types.SettlementStatus
		reason string
		want   []types.EventType
	}{
		{types.SettlementStatusSettled, "", []types.EventType{
			types.EventSettlementCreated, types.EventSettlementMatched,
			types.EventSettlementCleared, types.EventSettlementCompleted,
		}},
		{types.SettlementStatusClearing, "", []types.EventType{
			types.EventSettlementCreated, types.EventSettlementMatched, types.EventSettlementCleared,
		}},
		{types.SettlementStatusMatched, "", []types.EventType{
			types.EventSettlementCreated, types.EventSettlementMatched,
		}},
		{types.SettlementStatusFailed, types.FailSystemError, []types.EventType{
			types.EventSettlementCreated, types.EventSettlementFailed,
		}},
		{types.SettlementStatusPending, "", []types.EventType{types.EventSettlementCreated}},
		{types.SettlementStatusCancelled, "", []types.EventType{types.EventSettlementCreated}},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			seq := NewSequencer(random.New(2), clock)
			events := seq.FromSettlement(sampleSettlement("STL-1", tt.status, tt.reason))

			assert.Equal(t, tt.want, eventTypes(events))
			for _, e := range events {
				assert.Equal(t, "TRD-1", e.CorrelationID)
				assert.Equal(t, SettlementTopic, e.Topic)
				status, _ := e.Payload.Get("status")
				assert.Equal(t, string(tt.status), status)
			}
		})
	}
}

func TestFromSettlement_FailReasonOnlyWhenFailed(t *testing.T) {
	seq := NewSequencer(random.New(3), clock)

	failed := seq.FromSettlement(sampleSettlement("STL-F", types.SettlementStatusFailed, types.FailLateAffirmation))
	settled := seq.FromSettlement(sampleSettlement("STL-S", types.SettlementStatusSettled, ""))

	reason, ok := failed[0].Payload.Get("failReason")
	assert.True(t, ok)
	assert.Equal(t, types.FailLateAffirmation, reason)
	assert.Equal(t, "failReason", failed[0].Payload.Keys()[len(failed[0].Payload)-1])
	_, ok = settled[0].Payload.Get("failReason")
	assert.False(t, ok)
}

func TestFromDataset_TradesThenSettlements(t *testing.T) {
	seq := NewSequencer(random.New(4), clock)
	trades := []types.Trade{
		sampleTrade("TRD-1", types.TradeStatusExecuted),
		sampleTrade("TRD-2", types.TradeStatusRejected),
	}
	settlements := []types.Settlement{sampleSettlement("STL-1", types.SettlementStatusSettled, "")}

	events := seq.FromDataset(trades, settlements)

	require.Len(t, events, 6)
	assert.Equal(t, "TRD-1", events[0].CorrelationID)
	assert.Equal(t, "TRD-2", events[1].CorrelationID)
	for _, e := range events[2:] {
		assert.Equal(t, "TRD-1", e.CorrelationID)
		assert.Equal(t, SettlementTopic, e.Topic)
	}
	for i := 1; i < len(events); i++ {
		assert.Equal(t, time.Millisecond, events[i].Timestamp.Sub(events[i-1].Timestamp))
	}
	ids := map[string]bool{}
	for _, e := range events {
		assert.False(t, ids[e.EventID], "duplicate event id %s", e.EventID)
		ids[e.EventID] = true
	}
}

func TestSequencer_TimestampsIncreaseWithMovingClock(t *testing.T) {
	now := fixedNow
	seq := NewSequencer(random.New(5), func() time.Time { return now })

	first := seq.FromTrade(sampleTrade("TRD-1", types.TradeStatusExecuted))[0]
	now = now.Add(time.Second)
	second := seq.FromTrade(sampleTrade("TRD-2", types.TradeStatusExecuted))[0]
	now = now.Add(-time.Hour)
	third := seq.FromTrade(sampleTrade("TRD-3", types.TradeStatusExecuted))[0]

	assert.Equal(t, fixedNow, first.Timestamp)
	assert.Equal(t, fixedNow.Add(time.Second), second.Timestamp)
	assert.Equal(t, second.Timestamp.Add(time.Millisecond), third.Timestamp)
}

func TestEvent_PayloadKeepsOrderThroughJSON(t *testing.T) {
	seq := NewSequencer(random.New(6), clock)
	e := seq.FromSettlement(sampleSettlement("STL-1", types.SettlementStatusFailed, types.FailRegulatoryHold))[0]

	raw, err := json.Marshal(e)
	require.NoError(t, err)
	var decoded types.Event
	require.NoError(t, json.Unmarshal(raw, &decoded))
	again, err := json.Marshal(decoded)
	require.NoError(t, err)

	assert.Equal(t, e.Payload.Keys(), decoded.Payload.Keys())
	assert.JSONEq(t, string(raw), string(again))
	assert.Equal(t, string(raw), string(again))
}
