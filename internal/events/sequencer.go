package events

import (
	"io"
	"sync"
	"time"

	"github.com/ksred/klear-datagen/internal/types"
)

const (
	TradeTopic      = "trade.events"
	SettlementTopic = "settlement.events"
	EventSource     = "trade-service"
)

const tick = time.Millisecond

// Sequencer derives the events trades and settlements are expected to emit.
// Timestamps are strictly increasing in emission order.
type Sequencer struct {
	mu   sync.Mutex
	ids  io.Reader
	now  func() time.Time
	last time.Time
}

// NewSequencer draws event ids from ids, normally the scenario's random
// source, and stamps events from now.
func NewSequencer(ids io.Reader, now func() time.Time) *Sequencer {
	if now == nil {
		now = time.Now
	}
	return &Sequencer{ids: ids, now: now}
}

// FromTrade yields one event. Only REJECTED trades map to TRADE_REJECTED;
// every other status, CANCELLED included, is reported as TRADE_EXECUTED.
func (s *Sequencer) FromTrade(trade types.Trade) []types.Event {
	eventType := types.EventTradeExecuted
	if trade.Status == types.TradeStatusRejected {
		eventType = types.EventTradeRejected
	}
	return []types.Event{s.event(eventType, TradeTopic, trade.TradeID, tradePayload(trade))}
}

// settlementPath lists the events after SETTLEMENT_CREATED that a terminal
// status implies, walking PENDING, MATCHED, CLEARING, SETTLED in order.
var settlementPath = map[types.SettlementStatus][]types.EventType{
	types.SettlementStatusMatched:  {types.EventSettlementMatched},
	types.SettlementStatusClearing: {types.EventSettlementMatched, types.EventSettlementCleared},
	types.SettlementStatusSettled: {
		types.EventSettlementMatched,
		types.EventSettlementCleared,
		types.EventSettlementCompleted,
	},
	types.SettlementStatusFailed: {types.EventSettlementFailed},
}

// FromSettlement yields SETTLEMENT_CREATED followed by the status path.
// Every event carries the trade id as correlation id, so one id follows a
// trade from execution through settlement.
func (s *Sequencer) FromSettlement(settlement types.Settlement) []types.Event {
	path := settlementPath[settlement.Status]
	out := make([]types.Event, 0, len(path)+1)
	out = append(out, s.event(types.EventSettlementCreated, SettlementTopic, settlement.TradeID, settlementPayload(settlement)))
	for _, eventType := range path {
		out = append(out, s.event(eventType, SettlementTopic, settlement.TradeID, settlementPayload(settlement)))
	}
	return out
}

// FromDataset emits every trade event, then every settlement's sequence
func (s *Sequencer) FromDataset(trades []types.Trade, settlements []types.Settlement) []types.Event {
	out := make([]types.Event, 0, len(trades)+len(settlements)*4)
	for _, trade := range trades {
		out = append(out, s.FromTrade(trade)...)
	}
	for _, settlement := range settlements {
		out = append(out, s.FromSettlement(settlement)...)
	}
	return out
}

func (s *Sequencer) event(eventType types.EventType, topic, correlationID string, payload types.Payload) types.Event {
	return types.Event{
		EventID:       types.NewUUID(s.ids),
		EventType:     eventType,
		Topic:         topic,
		Timestamp:     s.nextTimestamp(),
		Source:        EventSource,
		CorrelationID: correlationID,
		Payload:       payload,
	}
}

func (s *Sequencer) nextTimestamp() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	ts := s.now().UTC().Truncate(tick)
	if !ts.After(s.last) {
		ts = s.last.Add(tick)
	}
	s.last = ts
	return ts
}

func tradePayload(t types.Trade) types.Payload {
	return types.Payload{
		{Key: "tradeId", Value: t.TradeID},
		{Key: "symbol", Value: t.Symbol},
		{Key: "side", Value: string(t.Side)},
		{Key: "quantity", Value: t.Quantity},
		{Key: "price", Value: t.Price},
		{Key: "totalValue", Value: t.TotalValue},
		{Key: "orderType", Value: string(t.OrderType)},
		{Key: "accountId", Value: t.AccountID},
		{Key: "exchange", Value: t.Exchange},
	}
}

func settlementPayload(s types.Settlement) types.Payload {
	p := types.Payload{
		{Key: "settlementId", Value: s.SettlementID},
		{Key: "tradeId", Value: s.TradeID},
		{Key: "symbol", Value: s.Symbol},
		{Key: "side", Value: string(s.Side)},
		{Key: "quantity", Value: s.Quantity},
		{Key: "settlementAmount", Value: s.SettlementAmount},
		{Key: "tradeDate", Value: s.TradeDate.String()},
		{Key: "settlementDate", Value: s.SettlementDate.String()},
		{Key: "counterpartyId", Value: s.CounterpartyID},
		{Key: "clearingHouse", Value: s.ClearingHouse},
		{Key: "status", Value: string(s.Status)},
	}
	if s.FailReason != "" {
		p = append(p, types.Field{Key: "failReason", Value: s.FailReason})
	}
	return p
}
