package types

import (
	"bytes"
	"encoding/json"
	"time"
)

type EventType string

const (
	EventTradeExecuted       EventType = "TRADE_EXECUTED"
	EventTradeRejected       EventType = "TRADE_REJECTED"
	EventSettlementCreated   EventType = "SETTLEMENT_CREATED"
	EventSettlementMatched   EventType = "SETTLEMENT_MATCHED"
	EventSettlementCleared   EventType = "SETTLEMENT_CLEARED"
	EventSettlementCompleted EventType = "SETTLEMENT_COMPLETED"
	EventSettlementFailed    EventType = "SETTLEMENT_FAILED"
)

// Field is one payload member
type Field struct {
	Key   string
	Value any
}

// Payload is an ordered set of key/value pairs, encoded as a JSON object
// whose members keep insertion order.
type Payload []Field

func (p Payload) Get(key string) (any, bool) {
	for _, f := range p {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

func (p Payload) Keys() []string {
	keys := make([]string, len(p))
	for i, f := range p {
		keys[i] = f.Key
	}
	return keys
}

func (p Payload) MarshalJSON() ([]byte, error) {
	return encodeObject(len(p), func(i int) (string, any) {
		return p[i].Key, p[i].Value
	})
}

// UnmarshalJSON keeps numbers as json.Number so a decoded payload encodes
// back to the same bytes.
func (p *Payload) UnmarshalJSON(data []byte) error {
	out := Payload{}
	err := decodeObject(data, func(key string, raw json.RawMessage) error {
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		var value any
		if err := dec.Decode(&value); err != nil {
			return err
		}
		out = append(out, Field{Key: key, Value: value})
		return nil
	})
	if err != nil {
		return err
	}
	*p = out
	return nil
}

// Event is a message a trade or settlement is expected to emit
type Event struct {
	EventID       string    `json:"event_id"`
	EventType     EventType `json:"event_type"`
	Topic         string    `json:"topic"`
	Timestamp     time.Time `json:"timestamp"`
	Source        string    `json:"source"`
	CorrelationID string    `json:"correlation_id"`
	Payload       Payload   `json:"payload"`
}
