package types

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// SnapshotSource records where a snapshot's numbers came from
type SnapshotSource string

const (
	SnapshotSourceLive     SnapshotSource = "live"
	SnapshotSourceFallback SnapshotSource = "fallback"
	SnapshotSourceStatic   SnapshotSource = "static"
)

// MarketSnapshot is a point-in-time quote for one symbol. Values are never
// modified after construction.
type MarketSnapshot struct {
	Symbol        string          `json:"symbol"`
	Exchange      string          `json:"exchange"`
	Name          string          `json:"name"`
	Price         decimal.Decimal `json:"price"`
	Bid           decimal.Decimal `json:"bid"`
	Ask           decimal.Decimal `json:"ask"`
	PreviousClose decimal.Decimal `json:"previous_close"`
	DayHigh       decimal.Decimal `json:"day_high"`
	DayLow        decimal.Decimal `json:"day_low"`
	Volume        int64           `json:"volume"`
	CapturedAt    time.Time       `json:"captured_at"`
	Source        SnapshotSource  `json:"source"`
}

// Mid is the midpoint between bid and ask
func (m MarketSnapshot) Mid() decimal.Decimal {
	return m.Bid.Add(m.Ask).Div(decimal.NewFromInt(2))
}

// Spread is ask minus bid
func (m MarketSnapshot) Spread() decimal.Decimal {
	return m.Ask.Sub(m.Bid)
}

// SnapshotSet maps symbol to snapshot while remembering insertion order.
// It is not safe for concurrent mutation.
type SnapshotSet struct {
	symbols  []string
	bySymbol map[string]MarketSnapshot
}

func NewSnapshotSet() *SnapshotSet {
	return &SnapshotSet{bySymbol: make(map[string]MarketSnapshot)}
}

// Put stores snap under its symbol. Replacing a symbol keeps its first position.
func (s *SnapshotSet) Put(snap MarketSnapshot) {
	if s.bySymbol == nil {
		s.bySymbol = make(map[string]MarketSnapshot)
	}
	if _, ok := s.bySymbol[snap.Symbol]; !ok {
		s.symbols = append(s.symbols, snap.Symbol)
	}
	s.bySymbol[snap.Symbol] = snap
}

func (s *SnapshotSet) Get(symbol string) (MarketSnapshot, bool) {
	if s == nil {
		return MarketSnapshot{}, false
	}
	snap, ok := s.bySymbol[symbol]
	return snap, ok
}

// Symbols returns the symbols in insertion order
func (s *SnapshotSet) Symbols() []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s.symbols))
	copy(out, s.symbols)
	return out
}

func (s *SnapshotSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.symbols)
}

// Snapshots returns the snapshots in insertion order
func (s *SnapshotSet) Snapshots() []MarketSnapshot {
	if s == nil {
		return nil
	}
	out := make([]MarketSnapshot, 0, len(s.symbols))
	for _, symbol := range s.symbols {
		out = append(out, s.bySymbol[symbol])
	}
	return out
}

func (s *SnapshotSet) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("{}"), nil
	}
	return encodeObject(len(s.symbols), func(i int) (string, any) {
		return s.symbols[i], s.bySymbol[s.symbols[i]]
	})
}

func (s *SnapshotSet) UnmarshalJSON(data []byte) error {
	*s = SnapshotSet{bySymbol: make(map[string]MarketSnapshot)}
	return decodeObject(data, func(key string, raw json.RawMessage) error {
		var snap MarketSnapshot
		if err := json.Unmarshal(raw, &snap); err != nil {
			return err
		}
		if snap.Symbol == "" {
			snap.Symbol = key
		}
		if snap.Symbol != key {
			return fmt.Errorf("snapshot keyed %q carries symbol %q", key, snap.Symbol)
		}
		s.Put(snap)
		return nil
	})
}
