package types

import (
	"errors"
	"fmt"
	"time"
)

var ErrInvalidDataset = errors.New("invalid dataset")

// Dataset is everything generated for one scenario
type Dataset struct {
	ScenarioID      string            `json:"scenario_id"`
	TraderAccount   string            `json:"trader_account"`
	Seed            int64             `json:"seed"`
	GeneratedAt     time.Time         `json:"generated_at"`
	Trades          []Trade           `json:"trades"`
	Settlements     []Settlement      `json:"settlements"`
	MarketSnapshots *SnapshotSet      `json:"market_snapshots"`
	DerivedEvents   []Event           `json:"derived_events"`
	SettlementIndex map[string]string `json:"settlement_index"`
}

// IndexSettlements rebuilds the trade id to settlement id join
func IndexSettlements(settlements []Settlement) map[string]string {
	index := make(map[string]string, len(settlements))
	for _, s := range settlements {
		index[s.TradeID] = s.SettlementID
	}
	return index
}

func (d *Dataset) Trade(tradeID string) (Trade, bool) {
	for _, t := range d.Trades {
		if t.TradeID == tradeID {
			return t, true
		}
	}
	return Trade{}, false
}

// SettlementFor returns the settlement derived from tradeID, if any
func (d *Dataset) SettlementFor(tradeID string) (Settlement, bool) {
	settlementID, ok := d.SettlementIndex[tradeID]
	if !ok {
		return Settlement{}, false
	}
	for _, s := range d.Settlements {
		if s.SettlementID == settlementID {
			return s, true
		}
	}
	return Settlement{}, false
}

// EventsFor returns the derived events correlated with id, in order
func (d *Dataset) EventsFor(correlationID string) []Event {
	var out []Event
	for _, e := range d.DerivedEvents {
		if e.CorrelationID == correlationID {
			out = append(out, e)
		}
	}
	return out
}

// Validate checks record invariants and cross-record references
func (d *Dataset) Validate() error {
	if d.ScenarioID == "" {
		return fmt.Errorf("%w: missing scenario id", ErrInvalidDataset)
	}
	trades := make(map[string]Trade, len(d.Trades))
	for _, t := range d.Trades {
		if err := t.Validate(); err != nil {
			return err
		}
		if _, dup := trades[t.TradeID]; dup {
			return fmt.Errorf("%w: duplicate trade id %s", ErrInvalidDataset, t.TradeID)
		}
		if _, ok := d.MarketSnapshots.Get(t.Symbol); !ok {
			return fmt.Errorf("%w: trade %s has no snapshot for %s", ErrInvalidDataset, t.TradeID, t.Symbol)
		}
		trades[t.TradeID] = t
	}
	for _, s := range d.Settlements {
		if err := s.Validate(); err != nil {
			return err
		}
		t, ok := trades[s.TradeID]
		if !ok {
			return fmt.Errorf("%w: settlement %s references unknown trade %s", ErrInvalidDataset, s.SettlementID, s.TradeID)
		}
		if !t.Status.Settles() {
			return fmt.Errorf("%w: settlement %s derived from %s trade", ErrInvalidDataset, s.SettlementID, t.Status)
		}
		if s.SettlementAmount.LessThan(t.TotalValue) {
			return fmt.Errorf("%w: settlement %s amount below trade value", ErrInvalidDataset, s.SettlementID)
		}
		if d.SettlementIndex[s.TradeID] != s.SettlementID {
			return fmt.Errorf("%w: settlement index disagrees for trade %s", ErrInvalidDataset, s.TradeID)
		}
	}
	if len(d.SettlementIndex) != len(d.Settlements) {
		return fmt.Errorf("%w: settlement index has %d entries for %d settlements",
			ErrInvalidDataset, len(d.SettlementIndex), len(d.Settlements))
	}
	for _, e := range d.DerivedEvents {
		if e.EventID == "" || e.EventType == "" || e.CorrelationID == "" {
			return fmt.Errorf("%w: incomplete event %q", ErrInvalidDataset, e.EventID)
		}
	}
	return nil
}
