package types

import "time"

// ScenarioSummary is returned when a scenario is generated or listed
type ScenarioSummary struct {
	ScenarioID      string    `json:"scenario_id"`
	TraderAccount   string    `json:"trader_account"`
	Symbols         []string  `json:"symbols"`
	TradeCount      int       `json:"trade_count"`
	SettlementCount int       `json:"settlement_count"`
	FailedCount     int       `json:"failed_count"`
	EventCount      int       `json:"event_count"`
	GeneratedAt     time.Time `json:"generated_at"`
}

// Summarize builds the summary view of a dataset
func Summarize(d *Dataset) ScenarioSummary {
	failed := 0
	for _, s := range d.Settlements {
		if s.Status == SettlementStatusFailed {
			failed++
		}
	}
	return ScenarioSummary{
		ScenarioID:      d.ScenarioID,
		TraderAccount:   d.TraderAccount,
		Symbols:         d.MarketSnapshots.Symbols(),
		TradeCount:      len(d.Trades),
		SettlementCount: len(d.Settlements),
		FailedCount:     failed,
		EventCount:      len(d.DerivedEvents),
		GeneratedAt:     d.GeneratedAt,
	}
}

// PublishResponse reports a dataset's events being sent to the message bus
type PublishResponse struct {
	ScenarioID string    `json:"scenario_id"`
	Published  int       `json:"published"`
	Timestamp  time.Time `json:"timestamp"`
}

// SeedResponse reports a dataset being written to the database
type SeedResponse struct {
	ScenarioID  string    `json:"scenario_id"`
	Trades      int       `json:"trades"`
	Settlements int       `json:"settlements"`
	Events      int       `json:"events"`
	Timestamp   time.Time `json:"timestamp"`
}
