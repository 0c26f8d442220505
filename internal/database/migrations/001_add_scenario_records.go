package migrations

import (
	"github.com/ksred/klear-datagen/internal/events"
	"github.com/ksred/klear-datagen/internal/settlement"
	"github.com/ksred/klear-datagen/internal/trading"
	"gorm.io/gorm"
)

// AddScenarioRecords creates the seeded trade, settlement and event tables
func AddScenarioRecords(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&trading.TradeRecord{},
		&settlement.SettlementRecord{},
		&events.EventRecord{},
	); err != nil {
		return err
	}

	indexes := []string{
		// A trader's activity in time order
		`CREATE INDEX IF NOT EXISTS idx_trade_records_account_executed
		 ON trade_records(account_id, executed_at)`,

		// Per-scenario symbol breakdowns
		`CREATE INDEX IF NOT EXISTS idx_trade_records_scenario_symbol
		 ON trade_records(scenario_id, symbol)`,

		// Settlements due on a date, by outcome
		`CREATE INDEX IF NOT EXISTS idx_settlement_records_date_status
		 ON settlement_records(settlement_date, status)`,

		`CREATE INDEX IF NOT EXISTS idx_settlement_records_counterparty
		 ON settlement_records(counterparty_id)`,
	}

	for _, idx := range indexes {
		if err := db.Exec(idx).Error; err != nil {
			return err
		}
	}

	return nil
}
