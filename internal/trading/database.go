package trading

import (
	"github.com/ksred/klear-datagen/internal/types"
	"gorm.io/gorm"
)

type Database struct {
	db *gorm.DB
}

func NewDatabase(db *gorm.DB) *Database {
	return &Database{db: db}
}

// ReplaceScenarioTrades swaps every stored trade of a scenario for trades
// in one transaction, so reseeding a scenario never leaves a mix.
func (d *Database) ReplaceScenarioTrades(scenarioID string, trades []types.Trade) error {
	return d.db.Transaction(func(tx *gorm.DB) error {
		return ReplaceScenarioTradesTx(tx, scenarioID, trades)
	})
}

// ReplaceScenarioTradesTx does the work of ReplaceScenarioTrades inside a
// caller's transaction
func ReplaceScenarioTradesTx(tx *gorm.DB, scenarioID string, trades []types.Trade) error {
	if err := tx.Unscoped().Where("scenario_id = ?", scenarioID).Delete(&TradeRecord{}).Error; err != nil {
		return err
	}
	if len(trades) == 0 {
		return nil
	}
	records := make([]TradeRecord, len(trades))
	for i, t := range trades {
		records[i] = newTradeRecord(scenarioID, t)
	}
	return tx.Create(&records).Error
}

// GetTrade returns gorm.ErrRecordNotFound when tradeID was never seeded
func (d *Database) GetTrade(tradeID string) (*types.Trade, error) {
	var record TradeRecord
	if err := d.db.Where("trade_id = ?", tradeID).First(&record).Error; err != nil {
		return nil, err
	}
	trade := record.Trade()
	return &trade, nil
}

// ListTrades returns a scenario's trades in the order they were seeded
func (d *Database) ListTrades(scenarioID string) ([]types.Trade, error) {
	var records []TradeRecord
	if err := d.db.Where("scenario_id = ?", scenarioID).Order("id").Find(&records).Error; err != nil {
		return nil, err
	}
	trades := make([]types.Trade, len(records))
	for i, r := range records {
		trades[i] = r.Trade()
	}
	return trades, nil
}

// CountByStatus groups a scenario's trades by status
func (d *Database) CountByStatus(scenarioID string) (map[types.TradeStatus]int64, error) {
	var rows []struct {
		Status string
		Count  int64
	}
	err := d.db.Model(&TradeRecord{}).
		Select("status, count(*) as count").
		Where("scenario_id = ?", scenarioID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[types.TradeStatus]int64, len(rows))
	for _, r := range rows {
		counts[types.TradeStatus(r.Status)] = r.Count
	}
	return counts, nil
}
