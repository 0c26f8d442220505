package settlement

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

// ReplaceScenarioSettlements swaps a scenario's stored settlements in one
// transaction
func (d *Database) ReplaceScenarioSettlements(scenarioID string, settlements []types.Settlement) error {
	return d.db.Transaction(func(tx *gorm.DB) error {
		return ReplaceScenarioSettlementsTx(tx, scenarioID, settlements)
	})
}

func ReplaceScenarioSettlementsTx(tx *gorm.DB, scenarioID string, settlements []types.Settlement) error {
	if err := tx.Unscoped().Where("scenario_id = ?", scenarioID).Delete(&SettlementRecord{}).Error; err != nil {
		return err
	}
	if len(settlements) == 0 {
		return nil
	}
	records := make([]SettlementRecord, len(settlements))
	for i, s := range settlements {
		records[i] = newSettlementRecord(scenarioID, s)
	}
	return tx.Create(&records).Error
}

func (d *Database) GetSettlement(settlementID string) (*types.Settlement, error) {
	var record SettlementRecord
	if err := d.db.Where("settlement_id = ?", settlementID).First(&record).Error; err != nil {
		return nil, err
	}
	s := record.Settlement()
	return &s, nil
}

func (d *Database) GetSettlementByTradeID(tradeID string) (*types.Settlement, error) {
	var record SettlementRecord
	if err := d.db.Where("trade_id = ?", tradeID).First(&record).Error; err != nil {
		return nil, err
	}
	s := record.Settlement()
	return &s, nil
}

// GetFailedSettlements returns a scenario's FAILED settlements in seed order
func (d *Database) GetFailedSettlements(scenarioID string) ([]types.Settlement, error) {
	var records []SettlementRecord
	err := d.db.Where("scenario_id = ? AND status = ?", scenarioID, string(types.SettlementStatusFailed)).
		Order("id").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	out := make([]types.Settlement, len(records))
	for i, r := range records {
		out[i] = r.Settlement()
	}
	return out, nil
}
