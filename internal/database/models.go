package database

import (
	"time"

	"gorm.io/gorm"
)

// DatasetDocument holds a whole encoded dataset, one row per scenario
type DatasetDocument struct {
	gorm.Model      `json:"-"`
	ScenarioID      string    `gorm:"uniqueIndex;not null" json:"scenario_id"`
	TraderAccount   string    `gorm:"index" json:"trader_account"`
	Seed            int64     `json:"seed"`
	TradeCount      int       `json:"trade_count"`
	SettlementCount int       `json:"settlement_count"`
	GeneratedAt     time.Time `json:"generated_at"`
	Body            string    `gorm:"type:text;not null" json:"-"`
}
