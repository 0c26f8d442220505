package events

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

func (d *Database) ReplaceScenarioEvents(scenarioID string, events []types.Event) error {
	return d.db.Transaction(func(tx *gorm.DB) error {
		return ReplaceScenarioEventsTx(tx, scenarioID, events)
	})
}

// ReplaceScenarioEventsTx stores events in emission order inside tx
func ReplaceScenarioEventsTx(tx *gorm.DB, scenarioID string, events []types.Event) error {
	if err := tx.Unscoped().Where("scenario_id = ?", scenarioID).Delete(&EventRecord{}).Error; err != nil {
		return err
	}
	if len(events) == 0 {
		return nil
	}
	records := make([]EventRecord, len(events))
	for i, e := range events {
		r, err := newEventRecord(scenarioID, i, e)
		if err != nil {
			return err
		}
		records[i] = r
	}
	return tx.CreateInBatches(&records, 200).Error
}

// EventsFor returns the events correlated with id, in emission order
func (d *Database) EventsFor(scenarioID, correlationID string) ([]types.Event, error) {
	var records []EventRecord
	err := d.db.Where("scenario_id = ? AND correlation_id = ?", scenarioID, correlationID).
		Order("sequence").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	out := make([]types.Event, 0, len(records))
	for _, r := range records {
		e, err := r.Event()
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}
