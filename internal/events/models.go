package events

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/ksred/klear-datagen/internal/types"
)

// EventRecord is a derived event as stored for seeding. Sequence keeps the
// emission order within a scenario.
type EventRecord struct {
	gorm.Model    `json:"-"`
	ScenarioID    string    `gorm:"index:idx_event_scenario_seq,priority:1;not null" json:"scenario_id"`
	Sequence      int       `gorm:"index:idx_event_scenario_seq,priority:2" json:"sequence"`
	EventID       string    `gorm:"uniqueIndex;not null" json:"event_id"`
	EventType     string    `gorm:"index" json:"event_type"`
	Topic         string    `json:"topic"`
	Timestamp     time.Time `json:"timestamp"`
	Source        string    `json:"source"`
	CorrelationID string    `gorm:"index" json:"correlation_id"`
	Payload       string    `gorm:"type:text" json:"payload"`
}

func newEventRecord(scenarioID string, seq int, e types.Event) (EventRecord, error) {
	payload, err := json.Marshal(e.Payload)
	if err != nil {
		return EventRecord{}, fmt.Errorf("encode payload of %s: %w", e.EventID, err)
	}
	return EventRecord{
		ScenarioID:    scenarioID,
		Sequence:      seq,
		EventID:       e.EventID,
		EventType:     string(e.EventType),
		Topic:         e.Topic,
		Timestamp:     e.Timestamp,
		Source:        e.Source,
		CorrelationID: e.CorrelationID,
		Payload:       string(payload),
	}, nil
}

// Event converts the row back to the domain value
func (r EventRecord) Event() (types.Event, error) {
	var payload types.Payload
	if err := json.Unmarshal([]byte(r.Payload), &payload); err != nil {
		return types.Event{}, fmt.Errorf("decode payload of %s: %w", r.EventID, err)
	}
	return types.Event{
		EventID:       r.EventID,
		EventType:     types.EventType(r.EventType),
		Topic:         r.Topic,
		Timestamp:     r.Timestamp.UTC(),
		Source:        r.Source,
		CorrelationID: r.CorrelationID,
		Payload:       payload,
	}, nil
}
