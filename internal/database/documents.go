package database

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/ksred/klear-datagen/internal/scenario"
	"github.com/ksred/klear-datagen/internal/types"
)

// DocumentStore keeps encoded datasets in the database. It satisfies
// scenario.DocumentStore.
type DocumentStore struct {
	db *gorm.DB
}

func NewDocumentStore(db *gorm.DB) *DocumentStore {
	return &DocumentStore{db: db}
}

func (s *DocumentStore) Save(ctx context.Context, d *types.Dataset) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return saveDocumentTx(tx, d)
	})
}

func saveDocumentTx(tx *gorm.DB, d *types.Dataset) error {
	body, err := scenario.Encode(d)
	if err != nil {
		return err
	}
	if err := tx.Unscoped().Where("scenario_id = ?", d.ScenarioID).Delete(&DatasetDocument{}).Error; err != nil {
		return err
	}
	doc := DatasetDocument{
		ScenarioID:      d.ScenarioID,
		TraderAccount:   d.TraderAccount,
		Seed:            d.Seed,
		TradeCount:      len(d.Trades),
		SettlementCount: len(d.Settlements),
		GeneratedAt:     d.GeneratedAt,
		Body:            string(body),
	}
	if err := tx.Create(&doc).Error; err != nil {
		return fmt.Errorf("store document %s: %w", d.ScenarioID, err)
	}
	return nil
}

// Load returns a *scenario.NotFoundError for unknown ids and wraps
// scenario.ErrCorruptDataset when the stored body does not decode.
func (s *DocumentStore) Load(ctx context.Context, scenarioID string) (*types.Dataset, error) {
	var doc DatasetDocument
	err := s.db.WithContext(ctx).Where("scenario_id = ?", scenarioID).First(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		known, _ := s.IDs(ctx)
		return nil, &scenario.NotFoundError{ScenarioID: scenarioID, Known: known}
	}
	if err != nil {
		return nil, err
	}

	d, err := scenario.Decode([]byte(doc.Body))
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", scenarioID, err)
	}
	if d.ScenarioID != scenarioID {
		return nil, fmt.Errorf("load %s: %w: document holds scenario %q", scenarioID, scenario.ErrCorruptDataset, d.ScenarioID)
	}
	return d, nil
}

// IDs lists the stored scenario ids, sorted
func (s *DocumentStore) IDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).Model(&DatasetDocument{}).Order("scenario_id").Pluck("scenario_id", &ids).Error
	return ids, err
}
