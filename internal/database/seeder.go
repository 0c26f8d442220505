package database

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/ksred/klear-datagen/internal/events"
	"github.com/ksred/klear-datagen/internal/settlement"
	"github.com/ksred/klear-datagen/internal/trading"
	"github.com/ksred/klear-datagen/internal/types"
)

// Seeder writes a dataset's trades, settlements, events and document in a
// single transaction. Reseeding a scenario replaces its earlier rows.
type Seeder struct {
	db  *gorm.DB
	now func() time.Time
}

func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{db: db, now: time.Now}
}

func (s *Seeder) Seed(ctx context.Context, d *types.Dataset) (*types.SeedResponse, error) {
	logger := log.With().
		Str("component", "seeder").
		Str("scenario_id", d.ScenarioID).
		Logger()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := trading.ReplaceScenarioTradesTx(tx, d.ScenarioID, d.Trades); err != nil {
			return fmt.Errorf("seed trades: %w", err)
		}
		if err := settlement.ReplaceScenarioSettlementsTx(tx, d.ScenarioID, d.Settlements); err != nil {
			return fmt.Errorf("seed settlements: %w", err)
		}
		if err := events.ReplaceScenarioEventsTx(tx, d.ScenarioID, d.DerivedEvents); err != nil {
			return fmt.Errorf("seed events: %w", err)
		}
		return saveDocumentTx(tx, d)
	})
	if err != nil {
		logger.Error().Err(err).Msg("seeding failed, rolled back")
		return nil, err
	}

	logger.Info().
		Int("trades", len(d.Trades)).
		Int("settlements", len(d.Settlements)).
		Int("events", len(d.DerivedEvents)).
		Msg("scenario seeded")

	return &types.SeedResponse{
		ScenarioID:  d.ScenarioID,
		Trades:      len(d.Trades),
		Settlements: len(d.Settlements),
		Events:      len(d.DerivedEvents),
		Timestamp:   s.now().UTC(),
	}, nil
}
