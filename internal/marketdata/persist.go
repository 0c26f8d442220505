package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"

	"github.com/ksred/klear-datagen/internal/types"
)

// SaveSnapshots writes set to path as an ordered JSON object, so a CI run
// can replay the same reference data without network access.
func SaveSnapshots(path string, set *types.SnapshotSet) error {
	data, err := json.MarshalIndent(set, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshots: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create snapshot directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write snapshots: %w", err)
	}
	return nil
}

func LoadSnapshots(path string) (*types.SnapshotSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshots: %w", err)
	}
	set := types.NewSnapshotSet()
	if err := json.Unmarshal(data, set); err != nil {
		return nil, fmt.Errorf("decode snapshots %s: %w", path, err)
	}
	return set, nil
}

// StaticSource serves quotes from a fixed snapshot set. Symbols outside the
// set are unavailable, which sends the cache to its fallback table.
type StaticSource struct {
	set *types.SnapshotSet
}

func NewStaticSource(set *types.SnapshotSet) *StaticSource {
	return &StaticSource{set: set}
}

func (s *StaticSource) Fetch(_ context.Context, symbol string) (Quote, error) {
	snap, ok := s.set.Get(symbol)
	if !ok {
		return Quote{}, fmt.Errorf("%w: %s not in static set", ErrQuoteUnavailable, symbol)
	}
	return Quote{
		Price:         snap.Price,
		PreviousClose: snap.PreviousClose,
		DayHigh:       snap.DayHigh,
		DayLow:        snap.DayLow,
		Bid:           decimal.NewNullDecimal(snap.Bid),
		Ask:           decimal.NewNullDecimal(snap.Ask),
		Volume:        snap.Volume,
		Exchange:      snap.Exchange,
		Name:          snap.Name,
		Origin:        types.SnapshotSourceStatic,
	}, nil
}
