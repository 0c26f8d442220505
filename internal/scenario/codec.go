package scenario

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/ksred/klear-datagen/internal/types"
)

// Encode renders a dataset as indented JSON. Snapshot and payload members
// keep their insertion order.
func Encode(d *types.Dataset) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(d); err != nil {
		return nil, fmt.Errorf("encode dataset %s: %w", d.ScenarioID, err)
	}
	return buf.Bytes(), nil
}

// Decode reads a dataset and checks it is internally consistent. Any
// failure is reported as ErrCorruptDataset.
func Decode(data []byte) (*types.Dataset, error) {
	var d types.Dataset
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptDataset, err)
	}
	if d.MarketSnapshots == nil {
		d.MarketSnapshots = types.NewSnapshotSet()
	}
	if d.SettlementIndex == nil {
		d.SettlementIndex = map[string]string{}
	}
	if err := d.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptDataset, err)
	}
	return &d, nil
}
