package types

import (
	"io"
	"strings"

	"github.com/google/uuid"
)

// Identifier prefixes
const (
	TradeIDPrefix      = "TRD-"
	SettlementIDPrefix = "STL-"
)

// NewID builds prefix + 12 upper-case hex characters drawn from r, so ids
// follow the same seeded stream as the rest of a dataset.
func NewID(prefix string, r io.Reader) string {
	id, err := uuid.NewRandomFromReader(r)
	if err != nil {
		id = uuid.New()
	}
	return prefix + strings.ToUpper(strings.ReplaceAll(id.String(), "-", "")[:12])
}

// NewUUID draws a UUID from r
func NewUUID(r io.Reader) string {
	id, err := uuid.NewRandomFromReader(r)
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}
