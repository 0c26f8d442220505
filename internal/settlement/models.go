package settlement

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/ksred/klear-datagen/internal/types"
)

// SettlementRecord is the relational row a seeded settlement is stored as.
// Calendar dates are kept as UTC midnight timestamps.
type SettlementRecord struct {
	gorm.Model           `json:"-"`
	ScenarioID           string          `gorm:"index;not null" json:"scenario_id"`
	SettlementID         string          `gorm:"uniqueIndex;not null" json:"settlement_id"`
	TradeID              string          `gorm:"index;not null" json:"trade_id"`
	Symbol               string          `json:"symbol"`
	Side                 string          `json:"side"`
	Quantity             int64           `json:"quantity"`
	SettlementAmount     decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"settlement_amount"`
	Currency             string          `json:"currency"`
	Status               string          `gorm:"index" json:"status"` // MATCHED, CLEARING, SETTLED, FAILED
	TradeDate            time.Time       `json:"trade_date"`
	SettlementDate       time.Time       `json:"settlement_date"`
	ActualSettlementDate *time.Time      `json:"actual_settlement_date,omitempty"`
	CounterpartyID       string          `json:"counterparty_id"`
	ClearingHouse        string          `json:"clearing_house"`
	CustodianID          string          `json:"custodian_id"`
	AccountID            string          `json:"account_id"`
	FailReason           string          `json:"fail_reason,omitempty"`
	GeneratedAt          time.Time       `json:"generated_at"`
}

func newSettlementRecord(scenarioID string, s types.Settlement) SettlementRecord {
	record := SettlementRecord{
		ScenarioID:       scenarioID,
		SettlementID:     s.SettlementID,
		TradeID:          s.TradeID,
		Symbol:           s.Symbol,
		Side:             string(s.Side),
		Quantity:         s.Quantity,
		SettlementAmount: s.SettlementAmount,
		Currency:         s.Currency,
		Status:           string(s.Status),
		TradeDate:        s.TradeDate.Time(),
		SettlementDate:   s.SettlementDate.Time(),
		CounterpartyID:   s.CounterpartyID,
		ClearingHouse:    s.ClearingHouse,
		CustodianID:      s.CustodianID,
		AccountID:        s.AccountID,
		FailReason:       s.FailReason,
		GeneratedAt:      s.CreatedAt,
	}
	if s.ActualSettlementDate != nil {
		actual := s.ActualSettlementDate.Time()
		record.ActualSettlementDate = &actual
	}
	return record
}

// Settlement converts the row back to the domain value
func (r SettlementRecord) Settlement() types.Settlement {
	s := types.Settlement{
		SettlementID:     r.SettlementID,
		TradeID:          r.TradeID,
		Symbol:           r.Symbol,
		Side:             types.Side(r.Side),
		Quantity:         r.Quantity,
		SettlementAmount: r.SettlementAmount,
		Currency:         r.Currency,
		Status:           types.SettlementStatus(r.Status),
		TradeDate:        types.DateOf(r.TradeDate),
		SettlementDate:   types.DateOf(r.SettlementDate),
		CounterpartyID:   r.CounterpartyID,
		ClearingHouse:    r.ClearingHouse,
		CustodianID:      r.CustodianID,
		AccountID:        r.AccountID,
		FailReason:       r.FailReason,
		CreatedAt:        r.GeneratedAt.UTC(),
		UpdatedAt:        r.GeneratedAt.UTC(),
	}
	if r.ActualSettlementDate != nil {
		actual := types.DateOf(*r.ActualSettlementDate)
		s.ActualSettlementDate = &actual
	}
	return s
}
