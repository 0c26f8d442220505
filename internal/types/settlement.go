package types

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

type SettlementStatus string

const (
	SettlementStatusPending   SettlementStatus = "PENDING"
	SettlementStatusMatched   SettlementStatus = "MATCHED"
	SettlementStatusClearing  SettlementStatus = "CLEARING"
	SettlementStatusSettled   SettlementStatus = "SETTLED"
	SettlementStatusFailed    SettlementStatus = "FAILED"
	SettlementStatusCancelled SettlementStatus = "CANCELLED"
)

// Settlement failure reasons
const (
	FailInsufficientSecurities = "INSUFFICIENT_SECURITIES"
	FailCounterpartyDefault    = "COUNTERPARTY_DEFAULT"
	FailMismatchedTradeDetails = "MISMATCHED_TRADE_DETAILS"
	FailFailedDelivery         = "FAILED_DELIVERY"
	FailRegulatoryHold         = "REGULATORY_HOLD"
	FailInsufficientMargin     = "INSUFFICIENT_MARGIN"
	FailSystemError            = "SYSTEM_ERROR"
	FailLateAffirmation        = "LATE_AFFIRMATION"
)

// FailReasons is the closed set a FAILED settlement draws its reason from
var FailReasons = []string{
	FailInsufficientSecurities,
	FailCounterpartyDefault,
	FailMismatchedTradeDetails,
	FailFailedDelivery,
	FailRegulatoryHold,
	FailInsufficientMargin,
	FailSystemError,
	FailLateAffirmation,
}

func IsFailReason(reason string) bool {
	return slices.Contains(FailReasons, reason)
}

var ErrInvalidSettlement = errors.New("invalid settlement")

// Settlement is derived from exactly one trade. Its status is the terminal
// state reached at generation time.
type Settlement struct {
	SettlementID         string           `json:"settlement_id"`
	TradeID              string           `json:"trade_id"`
	Symbol               string           `json:"symbol"`
	Side                 Side             `json:"side"`
	Quantity             int64            `json:"quantity"`
	SettlementAmount     decimal.Decimal  `json:"settlement_amount"`
	Currency             string           `json:"currency"`
	Status               SettlementStatus `json:"status"`
	TradeDate            Date             `json:"trade_date"`
	SettlementDate       Date             `json:"settlement_date"`
	ActualSettlementDate *Date            `json:"actual_settlement_date,omitempty"`
	CounterpartyID       string           `json:"counterparty_id"`
	ClearingHouse        string           `json:"clearing_house"`
	CustodianID          string           `json:"custodian_id"`
	AccountID            string           `json:"account_id"`
	FailReason           string           `json:"fail_reason,omitempty"`
	CreatedAt            time.Time        `json:"created_at"`
	UpdatedAt            time.Time        `json:"updated_at"`
}

// IsLate is true when the settlement completed after its expected date
func (s Settlement) IsLate() bool {
	return s.ActualSettlementDate != nil && s.ActualSettlementDate.After(s.SettlementDate)
}

// WithStatus returns a copy moved to status. Leaving FAILED clears the
// reason; leaving SETTLED clears the actual settlement date.
func (s Settlement) WithStatus(status SettlementStatus, failReason string) Settlement {
	s.Status = status
	s.FailReason = ""
	if status == SettlementStatusFailed {
		s.FailReason = failReason
	}
	if status != SettlementStatusSettled {
		s.ActualSettlementDate = nil
	}
	return s
}

// Validate checks the invariants every generated settlement must hold
func (s Settlement) Validate() error {
	if s.SettlementID == "" {
		return fmt.Errorf("%w: missing settlement id", ErrInvalidSettlement)
	}
	if s.Quantity <= 0 {
		return fmt.Errorf("%w: settlement %s has non-positive quantity", ErrInvalidSettlement, s.SettlementID)
	}
	if s.SettlementDate.Before(s.TradeDate) {
		return fmt.Errorf("%w: settlement %s dated %s before trade date %s",
			ErrInvalidSettlement, s.SettlementID, s.SettlementDate, s.TradeDate)
	}
	if !IsCryptoSymbol(s.Symbol) && !s.SettlementDate.IsWeekday() {
		return fmt.Errorf("%w: settlement %s falls on %s", ErrInvalidSettlement, s.SettlementID, s.SettlementDate.Weekday())
	}
	failed := s.Status == SettlementStatusFailed
	if failed != (s.FailReason != "") {
		return fmt.Errorf("%w: settlement %s status %s with fail reason %q",
			ErrInvalidSettlement, s.SettlementID, s.Status, s.FailReason)
	}
	if failed && !IsFailReason(s.FailReason) {
		return fmt.Errorf("%w: settlement %s has unknown fail reason %q", ErrInvalidSettlement, s.SettlementID, s.FailReason)
	}
	if s.ActualSettlementDate != nil && s.Status != SettlementStatusSettled {
		return fmt.Errorf("%w: settlement %s has actual date but status %s", ErrInvalidSettlement, s.SettlementID, s.Status)
	}
	return nil
}
