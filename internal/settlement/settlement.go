package settlement

import (
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/ksred/klear-datagen/internal/random"
	"github.com/ksred/klear-datagen/internal/types"
)

// CounterpartySource picks the market maker on the other side of a trade
type CounterpartySource interface {
	RandomCounterparty() string
}

// CryptoClearingHouse is used for every crypto settlement
const CryptoClearingHouse = "CRYPTO-SELF-CUSTODY"

var ClearingHouses = []string{"DTCC", "NSCC", "OCC", "CME-CLEARING", "ICE-CLEAR-US"}

var Custodians = []string{
	"BNY-MELLON", "STATE-STREET", "JP-MORGAN-CUSTODY",
	"CITIBANK-CUSTODY", "NORTHERN-TRUST",
}

const (
	equitySettlementDays = 1
	cryptoSettlementDays = 0
	maxLateDays          = 3
)

type outcome int

const (
	settledOnTime outcome = iota
	settledLate
	stillClearing
	matchedOnly
	failed
)

var outcomes = random.MustDistribution(
	random.Outcome[outcome]{Value: settledOnTime, Weight: 88},
	random.Outcome[outcome]{Value: settledLate, Weight: 2},
	random.Outcome[outcome]{Value: stillClearing, Weight: 3},
	random.Outcome[outcome]{Value: matchedOnly, Weight: 2},
	random.Outcome[outcome]{Value: failed, Weight: 5},
)

// Synthesizer derives settlements from trades
type Synthesizer struct {
	rng            *random.Source
	counterparties CounterpartySource
	now            func() time.Time
}

func NewSynthesizer(rng *random.Source, counterparties CounterpartySource, now func() time.Time) *Synthesizer {
	if now == nil {
		now = time.Now
	}
	return &Synthesizer{
		rng:            rng,
		counterparties: counterparties,
		now:            now,
	}
}

// FromTrade derives one settlement. The caller decides whether the trade
// is eligible; see FromTrades.
func (s *Synthesizer) FromTrade(trade types.Trade) types.Settlement {
	now := s.now().UTC()
	tradeDate := types.DateOf(now)
	if !trade.ExecutedAt.IsZero() {
		tradeDate = types.DateOf(trade.ExecutedAt)
	}

	settlement := types.Settlement{
		SettlementID:     types.NewID(types.SettlementIDPrefix, s.rng),
		TradeID:          trade.TradeID,
		Symbol:           trade.Symbol,
		Side:             trade.Side,
		Quantity:         trade.Quantity,
		SettlementAmount: types.RoundCurrency(trade.TotalValue.Add(Fees(trade))),
		Currency:         trade.Currency,
		TradeDate:        tradeDate,
		SettlementDate:   tradeDate.AddBusinessDays(SettlementDays(trade.Symbol)),
		AccountID:        trade.AccountID,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	settlement.CounterpartyID = s.counterparties.RandomCounterparty()
	settlement.ClearingHouse = s.randomClearingHouse(trade.Symbol)
	settlement.CustodianID = random.Pick(s.rng, Custodians)

	return s.assignStatus(settlement)
}

// FromTrades derives settlements for every EXECUTED or PARTIALLY_FILLED
// trade, in trade order. The first settlement of each symbol is never
// FAILED: a failed draw there is moved to CLEARING.
func (s *Synthesizer) FromTrades(trades []types.Trade) []types.Settlement {
	settlements := make([]types.Settlement, 0, len(trades))
	seen := make(map[string]bool)
	for _, trade := range trades {
		if !trade.Status.Settles() {
			continue
		}
		settlement := s.FromTrade(trade)
		if !seen[trade.Symbol] {
			seen[trade.Symbol] = true
			if settlement.Status == types.SettlementStatusFailed {
				log.Debug().
					Str("settlement_id", settlement.SettlementID).
					Str("symbol", trade.Symbol).
					Str("fail_reason", settlement.FailReason).
					Msg("first settlement for symbol moved from FAILED to CLEARING")
				settlement = settlement.WithStatus(types.SettlementStatusClearing, "")
			}
		}
		settlements = append(settlements, settlement)
	}
	return settlements
}

// SettlementDays is the T+N offset: crypto settles same day, equities T+1
func SettlementDays(symbol string) int {
	if types.IsCryptoSymbol(symbol) {
		return cryptoSettlementDays
	}
	return equitySettlementDays
}

func (s *Synthesizer) randomClearingHouse(symbol string) string {
	if types.IsCryptoSymbol(symbol) {
		return CryptoClearingHouse
	}
	return random.Pick(s.rng, ClearingHouses)
}

func (s *Synthesizer) assignStatus(settlement types.Settlement) types.Settlement {
	switch outcomes.Draw(s.rng) {
	case settledOnTime:
		settlement.Status = types.SettlementStatusSettled
		actual := settlement.SettlementDate
		settlement.ActualSettlementDate = &actual
	case settledLate:
		settlement.Status = types.SettlementStatusSettled
		actual := settlement.SettlementDate.AddDays(s.rng.IntRange(1, maxLateDays))
		settlement.ActualSettlementDate = &actual
	case stillClearing:
		settlement.Status = types.SettlementStatusClearing
	case matchedOnly:
		settlement.Status = types.SettlementStatusMatched
	default:
		settlement.Status = types.SettlementStatusFailed
		settlement.FailReason = random.Pick(s.rng, types.FailReasons)
	}
	return settlement
}

var (
	secFeeRate     = decimal.RequireFromString("0.0000278")
	perShareFee    = decimal.RequireFromString("0.000166")
	perShareFeeCap = decimal.RequireFromString("8.30")
)

// Fees is the SEC fee on sells plus the capped per-share activity fee,
// each rounded to currency scale.
func Fees(trade types.Trade) decimal.Decimal {
	fees := decimal.Zero
	if trade.Side == types.SideSell {
		fees = fees.Add(types.RoundCurrency(trade.TotalValue.Mul(secFeeRate)))
	}
	activity := decimal.Min(decimal.NewFromInt(trade.Quantity).Mul(perShareFee), perShareFeeCap)
	return fees.Add(types.RoundCurrency(activity))
}
