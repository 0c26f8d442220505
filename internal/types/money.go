package types

import (
	"strings"

	"github.com/shopspring/decimal"
)

// CurrencyScale is the number of decimal places money is kept at
const CurrencyScale = 2

// CryptoQuoteSuffix marks symbols quoted against USD on crypto venues
const CryptoQuoteSuffix = "-USD"

// RoundCurrency rounds to 2dp, halves away from zero (half-up for prices)
func RoundCurrency(d decimal.Decimal) decimal.Decimal {
	return d.Round(CurrencyScale)
}

// IsCryptoSymbol reports whether symbol belongs to the crypto-quote family
func IsCryptoSymbol(symbol string) bool {
	return strings.HasSuffix(symbol, CryptoQuoteSuffix)
}
