package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
)

const (
	DefaultQuoteBaseURL = "https://query1.finance.yahoo.com"
	DefaultQuoteTimeout = 10 * time.Second
	maxQuoteBodyBytes   = 1 << 20
)

// YahooSource reads quotes from the public v8 chart endpoint
type YahooSource struct {
	baseURL string
	client  *http.Client
}

func NewYahooSource(baseURL string, timeout time.Duration) *YahooSource {
	if baseURL == "" {
		baseURL = DefaultQuoteBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultQuoteTimeout
	}
	return &YahooSource{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta chartMeta `json:"meta"`
		} `json:"result"`
	} `json:"chart"`
}

type chartMeta struct {
	ExchangeName       string              `json:"exchangeName"`
	ShortName          string              `json:"shortName"`
	RegularMarketPrice decimal.NullDecimal `json:"regularMarketPrice"`
	ChartPreviousClose decimal.NullDecimal `json:"chartPreviousClose"`
	DayHigh            decimal.NullDecimal `json:"regularMarketDayHigh"`
	DayLow             decimal.NullDecimal `json:"regularMarketDayLow"`
	Volume             *int64              `json:"regularMarketVolume"`
}

// Fetch returns ErrQuoteUnavailable wrapped with the cause on any failure
func (y *YahooSource) Fetch(ctx context.Context, symbol string) (Quote, error) {
	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1d&range=1d", y.baseURL, url.PathEscape(symbol))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Quote{}, fmt.Errorf("%w: build request: %v", ErrQuoteUnavailable, err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := y.client.Do(req)
	if err != nil {
		return Quote{}, fmt.Errorf("%w: %v", ErrQuoteUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Quote{}, fmt.Errorf("%w: quote source returned %d for %s", ErrQuoteUnavailable, resp.StatusCode, symbol)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxQuoteBodyBytes))
	if err != nil {
		return Quote{}, fmt.Errorf("%w: read body: %v", ErrQuoteUnavailable, err)
	}
	return parseChart(symbol, body)
}

func parseChart(symbol string, body []byte) (Quote, error) {
	var chart chartResponse
	if err := json.Unmarshal(body, &chart); err != nil {
		return Quote{}, fmt.Errorf("%w: decode chart for %s: %v", ErrQuoteUnavailable, symbol, err)
	}
	if len(chart.Chart.Result) == 0 {
		return Quote{}, fmt.Errorf("%w: empty chart result for %s", ErrQuoteUnavailable, symbol)
	}
	meta := chart.Chart.Result[0].Meta
	if !meta.RegularMarketPrice.Valid || !meta.RegularMarketPrice.Decimal.IsPositive() {
		return Quote{}, fmt.Errorf("%w: no market price for %s", ErrQuoteUnavailable, symbol)
	}

	quote := Quote{
		Price:         meta.RegularMarketPrice.Decimal,
		PreviousClose: meta.ChartPreviousClose.Decimal,
		DayHigh:       meta.DayHigh.Decimal,
		DayLow:        meta.DayLow.Decimal,
		Exchange:      meta.ExchangeName,
		Name:          meta.ShortName,
	}
	if meta.Volume != nil {
		quote.Volume = *meta.Volume
	}
	return quote, nil
}
