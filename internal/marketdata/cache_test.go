package marketdata

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ksred/klear-datagen/internal/types"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 15, 14, 30, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type countingSource struct {
	calls atomic.Int32
	price string
	delay time.Duration
	err   error
}

func (s *countingSource) Fetch(_ context.Context, _ string) (Quote, error) {
	s.calls.Add(1)
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	if s.err != nil {
		return Quote{}, s.err
	}
	return Quote{
		Price:    decimal.RequireFromString(s.price),
		Volume:   50_000_000,
		Exchange: "NMS",
		Name:     "Test Corp",
	}, nil
}

func newTestCache(src QuoteSource, clock *fakeClock) *Cache {
	return NewCache(src, Options{Pacing: -1, Now: clock.Now})
}

func TestGetSnapshot_FallbackWhenSourceFails(t *testing.T) {
	clock := newFakeClock()
	src := &countingSource{err: ErrQuoteUnavailable}
	cache := newTestCache(src, clock)

	snap := cache.GetSnapshot(context.Background(), "AAPL")

	assert.Equal(t, types.SnapshotSourceFallback, snap.Source)
	assert.True(t, snap.Price.Equal(decimal.RequireFromString("228.00")))
	assert.Equal(t, "NMS", snap.Exchange)
	assert.Equal(t, "Apple Inc.", snap.Name)
	assert.True(t, snap.Bid.Equal(decimal.RequireFromString("227.9544")))
	assert.True(t, snap.Ask.Equal(decimal.RequireFromString("228.0456")))
	assert.True(t, snap.PreviousClose.Equal(decimal.RequireFromString("226.86")))
	assert.EqualValues(t, 1_000_000, snap.Volume)
}

func TestGetSnapshot_FallbackNotCached(t *testing.T) {
	clock := newFakeClock()
	src := &countingSource{err: errors.New("connection refused")}
	cache := newTestCache(src, clock)

	cache.GetSnapshot(context.Background(), "MSFT")
	cache.GetSnapshot(context.Background(), "MSFT")

	assert.EqualValues(t, 2, src.calls.Load())
}

func TestGetSnapshot_UnknownSymbolFallback(t *testing.T) {
	cache := NewCache(nil, Options{Pacing: -1})

	snap := cache.GetSnapshot(context.Background(), "ZZZZ")

	assert.Equal(t, "UNK", snap.Exchange)
	assert.Equal(t, "ZZZZ", snap.Name)
	assert.True(t, snap.Price.Equal(decimal.NewFromInt(100)))
	assert.True(t, snap.Bid.LessThan(snap.Price))
	assert.True(t, snap.Ask.GreaterThan(snap.Price))
}

func TestGetSnapshot_CachedWithinTTL(t *testing.T) {
	clock := newFakeClock()
	src := &countingSource{price: "150.00"}
	cache := newTestCache(src, clock)

	first := cache.GetSnapshot(context.Background(), "AAPL")
	clock.Advance(4 * time.Minute)
	second := cache.GetSnapshot(context.Background(), "AAPL")

	assert.EqualValues(t, 1, src.calls.Load())
	assert.Equal(t, first, second)
	assert.Equal(t, types.SnapshotSourceLive, first.Source)
}

func TestGetSnapshot_RefetchesAfterTTL(t *testing.T) {
	clock := newFakeClock()
	src := &countingSource{price: "150.00"}
	cache := newTestCache(src, clock)

	cache.GetSnapshot(context.Background(), "AAPL")
	clock.Advance(DefaultTTL)
	cache.GetSnapshot(context.Background(), "AAPL")

	assert.EqualValues(t, 2, src.calls.Load())
}

func TestGetSnapshot_ConcurrentMissesShareOneFetch(t *testing.T) {
	clock := newFakeClock()
	src := &countingSource{price: "150.00", delay: 50 * time.Millisecond}
	cache := newTestCache(src, clock)

	var wg sync.WaitGroup
	results := make([]types.MarketSnapshot, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = cache.GetSnapshot(context.Background(), "AAPL")
		}(i)
	}
	wg.Wait()

	assert.EqualValues(t, 1, src.calls.Load())
	for _, snap := range results {
		assert.Equal(t, results[0], snap)
	}
}

func TestGetSnapshot_EstimatesSpreadFromVolume(t *testing.T) {
	clock := newFakeClock()
	cache := newTestCache(&countingSource{price: "100.00"}, clock)

	snap := cache.GetSnapshot(context.Background(), "AAPL")

	// 100 * 0.0002 / 2 = 0.01
	assert.True(t, snap.Bid.Equal(decimal.RequireFromString("99.99")), snap.Bid.String())
	assert.True(t, snap.Ask.Equal(decimal.RequireFromString("100.01")), snap.Ask.String())
}

func TestGetSnapshots_PreservesOrder(t *testing.T) {
	cache := NewCache(nil, Options{Pacing: -1})

	set := cache.GetSnapshots(context.Background(), []string{"TSLA", "BTC-USD", "AAPL"})

	assert.Equal(t, []string{"TSLA", "BTC-USD", "AAPL"}, set.Symbols())
}

func TestEstimateSpread(t *testing.T) {
	tests := []struct {
		symbol string
		volume int64
		want   string
	}{
		{"BTC-USD", 1, "0.001"},
		{"ETH-USD", 100_000_000, "0.001"},
		{"AAPL", 50_000_000, "0.0002"},
		{"AAPL", 10_000_000, "0.0005"},
		{"AAPL", 5_000_000, "0.0005"},
		{"AAPL", 1_000_000, "0.002"},
		{"TINY", 0, "0.002"},
	}
	for _, tt := range tests {
		t.Run(tt.symbol, func(t *testing.T) {
			got := EstimateSpread(tt.symbol, tt.volume)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "got %s", got)
		})
	}
}

func TestYahooSource_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v8/finance/chart/AAPL", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"chart":{"result":[{"meta":{
			"exchangeName":"NMS","shortName":"Apple Inc.",
			"regularMarketPrice":231.5,"chartPreviousClose":229.1,
			"regularMarketDayHigh":232.0,"regularMarketDayLow":228.7,
			"regularMarketVolume":42000000}}]}}`))
	}))
	defer srv.Close()

	quote, err := NewYahooSource(srv.URL, time.Second).Fetch(context.Background(), "AAPL")

	require.NoError(t, err)
	assert.True(t, quote.Price.Equal(decimal.RequireFromString("231.5")))
	assert.True(t, quote.PreviousClose.Equal(decimal.RequireFromString("229.1")))
	assert.EqualValues(t, 42_000_000, quote.Volume)
	assert.Equal(t, "NMS", quote.Exchange)
	assert.False(t, quote.Bid.Valid)
}

func TestYahooSource_Failures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusInternalServerError, `{}`},
		{"not json", http.StatusOK, `<html>`},
		{"empty result", http.StatusOK, `{"chart":{"result":[]}}`},
		{"missing price", http.StatusOK, `{"chart":{"result":[{"meta":{"exchangeName":"NMS"}}]}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewYahooSource(srv.URL, time.Second).Fetch(context.Background(), "AAPL")
			assert.ErrorIs(t, err, ErrQuoteUnavailable)
		})
	}
}

func TestCache_LiveSourceEndToEnd(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"chart":{"result":[{"meta":{"exchangeName":"CCC","regularMarketPrice":1000,"regularMarketVolume":5}}]}}`))
	}))
	defer srv.Close()

	cache := NewCache(NewYahooSource(srv.URL, time.Second), Options{Pacing: -1})
	snap := cache.GetSnapshot(context.Background(), "BTC-USD")

	assert.Equal(t, types.SnapshotSourceLive, snap.Source)
	// crypto spread 0.001 -> half spread 0.5
	assert.True(t, snap.Bid.Equal(decimal.RequireFromString("999.5")))
	assert.True(t, snap.Ask.Equal(decimal.RequireFromString("1000.5")))
	assert.Equal(t, "BTC-USD", snap.Name)
}

func TestTieredStore_PromotesFarHits(t *testing.T) {
	ctx := context.Background()
	near, far := NewMemoryStore(), NewMemoryStore()
	entry := Entry{Snapshot: FallbackSnapshot("GS", time.Now()), StoredAt: time.Now()}
	require.NoError(t, far.Put(ctx, entry))

	tiered := NewTieredStore(near, far)
	got, ok, err := tiered.Get(ctx, "GS")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "GS", got.Snapshot.Symbol)

	_, ok, _ = near.Get(ctx, "GS")
	assert.True(t, ok)
}

func TestSnapshotsFile_RoundTripThroughStaticSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshots", "market.json")
	cache := NewCache(nil, Options{Pacing: -1})
	set := cache.GetSnapshots(context.Background(), []string{"SPY", "ADA-USD"})

	require.NoError(t, SaveSnapshots(path, set))
	loaded, err := LoadSnapshots(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"SPY", "ADA-USD"}, loaded.Symbols())

	replay := NewCache(NewStaticSource(loaded), Options{Pacing: -1})
	snap := replay.GetSnapshot(context.Background(), "SPY")
	assert.Equal(t, types.SnapshotSourceStatic, snap.Source)
	orig, _ := set.Get("SPY")
	assert.True(t, snap.Bid.Equal(orig.Bid))
	assert.True(t, snap.Ask.Equal(orig.Ask))

	missing := replay.GetSnapshot(context.Background(), "QQQ")
	assert.Equal(t, types.SnapshotSourceFallback, missing.Source)
}

func TestLoadSnapshots_RejectsMismatchedKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"AAPL":{"symbol":"MSFT"}}`), 0o644))

	_, err := LoadSnapshots(path)
	assert.Error(t, err)
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	ctx := context.Background()
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()

	store := NewRedisStore(client, time.Minute)
	entry := Entry{Snapshot: FallbackSnapshot("JPM", time.Now()), StoredAt: time.Now().UTC()}
	require.NoError(t, store.Put(ctx, entry))

	got, ok, err := store.Get(ctx, "JPM")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, got.Snapshot.Price.Equal(entry.Snapshot.Price))

	_, ok, err = store.Get(ctx, "NOPE-"+time.Now().Format("150405.000"))
	require.NoError(t, err)
	assert.False(t, ok)
}
