package scenario

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ksred/klear-datagen/internal/types"
)

type recordingPublisher struct {
	published []types.Event
	err       error
}

func (p *recordingPublisher) Publish(_ context.Context, evts []types.Event) error {
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, evts...)
	return nil
}

type countingSeeder struct {
	seeded []string
}

func (s *countingSeeder) Seed(_ context.Context, d *types.Dataset) (*types.SeedResponse, error) {
	s.seeded = append(s.seeded, d.ScenarioID)
	return &types.SeedResponse{
		ScenarioID:  d.ScenarioID,
		Trades:      len(d.Trades),
		Settlements: len(d.Settlements),
		Events:      len(d.DerivedEvents),
		Timestamp:   time.Now().UTC(),
	}, nil
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string          `json:"code"`
		Message string          `json:"message"`
		Details json.RawMessage `json:"details"`
	} `json:"error"`
}

func newRouter(h *GinHandlers) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	v1 := r.Group("/api/v1/scenarios")
	v1.POST("/trade", h.GenerateTradeHandler())
	v1.POST("/round-trip", h.GenerateRoundTripHandler())
	v1.GET("", h.ListHandler())
	v1.GET("/:scenario_id", h.GetHandler())
	v1.POST("/:scenario_id/publish", h.PublishHandler())
	v1.POST("/:scenario_id/seed", h.SeedHandler())
	return r
}

func do(t *testing.T, r http.Handler, method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w, env
}

func TestGenerateAndFetchScenario(t *testing.T) {
	store := NewFileStore(t.TempDir())
	h := NewGinHandlers(newOrchestrator(42), store, nil, nil)
	r := newRouter(h)

	w, env := do(t, r, http.MethodPost, "/api/v1/scenarios/trade", TradeScenarioRequest{
		ScenarioID:      "trade-happy-path",
		Symbols:         []string{"AAPL", "BTC-USD"},
		TradesPerSymbol: 2,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var summary types.ScenarioSummary
	require.NoError(t, json.Unmarshal(env.Data, &summary))
	assert.Equal(t, "trade-happy-path", summary.ScenarioID)
	assert.Equal(t, 4, summary.TradeCount)
	assert.Equal(t, []string{"AAPL", "BTC-USD"}, summary.Symbols)

	w, env = do(t, r, http.MethodGet, "/api/v1/scenarios/trade-happy-path", nil)
	require.Equal(t, http.StatusOK, w.Code)
	d, err := Decode(env.Data)
	require.NoError(t, err)
	assert.Len(t, d.Trades, 4)

	_, err = store.Load(context.Background(), "trade-happy-path")
	assert.NoError(t, err)

	w, env = do(t, r, http.MethodGet, "/api/v1/scenarios", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list []types.ScenarioSummary
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Len(t, list, 1)
}

func TestGetFallsBackToDocumentStore(t *testing.T) {
	store := NewFileStore(t.TempDir())
	require.NoError(t, store.Save(context.Background(), generate(t, newOrchestrator(1), "from-disk", "MSFT")))

	o := newOrchestrator(1)
	r := newRouter(NewGinHandlers(o, store, nil, nil))

	w, _ := do(t, r, http.MethodGet, "/api/v1/scenarios/from-disk", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, o.Registry().Has("from-disk"))
}

func TestGetUnknownScenario(t *testing.T) {
	o := newOrchestrator(1)
	generate(t, o, "trade-round-trip", "TSLA")
	r := newRouter(NewGinHandlers(o, NewFileStore(t.TempDir()), nil, nil))

	w, env := do(t, r, http.MethodGet, "/api/v1/scenarios/nope", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)

	var details struct {
		ScenarioID string   `json:"scenario_id"`
		Available  []string `json:"available"`
	}
	require.NoError(t, json.Unmarshal(env.Error.Details, &details))
	assert.Equal(t, "nope", details.ScenarioID)
	assert.Equal(t, []string{"trade-round-trip"}, details.Available)
}

func TestGenerateRejectsBadRequests(t *testing.T) {
	r := newRouter(NewGinHandlers(newOrchestrator(1), nil, nil, nil))

	tests := []struct {
		name string
		path string
		body any
		code string
	}{
		{"empty symbols", "/api/v1/scenarios/trade", map[string]any{"scenario_id": "s", "symbols": []string{}, "trades_per_symbol": 1}, "VALIDATION_FAILED"},
		{"zero trades", "/api/v1/scenarios/trade", map[string]any{"scenario_id": "s", "symbols": []string{"AAPL"}, "trades_per_symbol": 0}, "VALIDATION_FAILED"},
		{"too many trades", "/api/v1/scenarios/trade", map[string]any{"scenario_id": "s", "symbols": []string{"AAPL"}, "trades_per_symbol": 100_000_000}, "VALIDATION_FAILED"},
		{"wrong type", "/api/v1/scenarios/trade", map[string]any{"scenario_id": "s", "symbols": "AAPL"}, "BAD_REQUEST"},
		{"blank round trip symbol", "/api/v1/scenarios/round-trip", map[string]any{"scenario_id": "s", "symbol": ""}, "VALIDATION_FAILED"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, env := do(t, r, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			require.NotNil(t, env.Error)
			assert.Equal(t, tt.code, env.Error.Code)
		})
	}
}

func TestRoundTripEndpoint(t *testing.T) {
	r := newRouter(NewGinHandlers(newOrchestrator(1), nil, nil, nil))
	w, env := do(t, r, http.MethodPost, "/api/v1/scenarios/round-trip", RoundTripRequest{ScenarioID: "rt", Symbol: "ETH-USD"})
	require.Equal(t, http.StatusCreated, w.Code)

	var summary types.ScenarioSummary
	require.NoError(t, json.Unmarshal(env.Data, &summary))
	assert.Equal(t, 2, summary.TradeCount)
}

func TestPublishAndSeed(t *testing.T) {
	o := newOrchestrator(8)
	d := generate(t, o, "trade-happy-path", "AAPL")
	publisher := &recordingPublisher{}
	seeder := &countingSeeder{}
	r := newRouter(NewGinHandlers(o, nil, publisher, seeder))

	w, env := do(t, r, http.MethodPost, "/api/v1/scenarios/trade-happy-path/publish", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	var pub types.PublishResponse
	require.NoError(t, json.Unmarshal(env.Data, &pub))
	assert.Equal(t, len(d.DerivedEvents), pub.Published)
	assert.Equal(t, d.DerivedEvents, publisher.published)

	w, env = do(t, r, http.MethodPost, "/api/v1/scenarios/trade-happy-path/seed", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	var seeded types.SeedResponse
	require.NoError(t, json.Unmarshal(env.Data, &seeded))
	assert.Equal(t, len(d.Trades), seeded.Trades)
	assert.Equal(t, []string{"trade-happy-path"}, seeder.seeded)

	w, _ = do(t, r, http.MethodPost, "/api/v1/scenarios/unknown/publish", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPublishFailures(t *testing.T) {
	o := newOrchestrator(8)
	generate(t, o, "scn", "AAPL")

	w, _ := do(t, newRouter(NewGinHandlers(o, nil, nil, nil)), http.MethodPost, "/api/v1/scenarios/scn/publish", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	broken := &recordingPublisher{err: errors.New("broker down")}
	w, env := do(t, newRouter(NewGinHandlers(o, nil, broken, nil)), http.MethodPost, "/api/v1/scenarios/scn/publish", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "INTERNAL_ERROR", env.Error.Code)
}
