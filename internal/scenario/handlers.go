package scenario

import (
	"context"
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/ksred/klear-datagen/internal/events"
	"github.com/ksred/klear-datagen/internal/types"
	"github.com/ksred/klear-datagen/pkg/response"
)

// Seeder writes a dataset into a relational store
type Seeder interface {
	Seed(ctx context.Context, d *types.Dataset) (*types.SeedResponse, error)
}

// GinHandlers contains HTTP handlers for scenario endpoints
type GinHandlers struct {
	orchestrator *Orchestrator
	store        DocumentStore
	publisher    events.Publisher
	seeder       Seeder
}

// NewGinHandlers wires the handlers. store, publisher and seeder may be nil,
// which disables document fallback, publishing and seeding respectively.
func NewGinHandlers(orchestrator *Orchestrator, store DocumentStore, publisher events.Publisher, seeder Seeder) *GinHandlers {
	return &GinHandlers{
		orchestrator: orchestrator,
		store:        store,
		publisher:    publisher,
		seeder:       seeder,
	}
}

// GenerateTradeHandler handles POST requests to generate a trade scenario
// Request body: TradeScenarioRequest
func (h *GinHandlers) GenerateTradeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req TradeScenarioRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, "Invalid request body")
			return
		}
		d, err := h.orchestrator.GenerateTradeScenario(c.Request.Context(), req.ScenarioID, req.Symbols, req.TradesPerSymbol)
		if err != nil {
			response.Handle(c, nil, err)
			return
		}
		h.persist(c.Request.Context(), d)
		response.Success(c, types.Summarize(d))
	}
}

// GenerateRoundTripHandler handles POST requests to generate a round-trip scenario
func (h *GinHandlers) GenerateRoundTripHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RoundTripRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, "Invalid request body")
			return
		}
		d, err := h.orchestrator.GenerateRoundTripScenario(c.Request.Context(), req.ScenarioID, req.Symbol)
		if err != nil {
			response.Handle(c, nil, err)
			return
		}
		h.persist(c.Request.Context(), d)
		response.Success(c, types.Summarize(d))
	}
}

// ListHandler returns a summary of every registered scenario
func (h *GinHandlers) ListHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		all := h.orchestrator.Registry().All()
		summaries := make([]types.ScenarioSummary, 0, len(all))
		for _, d := range all {
			summaries = append(summaries, types.Summarize(d))
		}
		response.Success(c, summaries)
	}
}

// GetHandler returns a full dataset
// URL parameter: scenario_id
func (h *GinHandlers) GetHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		d, err := h.lookup(c.Request.Context(), c.Param("scenario_id"))
		response.Handle(c, d, err)
	}
}

// PublishHandler sends a scenario's derived events to the message bus
// Requires internal authentication
func (h *GinHandlers) PublishHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if h.publisher == nil {
			response.InternalError(c, "Event publishing is not configured")
			return
		}
		d, err := h.lookup(c.Request.Context(), c.Param("scenario_id"))
		if err != nil {
			response.Handle(c, nil, err)
			return
		}
		if err := h.publisher.Publish(c.Request.Context(), d.DerivedEvents); err != nil {
			log.Error().Err(err).Str("scenario_id", d.ScenarioID).Msg("failed to publish events")
			response.InternalError(c, "Failed to publish events")
			return
		}
		response.Success(c, types.PublishResponse{
			ScenarioID: d.ScenarioID,
			Published:  len(d.DerivedEvents),
			Timestamp:  time.Now().UTC(),
		})
	}
}

// SeedHandler writes a scenario's records to the database
// Requires internal authentication
func (h *GinHandlers) SeedHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if h.seeder == nil {
			response.InternalError(c, "Database seeding is not configured")
			return
		}
		d, err := h.lookup(c.Request.Context(), c.Param("scenario_id"))
		if err != nil {
			response.Handle(c, nil, err)
			return
		}
		resp, err := h.seeder.Seed(c.Request.Context(), d)
		if err != nil {
			log.Error().Err(err).Str("scenario_id", d.ScenarioID).Msg("failed to seed scenario")
		}
		response.Handle(c, resp, err)
	}
}

// lookup prefers the in-memory registry and falls back to the document store
func (h *GinHandlers) lookup(ctx context.Context, scenarioID string) (*types.Dataset, error) {
	registry := h.orchestrator.Registry()
	d, err := registry.Get(scenarioID)
	if err == nil || h.store == nil {
		return d, err
	}
	stored, loadErr := h.store.Load(ctx, scenarioID)
	if loadErr != nil {
		if errors.Is(loadErr, ErrScenarioNotFound) {
			return nil, err
		}
		return nil, loadErr
	}
	registry.Put(stored)
	return stored, nil
}

func (h *GinHandlers) persist(ctx context.Context, d *types.Dataset) {
	if h.store == nil {
		return
	}
	if err := h.store.Save(ctx, d); err != nil {
		log.Error().Err(err).Str("scenario_id", d.ScenarioID).Msg("failed to persist scenario document")
	}
}
