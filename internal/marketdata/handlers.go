package marketdata

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ksred/klear-datagen/pkg/response"
)

// GinHandlers contains HTTP handlers for market reference data
type GinHandlers struct {
	cache *Cache
}

func NewGinHandlers(cache *Cache) *GinHandlers {
	return &GinHandlers{cache: cache}
}

// GetSnapshotHandler returns the current snapshot for a symbol. It never
// fails for a well-formed symbol: unknown or unreachable symbols get the
// fallback reference data.
// URL parameter: symbol
func (h *GinHandlers) GetSnapshotHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		symbol := strings.ToUpper(strings.TrimSpace(c.Param("symbol")))
		if symbol == "" {
			response.BadRequest(c, "Symbol is required")
			return
		}
		response.Success(c, h.cache.GetSnapshot(c.Request.Context(), symbol))
	}
}
