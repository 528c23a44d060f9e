package v1

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"

	logicv1 "github.com/duynhne/peek-service/internal/logic/v1"
)

// Stats handles GET /api/v1/admin/stats.
func (h *Handler) Stats(c *gin.Context) {
	span := startSpan(c)
	defer span.End()

	stats, err := h.analytics.Stats(c.Request.Context())
	if err != nil {
		fail(c, span, err, "Stats failed")
		return
	}
	c.JSON(http.StatusOK, stats)
}

// Activity handles GET /api/v1/admin/activity?limit=.
func (h *Handler) Activity(c *gin.Context) {
	span := startSpan(c)
	defer span.End()

	limit := logicv1.DefaultActivityLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			span.SetAttributes(attribute.Bool("request.valid", false))
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}

	items, err := h.analytics.RecentActivity(c.Request.Context(), limit)
	if err != nil {
		fail(c, span, err, "Activity failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"recentActivity": items})
}
