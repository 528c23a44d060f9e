package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"

	"github.com/duynhne/peek-service/internal/core/domain"
)

// ListSessions handles GET /api/v1/sessions?search=.
func (h *Handler) ListSessions(c *gin.Context) {
	span := startSpan(c)
	defer span.End()

	list, err := h.sessions.List(c.Request.Context(), actorFrom(c).ID, c.Query("search"))
	if err != nil {
		fail(c, span, err, "List sessions failed")
		return
	}
	c.JSON(http.StatusOK, list)
}

// CreateSession handles POST /api/v1/sessions.
func (h *Handler) CreateSession(c *gin.Context) {
	span := startSpan(c)
	defer span.End()

	var req domain.SessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.SetAttributes(attribute.Bool("request.valid", false))
		span.RecordError(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	session, err := h.sessions.Create(c.Request.Context(), actorFrom(c).ID, req)
	if err != nil {
		fail(c, span, err, "Create session failed")
		return
	}
	c.JSON(http.StatusCreated, session)
}

// GetSession handles GET /api/v1/sessions/:id.
func (h *Handler) GetSession(c *gin.Context) {
	span := startSpan(c)
	defer span.End()

	session, err := h.sessions.Get(c.Request.Context(), c.Param("id"), actorFrom(c).ID)
	if err != nil {
		fail(c, span, err, "Get session failed")
		return
	}
	c.JSON(http.StatusOK, session)
}

// UpdateSession handles PATCH /api/v1/sessions/:id.
func (h *Handler) UpdateSession(c *gin.Context) {
	span := startSpan(c)
	defer span.End()

	var req domain.SessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.SetAttributes(attribute.Bool("request.valid", false))
		span.RecordError(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	session, err := h.sessions.Update(c.Request.Context(), c.Param("id"), actorFrom(c).ID, req)
	if err != nil {
		fail(c, span, err, "Update session failed")
		return
	}
	c.JSON(http.StatusOK, session)
}

// DeleteSession handles DELETE /api/v1/sessions/:id.
func (h *Handler) DeleteSession(c *gin.Context) {
	span := startSpan(c)
	defer span.End()

	if err := h.sessions.Delete(c.Request.Context(), c.Param("id"), actorFrom(c).ID); err != nil {
		fail(c, span, err, "Delete session failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Session deleted successfully"})
}
