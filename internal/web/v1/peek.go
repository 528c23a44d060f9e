package v1

import (
	"net/http"

	pkgzerolog "github.com/duynhne/pkg/logger/zerolog"
	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"go.opentelemetry.io/otel/attribute"

	"github.com/duynhne/peek-service/internal/core/domain"
)

const jsonContentType = "application/json; charset=utf-8"

// Peek handles POST /api/v1/sessions/:id/peek.
//
// With an Idempotency-Key header, a retried request replays the first
// successful response instead of peeking again. Without it every request is
// a new peek.
func (h *Handler) Peek(c *gin.Context) {
	span := startSpan(c)
	defer span.End()

	actor := actorFrom(c)
	sessionID := c.Param("id")
	span.SetAttributes(attribute.String("session.id", sessionID))

	run := func() (int, []byte) {
		res, err := h.peek.Peek(c.Request.Context(), sessionID, actor)
		if err != nil {
			span.RecordError(err)
			status, msg := errorStatus(err)
			logger := pkgzerolog.FromContext(c.Request.Context())
			if status >= http.StatusInternalServerError {
				logger.Error().Err(err).Str("session_id", sessionID).Msg("Peek failed")
			} else {
				logger.Warn().Err(err).Str("session_id", sessionID).Msg("Peek rejected")
			}
			body, _ := json.Marshal(gin.H{"error": msg})
			return status, body
		}
		body, err := json.Marshal(domain.PeekResponse{SelectedIdea: res.SelectedIdea, PeekCount: res.PeekCount})
		if err != nil {
			span.RecordError(err)
			return http.StatusInternalServerError, []byte(`{"error":"Internal server error"}`)
		}
		return http.StatusOK, body
	}

	var (
		status   int
		body     []byte
		replayed bool
	)
	if key := c.GetHeader(IdempotencyKeyHeader); key != "" {
		status, body, replayed = h.idem.Do(IdempotencyKey(actor.ID, "peek", sessionID, key), run)
	} else {
		status, body = run()
	}

	span.SetAttributes(attribute.Bool("idempotent.replayed", replayed))
	if replayed {
		c.Header(IdempotentReplayHeader, "true")
	}
	c.Data(status, jsonContentType, body)
}
