package v1

import (
	"errors"
	"net/http"
	"strings"

	pkgzerolog "github.com/duynhne/pkg/logger/zerolog"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/duynhne/peek-service/internal/core/domain"
	logicv1 "github.com/duynhne/peek-service/internal/logic/v1"
	"github.com/duynhne/peek-service/middleware"
)

const actorKey = "actor"

// Handler groups HTTP handlers for the peek API v1.
// Dependencies are injected via the constructor; there is no global state.
type Handler struct {
	auth       *logicv1.AuthService
	sessions   *logicv1.SessionService
	peek       *logicv1.PeekService
	analytics  *logicv1.AnalyticsService
	idem       *Idempotency
	adminEmail string
}

// NewHandler creates a new Handler. An empty adminEmail disables the admin API.
func NewHandler(
	auth *logicv1.AuthService,
	sessions *logicv1.SessionService,
	peek *logicv1.PeekService,
	analytics *logicv1.AnalyticsService,
	idem *Idempotency,
	adminEmail string,
) *Handler {
	return &Handler{
		auth:       auth,
		sessions:   sessions,
		peek:       peek,
		analytics:  analytics,
		idem:       idem,
		adminEmail: strings.ToLower(strings.TrimSpace(adminEmail)),
	}
}

// RegisterRoutes registers all API v1 routes on the given router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/auth/login", h.Login)
	rg.POST("/auth/register", h.Register)

	authed := rg.Group("", h.RequireUser)
	authed.GET("/auth/me", h.GetMe)

	authed.GET("/sessions", h.ListSessions)
	authed.POST("/sessions", h.CreateSession)
	authed.GET("/sessions/:id", h.GetSession)
	authed.PATCH("/sessions/:id", h.UpdateSession)
	authed.DELETE("/sessions/:id", h.DeleteSession)
	authed.POST("/sessions/:id/peek", h.Peek)

	admin := authed.Group("/admin", h.RequireAdmin)
	admin.GET("/stats", h.Stats)
	admin.GET("/activity", h.Activity)
}

// startSpan starts the web-layer span and makes it the request context.
func startSpan(c *gin.Context) trace.Span {
	ctx, span := middleware.StartSpan(c.Request.Context(), "http.request", trace.WithAttributes(
		attribute.String("layer", "web"),
		attribute.String("method", c.Request.Method),
		attribute.String("path", c.FullPath()),
	))
	c.Request = c.Request.WithContext(ctx)
	return span
}

// bearerToken extracts the token of an "Authorization: Bearer <token>" header.
func bearerToken(c *gin.Context) (string, bool) {
	const prefix = "Bearer "
	header := c.GetHeader("Authorization")
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	return strings.TrimSpace(header[len(prefix):]), true
}

// RequireUser resolves the bearer token to the calling user and stores it as
// the request actor. Requests without a valid token are rejected with 401.
func (h *Handler) RequireUser(c *gin.Context) {
	token, ok := bearerToken(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
		return
	}

	user, err := h.auth.GetUserByToken(c.Request.Context(), token)
	if err != nil {
		pkgzerolog.FromContext(c.Request.Context()).Warn().Err(err).Msg("Token lookup failed")
		switch {
		case errors.Is(err, logicv1.ErrTokenNotFound):
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
		case errors.Is(err, logicv1.ErrTokenExpired):
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token expired"})
		default:
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "Storage unavailable, retry"})
		}
		return
	}

	c.Set(actorKey, domain.Actor{ID: user.ID, Email: user.Email})
	c.Set(middleware.UserIDKey, user.ID)
	c.Next()
}

// RequireAdmin allows only the configured admin email through.
func (h *Handler) RequireAdmin(c *gin.Context) {
	actor := actorFrom(c)
	if h.adminEmail == "" || actor.Email != h.adminEmail {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Access denied. Admin privileges required."})
		return
	}
	c.Next()
}

func actorFrom(c *gin.Context) domain.Actor {
	v, _ := c.Get(actorKey)
	actor, _ := v.(domain.Actor)
	return actor
}

// errorStatus maps logic errors to an HTTP status and a client-safe message.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, logicv1.ErrSessionNotFound):
		return http.StatusNotFound, "Session not found"
	case errors.Is(err, logicv1.ErrNoIdeas):
		return http.StatusBadRequest, "No ideas in this session"
	case errors.Is(err, logicv1.ErrInvalidInput):
		return http.StatusBadRequest, invalidInputMessage(err)
	case errors.Is(err, logicv1.ErrUserExists):
		return http.StatusConflict, "User already exists"
	case errors.Is(err, logicv1.ErrInvalidCredentials), errors.Is(err, logicv1.ErrUserNotFound):
		return http.StatusUnauthorized, "Invalid credentials"
	case errors.Is(err, logicv1.ErrTokenNotFound), errors.Is(err, logicv1.ErrTokenExpired):
		return http.StatusUnauthorized, "Invalid or expired token"
	case errors.Is(err, logicv1.ErrForbidden):
		return http.StatusForbidden, "Forbidden"
	case errors.Is(err, logicv1.ErrStorage):
		return http.StatusServiceUnavailable, "Storage unavailable, retry"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

// invalidInputMessage strips the wrapping context and the sentinel suffix,
// leaving the innermost validation message.
func invalidInputMessage(err error) string {
	msg := strings.TrimSuffix(err.Error(), ": "+logicv1.ErrInvalidInput.Error())
	if i := strings.LastIndex(msg, ": "); i >= 0 {
		msg = msg[i+2:]
	}
	if msg == "" {
		return "Invalid input"
	}
	return msg
}

// fail records err on the span, logs it and writes the mapped error response.
func fail(c *gin.Context, span trace.Span, err error, msg string) {
	span.RecordError(err)
	status, body := errorStatus(err)
	logger := pkgzerolog.FromContext(c.Request.Context())
	if status >= http.StatusInternalServerError {
		logger.Error().Err(err).Msg(msg)
	} else {
		logger.Warn().Err(err).Msg(msg)
	}
	c.JSON(status, gin.H{"error": body})
}
