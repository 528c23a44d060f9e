package v1

import (
	"net/http"

	pkgzerolog "github.com/duynhne/pkg/logger/zerolog"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"

	"github.com/duynhne/peek-service/internal/core/domain"
)

// Login handles POST /api/v1/auth/login.
func (h *Handler) Login(c *gin.Context) {
	span := startSpan(c)
	defer span.End()

	var req domain.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.SetAttributes(attribute.Bool("request.valid", false))
		span.RecordError(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	span.SetAttributes(attribute.Bool("request.valid", true))

	resp, err := h.auth.Login(c.Request.Context(), req)
	if err != nil {
		fail(c, span, err, "Login failed")
		return
	}

	pkgzerolog.FromContext(c.Request.Context()).Info().Str("user_id", resp.User.ID).Msg("Login successful")
	c.JSON(http.StatusOK, resp)
}

// Register handles POST /api/v1/auth/register.
func (h *Handler) Register(c *gin.Context) {
	span := startSpan(c)
	defer span.End()

	var req domain.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.SetAttributes(attribute.Bool("request.valid", false))
		span.RecordError(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	span.SetAttributes(attribute.Bool("request.valid", true))

	resp, err := h.auth.Register(c.Request.Context(), req)
	if err != nil {
		fail(c, span, err, "Registration failed")
		return
	}

	pkgzerolog.FromContext(c.Request.Context()).Info().Str("user_id", resp.User.ID).Msg("Registration successful")
	c.JSON(http.StatusCreated, resp)
}

// GetMe handles GET /api/v1/auth/me. RequireUser has already resolved the token.
func (h *Handler) GetMe(c *gin.Context) {
	span := startSpan(c)
	defer span.End()

	token, _ := bearerToken(c)
	user, err := h.auth.GetUserByToken(c.Request.Context(), token)
	if err != nil {
		fail(c, span, err, "Token lookup failed")
		return
	}
	c.JSON(http.StatusOK, user)
}
