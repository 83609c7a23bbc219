package handlers

import (
	"errors"
	"net/http"

	"github.com/FTanBorn/tan-link-sub000/internal/models"
	"github.com/FTanBorn/tan-link-sub000/internal/services"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// AuthRequired accepts either a logged-in session or an X-API-Key header and
// stores the resolved identity in the request context.
func (h *Handler) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		if identity, ok := session.Get("identity").(string); ok && identity != "" {
			c.Set("identity", identity)
			c.Next()
			return
		}

		apiKey := c.GetHeader("X-API-Key")
		if apiKey != "" {
			var profile models.Profile
			if err := h.db.Where("api_key = ?", apiKey).First(&profile).Error; err == nil {
				c.Set("identity", profile.Identity)
				c.Next()
				return
			}
		}

		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		c.Abort()
	}
}

func (h *Handler) RateLimitMiddleware(limiter *services.IPRateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Rate limit exceeded. Please try again later.",
			})
			return
		}
		c.Next()
	}
}

// currentIdentity reads the identity set by AuthRequired.
func currentIdentity(c *gin.Context) string {
	if v, exists := c.Get("identity"); exists {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

// writeError maps the service error taxonomy onto HTTP responses.
func writeError(c *gin.Context, err error) {
	var ve *services.ValidationError
	var ce *services.ConflictError
	var nf *services.NotFoundError

	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, gin.H{"error": ve.Error()})
	case errors.As(err, &ce):
		c.JSON(http.StatusConflict, gin.H{"error": ce.Error()})
	case errors.As(err, &nf):
		c.JSON(http.StatusNotFound, gin.H{"error": nf.Error()})
	case services.IsTransient(err):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Temporary storage failure, please retry"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
