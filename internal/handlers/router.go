package handlers

import (
	"github.com/FTanBorn/tan-link-sub000/internal/services"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

func (h *Handler) SetupRouter(rateLimiter *services.IPRateLimiter) *gin.Engine {
	r := gin.Default()

	if rateLimiter != nil {
		r.Use(h.RateLimitMiddleware(rateLimiter))
	}

	store := cookie.NewStore([]byte(h.cfg.SessionSecret))
	r.Use(sessions.Sessions("tanlink_session", store))

	if h.cfg.UploadDir != "" {
		r.Static("/uploads", h.cfg.UploadDir)
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "healthy"})
	})

	// Identity surface
	r.POST("/api/register", h.RegisterUser)
	r.POST("/api/login", h.LoginUser)
	r.POST("/api/logout", h.LogoutUser)

	// Owner-authenticated surface
	authorized := r.Group("/api/v1")
	authorized.Use(h.AuthRequired())
	{
		authorized.GET("/profile", h.ShowMyProfile)
		authorized.PATCH("/profile", h.UpdateProfile)
		authorized.PUT("/profile/handle", h.ClaimHandle)
		authorized.GET("/profile/handle/check", h.CheckHandle)
		authorized.PUT("/profile/theme", h.UpdateTheme)
		authorized.POST("/profile/photo", h.UploadPhoto)
		authorized.DELETE("/profile/photo", h.DeletePhoto)
		authorized.GET("/profile/qr", h.ShowQRCode)

		authorized.GET("/links", h.ListLinks)
		authorized.POST("/links", h.AddLink)
		authorized.PUT("/links/reorder", h.ReorderLinks)
		authorized.PATCH("/links/:link_id", h.UpdateLink)
		authorized.DELETE("/links/:link_id", h.DeleteLink)
		authorized.POST("/links/:link_id/move", h.MoveLink)

		authorized.GET("/stats", h.ShowStats)
		authorized.GET("/stats/views", h.ShowViewBuckets)
		authorized.GET("/stats/links/:link_id", h.ShowClickBuckets)

		authorized.GET("/onboarding", h.ShowOnboarding)
		authorized.POST("/onboarding/advance", h.AdvanceOnboarding)
		authorized.POST("/onboarding/retreat", h.RetreatOnboarding)
		authorized.POST("/onboarding/jump", h.JumpOnboarding)
		authorized.POST("/onboarding/complete", h.CompleteOnboardingStep)

		authorized.POST("/auth/apikey", h.GenerateNewAPIKey)
	}

	// Public page surface
	r.GET("/:handle", h.ShowPage)
	r.GET("/:handle/:link_id", h.FollowLink)

	return r
}
