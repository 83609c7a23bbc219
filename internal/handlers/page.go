package handlers

import (
	"net/http"
	"time"

	"github.com/FTanBorn/tan-link-sub000/internal/services"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// ShowPage is the public read surface: resolve the handle into a snapshot
// and return it. The view event is queued fire-and-forget; stats problems
// never block page delivery.
func (h *Handler) ShowPage(c *gin.Context) {
	handle := c.Param("handle")

	snap, err := h.resolverService.Resolve(c.Request.Context(), handle)
	if err != nil {
		if services.IsNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Page not found"})
			return
		}
		writeError(c, err)
		return
	}

	h.statsService.RecordViewAsync(services.StatEvent{
		ProfileID:     snap.Profile.Identity,
		IPAddress:     c.ClientIP(),
		UserAgent:     c.Request.UserAgent(),
		VisitorHandle: h.visitorHandle(c),
		At:            time.Now(),
	})

	c.JSON(http.StatusOK, snap)
}

// FollowLink redirects the visitor to the stored URL for one of the page's
// links, recording the click asynchronously.
func (h *Handler) FollowLink(c *gin.Context) {
	handle := c.Param("handle")
	linkID := c.Param("link_id")

	snap, err := h.resolverService.Resolve(c.Request.Context(), handle)
	if err != nil {
		if services.IsNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Page not found"})
			return
		}
		writeError(c, err)
		return
	}

	for _, l := range snap.Links {
		if l.ID == linkID {
			h.statsService.RecordClickAsync(services.StatEvent{
				ProfileID: snap.Profile.Identity,
				LinkID:    l.ID,
				Platform:  l.Platform,
				URL:       l.URL,
				IPAddress: c.ClientIP(),
				UserAgent: c.Request.UserAgent(),
				At:        time.Now(),
			})
			c.Redirect(http.StatusFound, l.URL)
			return
		}
	}

	c.JSON(http.StatusNotFound, gin.H{"error": "Link not found"})
}

// visitorHandle returns the logged-in visitor's own handle for the
// last-visitor display, when there is one.
func (h *Handler) visitorHandle(c *gin.Context) string {
	session := sessions.Default(c)
	identity, ok := session.Get("identity").(string)
	if !ok || identity == "" {
		return ""
	}
	var handle *string
	h.db.Table("profiles").Where("identity = ?", identity).Select("handle").Scan(&handle)
	if handle == nil {
		return ""
	}
	return *handle
}
