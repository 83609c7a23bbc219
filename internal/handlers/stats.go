package handlers

import (
	"net/http"

	"github.com/FTanBorn/tan-link-sub000/internal/models"

	"github.com/gin-gonic/gin"
)

// ShowStats is the owner dashboard: totals, CTR and the per-link ranking.
func (h *Handler) ShowStats(c *gin.Context) {
	identity := currentIdentity(c)

	links, err := h.linkService.List(identity)
	if err != nil {
		writeError(c, err)
		return
	}

	stats, err := h.statsService.ComputeStats(identity, links)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// ShowViewBuckets returns the profile's daily or monthly view series.
func (h *Handler) ShowViewBuckets(c *gin.Context) {
	identity := currentIdentity(c)
	period := bucketPeriod(c)

	buckets, err := h.statsService.Buckets(models.BucketScopeView, identity, period)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"period": period, "buckets": buckets})
}

// ShowClickBuckets returns one link's daily or monthly click series. The
// link must belong to the requesting identity.
func (h *Handler) ShowClickBuckets(c *gin.Context) {
	identity := currentIdentity(c)
	linkID := c.Param("link_id")
	period := bucketPeriod(c)

	var link models.Link
	if err := h.db.Where("id = ? AND profile_id = ?", linkID, identity).First(&link).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Link not found"})
		return
	}

	buckets, err := h.statsService.Buckets(models.BucketScopeClick, linkID, period)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"period": period, "buckets": buckets})
}

func bucketPeriod(c *gin.Context) string {
	if c.Query("period") == models.BucketPeriodMon {
		return models.BucketPeriodMon
	}
	return models.BucketPeriodDay
}
