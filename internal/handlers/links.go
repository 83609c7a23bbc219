package handlers

import (
	"net/http"

	"github.com/FTanBorn/tan-link-sub000/internal/models"
	"github.com/FTanBorn/tan-link-sub000/internal/services"

	"github.com/gin-gonic/gin"
)

type AddLinkRequest struct {
	Platform string `json:"platform" binding:"required"`
	Title    string `json:"title"`
	URL      string `json:"url" binding:"required"`
}

type UpdateLinkRequest struct {
	Platform *string `json:"platform,omitempty"`
	Title    *string `json:"title,omitempty"`
	URL      *string `json:"url,omitempty"`
}

type ReorderRequest struct {
	Order []string `json:"order" binding:"required"`
}

type MoveLinkRequest struct {
	Direction string `json:"direction" binding:"required,oneof=up down"`
}

func (h *Handler) ListLinks(c *gin.Context) {
	identity := currentIdentity(c)

	links, err := h.linkService.List(identity)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"links": links})
}

func (h *Handler) AddLink(c *gin.Context) {
	identity := currentIdentity(c)

	var req AddLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	link, err := h.linkService.Add(identity, services.LinkInput{
		Platform: models.Platform(req.Platform),
		Title:    req.Title,
		RawURL:   req.URL,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	h.invalidateSnapshot(c, identity)
	c.JSON(http.StatusCreated, link)
}

func (h *Handler) UpdateLink(c *gin.Context) {
	identity := currentIdentity(c)
	linkID := c.Param("link_id")

	var req UpdateLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	update := services.LinkUpdate{Title: req.Title, RawURL: req.URL}
	if req.Platform != nil {
		p := models.Platform(*req.Platform)
		update.Platform = &p
	}

	link, err := h.linkService.Update(linkID, update)
	if err != nil {
		writeError(c, err)
		return
	}

	h.invalidateSnapshot(c, identity)
	c.JSON(http.StatusOK, link)
}

func (h *Handler) DeleteLink(c *gin.Context) {
	identity := currentIdentity(c)
	linkID := c.Param("link_id")

	if err := h.linkService.Delete(identity, linkID); err != nil {
		writeError(c, err)
		return
	}

	h.invalidateSnapshot(c, identity)
	c.JSON(http.StatusOK, gin.H{"message": "Link deleted"})
}

func (h *Handler) ReorderLinks(c *gin.Context) {
	identity := currentIdentity(c)

	var req ReorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.linkService.Reorder(identity, req.Order); err != nil {
		writeError(c, err)
		return
	}

	h.invalidateSnapshot(c, identity)
	c.JSON(http.StatusOK, gin.H{"message": "Links reordered"})
}

func (h *Handler) MoveLink(c *gin.Context) {
	identity := currentIdentity(c)
	linkID := c.Param("link_id")

	var req MoveLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.linkService.MoveAdjacent(identity, linkID, req.Direction); err != nil {
		writeError(c, err)
		return
	}

	h.invalidateSnapshot(c, identity)
	c.JSON(http.StatusOK, gin.H{"message": "Link moved"})
}
