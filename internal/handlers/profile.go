package handlers

import (
	"io"
	"net/http"

	"github.com/FTanBorn/tan-link-sub000/internal/models"
	"github.com/FTanBorn/tan-link-sub000/internal/services"

	"github.com/gin-gonic/gin"
)

type UpdateProfileRequest struct {
	DisplayName *string `json:"display_name,omitempty"`
	Bio         *string `json:"bio,omitempty" binding:"omitempty,max=150"`
}

type ClaimHandleRequest struct {
	Handle string `json:"handle" binding:"required"`
}

// ShowMyProfile returns the owner's own profile record.
func (h *Handler) ShowMyProfile(c *gin.Context) {
	identity := currentIdentity(c)

	var profile models.Profile
	if err := h.db.Where("identity = ?", identity).First(&profile).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Profile not found"})
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	identity := currentIdentity(c)

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updates := map[string]interface{}{}
	if req.DisplayName != nil {
		updates["display_name"] = *req.DisplayName
	}
	if req.Bio != nil {
		updates["bio"] = *req.Bio
	}
	if len(updates) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Nothing to update"})
		return
	}

	if err := h.db.Model(&models.Profile{}).Where("identity = ?", identity).
		Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update profile"})
		return
	}

	h.invalidateSnapshot(c, identity)
	c.JSON(http.StatusOK, gin.H{"message": "Profile updated"})
}

// ClaimHandle runs the registry claim for the owner's identity.
func (h *Handler) ClaimHandle(c *gin.Context) {
	identity := currentIdentity(c)

	var req ClaimHandleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var before models.Profile
	h.db.Where("identity = ?", identity).First(&before)

	if err := h.registryService.Claim(identity, req.Handle); err != nil {
		writeError(c, err)
		return
	}

	// Drop both cache entries after the claim commits. Invalidating the old
	// handle earlier would race a visitor re-caching it before the release.
	if before.Handle != nil {
		h.resolverService.Invalidate(c.Request.Context(), *before.Handle)
	}
	h.resolverService.Invalidate(c.Request.Context(), req.Handle)

	c.JSON(http.StatusOK, gin.H{"message": "Handle claimed"})
}

// CheckHandle reports availability for the owner without claiming.
func (h *Handler) CheckHandle(c *gin.Context) {
	identity := currentIdentity(c)
	handle := c.Query("handle")

	if err := h.registryService.ValidateFormat(handle); err != nil {
		writeError(c, err)
		return
	}

	available, err := h.registryService.IsAvailable(identity, handle)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"available": available})
}

// UpdateTheme stores the theme preset as one unit; null clears it back to
// default rendering.
func (h *Handler) UpdateTheme(c *gin.Context) {
	identity := currentIdentity(c)

	var theme *models.ThemePreset
	if err := c.ShouldBindJSON(&theme); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.db.Model(&models.Profile{}).Where("identity = ?", identity).
		Update("theme", theme).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update theme"})
		return
	}

	h.invalidateSnapshot(c, identity)
	c.JSON(http.StatusOK, gin.H{"message": "Theme updated"})
}

// UploadPhoto stores the profile photo in the blob store and records its URL.
func (h *Handler) UploadPhoto(c *gin.Context) {
	identity := currentIdentity(c)

	file, err := c.FormFile("photo")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing photo file"})
		return
	}

	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot read photo file"})
		return
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot read photo file"})
		return
	}

	url, err := h.blobStore.Put(identity+".img", data)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store photo"})
		return
	}

	if err := h.db.Model(&models.Profile{}).Where("identity = ?", identity).
		Update("photo_ref", url).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update profile"})
		return
	}

	h.invalidateSnapshot(c, identity)
	c.JSON(http.StatusOK, gin.H{"photo_ref": url})
}

func (h *Handler) DeletePhoto(c *gin.Context) {
	identity := currentIdentity(c)

	if err := h.blobStore.Delete(identity + ".img"); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete photo"})
		return
	}
	if err := h.db.Model(&models.Profile{}).Where("identity = ?", identity).
		Update("photo_ref", nil).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update profile"})
		return
	}

	h.invalidateSnapshot(c, identity)
	c.JSON(http.StatusOK, gin.H{"message": "Photo deleted"})
}

// ShowQRCode renders the share-URL QR code, tinted with the profile theme.
func (h *Handler) ShowQRCode(c *gin.Context) {
	identity := currentIdentity(c)

	var profile models.Profile
	if err := h.db.Where("identity = ?", identity).First(&profile).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Profile not found"})
		return
	}
	if profile.Handle == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Claim a handle first"})
		return
	}

	opts := h.qrOptions(profile)
	if c.Query("format") == "svg" {
		svg, err := h.qrService.GenerateSVG(opts)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate QR code"})
			return
		}
		c.Data(http.StatusOK, "image/svg+xml", []byte(svg))
		return
	}

	pngBytes, err := h.qrService.GeneratePNG(opts)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate QR code"})
		return
	}
	c.Data(http.StatusOK, "image/png", pngBytes)
}

func (h *Handler) qrOptions(profile models.Profile) services.QROptions {
	opts := services.QROptions{
		Content: h.cfg.BaseURL + "/" + *profile.Handle,
		Size:    256,
		FgColor: "#000000",
		BgColor: "#FFFFFF",
	}
	if profile.Theme != nil {
		if profile.Theme.ButtonFill != "" {
			opts.FgColor = profile.Theme.ButtonFill
		}
		if profile.Theme.Background != "" {
			opts.BgColor = profile.Theme.Background
		}
	}
	return opts
}

// invalidateSnapshot drops the cached public snapshot for the identity's
// current handle after a mutation.
func (h *Handler) invalidateSnapshot(c *gin.Context, identity string) {
	var profile models.Profile
	if err := h.db.Where("identity = ?", identity).First(&profile).Error; err != nil {
		return
	}
	if profile.Handle != nil {
		h.resolverService.Invalidate(c.Request.Context(), *profile.Handle)
	}
}
