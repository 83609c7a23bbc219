package handlers

import (
	"net/http"
	"strings"

	"github.com/FTanBorn/tan-link-sub000/internal/services"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const sessionKeyOnboarding = "onboarding_completed"

type JumpRequest struct {
	Step string `json:"step" binding:"required"`
}

type CompleteStepRequest struct {
	Step string `json:"step" binding:"required"`
}

// loadFlow rebuilds the onboarding flow from freshly loaded facts plus the
// session's completed marks. Facts are re-read on every request so a
// returning user resumes at the step matching reality.
func (h *Handler) loadFlow(c *gin.Context) (*services.Flow, services.Facts, error) {
	identity := currentIdentity(c)

	facts, err := h.onboardingService.Facts(identity)
	if err != nil {
		return nil, services.Facts{}, err
	}

	// The cookie store gob-encodes values, so completed steps travel as a
	// single comma-joined string.
	session := sessions.Default(c)
	var completed []services.Step
	if raw, ok := session.Get(sessionKeyOnboarding).(string); ok && raw != "" {
		for _, s := range strings.Split(raw, ",") {
			completed = append(completed, services.Step(s))
		}
	}

	return services.RestoreFlow(facts, completed), facts, nil
}

func (h *Handler) saveFlow(c *gin.Context, flow *services.Flow) {
	session := sessions.Default(c)
	var completed []string
	for _, s := range flow.Completed() {
		completed = append(completed, string(s))
	}
	session.Set(sessionKeyOnboarding, strings.Join(completed, ","))
	if err := session.Save(); err != nil {
		h.logger.Warn("Failed to persist onboarding session", "error", err)
	}
}

func flowResponse(flow *services.Flow, facts services.Facts) gin.H {
	return gin.H{
		"current":   flow.Current(),
		"completed": flow.Completed(),
		"done":      flow.Done(),
		"facts": gin.H{
			"has_handle": facts.HasHandle,
			"link_count": facts.LinkCount,
			"has_theme":  facts.HasTheme,
		},
	}
}

// ShowOnboarding derives the current setup step from persisted facts.
func (h *Handler) ShowOnboarding(c *gin.Context) {
	flow, facts, err := h.loadFlow(c)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, flowResponse(flow, facts))
}

func (h *Handler) AdvanceOnboarding(c *gin.Context) {
	flow, facts, err := h.loadFlow(c)
	if err != nil {
		writeError(c, err)
		return
	}
	flow.MarkCompleted(flow.Current())
	flow.Advance()
	h.saveFlow(c, flow)
	c.JSON(http.StatusOK, flowResponse(flow, facts))
}

func (h *Handler) RetreatOnboarding(c *gin.Context) {
	flow, facts, err := h.loadFlow(c)
	if err != nil {
		writeError(c, err)
		return
	}
	flow.Retreat()
	h.saveFlow(c, flow)
	c.JSON(http.StatusOK, flowResponse(flow, facts))
}

func (h *Handler) JumpOnboarding(c *gin.Context) {
	var req JumpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	flow, facts, err := h.loadFlow(c)
	if err != nil {
		writeError(c, err)
		return
	}
	if err := flow.JumpTo(services.Step(req.Step)); err != nil {
		writeError(c, err)
		return
	}
	h.saveFlow(c, flow)
	c.JSON(http.StatusOK, flowResponse(flow, facts))
}

// CompleteOnboardingStep marks a step done for this session only. Durable
// completion still comes from the step's side effect (handle claim, link
// add, theme save).
func (h *Handler) CompleteOnboardingStep(c *gin.Context) {
	var req CompleteStepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	flow, facts, err := h.loadFlow(c)
	if err != nil {
		writeError(c, err)
		return
	}
	flow.MarkCompleted(services.Step(req.Step))
	h.saveFlow(c, flow)
	c.JSON(http.StatusOK, flowResponse(flow, facts))
}
