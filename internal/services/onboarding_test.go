package services

import (
	"testing"

	"github.com/FTanBorn/tan-link-sub000/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestDerive(t *testing.T) {
	cases := []struct {
		name  string
		facts Facts
		want  Step
	}{
		{"not authenticated", Facts{}, StepRegister},
		{"no handle", Facts{Authenticated: true}, StepUsername},
		{"no links", Facts{Authenticated: true, HasHandle: true}, StepLinks},
		{"no theme", Facts{Authenticated: true, HasHandle: true, LinkCount: 2}, StepTheme},
		{"all facts met", Facts{Authenticated: true, HasHandle: true, LinkCount: 1, HasTheme: true}, StepPreview},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Derive(tc.facts))
		})
	}

	t.Run("Resume lands on the step matching facts", func(t *testing.T) {
		// Returning user with a handle but no links yet must resume at
		// links, not at register or username.
		facts := Facts{Authenticated: true, HasHandle: true, LinkCount: 0}
		assert.Equal(t, StepLinks, Derive(facts))
	})
}

func TestFlow(t *testing.T) {
	t.Run("NewFlow marks earlier steps completed", func(t *testing.T) {
		flow := NewFlow(Facts{Authenticated: true, HasHandle: true})
		assert.Equal(t, StepLinks, flow.Current())
		assert.True(t, flow.IsCompleted(StepRegister))
		assert.True(t, flow.IsCompleted(StepUsername))
		assert.False(t, flow.IsCompleted(StepLinks))
	})

	t.Run("Advance walks the sequence and stops at preview", func(t *testing.T) {
		flow := NewFlow(Facts{Authenticated: true, HasHandle: true, LinkCount: 1, HasTheme: true})
		assert.Equal(t, StepPreview, flow.Current())
		assert.True(t, flow.Done())

		assert.Equal(t, StepPreview, flow.Advance())
	})

	t.Run("Retreat stops at the first step", func(t *testing.T) {
		flow := NewFlow(Facts{})
		assert.Equal(t, StepRegister, flow.Current())
		assert.Equal(t, StepRegister, flow.Retreat())
	})

	t.Run("JumpTo backward is free", func(t *testing.T) {
		flow := NewFlow(Facts{Authenticated: true, HasHandle: true, LinkCount: 1})
		assert.Equal(t, StepTheme, flow.Current())

		assert.NoError(t, flow.JumpTo(StepUsername))
		assert.Equal(t, StepUsername, flow.Current())
	})

	t.Run("JumpTo forward requires the previous step completed", func(t *testing.T) {
		flow := NewFlow(Facts{Authenticated: true})
		assert.Equal(t, StepUsername, flow.Current())

		// links is not completed, so theme is out of reach.
		var ve *ValidationError
		assert.ErrorAs(t, flow.JumpTo(StepTheme), &ve)
		assert.Equal(t, StepUsername, flow.Current())

		flow.MarkCompleted(StepLinks)
		assert.NoError(t, flow.JumpTo(StepTheme))
		assert.Equal(t, StepTheme, flow.Current())
	})

	t.Run("JumpTo unknown step fails", func(t *testing.T) {
		flow := NewFlow(Facts{})
		var ve *ValidationError
		assert.ErrorAs(t, flow.JumpTo(Step("nirvana")), &ve)
	})

	t.Run("RestoreFlow merges session marks", func(t *testing.T) {
		flow := RestoreFlow(Facts{Authenticated: true}, []Step{StepLinks})
		assert.Equal(t, StepUsername, flow.Current())
		assert.True(t, flow.IsCompleted(StepLinks))

		assert.Equal(t, []Step{StepRegister, StepLinks}, flow.Completed())
	})
}

func TestOnboardingService_Facts(t *testing.T) {
	db := setupTestDB()
	links := newTestLinkService(db)
	service := NewOnboardingService(db, links)

	t.Run("Unknown identity is unauthenticated", func(t *testing.T) {
		facts, err := service.Facts("ghost")
		assert.NoError(t, err)
		assert.False(t, facts.Authenticated)
		assert.Equal(t, StepRegister, Derive(facts))
	})

	t.Run("Facts track the profile state", func(t *testing.T) {
		createTestProfile(db, "user-1", "u1@example.com")

		facts, err := service.Facts("user-1")
		assert.NoError(t, err)
		assert.True(t, facts.Authenticated)
		assert.False(t, facts.HasHandle)
		assert.Equal(t, StepUsername, Derive(facts))

		handle := "bob"
		assert.NoError(t, db.Model(&models.Profile{}).Where("identity = ?", "user-1").
			Update("handle", handle).Error)

		facts, err = service.Facts("user-1")
		assert.NoError(t, err)
		assert.True(t, facts.HasHandle)
		assert.Equal(t, StepLinks, Derive(facts))

		_, err = links.Add("user-1", LinkInput{Platform: models.PlatformGithub, RawURL: "bob"})
		assert.NoError(t, err)

		facts, err = service.Facts("user-1")
		assert.NoError(t, err)
		assert.Equal(t, 1, facts.LinkCount)
		assert.Equal(t, StepTheme, Derive(facts))

		theme := &models.ThemePreset{Name: "midnight", Background: "#000000"}
		assert.NoError(t, db.Model(&models.Profile{}).Where("identity = ?", "user-1").
			Update("theme", theme).Error)

		facts, err = service.Facts("user-1")
		assert.NoError(t, err)
		assert.True(t, facts.HasTheme)
		assert.Equal(t, StepPreview, Derive(facts))
	})
}
