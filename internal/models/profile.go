package models

import (
	"time"
)

// Profile is the per-identity record backing a public page. The Identity key
// is issued by the auth layer on registration and never changes; Handle stays
// nil until the user claims one through the registry.
type Profile struct {
	Identity     string       `gorm:"primaryKey;size:64" json:"identity"`
	Handle       *string      `gorm:"uniqueIndex;size:20" json:"handle,omitempty"`
	DisplayName  string       `gorm:"size:120" json:"display_name"`
	Bio          string       `gorm:"size:150" json:"bio"`
	PhotoRef     *string      `gorm:"size:255" json:"photo_ref,omitempty"`
	Theme        *ThemePreset `gorm:"type:text;serializer:json" json:"theme,omitempty"`
	Email        string       `gorm:"unique;not null;size:120" json:"-"`
	PasswordHash string       `gorm:"not null;size:255" json:"-"`
	APIKey       string       `gorm:"unique;index;size:36" json:"-"`
	CreatedAt    time.Time    `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`

	Links []Link `gorm:"foreignKey:ProfileID" json:"links,omitempty"`
}

// ThemePreset is stored and returned as one unit; the renderer interprets it.
type ThemePreset struct {
	Name       string `json:"name"`
	Background string `json:"background"`
	ButtonFill string `json:"button_fill"`
	ButtonText string `json:"button_text"`
	TextColor  string `json:"text_color"`
}
