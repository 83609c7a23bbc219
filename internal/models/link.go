package models

import (
	"time"
)

type Platform string

const (
	PlatformInstagram Platform = "instagram"
	PlatformGithub    Platform = "github"
	PlatformYoutube   Platform = "youtube"
	PlatformWhatsapp  Platform = "whatsapp"
	PlatformTwitter   Platform = "twitter"
	PlatformFacebook  Platform = "facebook"
	PlatformLinkedin  Platform = "linkedin"
	PlatformTelegram  Platform = "telegram"
	PlatformEmail     Platform = "email"
	PlatformWebsite   Platform = "website"
)

var platformTitles = map[Platform]string{
	PlatformInstagram: "Instagram",
	PlatformGithub:    "GitHub",
	PlatformYoutube:   "YouTube",
	PlatformWhatsapp:  "WhatsApp",
	PlatformTwitter:   "Twitter",
	PlatformFacebook:  "Facebook",
	PlatformLinkedin:  "LinkedIn",
	PlatformTelegram:  "Telegram",
	PlatformEmail:     "Email",
	PlatformWebsite:   "Website",
}

func (p Platform) Valid() bool {
	_, ok := platformTitles[p]
	return ok
}

// DefaultTitle is the display fallback used when a link has no title set.
func (p Platform) DefaultTitle() string {
	if t, ok := platformTitles[p]; ok {
		return t
	}
	return string(p)
}

// Link is one entry on a profile page. Position is contiguous from 0 within
// a profile's link set; every mutation that removes or reorders links must
// leave the set renumbered {0..N-1}.
type Link struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	ProfileID string    `gorm:"not null;index;size:64" json:"profile_id"`
	Platform  Platform  `gorm:"size:20;not null" json:"platform"`
	Title     string    `gorm:"size:120" json:"title"`
	URL       string    `gorm:"not null;type:text" json:"url"`
	Position  int       `gorm:"not null" json:"order"`
	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
}

// DisplayTitle falls back to the platform name when no title was given.
func (l Link) DisplayTitle() string {
	if l.Title != "" {
		return l.Title
	}
	return l.Platform.DefaultTitle()
}
