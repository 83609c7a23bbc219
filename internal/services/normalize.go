package services

import (
	"strings"

	"github.com/FTanBorn/tan-link-sub000/internal/models"
)

// NormalizeURL turns whatever the user typed into a fully schemed URL using
// the platform's rules: bare handles become profile URLs, phone numbers
// become wa.me links, and anything already fully qualified only gets its
// scheme upgraded.
func NormalizeURL(platform models.Platform, raw string, whatsappPrefix string) (string, error) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return "", &ValidationError{Field: "url", Reason: "must not be empty"}
	}

	switch platform {
	case models.PlatformEmail:
		if strings.HasPrefix(strings.ToLower(v), "mailto:") {
			return v, nil
		}
		return "mailto:" + v, nil

	case models.PlatformWhatsapp:
		return normalizeWhatsApp(v, whatsappPrefix)

	case models.PlatformInstagram:
		return handleOrURL(v, "instagram.com"), nil

	case models.PlatformTwitter:
		return handleOrURL(v, "twitter.com"), nil

	case models.PlatformGithub:
		return handleOrURL(v, "github.com"), nil

	case models.PlatformLinkedin:
		if strings.Contains(v, "linkedin.com") {
			return upgradeScheme(v), nil
		}
		v = strings.TrimPrefix(v, "@")
		if strings.HasPrefix(v, "in/") {
			return "https://linkedin.com/" + v, nil
		}
		return "https://linkedin.com/in/" + v, nil

	case models.PlatformFacebook:
		if strings.Contains(v, "facebook.com") {
			return upgradeScheme(v), nil
		}
		return "https://facebook.com/" + v, nil

	case models.PlatformYoutube:
		if strings.Contains(v, "youtube.com") || strings.Contains(v, "youtu.be") {
			return upgradeScheme(v), nil
		}
		if strings.HasPrefix(v, "@") {
			return "https://youtube.com/" + v, nil
		}
		return "https://youtube.com/@" + v, nil

	case models.PlatformTelegram:
		if strings.Contains(v, "t.me") {
			return upgradeScheme(v), nil
		}
		return "https://t.me/" + strings.TrimPrefix(v, "@"), nil

	case models.PlatformWebsite:
		return upgradeScheme(v), nil

	default:
		return "", &ValidationError{Field: "platform", Reason: "unknown platform " + string(platform)}
	}
}

// handleOrURL covers the platforms where input is either a bare @handle or a
// full profile URL on the platform's domain.
func handleOrURL(v, domain string) string {
	if strings.Contains(v, domain) {
		return upgradeScheme(v)
	}
	return "https://" + domain + "/" + strings.TrimPrefix(v, "@")
}

func normalizeWhatsApp(v, prefix string) (string, error) {
	cleaned := strings.NewReplacer(" ", "", "-", "", "(", "", ")", "", "+", "").Replace(v)
	if strings.Contains(cleaned, "wa.me") {
		return upgradeScheme(cleaned), nil
	}

	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, cleaned)
	if digits == "" {
		return "", &ValidationError{Field: "url", Reason: "whatsapp number has no digits"}
	}

	// Ten digits or fewer means the country code is missing.
	if len(digits) <= 10 {
		digits = prefix + digits
	}
	return "https://wa.me/" + digits, nil
}

// upgradeScheme ensures https without touching the rest of the URL.
func upgradeScheme(v string) string {
	switch {
	case strings.HasPrefix(v, "https://"):
		return v
	case strings.HasPrefix(v, "http://"):
		return "https://" + strings.TrimPrefix(v, "http://")
	default:
		return "https://" + v
	}
}
