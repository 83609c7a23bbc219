package utils

import (
	"github.com/google/uuid"
)

// NewLinkID generates the opaque id assigned to a link on creation.
func NewLinkID() string {
	return uuid.NewString()
}

// NewIdentity generates the stable identity key for a freshly registered
// profile.
func NewIdentity() string {
	return uuid.NewString()
}

// GenerateAPIKey generates a UUID string to be used as an API key
func GenerateAPIKey() string {
	return uuid.NewString()
}
