package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIPRateLimiter(t *testing.T) {
	limiter := NewIPRateLimiter(1, 2, testLogger())

	t.Run("Allows within burst", func(t *testing.T) {
		assert.True(t, limiter.Allow("10.0.0.1"))
		assert.True(t, limiter.Allow("10.0.0.1"))
	})

	t.Run("Blocks past burst", func(t *testing.T) {
		assert.False(t, limiter.Allow("10.0.0.1"))
	})

	t.Run("Separate buckets per IP", func(t *testing.T) {
		assert.True(t, limiter.Allow("10.0.0.2"))
	})

	t.Run("Same limiter returned for the same IP", func(t *testing.T) {
		assert.Same(t, limiter.GetLimiter("10.0.0.3"), limiter.GetLimiter("10.0.0.3"))
	})
}
