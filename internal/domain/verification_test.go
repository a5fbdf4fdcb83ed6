package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestVerificationCode_ExpiryBoundary(t *testing.T) {
	at := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	v := &VerificationCode{ExpiresAt: at.Unix()}

	// Valid up to and including the exact expiry second.
	assert.False(t, v.Expired(at.Add(-time.Second)))
	assert.False(t, v.Expired(at))
	assert.True(t, v.Expired(at.Add(time.Second)))
}
