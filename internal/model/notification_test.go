package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeType(t *testing.T) {
	assert.Equal(t, TypeInfo, NormalizeType(""))
	assert.Equal(t, TypeInfo, NormalizeType("event"))
	assert.Equal(t, TypeSuccess, NormalizeType("success"))
	assert.Equal(t, TypeTicketConfirmed, NormalizeType("ticket_confirmed"))

	// Unknown types pass through so newer server builds still render.
	assert.Equal(t, NotificationType("price_drop"), NormalizeType("price_drop"))
}

func TestIsEphemeral(t *testing.T) {
	assert.True(t, Notification{ID: LocalIDPrefix + "abc"}.IsEphemeral())
	assert.False(t, Notification{ID: "srv-123"}.IsEphemeral())
	assert.False(t, Notification{}.IsEphemeral())
}

func TestEffectiveTime(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	ts := now.Add(-time.Hour)

	assert.Equal(t, ts, Notification{Timestamp: ts}.EffectiveTime(now))

	// A zero timestamp sorts as the current instant.
	assert.Equal(t, now, Notification{}.EffectiveTime(now))
}
