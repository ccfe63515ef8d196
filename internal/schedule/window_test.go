package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func at(hour, minute int) time.Time {
	return time.Date(2026, 3, 10, hour, minute, 0, 0, time.UTC)
}

func TestEvaluateWindowUnconstrained(t *testing.T) {
	allowed, unlock := EvaluateWindow("", "", at(3, 0))
	assert.True(t, allowed)
	assert.Empty(t, unlock)
}

func TestEvaluateWindowStartOnly(t *testing.T) {
	allowed, unlock := EvaluateWindow("08:00", "", at(7, 59))
	assert.False(t, allowed)
	assert.Equal(t, "8:00 AM", unlock)

	allowed, _ = EvaluateWindow("08:00", "", at(8, 0))
	assert.True(t, allowed)

	allowed, _ = EvaluateWindow("08:00", "", at(23, 30))
	assert.True(t, allowed)
}

func TestEvaluateWindowEndOnly(t *testing.T) {
	allowed, _ := EvaluateWindow("", "20:00", at(19, 59))
	assert.True(t, allowed)

	// End is exclusive; blocked until midnight afterwards.
	allowed, unlock := EvaluateWindow("", "20:00", at(20, 0))
	assert.False(t, allowed)
	assert.Equal(t, "tomorrow", unlock)

	allowed, _ = EvaluateWindow("", "20:00", at(0, 0))
	assert.True(t, allowed)
}

func TestEvaluateWindowDaytime(t *testing.T) {
	allowed, unlock := EvaluateWindow("08:00", "20:00", at(7, 59))
	assert.False(t, allowed)
	assert.Equal(t, "8:00 AM", unlock)

	allowed, _ = EvaluateWindow("08:00", "20:00", at(8, 0))
	assert.True(t, allowed)

	allowed, _ = EvaluateWindow("08:00", "20:00", at(12, 0))
	assert.True(t, allowed)

	allowed, _ = EvaluateWindow("08:00", "20:00", at(19, 59))
	assert.True(t, allowed)

	allowed, _ = EvaluateWindow("08:00", "20:00", at(20, 0))
	assert.False(t, allowed)
}

func TestEvaluateWindowOvernight(t *testing.T) {
	// 22:00 - 06:00 wraps midnight.
	allowed, _ := EvaluateWindow("22:00", "06:00", at(23, 30))
	assert.True(t, allowed)

	allowed, _ = EvaluateWindow("22:00", "06:00", at(5, 0))
	assert.True(t, allowed)

	allowed, unlock := EvaluateWindow("22:00", "06:00", at(12, 0))
	assert.False(t, allowed)
	assert.Equal(t, "10:00 PM", unlock)

	allowed, _ = EvaluateWindow("22:00", "06:00", at(6, 0))
	assert.False(t, allowed)

	allowed, _ = EvaluateWindow("22:00", "06:00", at(22, 0))
	assert.True(t, allowed)
}

func TestEvaluateWindowMalformedFailsOpen(t *testing.T) {
	allowed, _ := EvaluateWindow("whenever", "20:00", at(23, 0))
	assert.True(t, allowed)

	allowed, _ = EvaluateWindow("garbage", "", at(3, 0))
	assert.True(t, allowed)

	allowed, _ = EvaluateWindow("08:00", "junk", at(3, 0))
	assert.True(t, allowed)
}
