package constants

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLockConstants(t *testing.T) {
	t.Run("LockRetryInterval is reasonable", func(t *testing.T) {
		assert.Equal(t, 50*time.Millisecond, LockRetryInterval)
		assert.Less(t, LockRetryInterval, DefaultLockTimeout, "should retry several times before timing out")
	})
}

func TestContentConstants(t *testing.T) {
	assert.Equal(t, int64(64<<20), DefaultMaxContentSize)
	assert.Greater(t, DefaultMaxContentSize, int64(HashChunkSize))
}

func TestRateLimitConstants(t *testing.T) {
	assert.GreaterOrEqual(t, float64(DefaultRateLimitBurst), DefaultRateLimitRPS, "burst should cover one second of traffic")
}
