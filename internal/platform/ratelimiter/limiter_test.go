package ratelimiter_test

import (
	"testing"
	"time"

	"github.com/aretw0/rngsync/internal/platform/ratelimiter"
	"github.com/stretchr/testify/assert"
)

func TestNew_InvalidArgs(t *testing.T) {
	assert.Nil(t, ratelimiter.New(0, 1, 0))
	assert.Nil(t, ratelimiter.New(1, 0, 0))

	var l *ratelimiter.KeyedLimiter
	assert.True(t, l.Allow("peer", time.Now()))
	assert.Zero(t, l.Len())
}

func TestAllow_BurstThenRefill(t *testing.T) {
	l := ratelimiter.New(1, 2, time.Minute)
	now := time.Unix(1_700_000_000, 0)

	assert.True(t, l.Allow("node-b.os", now))
	assert.True(t, l.Allow("NODE-B.os", now))
	assert.False(t, l.Allow("node-b.os", now))

	// other keys have their own bucket
	assert.True(t, l.Allow("node-c.os", now))

	assert.True(t, l.Allow("node-b.os", now.Add(time.Second)))
}

func TestAllow_EmptyKeyUnlimited(t *testing.T) {
	l := ratelimiter.New(1, 1, time.Minute)
	now := time.Now()
	for i := 0; i < 5; i++ {
		assert.True(t, l.Allow("  ", now))
	}
	assert.Zero(t, l.Len())
}

func TestAllow_EvictsIdleBuckets(t *testing.T) {
	l := ratelimiter.New(100, 100, time.Second)
	start := time.Unix(1_700_000_000, 0)

	l.Allow("stale", start)
	later := start.Add(time.Minute)
	for i := 0; i < 300; i++ {
		l.Allow("fresh", later)
	}

	assert.Equal(t, 1, l.Len())
}
