package ratelimit

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiter_InitialStateUncapped(t *testing.T) {
	l := NewLimiter()
	assert.True(t, math.IsInf(l.GetRateLimit(), 1))

	stats := l.GetStatistics()
	assert.Equal(t, 0.0, stats.TotalConsumed)
	assert.Equal(t, 0.0, stats.TotalWaitDurUs)
}

func TestLimiter_ConsumeAccumulates(t *testing.T) {
	l := NewLimiter()
	l.Consume(0, 100)
	l.Consume(2*time.Second, 200)

	stats := l.GetStatistics()
	assert.Equal(t, 300.0, stats.TotalConsumed)
	assert.Equal(t, 2_000_000.0, stats.TotalWaitDurUs)
}

func TestLimiter_SetRateLimitIdempotent(t *testing.T) {
	l := NewLimiter()
	l.SetRateLimit(42.0)
	l.SetRateLimit(42.0)
	assert.Equal(t, 42.0, l.GetRateLimit())

	l.SetRateLimit(math.Inf(1))
	assert.True(t, math.IsInf(l.GetRateLimit(), 1))
}

func TestLimiter_Reset(t *testing.T) {
	l := NewLimiter()
	l.SetRateLimit(10)
	l.Consume(time.Second, 50)
	l.Reset()

	assert.True(t, math.IsInf(l.GetRateLimit(), 1))
	stats := l.GetStatistics()
	assert.Equal(t, 0.0, stats.TotalConsumed)
	assert.Equal(t, 0.0, stats.TotalWaitDurUs)
}

func TestResourceLimiter_CPUAndIOAreIndependent(t *testing.T) {
	rl := NewResourceLimiter()
	rl.CPULimiter().SetRateLimit(100)
	rl.IOLimiter().SetRateLimit(200)

	assert.Equal(t, 100.0, rl.CPULimiter().GetRateLimit())
	assert.Equal(t, 200.0, rl.IOLimiter().GetRateLimit())
}

func TestRegistry_SnapshotReflectsForegroundAndBackground(t *testing.T) {
	reg := NewRegistry()
	reg.AddForegroundGroup("default", 1)
	bg := reg.AddBackgroundGroup("background", 8)
	bg.CPULimiter().SetRateLimit(5)

	snap := reg.Snapshot()
	require.Len(t, snap, 2)

	byName := make(map[string]bool, len(snap))
	for _, h := range snap {
		byName[h.Name] = h.Limiter != nil
	}
	assert.False(t, byName["default"], "foreground group must not carry a limiter handle")
	assert.True(t, byName["background"], "background group must carry a limiter handle")
}

func TestRegistry_SnapshotIsPointInTime(t *testing.T) {
	reg := NewRegistry()
	reg.AddBackgroundGroup("a", 1)

	snap := reg.Snapshot()
	reg.AddBackgroundGroup("b", 1)
	reg.RemoveGroup("a")

	require.Len(t, snap, 1, "a snapshot already taken must not see later mutations")
	assert.Equal(t, "a", snap[0].Name)
}
