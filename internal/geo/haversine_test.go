package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func f(v float64) *float64 { return &v }

func TestDistanceKmKnownPairs(t *testing.T) {
	// Madrid -> Barcelona, roughly 505 km great-circle.
	km, ok := DistanceKm(f(40.4168), f(-3.7038), f(41.3874), f(2.1686))
	assert.True(t, ok)
	assert.InDelta(t, 505, km, 5)

	// Same point is zero.
	km, ok = DistanceKm(f(40.0), f(-3.0), f(40.0), f(-3.0))
	assert.True(t, ok)
	assert.InDelta(t, 0, km, 1e-9)
}

func TestDistanceKmNilInputs(t *testing.T) {
	_, ok := DistanceKm(nil, f(1), f(2), f(3))
	assert.False(t, ok)
	_, ok = DistanceKm(f(1), f(2), nil, f(3))
	assert.False(t, ok)
	_, ok = DistanceKm(f(1), f(2), f(3), nil)
	assert.False(t, ok)
}

func TestDistanceKmSymmetric(t *testing.T) {
	a, _ := DistanceKm(f(48.8566), f(2.3522), f(51.5074), f(-0.1278))
	b, _ := DistanceKm(f(51.5074), f(-0.1278), f(48.8566), f(2.3522))
	assert.InDelta(t, a, b, 1e-9)
}

func TestRoundKm(t *testing.T) {
	assert.Equal(t, 1.23, RoundKm(1.2345))
	assert.Equal(t, 1.24, RoundKm(1.235))
	assert.Equal(t, 0.0, RoundKm(0.0049))
}
