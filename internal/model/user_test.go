package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAverageRating(t *testing.T) {
	u := &User{}
	assert.Nil(t, u.AverageRating(), "no ratings yet means no average")

	u.RatingSum = 12
	u.RatingCount = 3
	avg := u.AverageRating()
	if assert.NotNil(t, avg) {
		assert.Equal(t, 4.0, *avg)
	}

	// 5 + 3 + 4 + 4 = 16 over 5 -> 3.2
	u.RatingSum = 16
	u.RatingCount = 5
	avg = u.AverageRating()
	if assert.NotNil(t, avg) {
		assert.Equal(t, 3.2, *avg)
	}
}

func TestEventCapacityHelpers(t *testing.T) {
	e := &Event{MaxPlayers: 10, CurrentPlayers: 10}
	assert.True(t, e.IsFull())
	assert.Equal(t, 0, e.SpotsLeft())

	e.CurrentPlayers = 7
	assert.False(t, e.IsFull())
	assert.Equal(t, 3, e.SpotsLeft())

	// Counter past max (should never happen) still reports zero spots.
	e.CurrentPlayers = 11
	assert.True(t, e.IsFull())
	assert.Equal(t, 0, e.SpotsLeft())
}
