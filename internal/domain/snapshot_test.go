package domain

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewSnapshot(t *testing.T) {
	s := NewSnapshot(StatePlaying, 0.5)
	assert.Equal(t, StatePlaying, s.State)
	assert.Equal(t, 0.5, s.SliderPosition)

	assert.Equal(t, 0.0, NewSnapshot(StatePaused, -3).SliderPosition)
	assert.Equal(t, 1.0, NewSnapshot(StatePaused, 7).SliderPosition)
	assert.Equal(t, 0.0, NewSnapshot(StatePaused, math.NaN()).SliderPosition)
}

func TestSnapshot_PositionIn(t *testing.T) {
	s := NewSnapshot(StatePlaying, 0.25)

	assert.Equal(t, time.Minute, s.PositionIn(4*time.Minute))
	assert.Equal(t, time.Duration(0), s.PositionIn(0))
	assert.Equal(t, time.Duration(0), s.PositionIn(-time.Second))
}

// A position projected into a snapshot and rehydrated against the same
// duration lands back where it started.
func TestSnapshot_RoundTrip(t *testing.T) {
	duration := 3*time.Minute + 17*time.Second
	for _, position := range []time.Duration{
		0,
		time.Second,
		42 * time.Second,
		duration / 2,
		duration,
	} {
		s := NewSnapshot(StatePaused, SliderFor(position, duration))
		assert.InDelta(t, float64(position), float64(s.PositionIn(duration)), float64(time.Millisecond))
	}
}
