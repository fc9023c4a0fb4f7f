package domain

import (
	"math"
	"time"
)

// PlaybackState enumerates the transport states shared across peers. The
// integer values are the wire encoding of the session record's state field
// and must stay stable.
type PlaybackState int

const (
	StateStopped PlaybackState = iota
	StatePlaying
	StatePaused
	StateCompleted
	StateDisposed
)

func (s PlaybackState) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateCompleted:
		return "completed"
	case StateDisposed:
		return "disposed"
	default:
		return "unknown"
	}
}

// Valid reports whether s is one of the known states. Records decoded from
// the shared store may carry arbitrary integers.
func (s PlaybackState) Valid() bool {
	return s >= StateStopped && s <= StateDisposed
}

// Terminal reports whether s ends playback for good: no further progress is
// expected from a transport in this state.
func (s PlaybackState) Terminal() bool {
	return s == StateCompleted || s == StateDisposed
}

// PlaybackInfo is the locally observed transport state. Duration and
// Position are zero until the transport reports them; Position never
// exceeds Duration once the duration is known.
type PlaybackInfo struct {
	Duration time.Duration
	Position time.Duration
	State    PlaybackState
}

// Slider returns the normalized position of the info.
func (i PlaybackInfo) Slider() float64 {
	return SliderFor(i.Position, i.Duration)
}

// SliderFor normalizes an absolute position against a duration into the
// [0,1] slider range. An unknown (zero) duration normalizes to 0 so a
// zero-length source can never produce NaN.
func SliderFor(position, duration time.Duration) float64 {
	if duration <= 0 {
		return 0
	}
	return ClampSlider(float64(position) / float64(duration))
}

// ClampSlider forces v into [0,1]. NaN is coerced to 0.
func ClampSlider(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return 0
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
