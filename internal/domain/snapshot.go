package domain

import "time"

// Snapshot is the transport-independent projection of playback exchanged
// through the shared session record: the state plus the position normalized
// to [0,1], so peers whose local sources differ in length still track
// relative progress.
type Snapshot struct {
	State          PlaybackState `json:"state"`
	SliderPosition float64       `json:"slider_position"`
}

// NewSnapshot builds a snapshot with the slider clamped into range.
func NewSnapshot(state PlaybackState, slider float64) Snapshot {
	return Snapshot{
		State:          state,
		SliderPosition: ClampSlider(slider),
	}
}

// PositionIn rehydrates the slider into an absolute offset of the given
// duration. An unknown duration yields 0.
func (s Snapshot) PositionIn(duration time.Duration) time.Duration {
	if duration <= 0 {
		return 0
	}
	return time.Duration(s.SliderPosition * float64(duration))
}
