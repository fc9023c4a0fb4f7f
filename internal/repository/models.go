package repository

import (
	"fmt"

	"github.com/auxroom/syncd/internal/domain"
)

// PlayerRecord is the stored shape of a session's playback snapshot. The
// redis tags are the hash field names; the json tags are the update channel
// encoding. State is validated on read since any peer can write the hash.
type PlayerRecord struct {
	State          int     `redis:"state" json:"state"`
	SliderPosition float64 `redis:"slider_position" json:"slider_position"`
	UpdatedAt      int64   `redis:"updated_at" json:"updated_at"`
	Origin         string  `redis:"origin" json:"origin"`
}

// Validate rejects states no writer following the record contract would
// produce. The slider is clamped on conversion rather than rejected.
func (r PlayerRecord) Validate() error {
	if !domain.PlaybackState(r.State).Valid() {
		return fmt.Errorf("unknown state %d", r.State)
	}

	return nil
}

// Snapshot converts the record into its domain form. The slider is clamped
// rather than rejected so a peer with slight float drift still syncs.
func (r PlayerRecord) Snapshot() domain.Snapshot {
	return domain.NewSnapshot(domain.PlaybackState(r.State), r.SliderPosition)
}

type SetPlayerRecordParams struct {
	SessionID string
	Snapshot  domain.Snapshot
	UpdatedAt int64
	Origin    string
}

// PlayerUpdate is delivered to subscribers for every record write observed
// on the session, the subscriber's own writes included. Err is set when a
// payload arrived but could not be decoded into a valid record; such
// updates carry no snapshot.
type PlayerUpdate struct {
	Snapshot  domain.Snapshot
	UpdatedAt int64
	Origin    string
	Err       error
}
