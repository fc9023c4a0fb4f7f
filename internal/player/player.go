package player

import (
	"context"
	"errors"
	"time"

	"github.com/auxroom/syncd/internal/domain"
)

var (
	ErrNoSource = errors.New("no source loaded")
	ErrClosed   = errors.New("player closed")
)

type EventType int

const (
	EventDurationChanged EventType = iota
	EventPositionChanged
	EventStateChanged
)

func (t EventType) String() string {
	switch t {
	case EventDurationChanged:
		return "duration_changed"
	case EventPositionChanged:
		return "position_changed"
	case EventStateChanged:
		return "state_changed"
	default:
		return "unknown"
	}
}

// Event is a transport notification. Only the field matching Type is
// meaningful.
type Event struct {
	Type     EventType
	Duration time.Duration
	Position time.Duration
	State    domain.PlaybackState
}

// Interface is the transport contract: a local player that loads one source
// at a time and reports what it is doing through Events. Commands are
// synchronous; Events carries everything the player decides on its own,
// like periodic position progress and running off the end of the source.
type Interface interface {
	SetSource(ctx context.Context, source string) error
	Play() error
	Pause() error
	Stop() error
	Seek(position time.Duration) error
	Duration() time.Duration
	Position() time.Duration
	State() domain.PlaybackState
	Events() <-chan Event
	Close() error
}

// Verify implementations satisfy Interface at compile time.
var (
	_ Interface = (*BeepPlayer)(nil)
	_ Interface = (*Mock)(nil)
)
