package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/auxroom/syncd/internal/domain"
	"github.com/auxroom/syncd/internal/player"
	"github.com/auxroom/syncd/internal/repository"
)

func (e *Engine) handleRemoteUpdate(ctx context.Context, update repository.PlayerUpdate) {
	funcName := "Engine:handleRemoteUpdate"

	if update.Err != nil {
		slog.WarnContext(ctx, funcName, "error", update.Err)
		return
	}

	slog.DebugContext(ctx, funcName, "state", update.Snapshot.State, "slider", update.Snapshot.SliderPosition, "rev", update.UpdatedAt, "origin", update.Origin)
	e.applyRemote(ctx, update.Snapshot, update.UpdatedAt, update.Origin)
}

// applyRemote reconciles an inbound snapshot into transport commands. It
// never publishes: whatever this does to the player ends at the player, so
// an update bouncing between engines has nowhere to loop.
//
// The position is applied first, unconditionally. A state command is only
// dispatched when the snapshot disagrees with the local state, which makes
// re-applying our own echoed write a no-op. A failed command aborts the
// whole application with local state untouched.
func (e *Engine) applyRemote(ctx context.Context, snapshot domain.Snapshot, rev int64, origin string) {
	funcName := "Engine:applyRemote"

	// Strictly older than what we already applied or published is stale;
	// an equal revision is our own write echoed back and falls through to
	// the idempotent path below.
	if rev < e.lastRev {
		slog.DebugContext(ctx, funcName, "msg", "dropping stale update", "rev", rev, "lastRev", e.lastRev, "origin", origin)
		return
	}

	// A disposed record never commands this transport, and its revision is
	// not adopted so it cannot pin the session.
	if snapshot.State == domain.StateDisposed {
		slog.DebugContext(ctx, funcName, "msg", "ignoring disposed peer", "origin", origin)
		return
	}

	if e.info.Duration > 0 {
		position := snapshot.PositionIn(e.info.Duration)
		if err := e.player.Seek(position); err != nil {
			slog.ErrorContext(ctx, funcName, "error", err)
			return
		}

		e.info.Position = position
		e.slider = snapshot.SliderPosition
		e.pendingSlider = nil
	} else {
		// No duration yet, nowhere to seek; park the slider until the
		// source reports how long it is.
		v := snapshot.SliderPosition
		e.pendingSlider = &v
		e.slider = snapshot.SliderPosition
	}

	if snapshot.State != e.info.State {
		var err error
		switch snapshot.State {
		case domain.StatePlaying:
			err = e.player.Play()
		case domain.StatePaused:
			err = e.player.Pause()
		case domain.StateStopped, domain.StateCompleted:
			err = e.player.Stop()
		}
		if err != nil {
			slog.ErrorContext(ctx, funcName, "error", err, "state", snapshot.State)
			return
		}

		e.info.State = snapshot.State
		if snapshot.State == domain.StateStopped || snapshot.State == domain.StateCompleted {
			// Stop rewinds the transport.
			e.info.Position = 0
			e.slider = 0
			e.pendingSlider = nil
		}
	}

	if rev > e.lastRev {
		e.lastRev = rev
	}
}

func (e *Engine) handlePlayerEvent(ctx context.Context, event player.Event) {
	switch event.Type {
	case player.EventDurationChanged:
		e.onDurationChanged(ctx, event.Duration)
	case player.EventPositionChanged:
		e.onPositionChanged(event.Position)
	case player.EventStateChanged:
		e.onStateChanged(ctx, event.State)
	}
}

func (e *Engine) onDurationChanged(ctx context.Context, duration time.Duration) {
	funcName := "Engine:onDurationChanged"
	slog.DebugContext(ctx, funcName, "duration", duration)

	e.info.Duration = duration

	// A remote position that arrived before the source was sized can be
	// placed now.
	if e.pendingSlider != nil && duration > 0 {
		position := time.Duration(*e.pendingSlider * float64(duration))
		if err := e.player.Seek(position); err != nil {
			slog.ErrorContext(ctx, funcName, "error", err)
			return
		}

		e.info.Position = position
		e.slider = *e.pendingSlider
		e.pendingSlider = nil
		return
	}

	e.slider = e.info.Slider()
}

func (e *Engine) onPositionChanged(position time.Duration) {
	e.info.Position = position
	if e.pendingSlider == nil {
		e.slider = e.info.Slider()
	}
}

// onStateChanged folds transport-initiated transitions back into the
// engine. Transitions the engine itself commanded arrive here already
// matching the engine's state and are ignored; anything else, like the
// source running out or an output device pausing, is adopted locally. Transport
// events never publish: the record changes on user gestures only, so a
// track completing updates this daemon's view while every peer's
// transport completes on its own.
func (e *Engine) onStateChanged(ctx context.Context, state domain.PlaybackState) {
	funcName := "Engine:onStateChanged"

	if state == e.info.State {
		return
	}

	slog.DebugContext(ctx, funcName, "from", e.info.State, "to", state)
	e.info.State = state
}
