package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/auxroom/syncd/internal/domain"
)

type gestureKind int

const (
	gestureToggle gestureKind = iota
	gestureDrag
	gestureSeek
)

type gesture struct {
	kind  gestureKind
	value float64
	by    time.Duration
}

// TogglePlayPause pauses a playing session and plays anything else.
func (e *Engine) TogglePlayPause(ctx context.Context) error {
	return e.enqueueGesture(ctx, gesture{kind: gestureToggle})
}

// DragSlider moves playback to a normalized [0,1] position.
func (e *Engine) DragSlider(ctx context.Context, value float64) error {
	return e.enqueueGesture(ctx, gesture{kind: gestureDrag, value: value})
}

// SeekForward skips ahead by the given amount.
func (e *Engine) SeekForward(ctx context.Context, by time.Duration) error {
	return e.enqueueGesture(ctx, gesture{kind: gestureSeek, by: by})
}

// SeekBackward skips back by the given amount.
func (e *Engine) SeekBackward(ctx context.Context, by time.Duration) error {
	return e.enqueueGesture(ctx, gesture{kind: gestureSeek, by: -by})
}

func (e *Engine) enqueueGesture(ctx context.Context, g gesture) error {
	select {
	case <-e.done:
		return ErrEngineClosed
	default:
	}

	select {
	case e.gestureCh <- g:
		return nil
	case <-e.done:
		return ErrEngineClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *Engine) handleGesture(ctx context.Context, g gesture) {
	switch g.kind {
	case gestureToggle:
		e.handleToggle(ctx)
	case gestureDrag:
		e.handleDrag(ctx, g.value)
	case gestureSeek:
		e.handleSeek(ctx, g.by)
	}
}

// Gestures are optimistic: a failing transport command is logged, but the
// intent still becomes local state and is published. A peer may manage what
// this player could not.
func (e *Engine) handleToggle(ctx context.Context) {
	funcName := "Engine:handleToggle"

	target := domain.StatePlaying
	dispatch := e.player.Play
	if e.info.State == domain.StatePlaying {
		target = domain.StatePaused
		dispatch = e.player.Pause
	}

	// Playing out of a terminal state replays from the top.
	if target == domain.StatePlaying && e.info.State.Terminal() {
		if err := e.player.Seek(0); err != nil {
			slog.ErrorContext(ctx, funcName, "error", err)
		}
		e.onPositionChanged(0)
	}

	if err := dispatch(); err != nil {
		slog.ErrorContext(ctx, funcName, "error", err, "state", target)
	} else {
		// Publish where the transport actually is, not a stale tick.
		e.onPositionChanged(e.player.Position())
	}

	e.info.State = target
	e.publishSnapshot(ctx)
}

func (e *Engine) handleDrag(ctx context.Context, value float64) {
	funcName := "Engine:handleDrag"

	if e.dropBoundaryDrags && (value == 0 || value == 1) {
		slog.DebugContext(ctx, funcName, "msg", "dropping boundary drag", "value", value)
		return
	}

	value = domain.ClampSlider(value)
	e.slider = value

	if e.info.Duration > 0 {
		position := time.Duration(value * float64(e.info.Duration))
		if err := e.player.Seek(position); err != nil {
			slog.ErrorContext(ctx, funcName, "error", err)
		}
		e.info.Position = position
		e.pendingSlider = nil
	} else {
		// Source not sized yet; remember the target like a remote one.
		v := value
		e.pendingSlider = &v
	}

	e.publishSnapshot(ctx)
}

func (e *Engine) handleSeek(ctx context.Context, by time.Duration) {
	funcName := "Engine:handleSeek"

	target := e.info.Position + by
	if target < 0 {
		target = 0
	}
	if e.info.Duration > 0 && target > e.info.Duration {
		target = e.info.Duration
	}

	if err := e.player.Seek(target); err != nil {
		slog.ErrorContext(ctx, funcName, "error", err)
	}

	e.info.Position = target
	if e.pendingSlider == nil {
		e.slider = e.info.Slider()
	}

	e.publishSnapshot(ctx)
}
