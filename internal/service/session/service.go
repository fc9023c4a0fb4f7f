package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/auxroom/syncd/internal/domain"
	"github.com/auxroom/syncd/internal/player"
	"github.com/auxroom/syncd/internal/repository"
)

var ErrEngineClosed = errors.New("engine closed")

const (
	gestureBuffer = 16
	publishBuffer = 16
)

type iSessionRepo interface {
	SetPlayerRecord(context.Context, *repository.SetPlayerRecordParams) error
	GetPlayerRecord(context.Context, string) (repository.PlayerRecord, error)
	SubscribePlayerRecord(context.Context, string) (<-chan repository.PlayerUpdate, error)
}

type iPlayer interface {
	Play() error
	Pause() error
	Stop() error
	Seek(position time.Duration) error
	Duration() time.Duration
	Position() time.Duration
	State() domain.PlaybackState
	Events() <-chan player.Event
}

// Engine keeps one local player and one shared session record agreeing with
// each other. A single goroutine inside Run owns all playback state; remote
// updates, player events and user gestures are funneled into it and applied
// in arrival order. Updates coming in from the session are never published
// back, so two engines watching each other cannot feed back.
type Engine struct {
	player      iPlayer
	sessionRepo iSessionRepo
	sessionId   string
	origin      string

	// dropBoundaryDrags discards slider gestures of exactly 0 or 1, which
	// some surfaces emit spuriously when a drag leaves the widget.
	dropBoundaryDrags bool

	// Owned by the Run goroutine.
	info          domain.PlaybackInfo
	slider        float64
	pendingSlider *float64
	lastRev       int64

	gestureCh chan gesture
	publishCh chan repository.SetPlayerRecordParams
	done      chan struct{}

	now func() time.Time

	viewMu      sync.RWMutex
	view        View
	subscribers map[chan View]struct{}
}

func NewEngine(p iPlayer, sessionRepo iSessionRepo, sessionId string, origin string, dropBoundaryDrags bool) *Engine {
	e := &Engine{
		player:            p,
		sessionRepo:       sessionRepo,
		sessionId:         sessionId,
		origin:            origin,
		dropBoundaryDrags: dropBoundaryDrags,
		info: domain.PlaybackInfo{
			Duration: p.Duration(),
			Position: p.Position(),
			State:    p.State(),
		},
		gestureCh:   make(chan gesture, gestureBuffer),
		publishCh:   make(chan repository.SetPlayerRecordParams, publishBuffer),
		done:        make(chan struct{}),
		now:         time.Now,
		subscribers: make(map[chan View]struct{}),
	}
	e.slider = e.info.Slider()
	e.view = e.buildView()

	return e
}

// Run drives the engine until ctx is done. It must be called exactly once;
// gestures and subscriptions work only while it is running.
func (e *Engine) Run(ctx context.Context) error {
	funcName := "Engine:Run"
	defer close(e.done)
	defer e.closeSubscribers()

	updates, err := e.sessionRepo.SubscribePlayerRecord(ctx, e.sessionId)
	if err != nil {
		return fmt.Errorf("failed to subscribe to player record: %w", err)
	}

	e.catchUp(ctx)
	e.refreshView()

	go e.publisher(ctx)

	events := e.player.Events()
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-events:
			if !ok {
				// Player closed underneath us; remote updates still apply
				// to nothing useful, so stop.
				return ErrEngineClosed
			}
			e.handlePlayerEvent(ctx, event)
		case update, ok := <-updates:
			if !ok {
				// The store closes subscriptions on cancellation; that is
				// shutdown, not subscription loss.
				if ctx.Err() != nil {
					return nil
				}

				slog.ErrorContext(ctx, funcName, "error", repository.ErrSubscriptionClosed)
				return repository.ErrSubscriptionClosed
			}
			e.handleRemoteUpdate(ctx, update)
		case g := <-e.gestureCh:
			e.handleGesture(ctx, g)
		}

		e.refreshView()
	}
}

// catchUp adopts whatever the session already agreed on, or seeds the
// record if this engine is the first one in.
func (e *Engine) catchUp(ctx context.Context) {
	funcName := "Engine:catchUp"

	record, err := e.sessionRepo.GetPlayerRecord(ctx, e.sessionId)
	if err != nil {
		if errors.Is(err, repository.ErrRecordNotFound) {
			e.publishSnapshot(ctx)
			return
		}

		// Transient read failures are not fatal: the subscription will
		// bring us in line on the next write.
		slog.ErrorContext(ctx, funcName, "error", err)
		return
	}

	e.applyRemote(ctx, record.Snapshot(), record.UpdatedAt, record.Origin)
}

// publisher writes queued snapshots to the session record in order, off the
// engine goroutine. Failed writes are logged and dropped; the next snapshot
// supersedes them.
func (e *Engine) publisher(ctx context.Context) {
	funcName := "Engine:publisher"

	for {
		select {
		case <-ctx.Done():
			return
		case params := <-e.publishCh:
			if err := e.sessionRepo.SetPlayerRecord(ctx, &params); err != nil {
				slog.ErrorContext(ctx, funcName, "error", err)
			}
		}
	}
}

// publishSnapshot queues the engine's current snapshot for the session
// record. Revisions are per-writer monotonic: wall clock millis, bumped
// past the last seen revision when clocks stand still or run behind.
func (e *Engine) publishSnapshot(ctx context.Context) {
	rev := e.now().UnixMilli()
	if rev <= e.lastRev {
		rev = e.lastRev + 1
	}
	e.lastRev = rev

	params := repository.SetPlayerRecordParams{
		SessionID: e.sessionId,
		Snapshot:  domain.NewSnapshot(e.info.State, e.slider),
		UpdatedAt: rev,
		Origin:    e.origin,
	}

	select {
	case e.publishCh <- params:
	default:
		// Queue full: drop the oldest, snapshots are absolute anyway.
		select {
		case <-e.publishCh:
		default:
		}
		select {
		case e.publishCh <- params:
		default:
		}
	}

	slog.DebugContext(ctx, "Engine:publishSnapshot", "state", params.Snapshot.State, "slider", params.Snapshot.SliderPosition, "rev", rev)
}
