package player

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/auxroom/syncd/internal/domain"
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/wav"
)

const (
	eventBuffer      = 16
	positionInterval = 500 * time.Millisecond
	resampleQuality  = 4
)

// The speaker is process-global and initialized at the first source's sample
// rate; later sources with a different rate are resampled on mount.
var (
	speakerMu          sync.Mutex
	speakerInitialized bool
	speakerSampleRate  beep.SampleRate
)

// BeepPlayer plays a local audio file through the default output device.
// The source stays loaded across Stop and completion so the player can be
// restarted or repositioned without touching the filesystem again.
type BeepPlayer struct {
	mu       sync.Mutex
	state    domain.PlaybackState
	streamer beep.StreamSeekCloser
	format   beep.Format
	ctrl     *beep.Ctrl
	file     *os.File
	mounted  bool

	events   chan Event
	finished chan struct{}
	closed   chan struct{}
}

func New() *BeepPlayer {
	p := &BeepPlayer{
		state:    domain.StateStopped,
		events:   make(chan Event, eventBuffer),
		finished: make(chan struct{}, 1),
		closed:   make(chan struct{}),
	}
	go p.loop()

	return p
}

// SetSource loads the file at source, replacing whatever was loaded before.
// Playback does not start until Play is called.
func (p *BeepPlayer) SetSource(ctx context.Context, source string) error {
	funcName := "BeepPlayer:SetSource"
	slog.DebugContext(ctx, funcName, "source", source)

	if p.isClosed() {
		return ErrClosed
	}

	ext := strings.ToLower(filepath.Ext(source))
	f, err := os.Open(source)
	if err != nil {
		return fmt.Errorf("failed to open source: %w", err)
	}

	var (
		streamer beep.StreamSeekCloser
		format   beep.Format
	)
	switch ext {
	case ".mp3":
		streamer, format, err = mp3.Decode(f)
	case ".flac":
		streamer, format, err = flac.Decode(f)
	case ".wav":
		streamer, format, err = wav.Decode(f)
	default:
		f.Close()
		return fmt.Errorf("unsupported source format %q", ext)
	}
	if err != nil {
		f.Close()
		return fmt.Errorf("failed to decode source: %w", err)
	}

	if err := initSpeaker(format.SampleRate); err != nil {
		streamer.Close()
		f.Close()
		return fmt.Errorf("failed to init speaker: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.isClosed() {
		streamer.Close()
		f.Close()
		return ErrClosed
	}

	p.unloadLocked()
	p.file = f
	p.streamer = streamer
	p.format = format

	p.emit(Event{Type: EventDurationChanged, Duration: p.durationLocked()})
	p.emit(Event{Type: EventPositionChanged, Position: 0})
	p.setStateLocked(domain.StateStopped)

	return nil
}

func (p *BeepPlayer) Play() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.isClosed() {
		return ErrClosed
	}
	if p.streamer == nil {
		return ErrNoSource
	}

	switch p.state {
	case domain.StatePlaying:
		return nil
	case domain.StatePaused:
		speaker.Lock()
		p.ctrl.Paused = false
		speaker.Unlock()
	default:
		// Playing from the end means starting over.
		speaker.Lock()
		if p.streamer.Position() >= p.streamer.Len() {
			if err := p.streamer.Seek(0); err != nil {
				speaker.Unlock()
				return fmt.Errorf("failed to rewind: %w", err)
			}
		}
		speaker.Unlock()
		p.mountLocked(false)
	}

	p.setStateLocked(domain.StatePlaying)

	return nil
}

func (p *BeepPlayer) Pause() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.isClosed() {
		return ErrClosed
	}
	if p.streamer == nil {
		return ErrNoSource
	}

	switch p.state {
	case domain.StatePaused:
		return nil
	case domain.StatePlaying:
		speaker.Lock()
		p.ctrl.Paused = true
		speaker.Unlock()
	default:
		// Holding at the current offset without output.
		p.mountLocked(true)
	}

	p.setStateLocked(domain.StatePaused)

	return nil
}

// Stop halts output and rewinds to the start. The source stays loaded.
func (p *BeepPlayer) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.isClosed() {
		return ErrClosed
	}
	if p.streamer == nil {
		return ErrNoSource
	}

	p.unmountLocked()

	speaker.Lock()
	err := p.streamer.Seek(0)
	speaker.Unlock()
	if err != nil {
		return fmt.Errorf("failed to rewind: %w", err)
	}

	p.emit(Event{Type: EventPositionChanged, Position: 0})
	p.setStateLocked(domain.StateStopped)

	return nil
}

func (p *BeepPlayer) Seek(position time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.isClosed() {
		return ErrClosed
	}
	if p.streamer == nil {
		return ErrNoSource
	}

	if position < 0 {
		position = 0
	}
	if d := p.durationLocked(); position > d {
		position = d
	}

	speaker.Lock()
	err := p.streamer.Seek(p.format.SampleRate.N(position))
	speaker.Unlock()
	if err != nil {
		return fmt.Errorf("failed to seek: %w", err)
	}

	p.emit(Event{Type: EventPositionChanged, Position: position})

	return nil
}

func (p *BeepPlayer) Duration() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.durationLocked()
}

func (p *BeepPlayer) Position() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.positionLocked()
}

func (p *BeepPlayer) State() domain.PlaybackState {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.state
}

func (p *BeepPlayer) Events() <-chan Event {
	return p.events
}

func (p *BeepPlayer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.isClosed() {
		return nil
	}

	close(p.closed)
	p.unloadLocked()
	p.setStateLocked(domain.StateDisposed)

	return nil
}

// loop emits periodic position progress while playing and folds completion
// signals from the speaker back into player state.
func (p *BeepPlayer) loop() {
	ticker := time.NewTicker(positionInterval)
	defer ticker.Stop()

	for {
		select {
		case <-p.closed:
			return
		case <-p.finished:
			p.onFinished()
		case <-ticker.C:
			p.mu.Lock()
			playing := p.state == domain.StatePlaying
			position := p.positionLocked()
			p.mu.Unlock()

			if playing {
				p.emit(Event{Type: EventPositionChanged, Position: position})
			}
		}
	}
}

func (p *BeepPlayer) onFinished() {
	p.mu.Lock()
	defer p.mu.Unlock()

	// A completion raced with Stop, Close or a source swap; the current
	// state already reflects what the player should be doing.
	if p.state != domain.StatePlaying {
		return
	}

	p.mounted = false
	p.ctrl = nil
	p.emit(Event{Type: EventPositionChanged, Position: p.durationLocked()})
	p.setStateLocked(domain.StateCompleted)
}

// mountLocked puts the loaded streamer on the speaker at its current offset.
func (p *BeepPlayer) mountLocked(paused bool) {
	ctrl := &beep.Ctrl{Streamer: p.streamer, Paused: paused}
	var stream beep.Streamer = ctrl
	if p.format.SampleRate != speakerSampleRate {
		stream = beep.Resample(resampleQuality, p.format.SampleRate, speakerSampleRate, ctrl)
	}

	p.ctrl = ctrl
	p.mounted = true

	finished := p.finished
	speaker.Play(beep.Seq(stream, beep.Callback(func() {
		// Runs inside the speaker loop; must not block or take locks.
		select {
		case finished <- struct{}{}:
		default:
		}
	})))
}

func (p *BeepPlayer) unmountLocked() {
	if !p.mounted {
		return
	}

	speaker.Clear()
	p.mounted = false
	p.ctrl = nil

	// A completion signal that slipped in before the clear is stale now.
	select {
	case <-p.finished:
	default:
	}
}

func (p *BeepPlayer) unloadLocked() {
	p.unmountLocked()

	if p.streamer != nil {
		p.streamer.Close()
		p.streamer = nil
	}
	if p.file != nil {
		p.file.Close()
		p.file = nil
	}
}

func (p *BeepPlayer) durationLocked() time.Duration {
	if p.streamer == nil {
		return 0
	}

	return p.format.SampleRate.D(p.streamer.Len())
}

func (p *BeepPlayer) positionLocked() time.Duration {
	if p.streamer == nil {
		return 0
	}

	speaker.Lock()
	position := p.format.SampleRate.D(p.streamer.Position())
	speaker.Unlock()

	return position
}

func (p *BeepPlayer) setStateLocked(state domain.PlaybackState) {
	if p.state == state {
		return
	}

	p.state = state
	p.emit(Event{Type: EventStateChanged, State: state})
}

// emit never blocks; a consumer that stops draining loses progress events
// rather than wedging the player.
func (p *BeepPlayer) emit(event Event) {
	select {
	case p.events <- event:
	default:
	}
}

func (p *BeepPlayer) isClosed() bool {
	select {
	case <-p.closed:
		return true
	default:
		return false
	}
}

func initSpeaker(sampleRate beep.SampleRate) error {
	speakerMu.Lock()
	defer speakerMu.Unlock()

	if speakerInitialized {
		return nil
	}

	if err := speaker.Init(sampleRate, sampleRate.N(time.Second/10)); err != nil {
		return err
	}

	speakerInitialized = true
	speakerSampleRate = sampleRate

	return nil
}
