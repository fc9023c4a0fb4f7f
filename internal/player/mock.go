package player

import (
	"context"
	"sync"
	"time"

	"github.com/auxroom/syncd/internal/domain"
)

// Mock is a test double for the transport. It mirrors BeepPlayer's
// observable behavior: commands mutate state and are echoed on Events, and
// completion can be simulated. Safe for use across goroutines.
type Mock struct {
	mu       sync.Mutex
	state    domain.PlaybackState
	position time.Duration
	duration time.Duration
	events   chan Event

	sourceCalls []string
	playCalls   int
	pauseCalls  int
	stopCalls   int
	seekCalls   []time.Duration

	sourceErr error
	playErr   error
	pauseErr  error
	stopErr   error
	seekErr   error
}

func NewMock() *Mock {
	return &Mock{
		state:  domain.StateStopped,
		events: make(chan Event, eventBuffer),
	}
}

func (m *Mock) SetSource(_ context.Context, source string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sourceCalls = append(m.sourceCalls, source)
	if m.sourceErr != nil {
		return m.sourceErr
	}

	return nil
}

func (m *Mock) Play() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.playCalls++
	if m.playErr != nil {
		return m.playErr
	}

	m.setStateLocked(domain.StatePlaying)
	return nil
}

func (m *Mock) Pause() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.pauseCalls++
	if m.pauseErr != nil {
		return m.pauseErr
	}

	m.setStateLocked(domain.StatePaused)
	return nil
}

func (m *Mock) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stopCalls++
	if m.stopErr != nil {
		return m.stopErr
	}

	m.position = 0
	m.emit(Event{Type: EventPositionChanged, Position: 0})
	m.setStateLocked(domain.StateStopped)
	return nil
}

func (m *Mock) Seek(position time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seekCalls = append(m.seekCalls, position)
	if m.seekErr != nil {
		return m.seekErr
	}

	m.position = position
	m.emit(Event{Type: EventPositionChanged, Position: position})
	return nil
}

func (m *Mock) Duration() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.duration
}

func (m *Mock) Position() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.position
}

func (m *Mock) State() domain.PlaybackState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Mock) Events() <-chan Event {
	return m.events
}

func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.setStateLocked(domain.StateDisposed)
	return nil
}

func (m *Mock) setStateLocked(state domain.PlaybackState) {
	if m.state == state {
		return
	}

	m.state = state
	m.emit(Event{Type: EventStateChanged, State: state})
}

func (m *Mock) emit(event Event) {
	select {
	case m.events <- event:
	default:
	}
}

// Test helpers

func (m *Mock) SetState(state domain.PlaybackState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = state
}

func (m *Mock) SetDuration(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.duration = d
}

func (m *Mock) SetPosition(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.position = d
}

func (m *Mock) SetSourceError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sourceErr = err
}

func (m *Mock) SetPlayError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.playErr = err
}

func (m *Mock) SetPauseError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pauseErr = err
}

func (m *Mock) SetStopError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopErr = err
}

func (m *Mock) SetSeekError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seekErr = err
}

func (m *Mock) SourceCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.sourceCalls...)
}

func (m *Mock) PlayCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.playCalls
}

func (m *Mock) PauseCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pauseCalls
}

func (m *Mock) StopCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopCalls
}

func (m *Mock) SeekCalls() []time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]time.Duration(nil), m.seekCalls...)
}

// EmitDuration announces a new source length, as loading one would.
func (m *Mock) EmitDuration(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.duration = d
	m.emit(Event{Type: EventDurationChanged, Duration: d})
}

// EmitPosition reports playback progress, as the position ticker would.
func (m *Mock) EmitPosition(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.position = d
	m.emit(Event{Type: EventPositionChanged, Position: d})
}

// SimulateCompleted mimics the source running off its end.
func (m *Mock) SimulateCompleted() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.position = m.duration
	m.emit(Event{Type: EventPositionChanged, Position: m.position})
	m.setStateLocked(domain.StateCompleted)
}
