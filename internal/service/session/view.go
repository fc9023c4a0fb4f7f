package session

import (
	"fmt"
	"time"

	"github.com/auxroom/syncd/internal/domain"
)

// View is the engine's state shaped for a control surface.
type View struct {
	State        string  `json:"state"`
	IsPlaying    bool    `json:"is_playing"`
	SliderValue  float64 `json:"slider_value"`
	PositionText string  `json:"position_text"`
	DurationText string  `json:"duration_text"`
}

// View returns the most recently computed view. Safe from any goroutine.
func (e *Engine) View() View {
	e.viewMu.RLock()
	defer e.viewMu.RUnlock()

	return e.view
}

func (e *Engine) buildView() View {
	return View{
		State:        e.info.State.String(),
		IsPlaying:    e.info.State == domain.StatePlaying,
		SliderValue:  e.slider,
		PositionText: formatClock(e.info.Position),
		DurationText: formatClock(e.info.Duration),
	}
}

func (e *Engine) refreshView() {
	view := e.buildView()

	e.viewMu.Lock()
	changed := view != e.view
	e.view = view
	e.viewMu.Unlock()

	if changed {
		e.notifySubscribers(view)
	}
}

// formatClock renders a duration the way player surfaces show clocks:
// m:ss, with an hours digit once it matters.
func formatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}

	total := int(d / time.Second)
	h := total / 3600
	m := total % 3600 / 60
	s := total % 60

	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}

	return fmt.Sprintf("%d:%02d", m, s)
}
