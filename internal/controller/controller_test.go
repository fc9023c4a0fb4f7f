package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/auxroom/syncd/internal/service/session"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEngine struct {
	mu          sync.Mutex
	view        session.View
	toggleCalls int
	dragCalls   []float64
	fwdCalls    []time.Duration
	backCalls   []time.Duration
	views       chan session.View
}

func newFakeEngine(view session.View) *fakeEngine {
	return &fakeEngine{view: view}
}

func (f *fakeEngine) TogglePlayPause(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.toggleCalls++
	return nil
}

func (f *fakeEngine) DragSlider(_ context.Context, value float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dragCalls = append(f.dragCalls, value)
	return nil
}

func (f *fakeEngine) SeekForward(_ context.Context, by time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fwdCalls = append(f.fwdCalls, by)
	return nil
}

func (f *fakeEngine) SeekBackward(_ context.Context, by time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.backCalls = append(f.backCalls, by)
	return nil
}

func (f *fakeEngine) View() session.View {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.view
}

func (f *fakeEngine) Subscribe() chan session.View {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.views = make(chan session.View, 4)
	f.views <- f.view
	return f.views
}

func (f *fakeEngine) Unsubscribe(views chan session.View) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.views == views {
		f.views = nil
		close(views)
	}
}

// Stop closes the live subscription the way the real engine does when its
// run loop exits.
func (f *fakeEngine) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.views != nil {
		close(f.views)
		f.views = nil
	}
}

func (f *fakeEngine) ToggleCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.toggleCalls
}

func (f *fakeEngine) DragCalls() []float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]float64(nil), f.dragCalls...)
}

func (f *fakeEngine) ForwardCalls() []time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]time.Duration(nil), f.fwdCalls...)
}

func (f *fakeEngine) BackwardCalls() []time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]time.Duration(nil), f.backCalls...)
}

func (f *fakeEngine) PushView(view session.View) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.view = view
	if f.views != nil {
		f.views <- view
	}
}

var _ iSessionEngine = (*fakeEngine)(nil)

func newTestServer(t *testing.T) (*httptest.Server, *fakeEngine) {
	t.Helper()

	engine := newFakeEngine(session.View{
		State:        "stopped",
		SliderValue:  0,
		PositionText: "0:00",
		DurationText: "4:00",
	})

	srv := httptest.NewServer(NewController(engine).GetMux())
	t.Cleanup(srv.Close)

	return srv, engine
}

func getJSON(t *testing.T, url string, dst any) *http.Response {
	t.Helper()

	resp, err := http.Get(url)
	require.NoError(t, err, "GET %s", url)
	defer resp.Body.Close()

	if dst != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(dst), "decode response body")
	}

	return resp
}

func postJSON(t *testing.T, url, body string, dst any) *http.Response {
	t.Helper()

	resp, err := http.Post(url, "application/json", bytes.NewReader([]byte(body)))
	require.NoError(t, err, "POST %s", url)
	defer resp.Body.Close()

	if dst != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(dst), "decode response body")
	}

	return resp
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/v1/healthz")
	require.NoError(t, err, "GET healthz")
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode, "healthz must answer 200")
}

func TestGetPlayer(t *testing.T) {
	srv, _ := newTestServer(t)

	var body struct {
		Data session.View `json:"data"`
	}
	resp := getJSON(t, srv.URL+"/api/v1/player", &body)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "stopped", body.Data.State)
	assert.Equal(t, "4:00", body.Data.DurationText)
}

func TestPostToggle(t *testing.T) {
	srv, engine := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/v1/player/toggle", "", nil)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, engine.ToggleCalls(), "toggle must reach the engine")
}

func TestPostDrag(t *testing.T) {
	srv, engine := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/v1/player/drag", `{"value": 0.5}`, nil)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []float64{0.5}, engine.DragCalls(), "drag value must reach the engine")
}

func TestPostDrag_ZeroValueIsValid(t *testing.T) {
	srv, engine := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/v1/player/drag", `{"value": 0}`, nil)

	assert.Equal(t, http.StatusOK, resp.StatusCode, "a drag to 0 is a legitimate gesture")
	assert.Equal(t, []float64{0}, engine.DragCalls())
}

func TestPostDrag_RejectsMalformedBody(t *testing.T) {
	srv, engine := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/v1/player/drag", `{not json`, nil)

	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Empty(t, engine.DragCalls(), "malformed body must not reach the engine")
}

func TestPostDrag_RejectsOutOfRangeValue(t *testing.T) {
	srv, engine := newTestServer(t)

	var body struct {
		Errors []struct {
			Field string `json:"field"`
			Code  string `json:"code"`
		} `json:"errors"`
	}
	resp := postJSON(t, srv.URL+"/api/v1/player/drag", `{"value": 1.5}`, &body)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Len(t, body.Errors, 1)
	assert.Equal(t, "value", body.Errors[0].Field)
	assert.Empty(t, engine.DragCalls(), "invalid value must not reach the engine")
}

func TestPostDrag_RejectsMissingValue(t *testing.T) {
	srv, engine := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/v1/player/drag", `{}`, nil)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Empty(t, engine.DragCalls())
}

func TestPostSeek(t *testing.T) {
	srv, engine := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/v1/player/seek-forward", `{"seconds": 15}`, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []time.Duration{15 * time.Second}, engine.ForwardCalls())

	resp = postJSON(t, srv.URL+"/api/v1/player/seek-backward", `{"seconds": 7.5}`, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []time.Duration{7500 * time.Millisecond}, engine.BackwardCalls())
}

func TestPostSeek_RejectsNonPositiveSeconds(t *testing.T) {
	srv, engine := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/v1/player/seek-forward", `{"seconds": -3}`, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = postJSON(t, srv.URL+"/api/v1/player/seek-backward", `{"seconds": 0}`, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	assert.Empty(t, engine.ForwardCalls())
	assert.Empty(t, engine.BackwardCalls())
}

func dialWS(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/player/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err, "dial %s", url)
	if resp != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })

	return conn
}

func readOutput(t *testing.T, conn *websocket.Conn) (string, json.RawMessage) {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var msg struct {
		Type    string          `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}
	require.NoError(t, conn.ReadJSON(&msg), "read websocket output")

	return msg.Type, msg.Payload
}

func TestWS_PushesViewOnConnectAndOnChange(t *testing.T) {
	srv, engine := newTestServer(t)
	conn := dialWS(t, srv)

	msgType, payload := readOutput(t, conn)
	assert.Equal(t, "PLAYER_UPDATED", msgType)

	var view session.View
	require.NoError(t, json.Unmarshal(payload, &view))
	assert.Equal(t, "stopped", view.State, "connecting must push the current view first")

	engine.PushView(session.View{State: "playing", IsPlaying: true, SliderValue: 0.25, PositionText: "1:00", DurationText: "4:00"})

	msgType, payload = readOutput(t, conn)
	assert.Equal(t, "PLAYER_UPDATED", msgType)
	require.NoError(t, json.Unmarshal(payload, &view))
	assert.True(t, view.IsPlaying)
	assert.Equal(t, 0.25, view.SliderValue)
}

func TestWS_GesturesReachEngine(t *testing.T) {
	srv, engine := newTestServer(t)
	conn := dialWS(t, srv)

	// initial view push
	readOutput(t, conn)

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "PLAYER_TOGGLE"}))
	require.NoError(t, conn.WriteJSON(map[string]any{"type": "PLAYER_SLIDER_DRAG", "payload": map[string]any{"value": 0.75}}))
	require.NoError(t, conn.WriteJSON(map[string]any{"type": "PLAYER_SEEK_FORWARD", "payload": map[string]any{"seconds": 30}}))
	require.NoError(t, conn.WriteJSON(map[string]any{"type": "PLAYER_SEEK_BACKWARD", "payload": map[string]any{"seconds": 10}}))
	require.NoError(t, conn.WriteJSON(map[string]any{"type": "ALIVE"}))

	assert.Eventually(t, func() bool {
		return engine.ToggleCalls() == 1 &&
			len(engine.DragCalls()) == 1 &&
			len(engine.ForwardCalls()) == 1 &&
			len(engine.BackwardCalls()) == 1
	}, 2*time.Second, 10*time.Millisecond, "all gestures must reach the engine")

	assert.Equal(t, []float64{0.75}, engine.DragCalls())
	assert.Equal(t, []time.Duration{30 * time.Second}, engine.ForwardCalls())
	assert.Equal(t, []time.Duration{10 * time.Second}, engine.BackwardCalls())
}

func TestWS_InvalidPayloadAnswersValidationError(t *testing.T) {
	srv, engine := newTestServer(t)
	conn := dialWS(t, srv)

	readOutput(t, conn)

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "PLAYER_SLIDER_DRAG", "payload": map[string]any{"value": 2}}))

	msgType, payload := readOutput(t, conn)
	assert.Equal(t, "VALIDATION_ERROR", msgType)

	var body struct {
		Errors []struct {
			Field string `json:"field"`
		} `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(payload, &body))
	require.Len(t, body.Errors, 1)
	assert.Equal(t, "value", body.Errors[0].Field)

	assert.Empty(t, engine.DragCalls(), "invalid drag must not reach the engine")
}

func TestWS_UnknownTypeAnswersError(t *testing.T) {
	srv, _ := newTestServer(t)
	conn := dialWS(t, srv)

	readOutput(t, conn)

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "REWIND_TAPE"}))

	msgType, payload := readOutput(t, conn)
	assert.Equal(t, "ERROR", msgType)
	assert.Contains(t, string(payload), "REWIND_TAPE")
}

func TestWS_FeedbackStillFlowsAfterEngineStops(t *testing.T) {
	srv, engine := newTestServer(t)
	conn := dialWS(t, srv)

	readOutput(t, conn)

	engine.Stop()
	time.Sleep(50 * time.Millisecond)

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "REWIND_TAPE"}))

	msgType, _ := readOutput(t, conn)
	assert.Equal(t, "ERROR", msgType, "the write side must outlive the view stream")
}
