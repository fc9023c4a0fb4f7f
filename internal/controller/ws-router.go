package controller

import (
	"context"
	"encoding/json"

	"github.com/auxroom/syncd/pkg/wsrouter"
	"github.com/gorilla/websocket"
)

type boundHandlerFunc func(ctx context.Context, out chan<- Output, payload json.RawMessage)

// getWSRouter binds every handler to the connection's outbound channel so
// handler feedback goes through the writer goroutine instead of the
// connection itself.
func (c controller) getWSRouter(out chan<- Output) *wsrouter.WSRouter {
	bind := func(handler boundHandlerFunc) wsrouter.HandlerFunc {
		return func(ctx context.Context, _ *websocket.Conn, payload json.RawMessage) {
			handler(ctx, out, payload)
		}
	}

	mux := wsrouter.New()

	mux.NotFound(bind(c.handleUnknown))
	mux.Handle("ALIVE", bind(c.handleAlive))

	// player
	mux.Handle("PLAYER_TOGGLE", bind(c.handleToggle))
	mux.Handle("PLAYER_SLIDER_DRAG", bind(c.handleSliderDrag))
	mux.Handle("PLAYER_SEEK_FORWARD", bind(c.handleSeekForward))
	mux.Handle("PLAYER_SEEK_BACKWARD", bind(c.handleSeekBackward))

	return mux
}
