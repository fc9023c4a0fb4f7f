package controller

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/auxroom/syncd/internal/service/session"
	"github.com/gorilla/websocket"
)

const outputBuffer = 16

// attachPlayer upgrades the request to a websocket and serves it until either
// side goes away. Reads happen on this goroutine via the ws router; all
// writes, view pushes and handler feedback alike, go through one writer
// goroutine so the connection never sees concurrent writers.
func (c controller) attachPlayer(w http.ResponseWriter, r *http.Request) {
	funcName := "controller:attachPlayer"

	conn, err := c.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.WarnContext(r.Context(), funcName, "error", fmt.Errorf("failed to upgrade to websocket: %w", err))
		return
	}

	views := c.engine.Subscribe()

	out := make(chan Output, outputBuffer)
	writerCtx, stopWriter := context.WithCancel(r.Context())
	writerDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		c.writeLoop(writerCtx, conn, views, out)
	}()

	if err := c.getWSRouter(out).ServeConn(r.Context(), conn); err != nil {
		slog.InfoContext(r.Context(), funcName, "error", fmt.Errorf("failed to serve conn: %w", err))
	}

	stopWriter()
	<-writerDone
	c.engine.Unsubscribe(views)
}

// writeLoop owns the connection's write side. A failed write closes the
// connection, which unblocks the read loop; the loop itself keeps draining
// its channels until the context is cancelled so senders never block on a
// dead connection.
func (c controller) writeLoop(ctx context.Context, conn *websocket.Conn, views <-chan session.View, out <-chan Output) {
	funcName := "controller:writeLoop"

	for {
		select {
		case <-ctx.Done():
			return
		case view, ok := <-views:
			if !ok {
				// The engine is gone; keep writing handler feedback until
				// the connection winds down.
				views = nil
				continue
			}

			if err := conn.WriteJSON(&Output{
				Type:    "PLAYER_UPDATED",
				Payload: view,
			}); err != nil {
				slog.DebugContext(ctx, funcName, "error", fmt.Errorf("failed to write player updated: %w", err))
				conn.Close()
			}
		case output := <-out:
			if err := conn.WriteJSON(&output); err != nil {
				slog.DebugContext(ctx, funcName, "error", fmt.Errorf("failed to write output: %w", err))
				conn.Close()
			}
		}
	}
}
