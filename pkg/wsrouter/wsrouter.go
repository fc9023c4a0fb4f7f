package wsrouter

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/gorilla/websocket"
)

type message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type HandlerFunc func(ctx context.Context, conn *websocket.Conn, payload json.RawMessage)

type WSRouter struct {
	routes   map[string]HandlerFunc
	notFound HandlerFunc
}

func New() *WSRouter {
	return &WSRouter{routes: make(map[string]HandlerFunc)}
}

func (r *WSRouter) Handle(messageType string, handler HandlerFunc) {
	r.routes[messageType] = handler
}

// NotFound sets the handler invoked for message types without a route. The
// message type is available through GetMessageTypeFromCtx.
func (r *WSRouter) NotFound(handler HandlerFunc) {
	r.notFound = handler
}

// ServeConn reads messages from the connection until reading fails and routes
// each one by type. Handlers must not write to the connection, writes belong
// to the connection's single writer goroutine.
func (r *WSRouter) ServeConn(ctx context.Context, conn *websocket.Conn) error {
	defer conn.Close()

	for {
		var msg message
		if err := conn.ReadJSON(&msg); err != nil {
			return err
		}

		msgCtx := context.WithValue(ctx, messageTypeKey, msg.Type)

		if handler, exists := r.routes[msg.Type]; exists {
			handler(msgCtx, conn, msg.Payload)
		} else if r.notFound != nil {
			r.notFound(msgCtx, conn, msg.Payload)
		} else {
			slog.WarnContext(ctx, "WSRouter:ServeConn", "error", "unknown message type", "type", msg.Type)
		}
	}
}
